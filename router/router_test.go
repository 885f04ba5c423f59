package router

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"techdocs/socket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct{ ok atomic.Bool }

func (f *fakeAuth) IsAuthenticated() bool { return f.ok.Load() }

func authAs(v bool) *fakeAuth {
	f := &fakeAuth{}
	f.ok.Store(v)
	return f
}

func TestGuardResolve(t *testing.T) {
	tests := []struct {
		name          string
		target        string
		authenticated bool
		wantRedirect  string
		wantTarget    string
	}{
		{"protected while anonymous", "/documents", false, LoginPath, DocumentsPath},
		{"protected while signed in", "/documents", true, "", DocumentsPath},
		{"home while anonymous", "/", false, LoginPath, HomePath},
		{"public while anonymous", "/login", false, "", LoginPath},
		{"public while signed in", "/register", true, HomePath, RegisterPath},
		{"trailing slash", "/services/", true, "", ServicesPath},
		{"query string", "/diagrams?tab=2", false, LoginPath, DiagramsPath},
		{"unknown while anonymous", "/nowhere", false, LoginPath, "/nowhere"},
		{"unknown while signed in", "/nowhere", true, "", "/nowhere"},
		{"empty target", "", true, "", HomePath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewGuard(authAs(tt.authenticated)).Resolve(tt.target)
			assert.Equal(t, tt.wantRedirect, d.Redirect)
			assert.Equal(t, tt.wantTarget, d.Target)
			assert.Equal(t, tt.wantRedirect == "", d.Allowed())
		})
	}
}

func TestRoutes(t *testing.T) {
	rs := Routes()
	require.Len(t, rs, 6)
	rs[0].RequiresAuth = false

	r, ok := Lookup("/")
	require.True(t, ok)
	assert.True(t, r.RequiresAuth)
	assert.Equal(t, "Home", r.Name)
}

func TestNavigatorNavigate(t *testing.T) {
	auth := authAs(false)
	nav := NewNavigator(NewGuard(auth))

	d := nav.Navigate("/documents")
	assert.False(t, d.Allowed())
	assert.Equal(t, LoginPath, nav.Current())

	auth.ok.Store(true)
	nav.Navigate("/documents")
	assert.Equal(t, DocumentsPath, nav.Current())

	nav.Navigate("/login")
	assert.Equal(t, HomePath, nav.Current())
}

func TestNavigatorFollowsUnauthorizedEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := socket.NewHub()
	go hub.Run(ctx)

	auth := authAs(true)
	nav := NewNavigator(NewGuard(auth))
	seen := make(chan socket.Event, 1)
	nav.OnUnauthorized = func(ev socket.Event) { seen <- ev }
	nav.Watch(hub.Subscribe(4))

	nav.Navigate("/documents")
	require.Equal(t, DocumentsPath, nav.Current())

	hub.Publish(ctx, socket.Event{Type: socket.SessionType, State: "login"})
	hub.Publish(ctx, socket.Event{Type: socket.UnauthorizedType, Message: "/api/documents"})

	select {
	case ev := <-seen:
		assert.Equal(t, "/api/documents", ev.Message)
	case <-time.After(time.Second):
		t.Fatal("navigator did not react to UNAUTHORIZED")
	}
	assert.Equal(t, LoginPath, nav.Current())

	cancel()
	nav.Wait()
}
