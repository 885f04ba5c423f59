// Package router decides where a navigation may land. Guard is the stateless
// rule; Navigator owns the current location and is the only component that
// reacts to a rejected session.
package router

import (
	"path"
	"strings"
	"sync"

	"techdocs/pkg/logger"
	"techdocs/socket"
)

const (
	HomePath      = "/"
	DocumentsPath = "/documents"
	ServicesPath  = "/services"
	DiagramsPath  = "/diagrams"
	LoginPath     = "/login"
	RegisterPath  = "/register"
)

// RouteAnnotation is the cobra annotation naming the route a command opens.
const RouteAnnotation = "techdocs/route"

type Route struct {
	Path         string
	Name         string
	RequiresAuth bool
}

var routes = []Route{
	{Path: HomePath, Name: "Home", RequiresAuth: true},
	{Path: DocumentsPath, Name: "Documents", RequiresAuth: true},
	{Path: ServicesPath, Name: "Services", RequiresAuth: true},
	{Path: DiagramsPath, Name: "Diagrams", RequiresAuth: true},
	{Path: LoginPath, Name: "Login", RequiresAuth: false},
	{Path: RegisterPath, Name: "Register", RequiresAuth: false},
}

func Routes() []Route {
	return append([]Route(nil), routes...)
}

// Lookup finds the route for target. Unknown paths come back as a route that
// requires authentication.
func Lookup(target string) (Route, bool) {
	p := Clean(target)
	for _, r := range routes {
		if r.Path == p {
			return r, true
		}
	}
	return Route{Path: p, RequiresAuth: true}, false
}

func Clean(target string) string {
	target = strings.TrimSpace(target)
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	if target == "" {
		return HomePath
	}
	return path.Clean("/" + target)
}

type Authenticator interface {
	IsAuthenticated() bool
}

// Decision is the outcome of a guard check. Redirect is empty when the
// navigation may proceed.
type Decision struct {
	Target   string
	Redirect string
}

func (d Decision) Allowed() bool { return d.Redirect == "" }

// Destination is where the navigation actually ends up.
func (d Decision) Destination() string {
	if d.Redirect != "" {
		return d.Redirect
	}
	return d.Target
}

type Guard struct {
	Auth Authenticator
}

func NewGuard(auth Authenticator) *Guard {
	return &Guard{Auth: auth}
}

func (g *Guard) Resolve(target string) Decision {
	route, _ := Lookup(target)
	d := Decision{Target: route.Path}
	authenticated := g.Auth.IsAuthenticated()

	switch {
	case route.RequiresAuth && !authenticated:
		d.Redirect = LoginPath
	case !route.RequiresAuth && authenticated:
		d.Redirect = HomePath
	}
	return d
}

// Navigator holds the current location. Navigation requests go through the
// guard; UNAUTHORIZED events move it to the login page.
type Navigator struct {
	Guard *Guard
	// OnUnauthorized runs after the navigator moved to LoginPath because the
	// server rejected the session.
	OnUnauthorized func(ev socket.Event)

	mu      sync.RWMutex
	current string
	wg      sync.WaitGroup
}

func NewNavigator(guard *Guard) *Navigator {
	return &Navigator{Guard: guard}
}

func (n *Navigator) Navigate(target string) Decision {
	d := n.Guard.Resolve(target)
	if !d.Allowed() {
		logger.Sugar.Debugf("Navigation to %s redirected to %s", d.Target, d.Redirect)
	}
	n.mu.Lock()
	n.current = d.Destination()
	n.mu.Unlock()
	return d
}

func (n *Navigator) Current() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// Watch consumes sub's events in the background until the subscriber is
// closed.
func (n *Navigator) Watch(sub *socket.Subscriber) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sub.Listen(n.handle)
	}()
}

// Wait blocks until every watched subscriber has been drained.
func (n *Navigator) Wait() {
	n.wg.Wait()
}

func (n *Navigator) handle(ev socket.Event) {
	if ev.Type != socket.UnauthorizedType {
		return
	}
	n.mu.Lock()
	n.current = LoginPath
	n.mu.Unlock()

	logger.Sugar.Infof("Session rejected by the server on %s, navigating to %s", ev.Message, LoginPath)
	if n.OnUnauthorized != nil {
		n.OnUnauthorized(ev)
	}
}
