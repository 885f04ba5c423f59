package handlers

import (
	"context"
	"fmt"
	"io"

	"techdocs/config"
	authrepo "techdocs/internal/auth/repository"
	authservice "techdocs/internal/auth/service"
	docrepo "techdocs/internal/document/repository"
	docservice "techdocs/internal/document/service"
	"techdocs/pkg/apiclient"
	"techdocs/pkg/logger"
	"techdocs/pkg/printer"
	"techdocs/router"
	"techdocs/socket"
	"techdocs/store"
)

// App is one process's worth of client state: the session, the document
// cache and the navigator, all sharing one event hub and one store.
type App struct {
	Config    config.Config
	Store     store.Store
	Hub       *socket.Hub
	Session   *authservice.SessionService
	API       *apiclient.Client
	Documents *docservice.DocumentService
	Navigator *router.Navigator
	Printer   *printer.Printer
	// Stdin overrides the input commands prompt from.
	Stdin io.Reader

	cancel context.CancelFunc
}

// Open connects the configured store and builds the App on top of it.
func Open(ctx context.Context, cfg config.Config, p *printer.Printer) (*App, error) {
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app, err := NewApp(ctx, cfg, st, p)
	if err != nil {
		st.Close()
		return nil, err
	}
	return app, nil
}

// NewApp wires the components around st. The App owns st from here on and
// closes it in Close.
func NewApp(ctx context.Context, cfg config.Config, st store.Store, p *printer.Printer) (*App, error) {
	ctx, cancel := context.WithCancel(ctx)

	hub := socket.NewHub()
	go hub.Run(ctx)

	keys := store.Keys{Token: cfg.Auth.TokenKey, User: cfg.Auth.UserKey}
	session := authservice.NewSessionService(st, keys, hub)
	if err := session.Hydrate(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("restore session: %w", err)
	}

	api, err := apiclient.New(apiclient.Options{
		BaseURL: cfg.API.BaseURL,
		Tokens:  session,
		Evictor: session,
		Hub:     hub,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	session.Repo = authrepo.NewAuthRepository(api)

	nav := router.NewNavigator(router.NewGuard(session))
	nav.OnUnauthorized = func(ev socket.Event) {
		if ev.SessionLost {
			p.Warning("Session expired, run techdocs login")
		}
	}
	nav.Watch(hub.Subscribe(32))

	logger.Sugar.Debugf("Client ready for %s (authenticated: %t)", cfg.API.BaseURL, session.IsAuthenticated())
	return &App{
		Config:    cfg,
		Store:     st,
		Hub:       hub,
		Session:   session,
		API:       api,
		Documents: docservice.NewDocumentService(docrepo.NewDocumentRepository(api), hub),
		Navigator: nav,
		Printer:   p,
		cancel:    cancel,
	}, nil
}

// Close stops the hub, waits until the navigator handled every pending event
// and closes the store.
func (a *App) Close() error {
	a.cancel()
	<-a.Hub.Done()
	a.Navigator.Wait()
	return a.Store.Close()
}
