package handlers

import (
	"context"
	"errors"

	authhandler "techdocs/internal/auth"
	"techdocs/internal/catalog"
	dochandler "techdocs/internal/document"
	"techdocs/pkg/printer"
	"techdocs/router"

	"github.com/spf13/cobra"
)

// ErrAlreadySignedIn stops a login or register command when a session
// exists. Execute treats it as success.
var ErrAlreadySignedIn = errors.New("already signed in")

func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "techdocs",
		Short:         app.Config.App.Name,
		Long:          app.Config.App.Description,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return guard(app, cmd)
		},
	}
	root.SetOut(app.Printer.Out)
	root.SetErr(app.Printer.Err)
	if app.Stdin != nil {
		root.SetIn(app.Stdin)
	}

	root.AddCommand(authhandler.NewAuthHandler(app.Session, app.Printer).Commands()...)
	root.AddCommand(dochandler.NewDocumentHandler(app.Documents, app.Printer).Command())
	root.AddCommand(catalog.Command(app.Printer))
	return root
}

// guard runs the route check for the route cmd (or its nearest ancestor)
// is annotated with. Commands without a route always run.
func guard(app *App, cmd *cobra.Command) error {
	route, ok := routeOf(cmd)
	if !ok {
		return nil
	}

	d := app.Navigator.Navigate(route)
	switch d.Redirect {
	case "":
		return nil
	case router.LoginPath:
		return app.Printer.Error("Login required", "This command needs a signed-in session.", []string{"Run: techdocs login"})
	default:
		user, _ := app.Session.User()
		app.Printer.Info("Already signed in as %s; run techdocs logout first to switch accounts.", user.Username)
		return ErrAlreadySignedIn
	}
}

func routeOf(cmd *cobra.Command) (string, bool) {
	for c := cmd; c != nil; c = c.Parent() {
		if r, ok := c.Annotations[router.RouteAnnotation]; ok {
			return r, true
		}
	}
	return "", false
}

// Execute runs the command line args against app. Guard redirects to the
// home route count as success; errors cobra raised itself (bad flags, unknown
// commands) are printed here.
func Execute(ctx context.Context, app *App, args []string) error {
	root := NewRootCommand(app)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	switch {
	case err == nil, errors.Is(err, ErrAlreadySignedIn):
		return nil
	case printer.Reported(err):
		return err
	}
	return app.Printer.Error(err.Error(), "", []string{"Run: techdocs --help"})
}
