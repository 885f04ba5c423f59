package handler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"techdocs/internal/auth/model"
	"techdocs/internal/auth/service"
	"techdocs/pkg/printer"
	"techdocs/router"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type AuthHandler struct {
	Session *service.SessionService
	Printer *printer.Printer
}

func NewAuthHandler(session *service.SessionService, p *printer.Printer) *AuthHandler {
	return &AuthHandler{Session: session, Printer: p}
}

func (h *AuthHandler) Commands() []*cobra.Command {
	return []*cobra.Command{h.loginCommand(), h.registerCommand(), h.logoutCommand(), h.whoamiCommand()}
}

func (h *AuthHandler) loginCommand() *cobra.Command {
	var creds model.Credentials
	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Sign in and store the session",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{router.RouteAnnotation: router.LoginPath},
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if creds.Username == "" {
				if creds.Username, err = promptLine(cmd, in, "Username: "); err != nil {
					return h.Printer.Fail("Login failed", err)
				}
			}
			if creds.Password == "" {
				if creds.Password, err = readPassword(cmd, in); err != nil {
					return h.Printer.Fail("Login failed", err)
				}
			}

			if err := h.Session.Login(cmd.Context(), creds); err != nil {
				return h.Printer.Fail("Login failed", err, "Check your username and password and try again.")
			}
			user, _ := h.Session.User()
			h.Printer.Success("Logged in as %s", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "account name (prompted when omitted)")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func (h *AuthHandler) registerCommand() *cobra.Command {
	var req model.RegisterRequest
	cmd := &cobra.Command{
		Use:         "register",
		Short:       "Create an account and sign in",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{router.RouteAnnotation: router.RegisterPath},
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				var err error
				if req.Password, err = readPassword(cmd, bufio.NewReader(cmd.InOrStdin())); err != nil {
					return h.Printer.Fail("Registration failed", err)
				}
			}

			if err := h.Session.Register(cmd.Context(), req); err != nil {
				return h.Printer.Fail("Registration failed", err)
			}
			h.Printer.Success("Registered and logged in as %s", req.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "contact address")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (h *AuthHandler) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			h.Session.Logout(cmd.Context())
			h.Printer.Success("Logged out")
		},
	}
}

type whoami struct {
	ID        int64      `json:"id" yaml:"id"`
	Username  string     `json:"username" yaml:"username"`
	Email     string     `json:"email" yaml:"email"`
	Role      string     `json:"role,omitempty" yaml:"role,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

func (h *AuthHandler) whoamiCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:         "whoami",
		Short:       "Show the signed-in user",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{router.RouteAnnotation: router.HomePath},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := printer.ValidFormat(output); err != nil {
				return h.Printer.Fail("Invalid output format", err)
			}
			user, _ := h.Session.User()
			info := whoami{ID: user.ID, Username: user.Username, Email: user.Email, Role: user.Role}
			if exp, ok := h.Session.ExpiresAt(); ok {
				info.ExpiresAt = &exp
			}

			return h.Printer.Render(output, info, func(w io.Writer) {
				printer.Row(w, "USERNAME", orDash(info.Username))
				printer.Row(w, "EMAIL", orDash(info.Email))
				printer.Row(w, "ROLE", orDash(info.Role))
				if info.ExpiresAt != nil {
					printer.Row(w, "EXPIRES", info.ExpiresAt.Local().Format(time.RFC1123))
				}
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", printer.FormatTable, "output format: table, json or yaml")
	return cmd
}

func promptLine(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(strings.TrimSuffix(label, ": ")), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassword reads with echo disabled on a terminal and falls back to a
// plain line when input is piped.
func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return promptLine(cmd, in, "Password: ")
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
