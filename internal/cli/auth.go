package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/wishlist/internal/api"
	"github.com/idilsaglam/wishlist/internal/store/tokenstore"
	"github.com/idilsaglam/wishlist/internal/ui"
	"github.com/idilsaglam/wishlist/internal/wishlist"
)

func loginCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and store the session token",
		Args:  args(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			p := newPrompter(a.streams.In, a.streams.Err)
			username := ""
			if len(argv) == 1 {
				username = strings.TrimSpace(argv[0])
			}
			var err error
			if username == "" {
				if username, err = p.line("Username"); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = p.secret("Password"); err != nil {
					return err
				}
			}
			if username == "" || password == "" {
				return usagef("login: username and password are required")
			}

			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.session.Login(ctx, username, password); err != nil {
				if api.IsUnauthorized(err) {
					return fmt.Errorf("%s", api.Message(err, "Failed to login. Please check your credentials."))
				}
				return err
			}
			a.ok("logged in as " + username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func registerCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "register [username]",
		Short: "Create an account",
		Args:  args(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			p := newPrompter(a.streams.In, a.streams.Err)
			username := ""
			if len(argv) == 1 {
				username = strings.TrimSpace(argv[0])
			}
			var err error
			if username == "" {
				if username, err = p.line("Username"); err != nil {
					return err
				}
			}
			if email == "" {
				if email, err = p.line("Email"); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = p.secret("Password"); err != nil {
					return err
				}
			}
			if username == "" || email == "" || password == "" {
				return usagef("register: username, email and password are required")
			}

			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.session.Register(ctx, username, email, password); err != nil {
				return err
			}
			a.ok(fmt.Sprintf("registered %s, now run `wishlist login %s`", username, username))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address (prompted when omitted)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			fromEnv := a.session.Source() == tokenstore.SourceEnv
			a.wishes.Invalidate(cmd.Context())
			if err := a.session.Logout(); err != nil {
				return err
			}
			a.ok("logged out")
			if fromEnv {
				ui.Warn(a.streams.Err, tokenstore.EnvVar+" is still set and will log you back in")
			}
			return nil
		},
	}
}

type statusReport struct {
	API       string     `json:"api"`
	LoggedIn  bool       `json:"logged_in"`
	Source    string     `json:"source,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
	Username  string     `json:"username,omitempty"`
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the server and the login state",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := statusReport{API: a.cfg.API.URL, LoggedIn: a.session.IsAuthenticated(), Source: a.session.Source()}
			if tok := a.session.Token(); tok != "" {
				r.ExpiresAt = tokenstore.ExpiryOf(tok)
				r.Expired = r.ExpiresAt != nil && r.ExpiresAt.Before(time.Now())
				ctx, cancel := a.ctx(cmd)
				defer cancel()
				if err := a.session.Ensure(ctx); err != nil {
					a.log.WithError(err).Debug("status: profile")
				}
				if u := a.session.User(); u != nil {
					r.Username = u.Username
				}
				r.LoggedIn = a.session.IsAuthenticated()
			}
			if a.flags.json {
				return a.printJSON(r)
			}

			t := ui.Current()
			lines := []string{t.Title.Render("Wishlist status"), "API:       " + r.API}
			switch {
			case !r.LoggedIn:
				lines = append(lines, "Session:   "+t.Muted.Render("not logged in"))
			case r.Username != "":
				lines = append(lines, "Session:   "+t.Success.Render("logged in as "+r.Username))
			default:
				lines = append(lines, "Session:   "+t.Pending.Render("token present, profile unavailable"))
			}
			if r.Source != "" {
				lines = append(lines, "Token:     "+r.Source)
			}
			if r.ExpiresAt != nil {
				exp := r.ExpiresAt.Local().Format(time.RFC1123)
				if r.Expired {
					exp = t.Error.Render(exp + " (expired)")
				}
				lines = append(lines, "Expires:   "+exp)
			}
			a.println(ui.Panel(lines))
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	var claims bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Print the logged in user",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			if claims {
				c, err := tokenstore.Claims(a.session.Token())
				if err != nil {
					a.println("Opaque token (cannot introspect locally).")
					return nil
				}
				return a.printJSON(c)
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.session.FetchProfile(ctx); err != nil {
				return err
			}
			u := a.session.User()
			if a.flags.json {
				return a.printJSON(u)
			}
			a.println(u.Username)
			return nil
		},
	}
	cmd.Flags().BoolVar(&claims, "claims", false, "print the token claims without asking the server")
	return cmd
}

func profileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show your profile and activity summary",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.session.FetchProfile(ctx); err != nil {
				return err
			}
			raw, err := a.wishes.Load(ctx, wishlist.Query{})
			if err != nil {
				return err
			}
			u, s := a.session.User(), wishlist.StatsOf(raw)
			if a.flags.json {
				return a.printJSON(map[string]any{
					"user":            u,
					"stats":           s,
					"completion_rate": s.CompletionRate(),
				})
			}
			t := ui.Current()
			a.println(ui.Panel([]string{
				t.Title.Render("Your Profile"),
				"Username:  " + u.Username,
				"Email:     " + u.Email,
				fmt.Sprintf("User ID:   %d", u.ID),
				"",
				t.Title.Render("Activity Summary"),
				fmt.Sprintf("Total wishes:      %d", s.Total),
				fmt.Sprintf("Completed wishes:  %d", s.Completed),
				fmt.Sprintf("Pending wishes:    %d", s.Pending),
				"Completion rate:   " + ui.ProgressBar(s.Completed, s.Total, 24),
			}))
			return nil
		},
	}
}
