// Package cli is the wishlist command line: a cobra command tree over the
// session, the wishes API and the interactive TUI.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/wishlist/internal/api"
	"github.com/idilsaglam/wishlist/internal/cache"
	"github.com/idilsaglam/wishlist/internal/config"
	"github.com/idilsaglam/wishlist/internal/logging"
	"github.com/idilsaglam/wishlist/internal/session"
	"github.com/idilsaglam/wishlist/internal/store/tokenstore"
	"github.com/idilsaglam/wishlist/internal/ui"
	"github.com/idilsaglam/wishlist/internal/wishlist"
)

// globalFlags are the persistent flags of the root command.
type globalFlags struct {
	configPath string
	apiURL     string
	theme      string
	verbose    bool
	json       bool
	noColor    bool
}

// app is everything a command needs, built once per invocation.
type app struct {
	streams Streams
	flags   *globalFlags

	cfg    *config.Config
	log    *logrus.Logger
	closer io.Closer
	cache  cache.Cache

	client  *api.Client
	wishAPI *api.WishAPI
	session *session.Session
	wishes  *wishlist.Service
}

func (a *app) setup() error {
	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return err
	}
	if a.flags.apiURL != "" {
		cfg.API.URL = a.flags.apiURL
	}
	if a.flags.theme != "" {
		cfg.UI.Theme = a.flags.theme
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if err := ui.SetTheme(cfg.UI.Theme); err != nil {
		return usagef("%v", err)
	}
	if a.flags.noColor {
		ui.SetColorForcing(false, true)
	}

	logOpt := logging.Options{Level: cfg.Log.Level, Stderr: a.streams.Err}
	if a.flags.verbose {
		logOpt.Level = "debug"
	} else if logOpt.File, err = cfg.LogFile(); err != nil {
		return err
	}
	if a.log, a.closer, err = logging.New(logOpt); err != nil {
		return err
	}

	store, err := a.tokenStore()
	if err != nil {
		return err
	}
	if a.cache, err = cache.New(cfg.Cache.Driver, cfg.Cache.RedisURL); err != nil {
		return err
	}

	a.client = api.New(cfg.API.URL,
		api.WithTimeout(cfg.Timeout()),
		api.WithLogger(a.log),
		api.WithUserAgent(cfg.API.UserAgent),
	)
	a.session, err = session.New(api.NewAuthAPI(a.client), store,
		session.WithLogger(a.log),
		session.WithNavigator(session.NavigatorFunc(func(r session.Route) {
			a.log.WithField("route", r).Debug("navigate")
		})),
	)
	if err != nil {
		return err
	}
	a.client.SetTokenSource(a.session)
	a.client.SetAuthExpiredHandler(a.session.Expire)

	a.wishAPI = api.NewWishAPI(a.client)
	a.wishes = wishlist.NewService(a.wishAPI,
		wishlist.WithCache(a.cache, cfg.CacheTTL()),
		wishlist.WithTokenSource(a.session),
		wishlist.WithLogger(a.log),
	)
	a.log.WithFields(logrus.Fields{"api": cfg.API.URL, "cache": cfg.Cache.Driver}).Debug("wishlist ready")
	return nil
}

func (a *app) tokenStore() (tokenstore.Store, error) {
	path, err := a.cfg.TokenFile()
	if err != nil {
		return nil, err
	}
	switch a.cfg.Auth.Backend {
	case "keyring":
		k, err := tokenstore.OpenKeyring(filepath.Dir(path))
		if err != nil {
			return nil, err
		}
		return tokenstore.WithEnv(k), nil
	default:
		return tokenstore.WithEnv(tokenstore.NewFile(path)), nil
	}
}

func (a *app) close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

func (a *app) ctx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.cfg.Timeout())
}

// requireLogin fails early instead of sending an anonymous request.
func (a *app) requireLogin() error {
	if a.session.Token() == "" {
		return fmt.Errorf("%w: run `wishlist login` first", session.ErrNoToken)
	}
	return nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.streams.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) ok(msg string) { ui.OK(a.streams.Out, msg) }

func (a *app) println(s string) { fmt.Fprintln(a.streams.Out, s) }
