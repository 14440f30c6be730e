// Command wishmock serves an in-memory wishlist API for local development
// and demos of the client.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/wishlist/internal/fakeapi"
	"github.com/idilsaglam/wishlist/internal/logging"
	"github.com/idilsaglam/wishlist/internal/model"
)

func main() {
	var (
		addr     string
		shape    string
		secret   string
		tokenTTL time.Duration
		user     string
		password string
		seed     bool
		level    string
	)

	rootCmd := &cobra.Command{
		Use:          "wishmock",
		Short:        "Run a fake wishlist API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, _, err := logging.New(logging.Options{Level: level})
			if err != nil {
				return err
			}
			opts := []fakeapi.Option{fakeapi.WithShape(fakeapi.Shape(shape)), fakeapi.WithLogger(log)}
			if secret != "" {
				opts = append(opts, fakeapi.WithSecret(secret))
			}
			if tokenTTL > 0 {
				opts = append(opts, fakeapi.WithTokenTTL(tokenTTL))
			}
			fake := fakeapi.New(opts...)
			if user != "" {
				fake.AddUser(user, user+"@example.com", password)
				if seed {
					seedWishes(fake, user)
				}
			}

			srv := &http.Server{Addr: addr, Handler: fake.Handler(), ReadHeaderTimeout: 5 * time.Second}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdown)
			}()

			log.WithFields(logrus.Fields{"addr": addr, "shape": shape}).Info("wishmock listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&addr, "addr", ":8080", "listen address")
	f.StringVar(&shape, "shape", string(fakeapi.ShapeArray), "list payload shape: array, wishes, content or bogus")
	f.StringVar(&secret, "secret", "", "HS256 signing secret")
	f.DurationVar(&tokenTTL, "token-ttl", 0, "token lifetime (default 24h)")
	f.StringVar(&user, "user", "demo", "account created at startup, empty for none")
	f.StringVar(&password, "password", "demo", "password of --user")
	f.BoolVar(&seed, "seed", true, "add a few wishes for --user")
	f.StringVar(&level, "log-level", "info", "log level")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func seedWishes(fake *fakeapi.Server, owner string) {
	due := model.NewLocalTime(time.Now().AddDate(0, 0, 14).Truncate(24 * time.Hour))
	past := model.NewLocalTime(time.Now().AddDate(0, 0, -3).Truncate(24 * time.Hour))
	for _, w := range []model.Wish{
		{Title: "Road bike", Description: "Carbon frame, 56cm", Category: "Sport", Priority: model.PriorityHigh, DueDate: due},
		{Title: "Running shoes", Category: "Sport", Priority: model.PriorityMedium},
		{Title: "Dune", Description: "Frank Herbert, hardcover", Category: "Books", Completed: true},
		{Title: "Espresso machine", Category: "Home", Priority: model.PriorityMedium, DueDate: past},
		{Title: "Learn the cello"},
	} {
		fake.AddWish(owner, w)
	}
}
