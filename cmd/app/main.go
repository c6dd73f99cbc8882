package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	httpadapter "github.com/notDuyLam/myshop-wp/internal/adapters/http"
	"github.com/notDuyLam/myshop-wp/internal/domain"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := &cli.Command{
		Name:  "myshop",
		Usage: "Shop inventory management: catalog, orders and database settings",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", Value: defaultDataDir(), Usage: "directory holding settings, database config and key", Sources: cli.EnvVars("MYSHOP_DATA_DIR")},
			&cli.StringFlag{Name: "sqlite-path", Usage: "use a local SQLite file instead of the configured PostgreSQL server", Sources: cli.EnvVars("MYSHOP_SQLITE_PATH")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error", Sources: cli.EnvVars("MYSHOP_LOG_LEVEL")},
			&cli.BoolFlag{Name: "log-json", Usage: "emit JSON logs", Sources: cli.EnvVars("MYSHOP_LOG_JSON")},
			&cli.StringFlag{Name: "bootstrap-username", Value: "admin", Usage: "username accepted before an owner is provisioned", Sources: cli.EnvVars("MYSHOP_BOOTSTRAP_USERNAME")},
			&cli.StringFlag{Name: "bootstrap-password", Value: "admin123", Usage: "password accepted before an owner is provisioned", Sources: cli.EnvVars("MYSHOP_BOOTSTRAP_PASSWORD")},
		},
		Commands: []*cli.Command{
			serveCommand(),
			authCommand(),
			configCommand(),
			migrateCommand(),
			productsCommand(),
			categoriesCommand(),
			ordersCommand(),
		},
	}

	if err := root.Run(ctx, args); err != nil {
		if msg := domain.Message(err); msg != "" {
			fmt.Fprintln(os.Stderr, "error:", msg)
		}
		os.Exit(1)
	}
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".myshop"
	}
	return filepath.Join(dir, "myshop")
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the JSON HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "127.0.0.1:8080", Usage: "HTTP listen address", Sources: cli.EnvVars("MYSHOP_ADDR")},
			&cli.FloatFlag{Name: "login-rate", Value: 1, Usage: "login attempts per second per client"},
			&cli.IntFlag{Name: "login-burst", Value: 3, Usage: "login attempts allowed in a burst"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := newApp(c)
			if err != nil {
				return err
			}
			defer func() { _ = a.stores.Close() }()
			return runServer(ctx, a, c.String("addr"), rate.Limit(c.Float("login-rate")), c.Int("login-burst"))
		},
	}
}

func runServer(ctx context.Context, a *app, addr string, loginRate rate.Limit, loginBurst int) error {
	if err := a.stores.MigrateAndSeed(ctx); err != nil {
		// the settings endpoints still work, so a bad config can be fixed over the API
		a.log.Error().Err(err).Msg("database not ready")
	}
	if resumed, err := a.auth.Resume(); err != nil {
		a.log.Warn().Err(err).Msg("resume session")
	} else if resumed {
		a.log.Info().Msg("owner session resumed, API clients still need to log in")
	}

	router := httpadapter.NewRouter(a.services(), httpadapter.Options{
		LoginRate:  loginRate,
		LoginBurst: loginBurst,
		Logger:     a.log,
	})
	srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
