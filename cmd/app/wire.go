package main

import (
	"path/filepath"

	"github.com/notDuyLam/myshop-wp/internal/adapters/db/sqlstore"
	httpadapter "github.com/notDuyLam/myshop-wp/internal/adapters/http"
	"github.com/notDuyLam/myshop-wp/internal/adapters/settings"
	"github.com/notDuyLam/myshop-wp/internal/application"
	"github.com/notDuyLam/myshop-wp/internal/logging"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

// app is the explicit dependency graph for one process.
type app struct {
	log     zerolog.Logger
	dataDir string

	configs *settings.ConfigStore
	creds   *settings.CredentialStore
	stores  *sqlstore.Provider
	tester  *sqlstore.Tester

	auth     *application.AuthService
	catalog  *application.CatalogService
	orders   *application.OrderService
	settings *application.SettingsService
}

func newApp(c *cli.Command) (*app, error) {
	log := logging.New(logging.Options{Level: c.String("log-level"), JSON: c.Bool("log-json")})
	dataDir := c.String("data-dir")

	sealer, err := settings.LoadOrCreateSealer(filepath.Join(dataDir, settings.KeyFileName))
	if err != nil {
		return nil, err
	}
	configs := settings.NewConfigStore(filepath.Join(dataDir, settings.ConfigFileName), sealer, log)
	creds := settings.NewCredentialStore(filepath.Join(dataDir, settings.SettingsFileName), sealer)

	open := sqlstore.Opener(sqlstore.OpenPostgres)
	if path := c.String("sqlite-path"); path != "" {
		open = sqlstore.SQLiteOpener(path)
		log.Debug().Str("path", path).Msg("using local sqlite store")
	}
	stores := sqlstore.NewProvider(configs, open, log)
	tester := sqlstore.NewTester(open, sqlstore.DefaultConnectTimeout)

	bootstrap := application.Bootstrap{
		Username: c.String("bootstrap-username"),
		Password: c.String("bootstrap-password"),
	}

	return &app{
		log:      log,
		dataDir:  dataDir,
		configs:  configs,
		creds:    creds,
		stores:   stores,
		tester:   tester,
		auth:     application.NewAuthService(creds, bootstrap, log),
		catalog:  application.NewCatalogService(stores, log),
		orders:   application.NewOrderService(stores, log),
		settings: application.NewSettingsService(configs, tester, stores, log),
	}, nil
}

func (a *app) services() httpadapter.Services {
	return httpadapter.Services{Auth: a.auth, Catalog: a.catalog, Orders: a.orders, Settings: a.settings}
}

// requireLogin resumes the persisted session; commands that touch shop data
// refuse to run without one.
func (a *app) requireLogin() error {
	ok, err := a.auth.Resume()
	if err != nil {
		return err
	}
	if !ok {
		return errNotLoggedIn
	}
	return nil
}
