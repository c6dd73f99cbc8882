package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/notDuyLam/myshop-wp/internal/domain"
	"github.com/urfave/cli/v3"
)

var errNotLoggedIn = domain.InvalidCredentials("not logged in, run `myshop auth login` first")

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Owner login commands",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in as the owner; the first login provisions the credential",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password", Required: true, Sources: cli.EnvVars("MYSHOP_PASSWORD")},
				},
				Action: func(_ context.Context, c *cli.Command) error {
					a, err := newApp(c)
					if err != nil {
						return err
					}
					if err := a.auth.Login(c.String("username"), c.String("password")); err != nil {
						return err
					}
					fmt.Println("logged in")
					return nil
				},
			},
			{
				Name:  "logout",
				Usage: "End the persisted session",
				Action: func(_ context.Context, c *cli.Command) error {
					a, err := newApp(c)
					if err != nil {
						return err
					}
					if err := a.auth.Logout(); err != nil {
						return err
					}
					fmt.Println("logged out")
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "Show the login state",
				Action: func(_ context.Context, c *cli.Command) error {
					a, err := newApp(c)
					if err != nil {
						return err
					}
					if _, err := a.auth.Resume(); err != nil {
						return err
					}
					state, err := a.auth.State()
					if err != nil {
						return err
					}
					printKV([][2]string{{"state", state.String()}, {"settings", a.creds.Path()}})
					return nil
				},
			},
			{
				Name:  "passwd",
				Usage: "Change the owner password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "current", Required: true},
					&cli.StringFlag{Name: "new", Required: true},
				},
				Action: func(_ context.Context, c *cli.Command) error {
					a, err := newApp(c)
					if err != nil {
						return err
					}
					if err := a.requireLogin(); err != nil {
						return err
					}
					if err := a.auth.ChangePassword(c.String("current"), c.String("new")); err != nil {
						return err
					}
					fmt.Println("password changed")
					return nil
				},
			},
		},
	}
}

func databaseFlags() []cli.Flag {
	def := domain.DefaultDatabaseConfig()
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Value: def.Host},
		&cli.IntFlag{Name: "port", Value: def.Port},
		&cli.StringFlag{Name: "database", Value: def.Database},
		&cli.StringFlag{Name: "username", Value: def.Username},
		&cli.StringFlag{Name: "password", Usage: "database password", Sources: cli.EnvVars("MYSHOP_DB_PASSWORD")},
		&cli.StringFlag{Name: "connection-string", Usage: "Host=...;Port=...;Database=...;Username=...;Password=... (overrides the other flags)"},
	}
}

// databaseConfigFromFlags starts from the stored config so that unset flags
// keep their saved values.
func databaseConfigFromFlags(c *cli.Command, base domain.DatabaseConfig) domain.DatabaseConfig {
	if cs := c.String("connection-string"); cs != "" {
		return domain.ParseConnectionString(cs)
	}
	cfg := base
	if c.IsSet("host") {
		cfg.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}
	if c.IsSet("database") {
		cfg.Database = c.String("database")
	}
	if c.IsSet("username") {
		cfg.Username = c.String("username")
	}
	if c.IsSet("password") {
		cfg.Password = c.String("password")
	}
	return cfg
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Database connection settings",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the stored database config",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(_ context.Context, c *cli.Command) error {
					a, err := newApp(c)
					if err != nil {
						return err
					}
					cfg, usable := a.settings.Current()
					if c.Bool("json") {
						cfg.Password = redact(cfg.Password)
						return printJSON(map[string]any{"config": cfg, "usable": usable})
					}
					printDatabaseConfig(cfg, usable, a.configs.Path())
					return nil
				},
			},
			{
				Name:  "save",
				Usage: "Validate and store database connection parameters",
				Flags: databaseFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					a, err := newApp(c)
					if err != nil {
						return err
					}
					current, _ := a.settings.Current()
					cfg := databaseConfigFromFlags(c, current)
					if err := a.settings.Save(ctx, cfg); err != nil {
						return err
					}
					if !cfg.Usable() {
						fmt.Println("saved without a password; the development default stays in use")
						return nil
					}
					fmt.Println("saved")
					return nil
				},
			},
			{
				Name:  "test",
				Usage: "Try one connection with the given (or stored) parameters",
				Flags: append(databaseFlags(), &cli.BoolFlag{Name: "effective", Usage: "test the connection the app uses now, through the store layer"}),
				Action: func(ctx context.Context, c *cli.Command) error {
					a, err := newApp(c)
					if err != nil {
						return err
					}
					if c.Bool("effective") {
						if err := a.settings.TestStore(ctx); err != nil {
							return err
						}
						fmt.Println("connection ok")
						return nil
					}
					current, _ := a.settings.Current()
					if err := a.settings.Test(ctx, databaseConfigFromFlags(c, current)); err != nil {
						return err
					}
					fmt.Println("connection ok")
					return nil
				},
			},
			{
				Name:  "reset",
				Usage: "Remove the stored database config",
				Action: func(_ context.Context, c *cli.Command) error {
					a, err := newApp(c)
					if err != nil {
						return err
					}
					if err := a.settings.Reset(); err != nil {
						return err
					}
					fmt.Println("database config removed")
					return nil
				},
			},
			{
				Name:  "path",
				Usage: "Print the config file locations",
				Action: func(_ context.Context, c *cli.Command) error {
					a, err := newApp(c)
					if err != nil {
						return err
					}
					printKV([][2]string{
						{"data_dir", a.dataDir},
						{"database", a.configs.Path()},
						{"settings", a.creds.Path()},
					})
					return nil
				},
			},
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending schema migrations and seed default categories",
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := newApp(c)
			if err != nil {
				return err
			}
			if err := a.stores.MigrateAndSeed(ctx); err != nil {
				return err
			}
			fmt.Println("schema up to date")
			return nil
		},
	}
}

func parseIDArg(c *cli.Command) (uint, error) {
	raw := c.Args().First()
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, domain.Validation("expected a numeric id argument, got %q", raw)
	}
	return uint(id), nil
}
