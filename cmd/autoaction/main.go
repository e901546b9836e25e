package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/eroudini/AiMerchant-sub000/internal/app"
	"github.com/eroudini/AiMerchant-sub000/internal/config"
	"github.com/eroudini/AiMerchant-sub000/internal/repository/postgres"
	"github.com/eroudini/AiMerchant-sub000/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"
)

type contextKey string

const containerKey contextKey = "container"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string",
		EnvVars: []string{"ANALYTICS_DATABASE_URL", "DATABASE_URL"},
	}
}

func newAccountFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "account",
		Aliases:  []string{"a"},
		Usage:    "Account id",
		Required: required,
		EnvVars:  []string{"AUTO_ACTION_DEFAULT_ACCOUNT_ID"},
	}
}

func newCountryFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "country",
		Usage: "Restrict to one country code",
	}
}

// initServices opens the database through pgx and wires the services.
func initServices(c *cli.Context) error {
	cfg := config.Load()
	logger.Setup(cfg.Server.Mode, cfg.Server.LogLevel)

	dsn := c.String("db-url")
	if dsn == "" {
		dsn = cfg.Database.DSN()
	}

	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.PingContext(c.Context); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	db := postgres.Wrap(sqlx.NewDb(conn, "pgx"), cfg.Database.MaxTx)
	container, err := app.New(cfg, db, nil)
	if err != nil {
		conn.Close()
		return err
	}

	c.Context = context.WithValue(c.Context, containerKey, &cliState{db: db, container: container, cfg: cfg})
	return nil
}

func closeServices(c *cli.Context) error {
	if st, ok := c.Context.Value(containerKey).(*cliState); ok && st != nil {
		if err := st.container.Close(); err != nil {
			return err
		}
		return st.db.Close()
	}
	return nil
}

type cliState struct {
	db        *postgres.DB
	container *app.Container
	cfg       *config.Config
}

func state(c *cli.Context) (*cliState, error) {
	st, ok := c.Context.Value(containerKey).(*cliState)
	if !ok || st == nil {
		return nil, fmt.Errorf("services not initialized")
	}
	return st, nil
}

func main() {
	cliApp := &cli.App{
		Name:  "autoaction",
		Usage: "Generate, review and execute replenishment purchase orders",
		Flags: []cli.Flag{
			newDBURLFlag(),
		},
		Before: initServices,
		After:  closeServices,
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the auto-action pass for one account or every active account",
				Flags: []cli.Flag{
					newAccountFlag(false),
					newCountryFlag(),
					&cli.IntFlag{Name: "horizon-days", Usage: "Forecast horizon in days"},
					&cli.IntFlag{Name: "min-days-cover", Usage: "Minimum days of stock cover"},
					&cli.IntFlag{Name: "product-limit", Usage: "Maximum products per account"},
					&cli.BoolFlag{Name: "auto-execute", Usage: "Execute small drafts after generation"},
					&cli.IntFlag{Name: "max-qty", Usage: "Largest suggested quantity executed automatically"},
					&cli.BoolFlag{Name: "stop-on-error", Usage: "Abort on the first failing account"},
				},
				Action: runAutoAction,
			},
			{
				Name:  "generate",
				Usage: "Recompute draft purchase orders for an account",
				Flags: []cli.Flag{
					newAccountFlag(true),
					newCountryFlag(),
					&cli.StringFlag{Name: "products", Usage: "Comma separated product codes"},
					&cli.IntFlag{Name: "horizon-days", Usage: "Forecast horizon in days"},
					&cli.IntFlag{Name: "min-days-cover", Usage: "Minimum days of stock cover"},
				},
				Action: generateRecommendations,
			},
			{
				Name:  "list",
				Usage: "List the newest recommendations of an account",
				Flags: []cli.Flag{
					newAccountFlag(true),
					newCountryFlag(),
					&cli.StringFlag{Name: "status", Usage: "draft, approved, executed or cancelled"},
					&cli.StringFlag{Name: "type", Usage: "Recommendation type"},
				},
				Action: listRecommendations,
			},
			{
				Name:  "execute",
				Usage: "Execute draft recommendations by id",
				Flags: []cli.Flag{
					newAccountFlag(true),
					&cli.StringFlag{Name: "ids", Usage: "Comma separated recommendation ids", Required: true},
					&cli.StringFlag{Name: "note", Usage: "Note appended to executed rows"},
				},
				Action: executeRecommendations,
			},
			{
				Name:   "exports",
				Usage:  "List exported purchase order files of an account",
				Flags:  []cli.Flag{newAccountFlag(true)},
				Action: listExports,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
