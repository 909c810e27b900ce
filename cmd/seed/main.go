// Command seed fills the marketplace database with demo data.
//
//	go run ./cmd/seed --users 15 --products 20 --purchase 0.6
//
// Database and storage settings come from the same environment (.env) as
// the server; --db and --upload-dir override them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/sakif/art-market/internal/auth"
	"github.com/sakif/art-market/internal/config"
	"github.com/sakif/art-market/internal/media"
	sqliteRepo "github.com/sakif/art-market/internal/repository/sqlite"
	"github.com/sakif/art-market/internal/seed"
	"github.com/sakif/art-market/internal/service"
	"github.com/sakif/art-market/internal/storage"
)

func main() {
	app := &cli.App{
		Name:  "seed",
		Usage: "create demo accounts, products and purchases",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "users", Value: seed.DefaultUsers, Usage: "number of accounts"},
			&cli.IntFlag{Name: "products", Value: seed.DefaultProducts, Usage: "number of products"},
			&cli.Float64Flag{Name: "purchase", Value: seed.DefaultPurchaseRatio, Usage: "share of other accounts that buy each product"},
			&cli.StringFlag{Name: "password", Value: seed.DefaultPassword, Usage: "password for every seeded account"},
			&cli.StringFlag{Name: "photos", Usage: "directory of images to upload instead of generated ones"},
			&cli.StringFlag{Name: "db", Usage: "database path (default: DB_PATH)"},
			&cli.StringFlag{Name: "upload-dir", Usage: "local artifact directory (default: UPLOAD_DIR)"},
			&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "random seed"},
			&cli.IntFlag{Name: "workers", Value: 4, Usage: "parallel uploads"},
			&cli.IntFlag{Name: "bcrypt-cost", Value: 6, Usage: "bcrypt cost for seeded passwords"},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	ctx := c.Context

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if db := c.String("db"); db != "" {
		cfg.DBPath = db
	}
	if dir := c.String("upload-dir"); dir != "" {
		cfg.Storage.Provider = storage.ProviderLocal
		cfg.Storage.LocalDir = dir
	}
	logger := cfg.NewLogger(os.Stdout)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening artifact store: %w", err)
	}

	gate, err := auth.NewGate(cfg.JWTSecret, db)
	if err != nil {
		return err
	}

	ingestor := media.NewIngestor(media.NewValidator(cfg.Limits()), store, cfg.ProcessingTimeout, logger)
	seeder := seed.New(
		service.NewAccountService(db, db, db, auth.NewPasswordServiceWithCost(c.Int("bcrypt-cost")), gate, logger),
		service.NewProductService(db, db, db, ingestor, logger),
		service.NewPurchaseService(db, db, logger),
		logger,
	)

	res, err := seeder.Run(ctx, seed.Options{
		Users:         c.Int("users"),
		Products:      c.Int("products"),
		PurchaseRatio: c.Float64("purchase"),
		Password:      c.String("password"),
		PhotoDir:      c.String("photos"),
		Seed:          c.Uint64("seed"),
		Workers:       c.Int("workers"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("seeded %d users, %d products, %d purchases (password %q)\n",
		res.Users, res.Products, res.Purchases, c.String("password"))
	return nil
}
