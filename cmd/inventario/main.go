package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/itec-nfc/inventario/internal/api"
	"github.com/itec-nfc/inventario/internal/auth"
	"github.com/itec-nfc/inventario/internal/config"
	"github.com/itec-nfc/inventario/internal/db"
	"github.com/itec-nfc/inventario/internal/logger"
	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/realtime"
	"github.com/itec-nfc/inventario/internal/scan"
	"github.com/itec-nfc/inventario/internal/store"
	"github.com/itec-nfc/inventario/internal/web"
)

const usage = `Usage: inventario [serve|init] [flags]

Commands:
  serve   start the web server (default)
  init    create the database and the first administrator, then exit

Flags:
`

func main() {
	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 && (args[0] == "serve" || args[0] == "init") {
		cmd, args = args[0], args[1:]
	}

	fs := config.Flags("inventario")
	fs.Usage = func() {
		fmt.Fprint(os.Stdout, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	lg, err := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer lg.Close()

	database, err := openDatabase(cfg)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DB.Path).Msg("failed to prepare database")
		os.Exit(1)
	}
	defer database.Close()

	if cmd == "init" {
		log.Info().Str("path", cfg.DB.Path).Msg("database initialized")
		return
	}

	if err := serve(cfg, database); err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
	log.Info().Msg("server stopped, closing database")
}

// openDatabase opens or creates the database, ensures the schema and lookup
// rows, and creates the first administrator when there are no users.
func openDatabase(cfg *config.Config) (*sqlx.DB, error) {
	database, err := db.Open(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	if err := db.Seed(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("seeding lookup tables: %w", err)
	}

	ctx := context.Background()
	n, err := store.CountUsers(ctx, database)
	if err != nil {
		database.Close()
		return nil, err
	}
	if n == 0 {
		password, err := createAdmin(ctx, database, cfg.Auth.AdminUser)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("creating admin user: %w", err)
		}
		printInitResult(cfg.DB.Path, cfg.Auth.AdminUser, password)
	}

	log.Info().Str("path", cfg.DB.Path).Msg("database ready")
	return database, nil
}

func createAdmin(ctx context.Context, database *sqlx.DB, username string) (string, error) {
	role, err := store.GetRoleByName(ctx, database, model.RoleAdmin)
	if err != nil {
		return "", err
	}
	if role == nil {
		return "", fmt.Errorf("%w: admin role missing", model.ErrNotFound)
	}

	password, err := generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	_, err = store.CreateUser(ctx, database,
		model.Person{RUT: "0", DV: "0", FirstName: "Administrador", FatherSurname: "Sistema"},
		store.Account{Username: username, PasswordHash: hash, RoleID: &role.ID, Active: true},
	)
	if err != nil {
		return "", err
	}
	return password, nil
}

func serve(cfg *config.Config, database *sqlx.DB) error {
	ctx := context.Background()

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		secret, err := store.GetJWTSecret(ctx, database)
		if err != nil {
			return fmt.Errorf("loading jwt secret: %w", err)
		}
		jwtSecret = secret
	}

	hub := realtime.NewHub(realtime.DefaultBuffer)

	app, err := web.NewApp(cfg.App.Name, cfg.HTTP.BodyLimit)
	if err != nil {
		return fmt.Errorf("setting up web app: %w", err)
	}

	// API routes first; the web routes answer everything else.
	api.Register(app, &api.Handler{
		DB:           database,
		JWTSecret:    jwtSecret,
		TokenTTL:     cfg.Auth.TokenTTL,
		Scans:        &scan.Ingester{DB: database, Hub: hub},
		DefaultLimit: cfg.Scan.DefaultReadingsLimit,
		MaxLimit:     cfg.Scan.MaxReadingsLimit,
	})
	web.New(web.Options{
		DB:             database,
		JWTSecret:      jwtSecret,
		TokenTTL:       cfg.Auth.TokenTTL,
		Hub:            hub,
		Secure:         cfg.Production(),
		LoginRateLimit: cfg.HTTP.LoginRateLimit,
	}).Register(app)

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		if err := app.ShutdownWithTimeout(cfg.HTTP.ShutdownGrace); err != nil {
			log.Error().Err(err).Msg("server forced to shutdown")
		}
	}()

	log.Info().Str("addr", cfg.HTTP.Addr).Str("env", cfg.App.Env).Msg("server started")
	return app.Listen(cfg.HTTP.Addr)
}

func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println()
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
