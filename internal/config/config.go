// Package config loads runtime settings from defaults, an optional config
// file, a .env file, INVENTARIO_* environment variables and flags, in
// increasing order of priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config groups all settings.
type Config struct {
	App  AppConfig
	HTTP HTTPConfig
	DB   DBConfig
	Log  LogConfig
	Auth AuthConfig
	Scan ScanConfig
}

// AppConfig holds general settings.
type AppConfig struct {
	Env  string // development, production
	Name string
}

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Addr           string
	BodyLimit      int // bytes
	LoginRateLimit int // attempts per minute and client
	ShutdownGrace  time.Duration
}

// DBConfig holds the SQLite location.
type DBConfig struct {
	Path string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
	File  string
}

// AuthConfig holds session settings. An empty JWTSecret means the secret is
// kept in the database settings table.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	AdminUser string
}

// ScanConfig holds scan API settings.
type ScanConfig struct {
	DefaultReadingsLimit int
	MaxReadingsLimit     int
}

// Production reports whether the app runs in production mode.
func (c *Config) Production() bool {
	return c.App.Env == "production"
}

const envPrefix = "INVENTARIO"

// Flags returns the command-line flags understood by Load.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "config file (default: ./inventario.yaml if present)")
	fs.StringP("db", "d", "", "SQLite database path")
	fs.StringP("addr", "a", "", "listen address")
	fs.StringP("log", "l", "", "log file path")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("env", "", "environment (development, production)")
	fs.StringP("admin-user", "u", "", "admin username created on first run")
	return fs
}

// Load resolves the configuration. fs may be nil when no flags apply.
func Load(fs *pflag.FlagSet) (*Config, error) {
	if os.Getenv(envPrefix+"_APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		bindings := map[string]string{
			"db.path":         "db",
			"http.addr":       "addr",
			"log.file":        "log",
			"log.level":       "log-level",
			"app.env":         "env",
			"auth.admin_user": "admin-user",
		}
		for key, flag := range bindings {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", flag, err)
				}
			}
		}
	}

	if err := readConfigFile(v, fs); err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Env:  v.GetString("app.env"),
			Name: v.GetString("app.name"),
		},
		HTTP: HTTPConfig{
			Addr:           v.GetString("http.addr"),
			BodyLimit:      v.GetInt("http.body_limit"),
			LoginRateLimit: v.GetInt("http.login_rate_limit"),
			ShutdownGrace:  v.GetDuration("http.shutdown_grace"),
		},
		DB: DBConfig{
			Path: v.GetString("db.path"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
			AdminUser: v.GetString("auth.admin_user"),
		},
		Scan: ScanConfig{
			DefaultReadingsLimit: v.GetInt("scan.default_limit"),
			MaxReadingsLimit:     v.GetInt("scan.max_limit"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.name", "Inventario")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.body_limit", 4<<20)
	v.SetDefault("http.login_rate_limit", 10)
	v.SetDefault("http.shutdown_grace", 10*time.Second)
	v.SetDefault("db.path", "inventario.sqlite3")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.admin_user", "admin")
	v.SetDefault("scan.default_limit", 50)
	v.SetDefault("scan.max_limit", 500)
}

func readConfigFile(v *viper.Viper, fs *pflag.FlagSet) error {
	var path string
	if fs != nil {
		path, _ = fs.GetString("config")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("inventario")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.DB.Path == "" {
		return errors.New("config: database path is required")
	}
	if c.HTTP.Addr == "" {
		return errors.New("config: listen address is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("config: token ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.AdminUser == "" {
		return errors.New("config: admin username is required")
	}
	if c.Scan.DefaultReadingsLimit <= 0 || c.Scan.MaxReadingsLimit < c.Scan.DefaultReadingsLimit {
		return fmt.Errorf("config: invalid readings limits %d/%d", c.Scan.DefaultReadingsLimit, c.Scan.MaxReadingsLimit)
	}
	return nil
}
