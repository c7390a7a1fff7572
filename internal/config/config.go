package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	envPrefix         = "PHARMAFIND_"
	defaultConfigFile = "config.yaml"
	devSecret         = "dev_secret"
)

// Config holds application configuration values.
type Config struct {
	Env string `koanf:"env"`

	Log struct {
		Level  string `koanf:"level"`
		Pretty bool   `koanf:"pretty"`
	} `koanf:"log"`

	HTTP struct {
		Port              string        `koanf:"port"`
		AllowedOrigins    []string      `koanf:"allowedOrigins"`
		ReadHeaderTimeout time.Duration `koanf:"readHeaderTimeout"`
		ShutdownTimeout   time.Duration `koanf:"shutdownTimeout"`
	} `koanf:"http"`

	Database struct {
		DSN          string `koanf:"dsn"`
		MaxOpenConns int    `koanf:"maxOpenConns"`
	} `koanf:"database"`

	Auth struct {
		Secret     string        `koanf:"secret"`
		TokenTTL   time.Duration `koanf:"tokenTTL"`
		BcryptCost int           `koanf:"bcryptCost"`
	} `koanf:"auth"`

	Search struct {
		DefaultRadiusKm float64 `koanf:"defaultRadiusKm"`
		MaxRadiusKm     float64 `koanf:"maxRadiusKm"`
	} `koanf:"search"`

	Inventory struct {
		LowStockThreshold int64 `koanf:"lowStockThreshold"`
	} `koanf:"inventory"`

	Seed struct {
		MedicinesCSV string `koanf:"medicinesCSV"`
	} `koanf:"seed"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	var cfg Config
	cfg.Env = "development"
	cfg.Log.Level = "info"
	cfg.HTTP.Port = "3000"
	cfg.HTTP.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	cfg.HTTP.ReadHeaderTimeout = 10 * time.Second
	cfg.HTTP.ShutdownTimeout = 15 * time.Second
	cfg.Database.DSN = "file:pharmafind.db"
	cfg.Database.MaxOpenConns = 10
	cfg.Auth.TokenTTL = 24 * time.Hour
	cfg.Search.DefaultRadiusKm = 5
	cfg.Search.MaxRadiusKm = 500
	cfg.Inventory.LowStockThreshold = 10
	return cfg
}

// Load reads .env, then the YAML file named by PHARMAFIND_CONFIG (default
// config.yaml, optional), then PHARMAFIND_* environment variables.
func Load() (Config, error) {
	_ = godotenv.Load()

	path := os.Getenv(envPrefix + "CONFIG")
	if path == "" {
		path = defaultConfigFile
	}
	return LoadFile(path)
}

// LoadFile is Load without the .env step and with an explicit YAML path.
// A missing file is not an error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, errors.Wrapf(err, "read config %s", path)
			}
		}
	}

	// Env keys are upper case; align them with the casing the file used so the
	// two sources merge onto one key instead of two.
	known := make(map[string]string)
	for _, key := range k.Keys() {
		known[strings.ToLower(key)] = key
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, envPrefix)), "_", ".")
			if existing, ok := known[key]; ok {
				key = existing
			}
			return key, value
		},
	}), nil); err != nil {
		return Config{}, errors.Wrap(err, "load env variables")
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			MatchName: strings.EqualFold,
		},
	}); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal config")
	}

	applyLegacyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyLegacyEnv honors DATABASE_URL, JWT_SECRET and PORT when the prefixed keys are unset.
func applyLegacyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" && os.Getenv(envPrefix+"DATABASE_DSN") == "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" && cfg.Auth.Secret == "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("PORT"); v != "" && os.Getenv(envPrefix+"HTTP_PORT") == "" {
		cfg.HTTP.Port = v
	}
}

func (c *Config) validate() error {
	if c.Auth.Secret == "" {
		if !c.IsDevelopment() {
			return errors.New("auth.secret is required outside development")
		}
		c.Auth.Secret = devSecret
	}
	if _, err := strconv.Atoi(c.HTTP.Port); err != nil {
		return errors.Errorf("invalid http.port %q", c.HTTP.Port)
	}
	if c.Search.DefaultRadiusKm <= 0 {
		return errors.Errorf("search.defaultRadiusKm must be positive, got %v", c.Search.DefaultRadiusKm)
	}
	if c.Search.MaxRadiusKm < c.Search.DefaultRadiusKm {
		return errors.Errorf("search.maxRadiusKm %v is below the default radius %v", c.Search.MaxRadiusKm, c.Search.DefaultRadiusKm)
	}
	if c.Inventory.LowStockThreshold < 0 {
		return errors.New("inventory.lowStockThreshold must not be negative")
	}
	return nil
}

// IsDevelopment reports whether the process runs in a development env.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(c.Env) {
	case "", "dev", "development", "local", "test":
		return true
	}
	return false
}

// UsesDevSecret reports whether tokens are signed with the built-in
// development secret because no auth.secret was configured.
func (c Config) UsesDevSecret() bool {
	return c.Auth.Secret == devSecret
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.HTTP.Port
}
