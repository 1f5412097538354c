package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/aurelius/storefront/pkg/validate"
)

var defaultConfigFiles = []string{"aurelius.yaml", "/etc/aurelius/config.yaml"}

// Config holds the complete application configuration, loadable from
// environment variables (AUR_ prefix) or YAML config files.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Checkout   CheckoutConfig   `yaml:"checkout"`
	Newsletter NewsletterConfig `yaml:"newsletter"`
	Catalog    CatalogConfig    `yaml:"catalog"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver         string `yaml:"driver" default:"file" usage:"Storage backend: file, memory, redis or postgres" validate:"oneof=file memory redis postgres"`
	Dir            string `yaml:"dir" default:".aurelius" usage:"Directory of the file backend" validate:"required_if=Driver file"`
	RedisURL       string `yaml:"redis_url" usage:"Redis connection URL (AUR_STORAGE_REDIS_URL or REDIS_URL)" validate:"required_if=Driver redis"`
	RedisNamespace string `yaml:"redis_namespace" default:"aurelius" usage:"Prefix of Redis keys"`
	PostgresURL    string `yaml:"postgres_url" usage:"PostgreSQL connection URL (AUR_STORAGE_POSTGRES_URL or DATABASE_URL)" validate:"required_if=Driver postgres"`
}

// CheckoutConfig controls order placement.
type CheckoutConfig struct {
	Delay       time.Duration `yaml:"delay" default:"2s" usage:"Simulated payment processing time"`
	OrderPrefix string        `yaml:"order_prefix" default:"AUR-" usage:"Prefix of generated order ids"`
}

// NewsletterConfig controls newsletter signups.
type NewsletterConfig struct {
	Delay time.Duration `yaml:"delay" default:"1.5s" usage:"Simulated signup latency"`
}

// CatalogConfig points at an alternative catalog file.
type CatalogConfig struct {
	File string `yaml:"file" usage:"Catalog JSON file; the built-in catalog is used when empty"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(defaultConfigFiles)
}

func loadConfig(files []string) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "AUR",
		// Positional subcommands own the command line.
		SkipFlags: true,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := validate.Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the conventional REDIS_URL and DATABASE_URL
// variables to the storage configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.RedisURL == "" {
		c.Storage.RedisURL = os.Getenv("REDIS_URL")
	}
	if c.Storage.PostgresURL == "" {
		c.Storage.PostgresURL = os.Getenv("DATABASE_URL")
	}
}
