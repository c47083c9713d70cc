// Package config loads the storefront configuration from defaults, an optional config file,
// a .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the service settings.
type Config struct {
	AppPort               string `mapstructure:"app_port"`
	LogLevel              string `mapstructure:"log_level"`
	DatabaseDriver        string `mapstructure:"database_driver"`
	DatabaseDSN           string `mapstructure:"database_dsn"`
	JWTSecret             string `mapstructure:"jwt_secret"`
	RabbitMQURL           string `mapstructure:"rabbitmq_url"`
	SellerEmail           string `mapstructure:"seller_email"`
	StorageDir            string `mapstructure:"storage_dir"`
	PublicBaseURL         string `mapstructure:"public_base_url"`
	CartDBPath            string `mapstructure:"cart_db_path"`
	CheckoutRequiresLogin bool   `mapstructure:"checkout_requires_login"`
	// MaxDevices and DeviceIdleTimeout bound the in-memory per-device state. Zero means unbounded.
	MaxDevices        int           `mapstructure:"max_devices"`
	DeviceIdleTimeout time.Duration `mapstructure:"device_idle_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_port", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("database_driver", DriverSQLite)
	v.SetDefault("database_dsn", "storefront.db")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("rabbitmq_url", "")
	v.SetDefault("seller_email", "")
	v.SetDefault("storage_dir", "data/storage")
	v.SetDefault("public_base_url", "http://localhost:8080/storage")
	v.SetDefault("cart_db_path", "data/carts.db")
	v.SetDefault("checkout_requires_login", true)
	v.SetDefault("max_devices", 10000)
	v.SetDefault("device_idle_timeout", "30m")
}

// Load reads the configuration. args are the command line arguments without the program name;
// `--config <file>` points at an optional YAML/TOML/JSON file.
func Load(args []string) (Config, error) {
	flags := pflag.NewFlagSet("storefront", pflag.ContinueOnError)
	configFile := flags.String("config", "", "config file")
	if err := flags.Parse(args); err != nil {
		return Config{}, fmt.Errorf("failed to parse flags: %w", err)
	}

	// a missing .env file is fine
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", *configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that have no usable default.
func (c Config) Validate() error {
	var errs []error
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown database_driver %q", c.DatabaseDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret is required"))
	}
	if c.MaxDevices < 0 {
		errs = append(errs, fmt.Errorf("max_devices must not be negative, got %d", c.MaxDevices))
	}
	if c.DeviceIdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("device_idle_timeout must not be negative, got %s", c.DeviceIdleTimeout))
	}
	if c.SellerEmail == "" {
		errs = append(errs, errors.New("seller_email is required"))
	}
	return errors.Join(errs...)
}
