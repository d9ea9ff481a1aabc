package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mediafold/mediafold/database"
	"github.com/mediafold/mediafold/keybackend"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for mediafold.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Capability CapabilityConfig `mapstructure:"capability"`
	Address    AddressConfig    `mapstructure:"address"`
	Stores     StoresConfig     `mapstructure:"stores"`
	Database   database.Config  `mapstructure:"database"`
	Thumbnail  ThumbnailConfig  `mapstructure:"thumbnail"`
	Auth       AuthConfig       `mapstructure:"auth"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port          int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	PublicBaseURL string `mapstructure:"public_base_url" validate:"required,url"`
	Metrics       bool   `mapstructure:"metrics"`
}

// CapabilityConfig holds read capability issuance configuration.
type CapabilityConfig struct {
	Secret keybackend.SecretConfig `mapstructure:"secret"`
	TTL    time.Duration           `mapstructure:"ttl" validate:"min=0"`
	Skew   time.Duration           `mapstructure:"skew" validate:"min=0"`
}

// AddressConfig holds the internal to external URL prefix rewrite applied
// to issued capability URLs. Both prefixes are optional; when empty no
// rewrite happens.
type AddressConfig struct {
	Internal string `mapstructure:"internal"`
	External string `mapstructure:"external"`
}

// StoreConfig holds the location of one backing WebDAV store.
type StoreConfig struct {
	BaseURL            string `mapstructure:"base_url" validate:"omitempty,url"`
	Path               string `mapstructure:"path"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"`
	ListDepth          int    `mapstructure:"list_depth" validate:"min=0"`
}

// StoresConfig holds the primary media store and the thumbnail cache store.
type StoresConfig struct {
	Data  StoreConfig `mapstructure:"data"`
	Cache StoreConfig `mapstructure:"cache"`
}

// ThumbnailConfig holds thumbnail rendering configuration.
type ThumbnailConfig struct {
	MaxSize int `mapstructure:"max_size" validate:"min=0"`
}

// AuthConfig holds write API authentication configuration.
type AuthConfig struct {
	Credentials keybackend.CredentialsConfig `mapstructure:"credentials"`
}

// CORSConfig holds cross-origin configuration for the write API.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":            "server.port",
	"public-base-url": "server.public_base_url",
	"db-type":         "database.type",
	"db-dsn":          "database.dsn",
	"db-table":        "database.table",
	"log-level":       "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.public_base_url", "http://localhost:8080")
	v.SetDefault("server.metrics", false)

	v.SetDefault("capability.ttl", "12h")
	v.SetDefault("capability.skew", "0s")

	v.SetDefault("stores.data.path", "dav/media")
	v.SetDefault("stores.cache.path", "dav/cache")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "mediafold.db")
	v.SetDefault("database.table", "mediafold_file_entries")

	v.SetDefault("thumbnail.max_size", 0) // 0 means the built-in default

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("MEDIAFOLD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
