package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. NMTP_SERVER_ADDR.
const EnvPrefix = "NMTP"

// Options controls where configuration is read from.
type Options struct {
	// ConfigFile is an explicit YAML file. When empty, config.yaml is
	// looked up in ./configs and the working directory.
	ConfigFile string

	// EnvFiles are .env files loaded before reading the environment.
	// Missing files are skipped. Defaults to ".env".
	EnvFiles []string
}

// Load reads the configuration with default options.
func Load() (*Config, error) {
	return LoadWith(Options{})
}

// LoadWith reads the configuration. Precedence, lowest first: defaults,
// config file, environment (including .env files).
func LoadWith(opts Options) (*Config, error) {
	loadEnvFiles(opts.EnvFiles)

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || opts.ConfigFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFiles(paths []string) {
	if paths == nil {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		// godotenv.Load never overrides variables already set.
		_ = godotenv.Load(p)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "nmtp-applyportal")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.locale", "en-ZA")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.max_live_per_ip", 20)
	v.SetDefault("server.max_live", 10000)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.redis.address", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.pool_size", 10)

	v.SetDefault("drafts.ttl", "720h")
	v.SetDefault("drafts.key_prefix", "nmtp:draft:")

	v.SetDefault("submission.delay", "2s")
	v.SetDefault("submission.reference_prefix", "NMTP")

	v.SetDefault("uploads.max_file_size", 5*1024*1024)
	v.SetDefault("uploads.accept", []string{"application/pdf", "image/jpeg", "image/jpg", "image/png"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "nmtp")

	v.SetDefault("admin.demo_data", false)
}
