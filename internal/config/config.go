package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Geocode cache backends.
const (
	CacheNone     = "none"
	CachePostgres = "postgres"
	CacheRedis    = "redis"
)

type Config struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	NominatimBaseURL   string `mapstructure:"nominatim_base_url"`
	OSRMBaseURL        string `mapstructure:"osrm_base_url"`
	GeocodeCountryCode string `mapstructure:"geocode_country_code"`
	GeocodeCountryName string `mapstructure:"geocode_country_name"`
	GeocodeLanguage    string `mapstructure:"geocode_language"`
	UserAgent          string `mapstructure:"user_agent"`

	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	ProviderMaxAttempts int           `mapstructure:"provider_max_attempts"`
	SuggestDebounce     time.Duration `mapstructure:"suggest_debounce"`
	SessionTTL          time.Duration `mapstructure:"session_ttl"`

	GeocodeCache    string        `mapstructure:"geocode_cache"`
	GeocodeCacheTTL time.Duration `mapstructure:"geocode_cache_ttl"`
	DatabaseURL     string        `mapstructure:"database_url"`
	RedisAddr       string        `mapstructure:"redis_addr"`

	RabbitMQURL   string `mapstructure:"rabbitmq_url"`
	QuoteExchange string `mapstructure:"quote_exchange"`
}

var defaults = map[string]any{
	"port":                  "8080",
	"log_level":             "info",
	"log_file":              "",
	"nominatim_base_url":    "https://nominatim.openstreetmap.org",
	"osrm_base_url":         "https://router.project-osrm.org",
	"geocode_country_code":  "br",
	"geocode_country_name":  "Brasil",
	"geocode_language":      "pt-BR",
	"user_agent":            "IBECExpress/1.0",
	"request_timeout":       "10s",
	"provider_max_attempts": 1,
	"suggest_debounce":      "500ms",
	"session_ttl":           "2h",
	"geocode_cache":         CacheNone,
	"geocode_cache_ttl":     "24h",
	"database_url":          "",
	"redis_addr":            "",
	"rabbitmq_url":          "",
	"quote_exchange":        "deliveries",
}

// Load reads .env (when present) and the environment. An optional YAML/JSON
// file named by CONFIG_FILE is read first; environment variables win over it.
func Load() (Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("config_file"); err != nil {
		return Config{}, fmt.Errorf("config: bind CONFIG_FILE: %w", err)
	}
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}

	cfg.GeocodeCache = strings.ToLower(strings.TrimSpace(cfg.GeocodeCache))
	if cfg.GeocodeCache == "" {
		cfg.GeocodeCache = CacheNone
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	for name, raw := range map[string]string{
		"NOMINATIM_BASE_URL": c.NominatimBaseURL,
		"OSRM_BASE_URL":      c.OSRMBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", name, raw))
		}
	}

	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.ProviderMaxAttempts < 1 {
		errs = append(errs, errors.New("PROVIDER_MAX_ATTEMPTS must be at least 1"))
	}
	if c.SuggestDebounce <= 0 {
		errs = append(errs, errors.New("SUGGEST_DEBOUNCE must be positive"))
	}

	switch c.GeocodeCache {
	case CacheNone:
	case CachePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when GEOCODE_CACHE=postgres"))
		}
	case CacheRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when GEOCODE_CACHE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("GEOCODE_CACHE must be one of none, postgres, redis; got %q", c.GeocodeCache))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
