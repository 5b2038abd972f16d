package museum_auth_config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ErrMissingSecrets = ErrConfig("auth.access_secret and auth.refresh_secret are required")
	ErrEqualSecrets   = ErrConfig("auth.access_secret and auth.refresh_secret must differ")
	ErrNoDSN          = ErrConfig("db.dsn is required for the postgres driver")
	ErrNoBrokers      = ErrConfig("kafka.brokers is required when kafka is enabled")
)

// Load reads an optional .env file, then the YAML file at path (if any), then
// the environment. Keys map to variables with "." replaced by "_", e.g.
// AUTH_ACCESS_TTL. The secrets also accept JWT_SECRET and JWT_REFRESH_SECRET.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("auth.access_secret", "AUTH_ACCESS_SECRET", "JWT_SECRET")
	_ = v.BindEnv("auth.refresh_secret", "AUTH_REFRESH_SECRET", "JWT_REFRESH_SECRET")
	_ = v.BindEnv("db.dsn", "DB_DSN", "DATABASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "museum-auth")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.version", "dev")

	v.SetDefault("server.http_addr", ":3000")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "15s")
	v.SetDefault("server.trust_proxy", false)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.driver", DriverPostgres)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 20)
	v.SetDefault("db.min_conns", 2)
	v.SetDefault("db.max_conn_lifetime", "30m")
	v.SetDefault("db.max_conn_idle_time", "10m")
	v.SetDefault("db.health_check_period", "30s")
	v.SetDefault("db.query_timeout", "2s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.service_name", "museum-auth")
	v.SetDefault("otel.sample_ratio", 1.0)
	v.SetDefault("otel.otlp_endpoint", "localhost:4317")

	v.SetDefault("auth.access_secret", "")
	v.SetDefault("auth.refresh_secret", "")
	v.SetDefault("auth.issuer", "museum-app")
	v.SetDefault("auth.audience", "museum-api")
	v.SetDefault("auth.access_ttl", "15m")
	v.SetDefault("auth.refresh_ttl", "168h")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.cookie_domain", "")

	v.SetDefault("session.silent_refresh", true)

	v.SetDefault("ratelimit.enable", true)
	v.SetDefault("ratelimit.requests", 10)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("ratelimit.burst", 10)
	v.SetDefault("ratelimit.cleanup_interval", "5m")

	v.SetDefault("idp.provider", "")
	v.SetDefault("idp.url", "")
	v.SetDefault("idp.api_key", "")
	v.SetDefault("idp.service_key", "")
	v.SetDefault("idp.timeout", "10s")

	v.SetDefault("kafka.enable", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "museum.account-events")
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("kafka.replication_factor", 1)
	v.SetDefault("kafka.ensure_timeout", "10s")

	v.SetDefault("outbox.workers", 1)
	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.wait_time", "1s")
	v.SetDefault("outbox.in_progress_ttl", "1m")

	v.SetDefault("frontend.url", "")
}

// Validate never echoes secret values.
func (c *Config) Validate() error {
	if c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "" {
		return ErrMissingSecrets
	}
	if c.Auth.AccessSecret == c.Auth.RefreshSecret {
		return ErrEqualSecrets
	}
	switch c.DB.Driver {
	case DriverPostgres:
		if c.DB.DSN == "" {
			return ErrNoDSN
		}
	case DriverMemory:
	default:
		return ErrConfig(fmt.Sprintf("unknown db.driver %q", c.DB.Driver))
	}
	switch c.IDP.Provider {
	case "":
	case "gotrue":
		if c.IDP.URL == "" {
			return ErrConfig("idp.url is required for the gotrue provider")
		}
	default:
		return ErrConfig(fmt.Sprintf("unknown idp.provider %q", c.IDP.Provider))
	}
	if c.Kafka.Enable && len(c.Kafka.Brokers) == 0 {
		return ErrNoBrokers
	}
	return nil
}
