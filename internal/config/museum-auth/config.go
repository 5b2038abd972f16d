package museum_auth_config

import (
	"strings"
	"time"

	"github.com/I-Yanis-I/museum-app/internal/auth"
	"github.com/I-Yanis-I/museum-app/internal/httpx"
	"github.com/I-Yanis-I/museum-app/internal/obs"
	"github.com/I-Yanis-I/museum-app/internal/outbox"
	"github.com/I-Yanis-I/museum-app/internal/repository/gotrue"
	pg "github.com/I-Yanis-I/museum-app/internal/repository/postgres"
	"github.com/I-Yanis-I/museum-app/internal/session"
	"golang.org/x/time/rate"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

func (a App) Production() bool { return strings.EqualFold(a.Env, "production") }

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

type CORS struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DB struct {
	Driver            string        `mapstructure:"driver"`
	DSN               string        `mapstructure:"dsn"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	QueryTimeout      time.Duration `mapstructure:"query_timeout"`
}

func (d DB) AsPostgresConfig() pg.Config {
	return pg.Config{
		DSN:               d.DSN,
		MaxConns:          d.MaxConns,
		MinConns:          d.MinConns,
		MaxConnLifetime:   d.MaxConnLifetime,
		MaxConnIdleTime:   d.MaxConnIdleTime,
		HealthCheckPeriod: d.HealthCheckPeriod,
		QueryTimeout:      d.QueryTimeout,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc OTEL) AsOTELConfig() obs.OTELConfig {
	return obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Auth struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	Issuer        string        `mapstructure:"issuer"`
	Audience      string        `mapstructure:"audience"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
	BcryptCost    int           `mapstructure:"bcrypt_cost"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`
	CookieDomain  string        `mapstructure:"cookie_domain"`
}

type Session struct {
	SilentRefresh bool `mapstructure:"silent_refresh"`
}

type RateLimit struct {
	Enable          bool          `mapstructure:"enable"`
	Requests        int           `mapstructure:"requests"`
	Window          time.Duration `mapstructure:"window"`
	Burst           int           `mapstructure:"burst"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type IDP struct {
	// Provider is empty for database mode or "gotrue" for hybrid mode.
	Provider   string        `mapstructure:"provider"`
	URL        string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	ServiceKey string        `mapstructure:"service_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func (i IDP) Enabled() bool { return i.Provider != "" }

type Kafka struct {
	Enable            bool          `mapstructure:"enable"`
	Brokers           []string      `mapstructure:"brokers"`
	Topic             string        `mapstructure:"topic"`
	Partitions        int           `mapstructure:"partitions"`
	ReplicationFactor int           `mapstructure:"replication_factor"`
	EnsureTimeout     time.Duration `mapstructure:"ensure_timeout"`
}

type Outbox struct {
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	WaitTime      time.Duration `mapstructure:"wait_time"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type Frontend struct {
	URL string `mapstructure:"url"`
}

type Config struct {
	App       App       `mapstructure:"app"`
	Server    Server    `mapstructure:"server"`
	CORS      CORS      `mapstructure:"cors"`
	DB        DB        `mapstructure:"db"`
	Log       Log       `mapstructure:"log"`
	OTEL      OTEL      `mapstructure:"otel"`
	Auth      Auth      `mapstructure:"auth"`
	Session   Session   `mapstructure:"session"`
	RateLimit RateLimit `mapstructure:"ratelimit"`
	IDP       IDP       `mapstructure:"idp"`
	Kafka     Kafka     `mapstructure:"kafka"`
	Outbox    Outbox    `mapstructure:"outbox"`
	Frontend  Frontend  `mapstructure:"frontend"`
}

func (c *Config) LogConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:   c.Log.Level,
		Format:  c.Log.Format,
		Service: c.App.Name,
		Env:     c.App.Env,
		Version: c.App.Version,
	}
}

func (c *Config) TokensConfig() auth.Config {
	return auth.Config{
		AccessSecret:  []byte(c.Auth.AccessSecret),
		RefreshSecret: []byte(c.Auth.RefreshSecret),
		Issuer:        c.Auth.Issuer,
		Audience:      c.Auth.Audience,
		AccessTTL:     c.Auth.AccessTTL,
		RefreshTTL:    c.Auth.RefreshTTL,
	}
}

// Cookies are Secure in production regardless of auth.cookie_secure.
func (c *Config) Cookies() session.Cookies {
	return session.Cookies{
		Secure:     c.Auth.CookieSecure || c.App.Production(),
		Domain:     c.Auth.CookieDomain,
		AccessTTL:  c.Auth.AccessTTL,
		RefreshTTL: c.Auth.RefreshTTL,
	}
}

// RateLimitConfig spreads the configured window evenly over its request budget.
func (c *Config) RateLimitConfig() httpx.RateLimitConfig {
	rl := httpx.DefaultRateLimitConfig()
	if c.RateLimit.Requests > 0 && c.RateLimit.Window > 0 {
		rl.Rate = rate.Every(c.RateLimit.Window / time.Duration(c.RateLimit.Requests))
	}
	if c.RateLimit.Burst > 0 {
		rl.Burst = c.RateLimit.Burst
	}
	if c.RateLimit.CleanupInterval > 0 {
		rl.CleanupInterval = c.RateLimit.CleanupInterval
	}
	return rl
}

func (c *Config) GoTrueConfig() gotrue.Config {
	return gotrue.Config{
		URL:        c.IDP.URL,
		APIKey:     c.IDP.APIKey,
		ServiceKey: c.IDP.ServiceKey,
		Timeout:    c.IDP.Timeout,
	}
}

func (c *Config) RunnerConfig() outbox.RunnerConfig {
	return outbox.RunnerConfig{
		Workers:       c.Outbox.Workers,
		BatchSize:     c.Outbox.BatchSize,
		WaitTime:      c.Outbox.WaitTime,
		InProgressTTL: c.Outbox.InProgressTTL,
	}
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
