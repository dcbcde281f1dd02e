package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	JWT       JWTSettings       `mapstructure:"jwt"`
	Cookie    CookieSettings    `mapstructure:"cookie"`
	Lockout   LockoutSettings   `mapstructure:"lockout"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Argon2    Argon2Settings    `mapstructure:"argon2"`
	Reset     ResetSettings     `mapstructure:"reset"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// DSN renders the connection string for both the pool and the migrator.
func (s PostgresSettings) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User,
		s.Password,
		s.Host,
		s.Port,
		s.Database,
		s.SSLMode,
	)
}

// RedisSettings configures the Redis connection used by the rate limiter.
type RedisSettings struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	DB         int    `mapstructure:"db"`
	Password   string `mapstructure:"password"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
}

// KafkaSettings configures the auth event producer. Empty brokers fall back
// to the logging stub publisher.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

type JWTSettings struct {
	KeyDirectory    string        `mapstructure:"key_directory"`
	KeyID           string        `mapstructure:"key_id"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// CookieSettings shapes the auth cookie pair set by login and refresh.
type CookieSettings struct {
	Domain string `mapstructure:"domain"`
	Secure bool   `mapstructure:"secure"`
}

// LockoutSettings tunes the account lock policy.
type LockoutSettings struct {
	MaxFailedAttempts int           `mapstructure:"max_failed_attempts"`
	LockDuration      time.Duration `mapstructure:"lock_duration"`
}

// RateLimitSettings configures sliding-window limits per endpoint.
type RateLimitSettings struct {
	WindowDuration           time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts         int           `mapstructure:"login_max_attempts"`
	PasswordResetMaxAttempts int           `mapstructure:"password_reset_max_attempts"`
}

// Argon2Settings configures Argon2id password hashing parameters.
type Argon2Settings struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

// ResetSettings controls password reset token issuance.
type ResetSettings struct {
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	// RevealToken returns the raw token in the API response for environments
	// without a mail channel. Forced off in production.
	RevealToken bool `mapstructure:"reveal_token"`
}

// defaults holds every configuration key and its fallback value. The key set
// also drives environment binding, so new settings only need one entry here.
var defaults = map[string]any{
	"app.name": "student-point-app",
	"app.env":  "development",
	"app.host": "0.0.0.0",
	"app.port": 8080,

	"postgres.host":                "localhost",
	"postgres.port":                5432,
	"postgres.user":                "school",
	"postgres.password":            "school_password",
	"postgres.database":            "school",
	"postgres.ssl_mode":            "disable",
	"postgres.max_conns":           10,
	"postgres.min_conns":           2,
	"postgres.max_conn_lifetime":   "60m",
	"postgres.max_conn_idle_time":  "15m",
	"postgres.health_check_period": "30s",

	"redis.host":        "localhost",
	"redis.port":        6379,
	"redis.db":          0,
	"redis.password":    "",
	"redis.tls_enabled": false,

	"kafka.brokers":      []string{},
	"kafka.topic_prefix": "school.auth",

	"jwt.key_directory":     "./secrets",
	"jwt.key_id":            "v1",
	"jwt.access_token_ttl":  "24h",
	"jwt.refresh_token_ttl": "168h",

	"cookie.domain": "",
	"cookie.secure": false,

	"lockout.max_failed_attempts": 5,
	"lockout.lock_duration":       "15m",

	"rate_limit.window_duration":             "1m",
	"rate_limit.login_max_attempts":          10,
	"rate_limit.password_reset_max_attempts": 3,

	"argon2.memory":      65536,
	"argon2.iterations":  3,
	"argon2.parallelism": 4,
	"argon2.salt_length": 16,
	"argon2.key_length":  32,

	"reset.token_ttl":    "1h",
	"reset.reveal_token": false,
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("SPA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, value := range defaults {
		v.SetDefault(key, value)
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "SPA_"+envKey, envKey); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Production never reveals reset tokens or sends cookies over plain HTTP.
	if cfg.App.Env == "production" {
		cfg.Cookie.Secure = true
		cfg.Reset.RevealToken = false
	}

	return &cfg, nil
}
