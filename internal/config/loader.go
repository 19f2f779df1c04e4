package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"

	envPrefix = "BOOKSTORE"
)

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then BOOKSTORE_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.read_timeout", d.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", d.HTTP.WriteTimeout)
	v.SetDefault("http.shutdown_timeout", d.HTTP.ShutdownTimeout)

	v.SetDefault("grpc.addr", d.GRPC.Addr)

	v.SetDefault("storage.driver", d.Storage.Driver)

	v.SetDefault("mysql.dsn", d.MySQL.DSN)
	v.SetDefault("mysql.max_open_conns", d.MySQL.MaxOpenConns)
	v.SetDefault("mysql.max_idle_conns", d.MySQL.MaxIdleConns)
	v.SetDefault("mysql.conn_max_lifetime", d.MySQL.ConnMaxLifetime)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.pool_size", d.Redis.PoolSize)

	v.SetDefault("session.cookie_name", d.Session.CookieName)
	v.SetDefault("session.ttl", d.Session.TTL)
	v.SetDefault("session.secure", d.Session.Secure)

	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.access_token_ttl", d.Auth.AccessTokenTTL)

	for method, rate := range d.Payment.SuccessRates {
		v.SetDefault("payment.success_rates."+method, rate)
	}
	v.SetDefault("payment.default_rate", d.Payment.DefaultRate)

	v.SetDefault("activity.workers", d.Activity.Workers)
	v.SetDefault("activity.queue_size", d.Activity.QueueSize)
	v.SetDefault("activity.bulk_limit", d.Activity.BulkLimit)

	v.SetDefault("rate_limit.enabled", d.RateLimit.Enabled)
	v.SetDefault("rate_limit.rps", d.RateLimit.RPS)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverMySQL, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret: must not be empty"))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("session.cookie_name: must not be empty"))
	}
	if c.Activity.Workers < 1 || c.Activity.QueueSize < 1 {
		errs = append(errs, errors.New("activity: workers and queue_size must be positive"))
	}
	for method, rate := range c.Payment.SuccessRates {
		if rate < 0 || rate > 1 {
			errs = append(errs, fmt.Errorf("payment.success_rates.%s: %v is outside [0, 1]", method, rate))
		}
	}
	if c.Payment.DefaultRate < 0 || c.Payment.DefaultRate > 1 {
		errs = append(errs, fmt.Errorf("payment.default_rate: %v is outside [0, 1]", c.Payment.DefaultRate))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
