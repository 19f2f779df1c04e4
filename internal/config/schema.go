package config

import "time"

// Config is the full server configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	GRPC      GRPCConfig      `yaml:"grpc" mapstructure:"grpc"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	MySQL     MySQLConfig     `yaml:"mysql" mapstructure:"mysql"`
	Redis     RedisConfig     `yaml:"redis" mapstructure:"redis"`
	Session   SessionConfig   `yaml:"session" mapstructure:"session"`
	Auth      AuthConfig      `yaml:"auth" mapstructure:"auth"`
	Payment   PaymentConfig   `yaml:"payment" mapstructure:"payment"`
	Activity  ActivityConfig  `yaml:"activity" mapstructure:"activity"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

type GRPCConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// StorageConfig selects the relational backend: "mysql" or "memory".
type StorageConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
}

type MySQLConfig struct {
	DSN             string        `yaml:"dsn" mapstructure:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	PoolSize int    `yaml:"pool_size" mapstructure:"pool_size"`
}

type SessionConfig struct {
	CookieName string        `yaml:"cookie_name" mapstructure:"cookie_name"`
	TTL        time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Secure     bool          `yaml:"secure" mapstructure:"secure"`
}

type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" mapstructure:"access_token_ttl"`
}

// PaymentConfig tunes the mock gateway. SuccessRates is keyed by payment
// method; methods missing from it use DefaultRate.
type PaymentConfig struct {
	SuccessRates map[string]float64 `yaml:"success_rates" mapstructure:"success_rates"`
	DefaultRate  float64            `yaml:"default_rate" mapstructure:"default_rate"`
}

type ActivityConfig struct {
	Workers   int `yaml:"workers" mapstructure:"workers"`
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size"`
	BulkLimit int `yaml:"bulk_limit" mapstructure:"bulk_limit"`
}

type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" mapstructure:"enabled"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
	Burst   int     `yaml:"burst" mapstructure:"burst"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}
