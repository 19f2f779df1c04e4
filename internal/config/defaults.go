package config

import "time"

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		GRPC: GRPCConfig{
			Addr: ":50051",
		},
		Storage: StorageConfig{
			Driver: DriverMySQL,
		},
		MySQL: MySQLConfig{
			DSN:             "root:root@tcp(localhost:3306)/bookstore?parseTime=true",
			MaxOpenConns:    50,
			MaxIdleConns:    25,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 100,
		},
		Session: SessionConfig{
			CookieName: "sessionid",
			TTL:        14 * 24 * time.Hour,
		},
		Auth: AuthConfig{
			JWTSecret:      "change-me",
			AccessTokenTTL: 60 * time.Minute,
		},
		Payment: PaymentConfig{
			SuccessRates: map[string]float64{
				"credit_card":      0.95,
				"debit_card":       0.93,
				"paypal":           0.98,
				"bank_transfer":    0.99,
				"cash_on_delivery": 1.0,
			},
			DefaultRate: 0.9,
		},
		Activity: ActivityConfig{
			Workers:   4,
			QueueSize: 1024,
			BulkLimit: 500,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     20,
			Burst:   40,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
