package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rl1809/bookstore/internal/adapter/storage"
	"github.com/rl1809/bookstore/internal/config"
	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/port"
)

var Version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "bookstore",
		Short:        "Bookstore API server",
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, false)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "create missing tables before serving")

	return cmd
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create any missing MySQL tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Log)

			if cfg.Storage.Driver != config.DriverMySQL {
				return fmt.Errorf("migrate needs storage.driver %q, got %q", config.DriverMySQL, cfg.Storage.Driver)
			}

			ctx := cmd.Context()
			db, err := openMySQL(ctx, cfg.MySQL)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := storage.NewMySQLAdapter(db).Migrate(ctx)
			if err != nil {
				return err
			}
			logger.Info("schema applied", "statements", applied)
			return nil
		},
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// store is every repository the services need plus a health ping. Both the
// MySQL and the in-memory adapters satisfy it.
type store interface {
	port.CatalogRepository
	port.OrderRepository
	port.PaymentRepository
	port.ActivityRepository
	port.CustomerRepository
	Ping(ctx context.Context) error
}

func openMySQL(ctx context.Context, cfg config.MySQLConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

func openRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// seedDemoCatalog gives the in-memory driver something to browse.
func seedDemoCatalog(m *storage.MemoryAdapter) {
	herbert := m.AddAuthor(domain.Author{Name: "Frank Herbert"})
	austen := m.AddAuthor(domain.Author{Name: "Jane Austen"})
	scifi := m.AddCategory(domain.Category{Name: "Science Fiction"})
	classics := m.AddCategory(domain.Category{Name: "Classics"})
	chilton := m.AddPublisher(domain.Publisher{Name: "Chilton Books"})

	published := time.Date(1965, time.August, 1, 0, 0, 0, 0, time.UTC)
	books := []domain.Book{
		{Title: "Dune", AuthorID: &herbert.ID, CategoryID: &scifi.ID, PublisherID: &chilton.ID, Price: price("12.50"), Stock: 25, PublicationDate: &published},
		{Title: "Children of Dune", AuthorID: &herbert.ID, CategoryID: &scifi.ID, Price: price("10.99"), Stock: 8},
		{Title: "Emma", AuthorID: &austen.ID, CategoryID: &classics.ID, Price: price("7.25"), Stock: 12},
		{Title: "Persuasion", AuthorID: &austen.ID, CategoryID: &classics.ID, Price: price("6.80")},
	}
	for _, b := range books {
		m.AddBook(b)
	}
}

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
