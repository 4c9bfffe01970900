package config

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSSLMode = "require"

type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SSLMode         string // used when POSTGRES_SSLMODE is unset
	SlowThreshold   time.Duration
	LogLevel        gormlogger.LogLevel
}

// DefaultDBConfig reads DB_MAX_IDLE_CONNS, DB_MAX_OPEN_CONNS, DB_CONN_MAX_LIFETIME,
// DB_SLOW_QUERY_THRESHOLD and DB_LOG_LEVEL (silent, error, warn, info).
func DefaultDBConfig() *DBConfig {
	return &DBConfig{
		MaxIdleConns:    utils.GetEnvPositiveInt("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    utils.GetEnvPositiveInt("DB_MAX_OPEN_CONNS", 25),
		ConnMaxLifetime: utils.GetEnvPositiveDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		SSLMode:         defaultSSLMode,
		SlowThreshold:   utils.GetEnvPositiveDuration("DB_SLOW_QUERY_THRESHOLD", 200*time.Millisecond),
		LogLevel:        parseGormLogLevel(utils.GetEnvTrimmed("DB_LOG_LEVEL")),
	}
}

func parseGormLogLevel(v string) gormlogger.LogLevel {
	switch strings.ToLower(v) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// newGormLogger drops record-not-found noise: a lookup for an unknown entry is a normal answer.
func newGormLogger(cfg *DBConfig) gormlogger.Interface {
	return gormlogger.New(stdlog.New(os.Stdout, "", stdlog.LstdFlags), gormlogger.Config{
		SlowThreshold:             cfg.SlowThreshold,
		LogLevel:                  cfg.LogLevel,
		IgnoreRecordNotFoundError: true,
	})
}

func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if cfg == nil {
		cfg = DefaultDBConfig()
	}

	dsn, err := ResolveDSN(logger, cfg.SSLMode)
	if err != nil {
		logger.Error("Invalid database configuration", "error", err)
		return nil, err
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: newGormLogger(cfg)})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("Database ping failed", "error", err)
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established", "max_open_conns", cfg.MaxOpenConns)
	return gdb, nil
}

// ResolveDSN prefers APP_DATABASE_URL and otherwise assembles a DSN from POSTGRES_*.
// sslMode applies when POSTGRES_SSLMODE is unset.
func ResolveDSN(logger *log.Logger, sslMode string) (string, error) {
	if url := envString("APP_DATABASE_URL", ""); url != "" {
		logger.Info("Using APP_DATABASE_URL for database connection")
		return url, nil
	}

	var (
		host   = envString("POSTGRES_HOST", "")
		port   = envString("POSTGRES_PORT", "")
		user   = envString("POSTGRES_USER", "")
		pass   = envString("POSTGRES_PASSWORD", "")
		dbName = envString("POSTGRES_DB_NAME", "")
		ssl    = envString("POSTGRES_SSLMODE", "")
	)
	if ssl == "" {
		ssl = sslMode
	}
	if ssl == "" {
		ssl = defaultSSLMode
	}

	var missing []string
	for name, value := range map[string]string{
		"POSTGRES_HOST": host, "POSTGRES_PORT": port, "POSTGRES_USER": user, "POSTGRES_DB_NAME": dbName,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("missing required database env vars: %s", strings.Join(missing, ", "))
	}

	portNum, err := strconv.Atoi(port)
	if err != nil || portNum <= 0 {
		return "", fmt.Errorf("invalid POSTGRES_PORT %q", port)
	}

	logger.Info("Connecting to database", "host", host, "port", portNum, "user", user, "dbname", dbName, "sslmode", ssl)

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, portNum, user, pass, dbName, ssl), nil
}

var errNilDB = errors.New("cannot migrate: db is nil")

// AutoMigrate is the development path; shared environments use the migrate CLI.
func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...any) error {
	if db == nil {
		logger.Error("Cannot migrate without a database")
		return errNilDB
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Database auto-migration failed", "error", err)
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database auto-migration completed", "models", len(models))
	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
		return
	}
	logger.Info("Database closed")
}
