package config

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"leaflens/internal/utils"
)

const (
	BackendAuto     = "auto"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// ConnectDB opens the storage backend named by STORAGE_BACKEND and reports
// which one is in use. With "auto" the postgres database is probed once and
// the in-memory backend is used when it cannot be reached.
func ConnectDB(logger *zap.Logger) (*gorm.DB, string, error) {
	backend := strings.ToLower(utils.GetConfig("STORAGE_BACKEND"))

	switch backend {
	case BackendPostgres:
		db, err := openPostgres()
		return db, backend, err
	case BackendSQLite:
		db, err := openSQLite(utils.GetConfig("SQLITE_PATH"))
		return db, backend, err
	case BackendMemory:
		db, err := openMemory()
		return db, backend, err
	case BackendAuto, "":
		if utils.GetConfig("DB_HOST") != "" {
			db, err := openPostgres()
			if err == nil {
				return db, BackendPostgres, nil
			}
			logger.Warn("postgres unreachable, falling back to in-memory storage", zap.Error(err))
		} else {
			logger.Warn("no database configured, using in-memory storage")
		}
		db, err := openMemory()
		return db, BackendMemory, err
	default:
		return nil, "", fmt.Errorf("unknown STORAGE_BACKEND %q", backend)
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	}
}

func openPostgres() (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC connect_timeout=5",
		utils.GetConfig("DB_HOST"),
		utils.GetConfig("DB_USER"),
		utils.GetConfig("DB_PASSWORD"),
		utils.GetConfig("DB_NAME"),
		utils.GetConfig("DB_PORT"),
	)

	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, nil
}

func openSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_journal_mode=WAL"), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return db, nil
}

// openMemory keeps everything in a single shared in-memory sqlite connection.
// Data is lost when the process exits.
func openMemory() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open("file:leaflens?mode=memory&cache=shared"), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open in-memory storage: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
