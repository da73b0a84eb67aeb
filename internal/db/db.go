package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"orderhub/internal/model"
)

// Open returns a connected GORM DB for a DATABASE_URL of the form
// mysql://<go-sql-driver dsn>, postgres://..., or sqlite://<path>.
func Open(databaseURL string) (*gorm.DB, error) {
	dialector, memory, err := buildDialector(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if memory {
		// every new connection to :memory: would see an empty database
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetConnMaxIdleTime(2 * time.Minute)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func buildDialector(databaseURL string) (gorm.Dialector, bool, error) {
	scheme, rest, ok := strings.Cut(databaseURL, "://")
	if !ok {
		return nil, false, fmt.Errorf("DATABASE_URL %q has no scheme", databaseURL)
	}
	switch scheme {
	case "sqlite", "sqlite3":
		if rest == "" {
			return nil, false, fmt.Errorf("DATABASE_URL %q has no path", databaseURL)
		}
		memory := rest == ":memory:" || strings.Contains(rest, "mode=memory")
		return sqlite.Open(rest), memory, nil
	case "postgres", "postgresql":
		return postgres.Open(databaseURL), false, nil
	case "mysql":
		return mysql.Open(rest), false, nil
	default:
		return nil, false, fmt.Errorf("unsupported database scheme %q (supported: sqlite, postgres, mysql)", scheme)
	}
}

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Order{}, &model.OrderItem{}, &model.Lock{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Reset drops all tables. Intended for local development only.
func Reset(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&model.Lock{}, &model.OrderItem{}, &model.Order{}, &model.User{}); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}
