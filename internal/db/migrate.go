package db

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gestao-app/internal/models"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options controls how ConnectAndMigrate opens and prepares the store.
type Options struct {
	DSN        string
	Migrations bool // run SQL migrations instead of AutoMigrate (postgres only)
	Seed       bool
}

// ConnectAndMigrate opens the database and brings the schema up to date.
// An empty DSN falls back to a local sqlite file so the app can run without
// a configured postgres instance.
func ConnectAndMigrate(opts Options) (*gorm.DB, error) {
	dsn := NormalizeDSN(opts.DSN)
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var db *gorm.DB
	var err error
	if dsn == "" {
		fmt.Println("[DB] DATABASE_DSN empty, using local sqlite gestao.db")
		db, err = gorm.Open(sqlite.Open("gestao.db"), cfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite fallback: %w", err)
		}
	} else {
		for i := 0; i < 10; i++ {
			db, err = gorm.Open(postgres.Open(dsn), cfg)
			if err == nil {
				break
			}
			fmt.Println("Retrying DB connection...", err)
			time.Sleep(2 * time.Second)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to connect database after retries: %w", err)
		}
	}

	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	if dsn != "" {
		masked := dsn
		if strings.Contains(masked, "password=") {
			re := regexp.MustCompile(`(password=)([^\s]+)`)
			masked = re.ReplaceAllString(masked, `${1}***`)
		}
		fmt.Println("[DB] Using DSN:", masked)
	}

	if opts.Migrations && dsn != "" {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
	}

	for _, table := range []string{"users", "products", "clients", "sales"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	if opts.Seed {
		if err := SeedAdmin(db); err != nil {
			return nil, fmt.Errorf("seed admin: %w", err)
		}
	}
	return db, nil
}

// AutoMigrate creates or updates every application table.
func AutoMigrate(db *gorm.DB) error {
	toMigrate := []interface{}{
		&models.User{}, &models.Category{}, &models.Product{}, &models.ProductImage{},
		&models.Client{}, &models.ClientImage{}, &models.Sale{},
	}
	for _, m := range toMigrate {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
