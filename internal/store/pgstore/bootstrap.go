package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"droneops/showlog/internal/config"
	"droneops/showlog/internal/logging"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	connectAttempts = 10
	connectBackoff  = 500 * time.Millisecond
)

func dsn(cfg config.PostgresConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode)
}

// adminDSN targets the maintenance database, used only to create the
// application database when it does not exist yet.
func adminDSN(cfg config.PostgresConfig) string {
	admin := cfg
	admin.DBName = "postgres"
	return dsn(admin)
}

// quoteIdent makes an identifier safe for interpolation. CREATE DATABASE and
// CREATE SCHEMA cannot take bind parameters.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// isMissingDatabase classifies a connect error as "database does not exist"
// (SQLSTATE 3D000).
func isMissingDatabase(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "3D000"
	}
	return err != nil && strings.Contains(err.Error(), "does not exist")
}

// isDuplicateDatabase matches SQLSTATE 42P04, raced CREATE DATABASE calls.
func isDuplicateDatabase(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42P04"
}

func connectRetry(driverDSN string) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error
	for i := 0; i < connectAttempts; i++ {
		db, err = sqlx.Connect("postgres", driverDSN)
		if err == nil {
			return db, nil
		}
		if isMissingDatabase(err) {
			return nil, err
		}
		time.Sleep(connectBackoff)
	}
	return nil, err
}

// connect opens the application database, creating it through the maintenance
// database on first run.
func connect(cfg config.PostgresConfig) (*sqlx.DB, error) {
	db, err := connectRetry(dsn(cfg))
	if err == nil {
		return db, nil
	}
	if !isMissingDatabase(err) {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	logging.Info("database missing, creating it", "database", cfg.DBName)
	admin, adminErr := connectRetry(adminDSN(cfg))
	if adminErr != nil {
		return nil, fmt.Errorf("failed to connect to maintenance database: %w", adminErr)
	}
	defer admin.Close()

	if _, execErr := admin.Exec("CREATE DATABASE " + quoteIdent(cfg.DBName)); execErr != nil && !isDuplicateDatabase(execErr) {
		return nil, fmt.Errorf("failed to create database %s: %w", cfg.DBName, execErr)
	}

	db, err = connectRetry(dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// migrate bootstraps the schema additively through gorm's migrator, then
// releases the extra connection pool it opened.
func (s *Store) migrate(ctx context.Context) error {
	if s.cfg.Schema != "" {
		if _, err := s.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+quoteIdent(s.cfg.Schema)); err != nil {
			return fmt.Errorf("failed to create schema %s: %w", s.cfg.Schema, err)
		}
	}

	orm, err := gorm.Open(gormPostgres.Open(dsn(s.cfg)), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to postgres via gorm: %w", err)
	}
	defer func() {
		if sqlDB, dbErr := orm.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
	}()

	migrations := []struct {
		table string
		model interface{}
	}{
		{s.table("shows"), &showRow{}},
		{s.table("archived_shows"), &archivedShowRow{}},
		{s.table("staff"), &staffRow{}},
	}
	for _, m := range migrations {
		if err := orm.WithContext(ctx).Table(m.table).AutoMigrate(m.model); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", m.table, err)
		}
	}
	return nil
}

// table returns the schema-qualified name used in query templates. gorm's
// migrator parses the dotted form itself, so the name stays unquoted.
func (s *Store) table(name string) string {
	if s.cfg.Schema == "" {
		return name
	}
	return s.cfg.Schema + "." + name
}
