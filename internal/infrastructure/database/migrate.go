package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // file:// source
	_ "github.com/lib/pq"                                 // postgres driver for database/sql

	"fulfillment-backend/pkg/logger"
)

// Migrator applies the SQL files under a directory to one database.
type Migrator struct {
	db *sql.DB
	m  *migrate.Migrate
}

// NewMigrator opens dsn with lib/pq and binds golang-migrate to dir.
func NewMigrator(dsn, dir string) (*Migrator, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load migrations from %s: %w", dir, err)
	}
	m.Log = migrateLogger{}
	return &Migrator{db: db, m: m}, nil
}

func (mg *Migrator) Up() error {
	return ignoreNoChange(mg.m.Up())
}

// Down rolls back steps migrations; steps <= 0 rolls back everything.
func (mg *Migrator) Down(steps int) error {
	if steps <= 0 {
		return ignoreNoChange(mg.m.Down())
	}
	return ignoreNoChange(mg.m.Steps(-steps))
}

func (mg *Migrator) Force(version int) error {
	return mg.m.Force(version)
}

// Version returns 0 when no migration has been applied.
func (mg *Migrator) Version() (uint, bool, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("database migration: no change needed", nil)
		return nil
	}
	return err
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	logger.Info(fmt.Sprintf("DB Migration: "+format, v...), nil)
}

func (migrateLogger) Verbose() bool { return false }
