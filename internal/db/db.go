package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps the Postgres connection used for the transcript archive.
type DB struct {
	*sql.DB
}

// New opens and pings dsn. When the server refuses TLS and the DSN does not
// pin an sslmode, it retries once with sslmode=disable.
func New(dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database connection string is required")
	}
	sqlDB, err := open(dsn)
	if err != nil {
		if strings.Contains(strings.ToLower(dsn), "sslmode") {
			return nil, err
		}
		slog.Warn("retrying database connection with SSL disabled", "error", err)
		sqlDB, err = open(withSSLDisabled(dsn))
		if err != nil {
			return nil, err
		}
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return &DB{DB: sqlDB}, nil
}

func open(dsn string) (*sql.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return sqlDB, nil
}

func withSSLDisabled(dsn string) string {
	if strings.Contains(dsn, "://") {
		if strings.Contains(dsn, "?") {
			return dsn + "&sslmode=disable"
		}
		return dsn + "?sslmode=disable"
	}
	// key=value form
	return dsn + " sslmode=disable"
}

func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

// RunMigrations applies every NNN_name.sql file in dir that is not yet
// recorded in schema_migrations, each in its own transaction.
func (db *DB) RunMigrations(dir string) error {
	migrations, err := readMigrations(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	if len(migrations) == 0 {
		slog.Info("no migrations found", "dir", dir)
		return nil
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	for _, m := range migrations {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = $1", m.Number).Scan(&count); err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			slog.Debug("migration already applied", "version", m.Number)
			continue
		}
		if err := db.apply(m); err != nil {
			return err
		}
		slog.Info("migration applied", "version", m.Number, "name", m.Name)
	}
	return nil
}

func (db *DB) apply(m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.Exec(m.SQL); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to execute migration %d: %w", m.Number, err)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", m.Number, m.Name); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

type Migration struct {
	Number int
	Name   string
	SQL    string
}

// readMigrations returns the migrations in dir sorted by number. Files whose
// name does not start with a number are ignored.
func readMigrations(dir string) ([]Migration, error) {
	var migrations []Migration
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		num, rest, ok := strings.Cut(d.Name(), "_")
		if !ok {
			return nil
		}
		number, err := strconv.Atoi(num)
		if err != nil {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", d.Name(), err)
		}
		migrations = append(migrations, Migration{
			Number: number,
			Name:   strings.TrimSuffix(rest, ".sql"),
			SQL:    string(b),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Number < migrations[j].Number
	})
	return migrations, nil
}
