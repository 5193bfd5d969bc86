package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
	"github.com/mstgnz/medusa-hyperswitch/infra/logger"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS payment_provider (
	id TEXT PRIMARY KEY,
	is_installed BOOLEAN NOT NULL DEFAULT 1,
	settings TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS idempotency_key (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_path TEXT NOT NULL,
	idempotency_key TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(request_path, idempotency_key)
);

CREATE TABLE IF NOT EXISTS refund_event (
	refund_id TEXT PRIMARY KEY,
	payment_id TEXT NOT NULL DEFAULT '',
	event_id TEXT NOT NULL,
	status TEXT NOT NULL,
	amount INTEGER NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT '',
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_refund_event_payment ON refund_event(payment_id);
`

// legacyProviderColumns are added to a payment_provider table created before settings were stored
var legacyProviderColumns = []struct{ name, definition string }{
	{"settings", "TEXT"},
	{"created_at", "DATETIME"},
	{"updated_at", "DATETIME"},
}

// memoryPath is the SQLite in-memory database name
const memoryPath = ":memory:"

// OpenSQLite opens a SQLite database tuned for several processes sharing one file
func OpenSQLite(ctx context.Context, dbPath string) (*Store, error) {
	if dbPath != memoryPath {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_timeout=20000&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// each connection to :memory: opens its own empty database
	if dbPath == memoryPath {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(0)

	store := &Store{
		db: db,
		dialect: dialect{
			name:        "sqlite3",
			isRetryable: isSQLiteBusy,
		},
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := migrateSQLite(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA temp_store = memory;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			logger.Warn(fmt.Sprintf("Failed to execute %s: %v", pragma, err))
		}
	}

	logger.Info("SQLite storage initialized", logger.LogContext{
		Fields: map[string]any{"path": dbPath},
	})
	return store, nil
}

// migrateSQLite adds the columns a legacy payment_provider table is missing
func migrateSQLite(ctx context.Context, db *sql.DB) error {
	for _, column := range legacyProviderColumns {
		var count int
		err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM pragma_table_info('payment_provider') WHERE name = ?`,
			column.name,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to inspect payment_provider: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE payment_provider ADD COLUMN %s %s", column.name, column.definition)); err != nil {
			return fmt.Errorf("failed to add payment_provider.%s: %w", column.name, err)
		}
		logger.Info("Migrated payment_provider", logger.LogContext{
			Fields: map[string]any{"column": column.name},
		})
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
