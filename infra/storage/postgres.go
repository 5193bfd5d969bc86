package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/mstgnz/medusa-hyperswitch/infra/logger"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS payment_provider (
	id TEXT PRIMARY KEY,
	is_installed BOOLEAN NOT NULL DEFAULT TRUE,
	settings TEXT,
	created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS idempotency_key (
	id BIGSERIAL PRIMARY KEY,
	request_path TEXT NOT NULL,
	idempotency_key TEXT NOT NULL,
	created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(request_path, idempotency_key)
);

CREATE TABLE IF NOT EXISTS refund_event (
	refund_id TEXT PRIMARY KEY,
	payment_id TEXT NOT NULL DEFAULT '',
	event_id TEXT NOT NULL,
	status TEXT NOT NULL,
	amount BIGINT NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_refund_event_payment ON refund_event(payment_id);

ALTER TABLE payment_provider ADD COLUMN IF NOT EXISTS settings TEXT;
ALTER TABLE payment_provider ADD COLUMN IF NOT EXISTS created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP;
ALTER TABLE payment_provider ADD COLUMN IF NOT EXISTS updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP;
`

// connectAttempts bounds how long startup waits for the database to come up
const connectAttempts = 5

// OpenPostgres connects to PostgreSQL, retrying while the server is starting
func OpenPostgres(ctx context.Context, dbURL string) (*Store, error) {
	if dbURL == "" {
		return nil, errors.New("DATABASE_URL is required for the postgres driver")
	}

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err := sql.Open("postgres", dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(2 * time.Minute)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
				db.Close()
				return nil, fmt.Errorf("failed to initialize schema: %w", err)
			}
			logger.Info("PostgreSQL storage initialized")
			return &Store{
				db: db,
				dialect: dialect{
					name:        "postgres",
					numbered:    true,
					isRetryable: isPostgresRetryable,
				},
			}, nil
		}

		lastErr = err
		db.Close()
		logger.Warn(fmt.Sprintf("Attempt %d: failed to ping DB: %v", attempt, err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}

	return nil, fmt.Errorf("failed to connect to DB after %d attempts: %w", connectAttempts, lastErr)
}

// IsSerializationFailure reports whether err is a PostgreSQL serialization failure
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001"
	}
	return false
}

func isPostgresRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// lock_not_available, deadlock_detected
		return pqErr.Code == "55P03" || pqErr.Code == "40P01"
	}
	return false
}
