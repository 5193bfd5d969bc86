package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mstgnz/medusa-hyperswitch/infra/config"
	"github.com/mstgnz/medusa-hyperswitch/infra/logger"
	"github.com/mstgnz/medusa-hyperswitch/provider"
)

// WebhookRequestPath is the fixed route identifier idempotency records are scoped to
const WebhookRequestPath = "/hyperswitch/hooks"

// ErrSettingsNotFound is returned when the provider row has no settings yet
var ErrSettingsNotFound = errors.New("provider settings not found")

// RefundEvent is a refund status change reported by the vendor
type RefundEvent struct {
	RefundID  string
	PaymentID string
	EventID   string
	Status    string
	Amount    int64
	Currency  string
	UpdatedAt time.Time
}

// dialect hides the few differences between the supported SQL engines
type dialect struct {
	name        string
	numbered    bool
	isRetryable func(error) bool
}

// Store persists provider settings, webhook idempotency records and refund events
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open opens the store for the configured driver
func Open(ctx context.Context, cfg *config.AppConfig) (*Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		return OpenPostgres(ctx, cfg.DatabaseURL)
	case "sqlite3", "sqlite", "":
		return OpenSQLite(ctx, cfg.DBPath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// DB returns the underlying database handle
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the name of the database engine
func (s *Store) Driver() string {
	return s.dialect.name
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// bind rewrites ? placeholders for engines using numbered parameters
func (s *Store) bind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// retryOperation retries an operation while the engine reports a transient lock error
func (s *Store) retryOperation(ctx context.Context, operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		if s.dialect.isRetryable == nil || !s.dialect.isRetryable(err) {
			return err
		}

		lastErr = err
		if attempt == maxRetries {
			break
		}

		backoff := time.Duration(10*(1<<attempt)) * time.Millisecond
		logger.Debug("Database busy, retrying", logger.LogContext{
			Fields: map[string]any{"backoff": backoff.String(), "attempt": attempt + 1},
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

// LoadProviderSettings returns the raw settings blob of a payment provider row
func (s *Store) LoadProviderSettings(ctx context.Context, providerID string) (string, error) {
	var settings sql.NullString
	err := s.retryOperation(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			s.bind(`SELECT settings FROM payment_provider WHERE id = ?`),
			providerID,
		).Scan(&settings)
	}, 3)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !settings.Valid) {
		return "", ErrSettingsNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load provider settings: %w", err)
	}
	return settings.String, nil
}

// SaveProviderSettings stores the settings blob on a payment provider row
func (s *Store) SaveProviderSettings(ctx context.Context, providerID, settings string) error {
	return s.retryOperation(ctx, func() error {
		_, err := s.db.ExecContext(ctx, s.bind(`
		INSERT INTO payment_provider (id, is_installed, settings, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id)
		DO UPDATE SET
			settings = excluded.settings,
			updated_at = CURRENT_TIMESTAMP
		`), providerID, true, settings)
		if err != nil {
			return fmt.Errorf("failed to save provider settings: %w", err)
		}
		return nil
	}, 3)
}

// Claim records an idempotency key and reports whether this caller created it.
// Concurrent claims of the same key have exactly one winner.
func (s *Store) Claim(ctx context.Context, requestPath, key string) (bool, error) {
	var claimed bool
	err := s.retryOperation(ctx, func() error {
		result, err := s.db.ExecContext(ctx, s.bind(`
		INSERT INTO idempotency_key (request_path, idempotency_key, created_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (request_path, idempotency_key) DO NOTHING
		`), requestPath, key)
		if err != nil {
			return fmt.Errorf("failed to claim idempotency key: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		claimed = rows == 1
		return nil
	}, 3)
	return claimed, err
}

// Release removes an idempotency key so a redelivered event is processed again
func (s *Store) Release(ctx context.Context, requestPath, key string) error {
	return s.retryOperation(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			s.bind(`DELETE FROM idempotency_key WHERE request_path = ? AND idempotency_key = ?`),
			requestPath, key,
		)
		if err != nil {
			return fmt.Errorf("failed to release idempotency key: %w", err)
		}
		return nil
	}, 3)
}

// UpdateRefund records the refund status carried by a refund webhook
func (s *Store) UpdateRefund(ctx context.Context, event *provider.WebhookEvent) error {
	obj := event.Content.Object
	refundID := obj.RefundID
	if refundID == "" {
		return fmt.Errorf("refund event %s has no refund_id", event.EventID)
	}

	status := obj.Status
	if status == "" {
		status = strings.TrimPrefix(event.EventType, "refund_")
	}

	return s.retryOperation(ctx, func() error {
		_, err := s.db.ExecContext(ctx, s.bind(`
		INSERT INTO refund_event (refund_id, payment_id, event_id, status, amount, currency, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (refund_id)
		DO UPDATE SET
			event_id = excluded.event_id,
			status = excluded.status,
			amount = excluded.amount,
			currency = excluded.currency,
			updated_at = CURRENT_TIMESTAMP
		`), refundID, obj.PaymentID, event.EventID, status, obj.Amount, obj.Currency)
		if err != nil {
			return fmt.Errorf("failed to record refund: %w", err)
		}
		return nil
	}, 3)
}

// GetRefund returns the last recorded state of a refund
func (s *Store) GetRefund(ctx context.Context, refundID string) (*RefundEvent, error) {
	var r RefundEvent
	err := s.db.QueryRowContext(ctx, s.bind(`
	SELECT refund_id, payment_id, event_id, status, amount, currency, updated_at
	FROM refund_event
	WHERE refund_id = ?
	`), refundID).Scan(&r.RefundID, &r.PaymentID, &r.EventID, &r.Status, &r.Amount, &r.Currency, &r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load refund %s: %w", refundID, err)
	}
	return &r, nil
}
