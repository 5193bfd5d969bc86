package reconcile

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mstgnz/medusa-hyperswitch/infra/storage"
)

const (
	serializationFailure = "40001"
	conflictCode         = "409"
)

// IsSerializationFailure reports whether err is a database serialization failure,
// either raised directly or reported by the cart completion strategy
func IsSerializationFailure(err error) bool {
	if storage.IsSerializationFailure(err) {
		return true
	}
	var ce *CompletionError
	return errors.As(err, &ce) && ce.Code == serializationFailure
}

// BuildError renders the message logged and returned when handling an event fails
func BuildError(eventType string, err error) string {
	detail := errorDetail(err)

	if IsSerializationFailure(err) {
		return fmt.Sprintf("Hyperswitch webhook %s handle failed. This can happen when this webhook is triggered during a cart completion and can be ignored. This event should be retried automatically.\n%s", eventType, detail)
	}

	var ce *CompletionError
	if errors.As(err, &ce) && ce.Code == conflictCode {
		return fmt.Sprintf("Hyperswitch webhook %s handle failed.\n%s", eventType, detail)
	}

	return fmt.Sprintf("Hyperswitch webhook %s handling failed\n%s", eventType, detail)
}

func errorDetail(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Detail != "" {
		return pqErr.Detail
	}
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}
