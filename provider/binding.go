package provider

import (
	"context"
	"encoding/json"
	"errors"
)

// Result is what a host binding returns for one lifecycle call: a success body,
// a structured failure, or nothing at all.
type Result struct {
	body any
	err  *PaymentError
}

// OK wraps a success body
func OK(body any) Result {
	return Result{body: body}
}

// Fail wraps a structured failure
func Fail(err *PaymentError) Result {
	return Result{err: err}
}

// Empty is the explicit no-result outcome
func Empty() Result {
	return Result{}
}

// Failed reports whether the call produced a structured failure
func (r Result) Failed() bool {
	return r.err != nil
}

// IsEmpty reports whether the call produced neither a body nor a failure
func (r Result) IsEmpty() bool {
	return r.err == nil && r.body == nil
}

// Err returns the structured failure, if any
func (r Result) Err() *PaymentError {
	return r.err
}

// Body returns the success body, if any
func (r Result) Body() any {
	return r.body
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.err != nil {
		return json.Marshal(r.err)
	}
	return json.Marshal(r.body)
}

// SessionBinding is the host-facing shape of the payment lifecycle.
// Each host platform generation gets its own binding around one PaymentProvider.
type SessionBinding interface {
	InitiatePayment(ctx context.Context, input InitiateInput) Result
	UpdatePayment(ctx context.Context, input UpdateInput) Result
	AuthorizePayment(ctx context.Context, data SessionData) Result
	CapturePayment(ctx context.Context, data SessionData) Result
	CancelPayment(ctx context.Context, data SessionData) Result
	DeletePayment(ctx context.Context, data SessionData) Result
	RefundPayment(ctx context.Context, data SessionData, amount float64) Result
	RetrievePayment(ctx context.Context, data SessionData) Result
	GetPaymentStatus(ctx context.Context, data SessionData) Result
}

// FailWith wraps err as a structured failure, keeping a PaymentError as is
func FailWith(err error, message string) Result {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return Fail(pe)
	}
	return Fail(NewPaymentError(message, err))
}

// StatusResult is the body of a status lookup
type StatusResult struct {
	Status SessionStatus `json:"status"`
}
