package provider

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vendorPayment = `{
	"payment_id": "pay_1",
	"status": "requires_capture",
	"amount": 1050,
	"currency": "USD",
	"customer_id": "cus_1",
	"metadata": {"session_id": "payses_1"},
	"connector": "stripe",
	"next_action": {"type": "redirect_to_url"}
}`

func TestSessionData_PassThrough(t *testing.T) {
	var data SessionData
	require.NoError(t, json.Unmarshal([]byte(vendorPayment), &data))

	assert.Equal(t, "pay_1", data.PaymentID)
	assert.Equal(t, int64(1050), data.Amount)
	assert.Equal(t, "payses_1", data.MetadataString("session_id"))
	assert.Contains(t, data.Extra, "connector")
	assert.Contains(t, data.Extra, "next_action")
	assert.NotContains(t, data.Extra, "payment_id")

	data.ID = data.PaymentID
	out, err := json.Marshal(data)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(out, &fields))
	assert.Equal(t, "pay_1", fields["id"])
	assert.Equal(t, "stripe", fields["connector"])
	assert.Equal(t, map[string]any{"type": "redirect_to_url"}, fields["next_action"])
}

func TestPaymentError_IsSupersetOfSessionData(t *testing.T) {
	var data SessionData
	require.NoError(t, json.Unmarshal([]byte(vendorPayment), &data))

	pe := NewPaymentError("Unable to refund payment", errors.New("HTTP error 500")).WithData(data)

	out, err := json.Marshal(pe)
	require.NoError(t, err)

	var original, failed map[string]any
	require.NoError(t, json.Unmarshal([]byte(vendorPayment), &original))
	require.NoError(t, json.Unmarshal(out, &failed))

	for key, value := range original {
		assert.Equal(t, value, failed[key], key)
	}
	assert.Equal(t, "Unable to refund payment", failed["error"])
	assert.Equal(t, "HTTP error 500", failed["detail"])
}

func TestPaymentError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	pe := NewPaymentError("Unable to cancel Payment", cause)

	assert.ErrorIs(t, pe, cause)
	assert.Equal(t, "Unable to cancel Payment: boom", pe.Error())
}

func TestPaymentError_WithDataCopies(t *testing.T) {
	data := SessionData{PaymentID: "pay_1", Metadata: map[string]any{"k": "v"}}
	pe := NewPaymentError("failed", nil).WithData(data)

	data.Metadata["k"] = "changed"
	assert.Equal(t, "v", pe.Data.Metadata["k"])
}

func TestResult_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(OK(map[string]string{"status": "pending"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"pending"}`, string(out))

	out, err = json.Marshal(Fail(NewPaymentError("Unable to retrieve payment", nil)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Unable to retrieve payment"}`, string(out))

	assert.True(t, Empty().IsEmpty())
	assert.True(t, Fail(NewPaymentError("x", nil)).Failed())
}
