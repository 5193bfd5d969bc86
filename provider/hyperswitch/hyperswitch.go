package hyperswitch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mstgnz/medusa-hyperswitch/infra/logger"
	"github.com/mstgnz/medusa-hyperswitch/provider"
	"github.com/nyaruka/phonenumbers"
	"github.com/stripe/stripe-go/v82"
)

const (
	// ProviderName is the identifier the host platform registers this provider under
	ProviderName = "hyperswitch"

	authenticationThreeDS = "three_ds"
	defaultTimeout        = 30 * time.Second
)

var defaultPaymentMethodTypes = []string{"credit", "debit", "upi_intent"}

// Settings is the immutable configuration a Provider is built from
type Settings struct {
	APIKey                    string
	WebhookSecret             string
	Sandbox                   bool
	BaseURL                   string
	CaptureMethod             stripe.PaymentIntentCaptureMethod
	AllowedPaymentMethodTypes []string
	ProfileID                 string
	SucceededPolicy           provider.SucceededPolicy
	Timeout                   time.Duration
}

// Provider implements provider.PaymentProvider for Hyperswitch
type Provider struct {
	settings Settings
	client   *Client
	verifier *Verifier
	policy   provider.SucceededPolicy
}

// requiredConfig lists the options the provider accepts
var requiredConfig = []provider.ConfigField{
	{
		Key:         "api_key",
		Aliases:     []string{"apiKey"},
		Required:    true,
		Type:        "string",
		Description: "Hyperswitch secret API key",
		Example:     "snd_c691ade6995743bd88c166ba509ff5da",
		MinLength:   8,
	},
	{
		Key:         "webhook_response_hash",
		Aliases:     []string{"webhook_key"},
		Required:    true,
		Type:        "string",
		Description: "Payment response hash key used to sign webhooks",
		Example:     "whsec_5e1a0f3b",
	},
	{
		Key:         "sandbox",
		Required:    false,
		Type:        "boolean",
		Description: "Use the Hyperswitch sandbox host",
		Example:     "true",
	},
	{
		Key:         "allowed_payment_method_types",
		Required:    false,
		Type:        "list",
		Description: "Comma separated payment method types offered at checkout",
		Example:     "credit,debit,upi_intent",
	},
	{
		Key:         "capture_method",
		Required:    false,
		Type:        "enum",
		Description: "Whether payments are captured automatically or by the platform",
		Example:     "automatic",
		OneOf:       []string{string(stripe.PaymentIntentCaptureMethodAutomatic), string(stripe.PaymentIntentCaptureMethodManual)},
	},
	{
		Key:         "profile_id",
		Required:    false,
		Type:        "string",
		Description: "Business profile the payments are created under",
		Example:     "pro_2Pl2UgWvRiB6a2kRBzj5",
	},
	{
		Key:         "succeeded_status",
		Required:    false,
		Type:        "enum",
		Description: "Session status a succeeded payment maps to",
		Example:     "captured",
		OneOf:       []string{string(provider.SucceededAsAuthorized), string(provider.SucceededAsCaptured)},
	},
	{
		Key:         "timeout",
		Required:    false,
		Type:        "string",
		Description: "Timeout for Hyperswitch API calls",
		Example:     "30s",
		Pattern:     `^[0-9]+(ms|s|m)$`,
	},
	{
		Key:         "base_url",
		Required:    false,
		Type:        "string",
		Description: "Override of the Hyperswitch API host",
		Example:     "https://sandbox.hyperswitch.io",
		Pattern:     `^https?://`,
	},
}

// NewProvider creates a Hyperswitch provider from its option map
func NewProvider(conf map[string]string) (provider.PaymentProvider, error) {
	p, err := New(conf)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// New creates a Hyperswitch provider from its option map
func New(conf map[string]string) (*Provider, error) {
	settings, err := ParseSettings(conf)
	if err != nil {
		return nil, err
	}
	return NewWithSettings(settings)
}

// ParseSettings normalizes aliases and validates an option map
func ParseSettings(conf map[string]string) (Settings, error) {
	conf = provider.NormalizeConfig(conf, requiredConfig)

	if strings.TrimSpace(conf["api_key"]) == "" {
		return Settings{}, provider.ErrMissingAPIKey
	}
	if strings.TrimSpace(conf["webhook_response_hash"]) == "" {
		return Settings{}, provider.ErrMissingWebhookSecret
	}
	if err := provider.ValidateConfigFields(ProviderName, conf, requiredConfig); err != nil {
		return Settings{}, err
	}

	settings := Settings{
		APIKey:        conf["api_key"],
		WebhookSecret: conf["webhook_response_hash"],
		BaseURL:       conf["base_url"],
		ProfileID:     conf["profile_id"],
		CaptureMethod: stripe.PaymentIntentCaptureMethod(conf["capture_method"]),
		Timeout:       defaultTimeout,
	}

	if v := conf["sandbox"]; v != "" {
		settings.Sandbox, _ = strconv.ParseBool(v)
	}
	if v := conf["allowed_payment_method_types"]; v != "" {
		settings.AllowedPaymentMethodTypes = provider.SplitList(v)
	}
	if v := conf["timeout"]; v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return Settings{}, fmt.Errorf("%s: invalid timeout: %w", ProviderName, err)
		}
		settings.Timeout = timeout
	}

	policy, err := provider.ParseSucceededPolicy(conf["succeeded_status"], "")
	if err != nil {
		return Settings{}, err
	}
	settings.SucceededPolicy = policy

	return settings, nil
}

// NewWithSettings creates a provider from already parsed settings
func NewWithSettings(settings Settings) (*Provider, error) {
	if settings.APIKey == "" {
		return nil, provider.ErrMissingAPIKey
	}
	verifier, err := NewVerifier(settings.WebhookSecret)
	if err != nil {
		return nil, err
	}

	if settings.CaptureMethod == "" {
		settings.CaptureMethod = stripe.PaymentIntentCaptureMethodAutomatic
	}
	if len(settings.AllowedPaymentMethodTypes) == 0 {
		settings.AllowedPaymentMethodTypes = defaultPaymentMethodTypes
	}
	if settings.Timeout == 0 {
		settings.Timeout = defaultTimeout
	}
	if settings.BaseURL == "" {
		settings.BaseURL = apiProductionURL
		if settings.Sandbox {
			settings.BaseURL = apiSandboxURL
		}
	}

	policy := settings.SucceededPolicy
	if policy == "" {
		policy = provider.SucceededAsAuthorized
	}

	logger.Info("Hyperswitch provider initialized", logger.LogContext{
		Provider: ProviderName,
		Fields: map[string]any{
			"base_url":       settings.BaseURL,
			"capture_method": string(settings.CaptureMethod),
		},
	})

	return &Provider{
		settings: settings,
		client:   NewClient(settings.BaseURL, settings.APIKey, settings.Timeout),
		verifier: verifier,
		policy:   policy,
	}, nil
}

// WithDefaultSucceededPolicy returns a copy using policy unless one was configured
func (p *Provider) WithDefaultSucceededPolicy(policy provider.SucceededPolicy) *Provider {
	clone := *p
	if p.settings.SucceededPolicy == "" {
		clone.policy = policy
	}
	return &clone
}

// Settings returns the resolved provider settings
func (p *Provider) Settings() Settings {
	return p.settings
}

// Client returns the vendor API client
func (p *Provider) Client() *Client {
	return p.client
}

// Verifier returns the webhook verifier built from the webhook secret
func (p *Provider) Verifier() *Verifier {
	return p.verifier
}

// GetRequiredConfig returns the options this provider accepts
func (p *Provider) GetRequiredConfig() []provider.ConfigField {
	return requiredConfig
}

// InitiatePayment opens a vendor payment, creating the vendor customer on first use
func (p *Provider) InitiatePayment(ctx context.Context, input provider.InitiateInput) (*provider.SessionResponse, error) {
	req := p.buildPaymentRequest(input)

	var updates *provider.UpdateRequests
	if input.Customer != nil {
		customerID, created, err := p.ResolveCustomer(ctx, input)
		if err != nil {
			return nil, provider.NewPaymentError("Unable to initiate payment, error at customer create", err)
		}
		req.Customer = &CustomerRef{ID: customerID}
		if created {
			updates = &provider.UpdateRequests{
				CustomerMetadata: map[string]string{provider.CustomerMetadataKey: customerID},
			}
		}
	}

	intent, err := p.client.CreatePayment(ctx, req)
	if err != nil {
		p.log().Error("Cannot create payment intent", err)
		return nil, provider.NewPaymentError("Unable to initiate payment, error at Payment create", err)
	}
	p.log().AddField("payment_id", intent.PaymentID).Info("Payment intent created")

	return &provider.SessionResponse{Data: *intent, UpdateRequests: updates}, nil
}

// ResolveCustomer returns the vendor customer id cached on the platform customer,
// creating the vendor customer when there is none
func (p *Provider) ResolveCustomer(ctx context.Context, input provider.InitiateInput) (string, bool, error) {
	if customerID := input.Customer.VendorCustomerID(); customerID != "" {
		p.log().AddField("customer_id", customerID).Info("Existing customer with hyperswitch")
		return customerID, false, nil
	}
	if input.Customer == nil {
		return "", false, errors.New("no platform customer to create a vendor customer for")
	}

	email := input.Email
	if email == "" {
		email = input.Customer.Email
	}
	p.log().AddField("email", email).Info("No customer found with hyperswitch, creating a customer")

	customer, err := p.client.CreateCustomer(ctx, CustomerRequest{
		Email:    email,
		Metadata: map[string]string{"medusa_customer_id": input.Customer.ID},
	})
	if err != nil {
		p.log().Error("Cannot create customer", err)
		return "", false, err
	}
	return customer.CustomerID, true, nil
}

func (p *Provider) buildPaymentRequest(input provider.InitiateInput) PaymentRequest {
	req := PaymentRequest{
		Amount:                    provider.SmallestUnit(input.Amount, input.CurrencyCode),
		Currency:                  strings.ToUpper(input.CurrencyCode),
		Description:               input.Description,
		AllowedPaymentMethodTypes: p.settings.AllowedPaymentMethodTypes,
		AuthenticationType:        authenticationThreeDS,
		CaptureMethod:             string(p.settings.CaptureMethod),
		ProfileID:                 p.settings.ProfileID,
		Metadata:                  map[string]string{},
		Billing:                   &Billing{Email: input.Email},
	}
	if input.SessionID != "" {
		req.Metadata["session_id"] = input.SessionID
	}
	if input.ResourceID != "" {
		req.Metadata["resource_id"] = input.ResourceID
	}
	if addr := input.BillingAddress; addr != nil {
		req.Billing.Address = &BillingAddress{
			City:    addr.City,
			Country: strings.ToUpper(addr.CountryCode),
			Line1:   addr.Address1,
			Line2:   addr.Address2,
			Zip:     addr.PostalCode,
			State:   addr.Province,
		}
		if addr.Phone != "" {
			req.Billing.Phone = parsePhone(addr.Phone, addr.CountryCode)
		}
	}
	return req
}

// parsePhone splits a phone number into calling code and national number.
// Unparseable numbers are sent as given.
func parsePhone(raw, region string) *Phone {
	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return &Phone{Number: raw}
	}
	return &Phone{
		Number:      phonenumbers.GetNationalSignificantNumber(num),
		CountryCode: "+" + strconv.Itoa(int(num.GetCountryCode())),
	}
}

// AuthorizePayment reports the current status; it never mutates the vendor payment
func (p *Provider) AuthorizePayment(ctx context.Context, data provider.SessionData) (*provider.AuthorizeResult, error) {
	status, err := p.GetPaymentStatus(ctx, data)
	if err != nil {
		p.log().Error("Authorize payment failed", err)
		return nil, provider.NewPaymentError("Payment authorization failed", err)
	}
	p.log().AddField("status", string(status)).Info("Authorize payment success")
	return &provider.AuthorizeResult{Status: status, Data: data}, nil
}

// CapturePayment captures a payment unless it is settled or captured automatically
func (p *Provider) CapturePayment(ctx context.Context, data provider.SessionData) (*provider.SessionData, error) {
	if data.PaymentID == "" {
		return nil, provider.NewPaymentError("Unable to capture payment", provider.ErrNoPaymentID)
	}

	intent, err := p.client.RetrievePayment(ctx, data.PaymentID)
	if err != nil {
		return nil, provider.NewPaymentError("Unable to capture payment", err)
	}

	if provider.IsSettled(intent.Status) || p.settings.CaptureMethod == stripe.PaymentIntentCaptureMethodAutomatic {
		p.log().AddField("status", intent.Status).Info("No need to capture payment")
		return intent, nil
	}

	captured, err := p.client.CapturePayment(ctx, data.PaymentID)
	if err == nil {
		p.log().AddField("payment_id", data.PaymentID).Info("Payment captured")
		return captured, nil
	}

	// A concurrent capture may have settled the payment between retrieve and capture.
	latest, rerr := p.client.RetrievePayment(ctx, data.PaymentID)
	if rerr == nil && provider.IsSettled(latest.Status) {
		p.log().AddField("payment_id", data.PaymentID).Info("Payment captured concurrently")
		return latest, nil
	}

	p.log().Error("Capture payment failed", err)
	return nil, provider.NewPaymentError("Unable to capture payment", err)
}

// CancelPayment cancels a payment; an already canceled payment counts as success
func (p *Provider) CancelPayment(ctx context.Context, data provider.SessionData) (*provider.SessionData, error) {
	if data.PaymentID == "" {
		return nil, provider.NewPaymentError("Unable to cancel Payment", provider.ErrNoPaymentID)
	}

	canceled, err := p.client.CancelPayment(ctx, data.PaymentID)
	if err == nil {
		p.log().AddField("payment_id", data.PaymentID).Info("Cancel payment successful")
		return canceled, nil
	}

	latest, rerr := p.client.RetrievePayment(ctx, data.PaymentID)
	if rerr == nil && provider.IsCanceled(latest.Status) {
		return latest, nil
	}

	p.log().Error("Unable to cancel payment", err)
	return nil, provider.NewPaymentError("Unable to cancel Payment", err)
}

// DeletePayment discards a session by canceling its payment
func (p *Provider) DeletePayment(ctx context.Context, data provider.SessionData) (*provider.SessionData, error) {
	return p.CancelPayment(ctx, data)
}

// RefundPayment refunds amount, given in major units, of a payment
func (p *Provider) RefundPayment(ctx context.Context, data provider.SessionData, amount float64) (*provider.SessionData, error) {
	if data.PaymentID == "" {
		p.log().AddField("data", data).Error("Refund failed", provider.ErrNoPaymentID)
		return nil, provider.ErrNoPaymentID
	}

	refund, err := p.client.CreateRefund(ctx, RefundRequest{
		PaymentID: data.PaymentID,
		Amount:    provider.SmallestUnit(amount, data.Currency),
	})
	if err != nil {
		p.log().Error("Refund payment failed", err)
		return nil, provider.NewPaymentError("Unable to refund payment", err).WithData(data)
	}

	p.log().AddField("refund_id", refund.RefundID).AddField("status", refund.Status).Info("Payment refund completed")
	out := data.Clone()
	return &out, nil
}

// RetrievePayment fetches the current vendor payment
func (p *Provider) RetrievePayment(ctx context.Context, data provider.SessionData) (*provider.SessionData, error) {
	if data.PaymentID == "" {
		return nil, provider.NewPaymentError("Unable to retrieve payment", provider.ErrNoPaymentID)
	}

	intent, err := p.client.RetrievePayment(ctx, data.PaymentID)
	if err != nil {
		p.log().Error("Unable to fetch payment info", err)
		return nil, provider.NewPaymentError("Unable to retrieve payment", err)
	}
	return intent, nil
}

// UpdatePayment updates the amount, or opens a new payment when the customer changed
func (p *Provider) UpdatePayment(ctx context.Context, input provider.UpdateInput) (*provider.SessionResponse, error) {
	if input.Customer.VendorCustomerID() != input.Data.CustomerID {
		resp, err := p.InitiatePayment(ctx, input.InitiateInput)
		if err != nil {
			p.log().Error("Unable to update payment", err)
			return nil, provider.NewPaymentError("Unable to update payment", err)
		}
		return resp, nil
	}

	if input.Data.PaymentID == "" {
		return nil, provider.NewPaymentError("Unable to update payment", provider.ErrNoPaymentID)
	}

	intent, err := p.client.UpdatePayment(ctx, input.Data.PaymentID, PaymentUpdateRequest{
		Amount: provider.SmallestUnit(input.Amount, input.CurrencyCode),
	})
	if err != nil {
		p.log().Error("Unable to update payment", err)
		return nil, provider.NewPaymentError("Unable to update payment", err)
	}
	p.log().Info("Payment update successful")
	return &provider.SessionResponse{Data: *intent}, nil
}

// GetPaymentStatus maps the vendor status to a session status
func (p *Provider) GetPaymentStatus(ctx context.Context, data provider.SessionData) (provider.SessionStatus, error) {
	if data.PaymentID == "" {
		return provider.StatusError, provider.ErrNoPaymentID
	}

	intent, err := p.client.RetrievePayment(ctx, data.PaymentID)
	if err != nil {
		return provider.StatusError, err
	}
	return provider.MapIntentStatus(intent.Status, p.policy), nil
}

// ConstructWebhookEvent verifies a webhook signature and parses the event
func (p *Provider) ConstructWebhookEvent(rawBody []byte, signature string) (*provider.WebhookEvent, error) {
	return p.verifier.Verify(rawBody, signature)
}

func (p *Provider) log() *logger.ContextLogger {
	return logger.WithProvider(ProviderName)
}

// IsAPIError reports whether err came from a vendor error response
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
