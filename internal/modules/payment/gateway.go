package payment

import "context"

// Intent statuses reported by the provider.
const (
	IntentRequiresPaymentMethod = "requires_payment_method"
	IntentRequiresConfirmation  = "requires_confirmation"
	IntentRequiresAction        = "requires_action"
	IntentProcessing            = "processing"
	IntentSucceeded             = "succeeded"
	IntentCanceled              = "canceled"
)

// Webhook event kinds the reconciler acts on.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
	EventIntentCanceled  = "payment_intent.canceled"
	EventChargeRefunded  = "charge.refunded"
)

// Metadata keys written on provider objects.
const (
	MetaBookingID = "bookingId"
	MetaUserID    = "userId"
	MetaTourID    = "tourId"
	MetaGuideID   = "guideId"
	MetaIntentID  = "paymentIntentId"
)

type CustomerParams struct {
	Email    string
	Name     string
	Metadata map[string]string
}

type IntentParams struct {
	Amount         int64
	Currency       string
	CustomerID     string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

// Open reports whether the intent can still be paid by the client.
func (i *Intent) Open() bool {
	switch i.Status {
	case IntentRequiresPaymentMethod, IntentRequiresConfirmation, IntentRequiresAction:
		return true
	}
	return false
}

type CheckoutParams struct {
	Amount        int64
	Currency      string
	ProductName   string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	ReferenceID   string
	Metadata      map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a verified webhook delivery reduced to what reconciliation needs.
type Event struct {
	ID       string
	Type     string
	IntentID string
	Status   string
	Metadata map[string]string
}

// Gateway is the payment provider as seen by this service.
type Gateway interface {
	CreateCustomer(ctx context.Context, p CustomerParams) (string, error)
	CreateIntent(ctx context.Context, p IntentParams) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
	// ParseEvent verifies the signature header against the raw payload and
	// decodes the event. Verification failures wrap ErrInvalidSignature.
	ParseEvent(payload []byte, signature string) (*Event, error)
}
