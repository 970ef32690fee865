package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"localguide/internal/domain"
	"localguide/internal/events"
	"localguide/internal/pkg/validator"
)

type Config struct {
	Currency   string
	AppBaseURL string
}

// Service creates provider payment objects for bookings and reconciles
// client-driven confirmations.
type Service struct {
	bookings BookingStore
	gateway  Gateway
	state    *stateApplier
	cfg      Config
	log      logrus.FieldLogger
	newKey   func() string
}

func NewService(bookings BookingStore, gateway Gateway, notifier events.Notifier, cfg Config, log logrus.FieldLogger) *Service {
	if notifier == nil {
		notifier = events.Noop{}
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &Service{
		bookings: bookings,
		gateway:  gateway,
		state:    &stateApplier{bookings: bookings, notifier: notifier, log: log, now: time.Now},
		cfg:      cfg,
		log:      log,
		newKey:   uuid.NewString,
	}
}

// CreatePaymentIntent returns a client secret the caller can confirm the
// payment with. An open intent for the same amount is reused.
func (s *Service) CreatePaymentIntent(ctx context.Context, p domain.Principal, req CreateIntentRequest) (*CreateIntentResponse, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	b, err := s.loadForPayer(ctx, p, req.BookingID)
	if err != nil {
		return nil, err
	}

	amount := toMinorUnits(b.TotalAmount)
	if amount <= 0 {
		return nil, &ValidationError{Fields: map[string]string{"totalAmount": "booking has nothing to pay"}}
	}

	if b.PaymentIntentID != "" {
		existing, err := s.gateway.GetIntent(ctx, b.PaymentIntentID)
		switch {
		case err != nil:
			s.log.WithError(err).WithField("booking_id", b.ID).Warn("could not load existing payment intent, creating a new one")
		case existing.Open() && existing.Amount == amount:
			return &CreateIntentResponse{ClientSecret: existing.ClientSecret, PaymentIntentID: existing.ID}, nil
		}
	}

	userID := req.UserID
	if userID == 0 {
		userID = b.TouristID
	}

	if b.ProviderCustomerID == "" {
		email, name := req.UserEmail, req.UserName
		if b.Tourist != nil {
			if email == "" {
				email = b.Tourist.Email
			}
			if name == "" {
				name = b.Tourist.Name
			}
		}
		customerID, err := s.gateway.CreateCustomer(ctx, CustomerParams{
			Email: email,
			Name:  name,
			Metadata: map[string]string{
				MetaUserID: strconv.FormatInt(userID, 10),
			},
		})
		if err != nil {
			return nil, err
		}
		// persisted right away so a failed intent call does not create a second customer
		if err := s.bookings.Update(ctx, b.ID, domain.BookingPatch{ProviderCustomerID: &customerID}); err != nil {
			return nil, fmt.Errorf("store customer id: %w", err)
		}
		b.ProviderCustomerID = customerID
	}

	intent, err := s.gateway.CreateIntent(ctx, IntentParams{
		Amount:         amount,
		Currency:       s.cfg.Currency,
		CustomerID:     b.ProviderCustomerID,
		Description:    fmt.Sprintf("Booking #%d", b.ID),
		IdempotencyKey: s.newKey(),
		Metadata:       bookingMetadata(b, userID),
	})
	if err != nil {
		return nil, err
	}

	patch := domain.BookingPatch{PaymentIntentID: &intent.ID}
	if b.PaymentStatus == domain.PaymentFailed {
		retry := domain.PaymentPending
		patch.PaymentStatus = &retry
	}
	if err := s.bookings.Update(ctx, b.ID, patch); err != nil {
		return nil, fmt.Errorf("store payment intent id: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"booking_id":        b.ID,
		"payment_intent_id": intent.ID,
		"amount":            amount,
	}).Info("payment intent created")

	return &CreateIntentResponse{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}

// CreateCheckoutSession starts a hosted checkout for the booking and returns
// the redirect URL.
func (s *Service) CreateCheckoutSession(ctx context.Context, p domain.Principal, req CheckoutRequest) (string, error) {
	if strings.TrimSpace(req.PaymentIntentID) == "" || req.BookingID <= 0 || req.Amount <= 0 {
		return "", ErrMissingFields
	}
	if fields := validator.Validate(req); fields != nil {
		return "", &ValidationError{Fields: fields}
	}

	b, err := s.loadForPayer(ctx, p, req.BookingID)
	if err != nil {
		return "", err
	}

	amount := toMinorUnits(b.TotalAmount)
	if toMinorUnits(req.Amount) != amount {
		return "", &ValidationError{Fields: map[string]string{"amount": "does not match the booking total"}}
	}

	base := req.ReturnURL
	if base == "" {
		base = fmt.Sprintf("%s/bookings/%d", s.cfg.AppBaseURL, b.ID)
	}

	email := req.UserEmail
	if email == "" && b.Tourist != nil {
		email = b.Tourist.Email
	}
	product := fmt.Sprintf("Tour booking #%d", b.ID)
	if b.Tour != nil && b.Tour.Title != "" {
		product = b.Tour.Title
	}

	meta := bookingMetadata(b, b.TouristID)
	meta[MetaIntentID] = req.PaymentIntentID

	session, err := s.gateway.CreateCheckoutSession(ctx, CheckoutParams{
		Amount:        amount,
		Currency:      s.cfg.Currency,
		ProductName:   product,
		CustomerEmail: email,
		SuccessURL:    withQuery(base, "payment=success&session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     withQuery(base, "payment=cancelled"),
		ReferenceID:   strconv.FormatInt(b.ID, 10),
		Metadata:      meta,
	})
	if err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"session_id": session.ID,
	}).Info("checkout session created")

	return session.URL, nil
}

// ConfirmPayment asks the provider for the intent's status and moves the
// booking accordingly. A non-succeeded intent marks the payment failed and
// returns a NotSucceededError.
func (s *Service) ConfirmPayment(ctx context.Context, p domain.Principal, intentID string) (*domain.Booking, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, &ValidationError{Fields: map[string]string{"paymentIntentId": "is required"}}
	}

	b, err := s.bookings.GetByPaymentIntentID(ctx, intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if !p.IsAdmin() && !p.Is(b.TouristID) && !p.Is(b.GuideID) {
		return nil, ErrForbidden
	}

	intent, err := s.gateway.GetIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}

	if intent.Status == IntentSucceeded {
		if _, err := s.state.apply(ctx, b, eventOutcomes[EventIntentSucceeded], "payment.confirm"); err != nil {
			return nil, err
		}
		return b, nil
	}

	if _, err := s.state.apply(ctx, b, outcome{payment: domain.PaymentFailed}, "payment.confirm"); err != nil {
		return nil, err
	}
	return b, &NotSucceededError{IntentID: intentID, Status: intent.Status}
}

func (s *Service) loadForPayer(ctx context.Context, p domain.Principal, bookingID int64) (*domain.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !p.Is(b.TouristID) {
		return nil, ErrForbidden
	}
	switch {
	case b.PaymentStatus == domain.PaymentPaid || b.PaymentStatus == domain.PaymentRefunded:
		return nil, fmt.Errorf("%w: booking is already %s", ErrNotPayable, b.PaymentStatus)
	case b.PaymentStatus == domain.PaymentCancelled:
		return nil, fmt.Errorf("%w: payment was cancelled", ErrNotPayable)
	case b.Status == domain.BookingCancelled || b.Status == domain.BookingCompleted:
		return nil, fmt.Errorf("%w: booking is %s", ErrNotPayable, b.Status)
	}
	return b, nil
}

func (s *Service) load(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}
	return b, nil
}

func bookingMetadata(b *domain.Booking, userID int64) map[string]string {
	return map[string]string{
		MetaBookingID: strconv.FormatInt(b.ID, 10),
		MetaUserID:    strconv.FormatInt(userID, 10),
		MetaTourID:    strconv.FormatInt(b.TourID, 10),
		MetaGuideID:   strconv.FormatInt(b.GuideID, 10),
	}
}

// toMinorUnits converts a decimal amount to cents.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// withQuery appends a raw query string. The checkout placeholder must stay
// unescaped, so url.Values is not used here.
func withQuery(base, query string) string {
	if strings.Contains(base, "?") {
		return base + "&" + query
	}
	return base + "?" + query
}
