package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"localguide/internal/domain"
	"localguide/internal/events"
	"localguide/internal/pkg/logger"
)

// Mock repositories
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	if b != nil {
		b.ID = 999 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Update(ctx context.Context, id int64, patch domain.BookingPatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

type MockTourReader struct {
	mock.Mock
}

func (m *MockTourReader) GetByID(ctx context.Context, id int64) (*domain.Tour, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tour), args.Error(1)
}

type recordingNotifier struct {
	events []events.BookingStatusChanged
}

func (r *recordingNotifier) BookingChanged(_ context.Context, ev events.BookingStatusChanged) error {
	r.events = append(r.events, ev)
	return nil
}

var (
	tourist  = domain.Principal{UserID: 1, Role: domain.RoleTourist}
	guide    = domain.Principal{UserID: 2, Role: domain.RoleGuide}
	admin    = domain.Principal{UserID: 3, Role: domain.RoleAdmin}
	fixedNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
)

func newTestService() (*Service, *MockBookingRepository, *MockTourReader, *recordingNotifier) {
	bookings := &MockBookingRepository{}
	tours := &MockTourReader{}
	notifier := &recordingNotifier{}
	svc := NewService(bookings, tours, notifier, logger.Discard())
	svc.now = func() time.Time { return fixedNow }
	return svc, bookings, tours, notifier
}

func validRequest() CreateBookingRequest {
	return CreateBookingRequest{
		Guide:          2,
		Tour:           10,
		Date:           "2026-06-01",
		NumberOfPeople: 2,
		TotalAmount:    130,
	}
}

func activeTour() *domain.Tour {
	return &domain.Tour{ID: 10, GuideID: 2, Price: 65, MaxGroupSize: 6, IsActive: true}
}

func TestCreateBooking_Success(t *testing.T) {
	svc, bookings, tours, notifier := newTestService()

	tours.On("GetByID", mock.Anything, int64(10)).Return(activeTour(), nil)
	bookings.On("Create", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.TouristID == 1 && b.Status == domain.BookingPending && b.PaymentStatus == domain.PaymentPending && b.TotalAmount == 130
	})).Return(nil)
	bookings.On("GetByID", mock.Anything, int64(999)).Return(&domain.Booking{
		ID: 999, TouristID: 1, GuideID: 2, TourID: 10, TotalAmount: 130,
		Status: domain.BookingPending, PaymentStatus: domain.PaymentPending,
	}, nil)

	b, err := svc.CreateBooking(context.Background(), tourist, validRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(999), b.ID)
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, domain.PaymentPending, b.PaymentStatus)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, int64(2), notifier.events[0].GuideID)
	bookings.AssertExpectations(t)
}

func TestCreateBooking_InactiveTour(t *testing.T) {
	svc, bookings, tours, _ := newTestService()

	inactive := activeTour()
	inactive.IsActive = false
	tours.On("GetByID", mock.Anything, int64(10)).Return(inactive, nil)

	_, err := svc.CreateBooking(context.Background(), tourist, validRequest())
	assert.ErrorIs(t, err, ErrTourUnavailable)
	bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateBooking_MissingTour(t *testing.T) {
	svc, bookings, tours, _ := newTestService()
	tours.On("GetByID", mock.Anything, int64(10)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.CreateBooking(context.Background(), tourist, validRequest())
	assert.ErrorIs(t, err, ErrTourUnavailable)
	bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateBooking_Validation(t *testing.T) {
	cases := map[string]struct {
		mutate func(*CreateBookingRequest)
		field  string
	}{
		"missing guide":   {func(r *CreateBookingRequest) { r.Guide = 0 }, "guide"},
		"zero people":     {func(r *CreateBookingRequest) { r.NumberOfPeople = 0 }, "numberOfPeople"},
		"negative amount": {func(r *CreateBookingRequest) { r.TotalAmount = -5 }, "totalAmount"},
		"bad date":        {func(r *CreateBookingRequest) { r.Date = "tomorrow" }, "date"},
		"past date":       {func(r *CreateBookingRequest) { r.Date = "2026-04-30" }, "date"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc, bookings, _, _ := newTestService()
			req := validRequest()
			tc.mutate(&req)

			_, err := svc.CreateBooking(context.Background(), tourist, req)
			require.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tc.field)
			bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateBooking_TourRules(t *testing.T) {
	svc, _, tours, _ := newTestService()
	tours.On("GetByID", mock.Anything, int64(10)).Return(activeTour(), nil)

	req := validRequest()
	req.Guide = 77
	_, err := svc.CreateBooking(context.Background(), tourist, req)
	assert.ErrorIs(t, err, ErrValidation)

	req = validRequest()
	req.NumberOfPeople = 7
	_, err = svc.CreateBooking(context.Background(), tourist, req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateBooking_OnBehalfOfOthers(t *testing.T) {
	svc, _, _, _ := newTestService()

	req := validRequest()
	req.Tourist = 55
	_, err := svc.CreateBooking(context.Background(), tourist, req)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CreateBooking(context.Background(), guide, validRequest())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListBookings_Filters(t *testing.T) {
	svc, bookings, _, _ := newTestService()
	uid := int64(2)

	bookings.On("List", mock.Anything, domain.BookingFilter{GuideID: &uid}).Return([]domain.Booking{{ID: 1}}, nil).Once()
	list, err := svc.ListBookings(context.Background(), guide, ListQuery{UserID: 2, Role: domain.RoleGuide})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.ListBookings(context.Background(), tourist, ListQuery{UserID: 2})
	assert.ErrorIs(t, err, ErrForbidden)

	bookings.On("List", mock.Anything, domain.BookingFilter{}).Return([]domain.Booking{{ID: 1}, {ID: 2}}, nil).Once()
	list, err = svc.ListBookings(context.Background(), admin, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	bookings.AssertExpectations(t)
}

func pendingBooking() *domain.Booking {
	return &domain.Booking{ID: 5, TouristID: 1, GuideID: 2, TourID: 10, Status: domain.BookingPending, PaymentStatus: domain.PaymentPaid}
}

func TestUpdateStatus_GuideConfirms(t *testing.T) {
	svc, bookings, _, notifier := newTestService()
	bookings.On("GetByID", mock.Anything, int64(5)).Return(pendingBooking(), nil)
	bookings.On("Update", mock.Anything, int64(5), mock.MatchedBy(func(p domain.BookingPatch) bool {
		return p.Status != nil && *p.Status == domain.BookingConfirmed && p.PaymentStatus == nil
	})).Return(nil)

	b, err := svc.UpdateStatus(context.Background(), guide, 5, domain.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.Equal(t, domain.PaymentPaid, b.PaymentStatus, "payment status is untouched")

	require.Len(t, notifier.events, 1)
	assert.Equal(t, domain.BookingPending, notifier.events[0].PreviousStatus)
}

func TestUpdateStatus_CancelSetsTimestamp(t *testing.T) {
	svc, bookings, _, _ := newTestService()
	bookings.On("GetByID", mock.Anything, int64(5)).Return(pendingBooking(), nil)
	bookings.On("Update", mock.Anything, int64(5), mock.MatchedBy(func(p domain.BookingPatch) bool {
		return p.CancelledAt != nil && p.CancelledAt.Equal(fixedNow)
	})).Return(nil)

	b, err := svc.UpdateStatus(context.Background(), tourist, 5, domain.BookingCancelled)
	require.NoError(t, err)
	require.NotNil(t, b.CancelledAt)
}

func TestUpdateStatus_Rules(t *testing.T) {
	completed := pendingBooking()
	completed.Status = domain.BookingCompleted

	cases := []struct {
		name    string
		actor   domain.Principal
		current *domain.Booking
		next    domain.BookingStatus
		want    error
	}{
		{"tourist cannot confirm", tourist, pendingBooking(), domain.BookingConfirmed, ErrForbidden},
		{"stranger cannot cancel", domain.Principal{UserID: 42, Role: domain.RoleTourist}, pendingBooking(), domain.BookingCancelled, ErrForbidden},
		{"pending cannot complete", guide, pendingBooking(), domain.BookingCompleted, ErrInvalidTransition},
		{"completed is terminal", admin, completed, domain.BookingPending, ErrInvalidTransition},
		{"unknown status", admin, pendingBooking(), domain.BookingStatus("archived"), ErrValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, bookings, _, _ := newTestService()
			bookings.On("GetByID", mock.Anything, int64(5)).Return(tc.current, nil)

			_, err := svc.UpdateStatus(context.Background(), tc.actor, 5, tc.next)
			assert.ErrorIs(t, err, tc.want)
			bookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateStatus_SameStatusIsNoop(t *testing.T) {
	svc, bookings, _, notifier := newTestService()
	bookings.On("GetByID", mock.Anything, int64(5)).Return(pendingBooking(), nil)

	b, err := svc.UpdateStatus(context.Background(), admin, 5, domain.BookingPending)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, b.Status)
	bookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, notifier.events)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc, bookings, _, _ := newTestService()
	bookings.On("GetByID", mock.Anything, int64(404)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.UpdateStatus(context.Background(), admin, 404, domain.BookingCancelled)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetBooking_ParticipantsOnly(t *testing.T) {
	svc, bookings, _, _ := newTestService()
	bookings.On("GetByID", mock.Anything, int64(5)).Return(pendingBooking(), nil)

	_, err := svc.GetBooking(context.Background(), guide, 5)
	assert.NoError(t, err)

	_, err = svc.GetBooking(context.Background(), domain.Principal{UserID: 9, Role: domain.RoleGuide}, 5)
	assert.ErrorIs(t, err, ErrForbidden)
}
