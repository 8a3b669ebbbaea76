package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"huletfish/internal/apperror"
	"huletfish/internal/offering"
	"huletfish/internal/user"

	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

// Reserve assigns the id before returning the scripted result, as the
// Postgres repository does once its capacity check passes. A scripted
// ErrSlotFull skips the assignment.
func (m *MockRepository) Reserve(ctx context.Context, b *Booking, slot offering.TimeSlot, assignID IDAssigner) error {
	args := m.Called(ctx, b, slot)
	if errors.Is(args.Error(0), ErrSlotFull) {
		return args.Error(0)
	}
	id, err := assignID(ctx)
	if err != nil {
		return err
	}
	b.BookingID = id
	if args.Error(0) == nil {
		b.ID = 1
		b.RequestedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockRepository) CountOverlapping(ctx context.Context, offeringID int, day time.Time, start, end string) (int, error) {
	args := m.Called(ctx, offeringID, day, start, end)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ActiveWindows(ctx context.Context, offeringID int, day time.Time) ([]Window, error) {
	args := m.Called(ctx, offeringID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Window), args.Error(1)
}

func (m *MockRepository) GetByBookingID(ctx context.Context, bookingID string) (*Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, bookingID string, change StatusChange) (*Booking, error) {
	args := m.Called(ctx, bookingID, change)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) ListByTourist(ctx context.Context, touristID int) ([]Booking, error) {
	args := m.Called(ctx, touristID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockRepository) ListByHost(ctx context.Context, hostID int) ([]Booking, error) {
	args := m.Called(ctx, hostID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockRepository) ListByOffering(ctx context.Context, offeringID int) ([]Booking, error) {
	args := m.Called(ctx, offeringID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockRepository) StatsByDay(ctx context.Context, from, to time.Time) ([]StatsByBucket, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]StatsByBucket), args.Error(1)
}

func (m *MockRepository) StatsByOffering(ctx context.Context, from, to time.Time) ([]StatsByOffering, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]StatsByOffering), args.Error(1)
}

// MockOfferingRepository only backs the lookups the booking service makes.
type MockOfferingRepository struct {
	mock.Mock
}

func (m *MockOfferingRepository) Create(ctx context.Context, o *offering.Offering) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOfferingRepository) Update(ctx context.Context, o *offering.Offering) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOfferingRepository) GetByID(ctx context.Context, id int) (*offering.Offering, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*offering.Offering), args.Error(1)
}

func (m *MockOfferingRepository) ListPublic(ctx context.Context, filter offering.ListFilter) ([]offering.Offering, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]offering.Offering), args.Error(1)
}

func (m *MockOfferingRepository) ListByHost(ctx context.Context, hostID int) ([]offering.Offering, error) {
	args := m.Called(ctx, hostID)
	return args.Get(0).([]offering.Offering), args.Error(1)
}

func (m *MockOfferingRepository) SetApproval(ctx context.Context, id int, approved bool, note string) error {
	return m.Called(ctx, id, approved, note).Error(0)
}

func (m *MockOfferingRepository) Deactivate(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, name, email, passwordHash, role string) (*user.User, error) {
	args := m.Called(ctx, name, email, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ApproveHost(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

// fakeNotifier records notices instead of queueing them.
type fakeNotifier struct {
	mu      sync.Mutex
	err     error
	notices []Notice
}

func (f *fakeNotifier) Notify(_ context.Context, n Notice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, n)
	return f.err
}

func (f *fakeNotifier) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.notices))
	for _, n := range f.notices {
		out = append(out, n.Type+":"+n.To)
	}
	return out
}

// memRepository keeps bookings in memory and makes Reserve atomic with a
// mutex, mirroring the row lock the Postgres repository takes.
type memRepository struct {
	mu       sync.Mutex
	bookings []*Booking
	nextID   int
}

func newMemRepository() *memRepository {
	return &memRepository{nextID: 1}
}

func (r *memRepository) overlapping(offeringID int, day string, start, end string) int {
	count := 0
	for _, b := range r.bookings {
		if b.OfferingID == offeringID && b.BookingDate.Format(offering.DateLayout) == day &&
			b.Status.IsActive() && b.StartTime < end && start < b.EndTime {
			count++
		}
	}
	return count
}

func (r *memRepository) Reserve(ctx context.Context, b *Booking, slot offering.TimeSlot, assignID IDAssigner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.overlapping(b.OfferingID, dateParam(b.BookingDate), slot.StartTime, slot.EndTime) >= slot.MaxBookings {
		return ErrSlotFull
	}
	id, err := assignID(ctx)
	if err != nil {
		return err
	}
	for _, existing := range r.bookings {
		if existing.BookingID == id {
			return apperror.ConcurrencyConflict(fmt.Sprintf("duplicate booking id %s", id))
		}
	}
	b.BookingID = id

	b.ID = r.nextID
	r.nextID++
	b.RequestedAt = time.Now()
	b.UpdatedAt = b.RequestedAt
	stored := *b
	r.bookings = append(r.bookings, &stored)
	return nil
}

func (r *memRepository) CountOverlapping(_ context.Context, offeringID int, day time.Time, start, end string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlapping(offeringID, dateParam(day), start, end), nil
}

func (r *memRepository) ActiveWindows(_ context.Context, offeringID int, day time.Time) ([]Window, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	windows := []Window{}
	for _, b := range r.bookings {
		if b.OfferingID == offeringID && dateParam(b.BookingDate) == dateParam(day) && b.Status.IsActive() {
			windows = append(windows, Window{StartTime: b.StartTime, EndTime: b.EndTime})
		}
	}
	return windows, nil
}

func (r *memRepository) GetByBookingID(_ context.Context, bookingID string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.BookingID == bookingID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (r *memRepository) UpdateStatus(_ context.Context, bookingID string, change StatusChange) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.BookingID != bookingID {
			continue
		}
		allowed := false
		for _, from := range change.From {
			if b.Status == from {
				allowed = true
			}
		}
		if !allowed {
			return nil, ErrStatusChanged
		}

		at := change.At
		b.Status = change.To
		b.UpdatedAt = at
		switch change.To {
		case StatusConfirmed:
			b.HostMessage, b.RespondedAt, b.ConfirmedAt = change.Message, &at, &at
		case StatusRejected:
			b.HostMessage, b.RespondedAt = change.Message, &at
		case StatusCancelled:
			by := change.By
			b.CancellationReason, b.CancelledBy, b.CancelledAt = change.Message, &by, &at
		case StatusCompleted:
			b.CompletedAt = &at
		}
		cp := *b
		return &cp, nil
	}
	return nil, ErrStatusChanged
}

func (r *memRepository) list(keep func(b *Booking) bool) []Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Booking{}
	for _, b := range r.bookings {
		if keep(b) {
			out = append(out, *b)
		}
	}
	return out
}

func (r *memRepository) ListByTourist(_ context.Context, touristID int) ([]Booking, error) {
	return r.list(func(b *Booking) bool { return b.TouristID == touristID }), nil
}

func (r *memRepository) ListByHost(_ context.Context, hostID int) ([]Booking, error) {
	return r.list(func(b *Booking) bool { return b.HostID == hostID }), nil
}

func (r *memRepository) ListByOffering(_ context.Context, offeringID int) ([]Booking, error) {
	return r.list(func(b *Booking) bool { return b.OfferingID == offeringID }), nil
}

func (r *memRepository) StatsByDay(context.Context, time.Time, time.Time) ([]StatsByBucket, error) {
	return []StatsByBucket{}, nil
}

func (r *memRepository) StatsByOffering(context.Context, time.Time, time.Time) ([]StatsByOffering, error) {
	return []StatsByOffering{}, nil
}
