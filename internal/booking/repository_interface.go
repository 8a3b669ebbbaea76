package booking

import (
	"context"
	"time"

	"huletfish/internal/offering"
)

// StatusChange is a guarded status update. It applies only while the booking
// is in one of From.
type StatusChange struct {
	From    []Status
	To      Status
	At      time.Time
	Message string
	By      int
}

// Window is the time range an active booking occupies on its date.
type Window struct {
	StartTime string `db:"start_time"`
	EndTime   string `db:"end_time"`
}

// IDAssigner hands out the booking id for a reservation that passed its
// capacity check.
type IDAssigner func(ctx context.Context) (string, error)

type Repository interface {
	// Reserve inserts b in pending state only if fewer than slot.MaxBookings
	// active bookings overlap slot. The check, id assignment and insert run
	// under one lock, so rejected reservations never consume an id.
	Reserve(ctx context.Context, b *Booking, slot offering.TimeSlot, assignID IDAssigner) error
	// CountOverlapping counts active bookings overlapping [start, end).
	CountOverlapping(ctx context.Context, offeringID int, day time.Time, start, end string) (int, error)
	ActiveWindows(ctx context.Context, offeringID int, day time.Time) ([]Window, error)
	GetByBookingID(ctx context.Context, bookingID string) (*Booking, error)
	UpdateStatus(ctx context.Context, bookingID string, change StatusChange) (*Booking, error)
	ListByTourist(ctx context.Context, touristID int) ([]Booking, error)
	ListByHost(ctx context.Context, hostID int) ([]Booking, error)
	ListByOffering(ctx context.Context, offeringID int) ([]Booking, error)
	StatsByDay(ctx context.Context, from, to time.Time) ([]StatsByBucket, error)
	StatsByOffering(ctx context.Context, from, to time.Time) ([]StatsByOffering, error)
}
