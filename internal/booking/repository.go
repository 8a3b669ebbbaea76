package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"huletfish/internal/apperror"
	"huletfish/internal/db"
	"huletfish/internal/offering"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrBookingNotFound = apperror.NotFound("booking not found")
	ErrStatusChanged   = apperror.State("booking status changed, reload and try again")
)

const bookingColumns = `
	id, booking_id, tourist_id, host_id, offering_id, booking_date, start_time, end_time,
	starts_at, number_of_guests, guest_details, contact_email, contact_phone, status,
	total_amount_cents, currency, payment_status, host_message, cancellation_reason,
	cancelled_by, requested_at, responded_at, confirmed_at, cancelled_at, completed_at,
	updated_at
`

const countOverlapping = `
	SELECT COUNT(*)
	FROM bookings
	WHERE offering_id = $1 AND booking_date = $2
		AND status IN ('pending', 'confirmed')
		AND start_time < $4 AND $3 < end_time
`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Reserve(ctx context.Context, b *Booking, slot offering.TimeSlot, assignID IDAssigner) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("begin reserve", err)
	}
	defer tx.Rollback()

	var offeringID int
	err = tx.GetContext(ctx, &offeringID, `SELECT id FROM offerings WHERE id = $1 FOR UPDATE`, b.OfferingID)
	if errors.Is(err, sql.ErrNoRows) {
		return offering.ErrOfferingNotFound
	}
	if err != nil {
		return storeError("lock offering", err)
	}

	var active int
	err = tx.GetContext(ctx, &active, countOverlapping, b.OfferingID, dateParam(b.BookingDate), slot.StartTime, slot.EndTime)
	if err != nil {
		return storeError("count overlapping bookings", err)
	}
	if active >= slot.MaxBookings {
		return ErrSlotFull
	}

	b.BookingID, err = assignID(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bookings (
			booking_id, tourist_id, host_id, offering_id, booking_date, start_time, end_time,
			starts_at, number_of_guests, guest_details, contact_email, contact_phone, status,
			total_amount_cents, currency, payment_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, requested_at, updated_at
	`
	err = tx.QueryRowxContext(ctx, query,
		b.BookingID, b.TouristID, b.HostID, b.OfferingID, dateParam(b.BookingDate), b.StartTime, b.EndTime,
		b.StartsAt, b.NumberOfGuests, b.GuestDetails, b.ContactEmail, b.ContactPhone, b.Status,
		b.TotalAmountCents, b.Currency, b.PaymentStatus,
	).Scan(&b.ID, &b.RequestedAt, &b.UpdatedAt)
	if err != nil {
		return storeError("insert booking", err)
	}

	if err := tx.Commit(); err != nil {
		return storeError("commit reserve", err)
	}
	return nil
}

func (r *repository) CountOverlapping(ctx context.Context, offeringID int, day time.Time, start, end string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, countOverlapping, offeringID, dateParam(day), start, end); err != nil {
		return 0, fmt.Errorf("count overlapping bookings: %w", err)
	}
	return count, nil
}

func (r *repository) ActiveWindows(ctx context.Context, offeringID int, day time.Time) ([]Window, error) {
	query := `
		SELECT start_time, end_time
		FROM bookings
		WHERE offering_id = $1 AND booking_date = $2 AND status IN ('pending', 'confirmed')
	`

	windows := []Window{}
	if err := r.db.SelectContext(ctx, &windows, query, offeringID, dateParam(day)); err != nil {
		return nil, fmt.Errorf("list active windows: %w", err)
	}
	return windows, nil
}

func (r *repository) GetByBookingID(ctx context.Context, bookingID string) (*Booking, error) {
	var b Booking
	err := r.db.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE booking_id = $1`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", bookingID, err)
	}
	return &b, nil
}

// UpdateStatus applies change with a status guard in the WHERE clause, so a
// concurrent transition makes it fail with ErrStatusChanged instead of
// overwriting.
func (r *repository) UpdateStatus(ctx context.Context, bookingID string, change StatusChange) (*Booking, error) {
	set := []string{"status = $3", "updated_at = $4"}
	args := []interface{}{bookingID, pq.Array(statusStrings(change.From)), change.To, change.At}

	switch change.To {
	case StatusConfirmed:
		args = append(args, change.Message)
		set = append(set, "host_message = $5", "responded_at = $4", "confirmed_at = $4")
	case StatusRejected:
		args = append(args, change.Message)
		set = append(set, "host_message = $5", "responded_at = $4")
	case StatusCancelled:
		args = append(args, change.Message, change.By)
		set = append(set, "cancellation_reason = $5", "cancelled_by = $6", "cancelled_at = $4")
	case StatusCompleted:
		set = append(set, "completed_at = $4")
	default:
		return nil, fmt.Errorf("unsupported target status %q", change.To)
	}

	query := `UPDATE bookings SET ` + strings.Join(set, ", ") +
		` WHERE booking_id = $1 AND status = ANY($2) RETURNING ` + bookingColumns

	var b Booking
	err := r.db.GetContext(ctx, &b, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatusChanged
	}
	if err != nil {
		return nil, storeError("update booking status", err)
	}
	return &b, nil
}

func (r *repository) ListByTourist(ctx context.Context, touristID int) ([]Booking, error) {
	return r.list(ctx, `WHERE tourist_id = $1 ORDER BY requested_at DESC`, touristID)
}

func (r *repository) ListByHost(ctx context.Context, hostID int) ([]Booking, error) {
	return r.list(ctx, `WHERE host_id = $1 ORDER BY starts_at ASC`, hostID)
}

func (r *repository) ListByOffering(ctx context.Context, offeringID int) ([]Booking, error) {
	return r.list(ctx, `WHERE offering_id = $1 ORDER BY starts_at DESC, requested_at DESC`, offeringID)
}

func (r *repository) list(ctx context.Context, where string, args ...interface{}) ([]Booking, error) {
	bookings := []Booking{}
	if err := r.db.SelectContext(ctx, &bookings, `SELECT `+bookingColumns+` FROM bookings `+where, args...); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

func dateParam(t time.Time) string {
	return t.Format(offering.DateLayout)
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// storeError turns races detected by Postgres into ConcurrencyConflict so the
// create flow can retry them.
func storeError(op string, err error) error {
	if db.IsConflict(err) {
		return apperror.ConcurrencyConflict(fmt.Sprintf("%s: %v", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}
