package booking

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type Guest struct {
	Name            string `json:"name" binding:"required,max=100"`
	Age             *int   `json:"age,omitempty" binding:"omitempty,gte=0,lte=120"`
	SpecialRequests string `json:"special_requests,omitempty" binding:"max=500"`
}

type Guests []Guest

func (g Guests) Value() (driver.Value, error) {
	if g == nil {
		return "[]", nil
	}
	b, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (g *Guests) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*g = nil
		return nil
	case []byte:
		return json.Unmarshal(v, g)
	case string:
		return json.Unmarshal([]byte(v), g)
	default:
		return errors.New("unsupported guest_details source type")
	}
}

type ContactInfo struct {
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone,omitempty" binding:"max=32"`
}

type Booking struct {
	ID                 int           `db:"id" json:"id"`
	BookingID          string        `db:"booking_id" json:"booking_id"`
	TouristID          int           `db:"tourist_id" json:"tourist_id"`
	HostID             int           `db:"host_id" json:"host_id"`
	OfferingID         int           `db:"offering_id" json:"offering_id"`
	BookingDate        time.Time     `db:"booking_date" json:"booking_date"`
	StartTime          string        `db:"start_time" json:"start_time"`
	EndTime            string        `db:"end_time" json:"end_time"`
	StartsAt           time.Time     `db:"starts_at" json:"starts_at"`
	NumberOfGuests     int           `db:"number_of_guests" json:"number_of_guests"`
	GuestDetails       Guests        `db:"guest_details" json:"guest_details"`
	ContactEmail       string        `db:"contact_email" json:"contact_email"`
	ContactPhone       string        `db:"contact_phone" json:"contact_phone,omitempty"`
	Status             Status        `db:"status" json:"status"`
	TotalAmountCents   int64         `db:"total_amount_cents" json:"total_amount_cents"`
	Currency           string        `db:"currency" json:"currency"`
	PaymentStatus      PaymentStatus `db:"payment_status" json:"payment_status"`
	HostMessage        string        `db:"host_message" json:"host_message,omitempty"`
	CancellationReason string        `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CancelledBy        *int          `db:"cancelled_by" json:"cancelled_by,omitempty"`
	RequestedAt        time.Time     `db:"requested_at" json:"requested_at"`
	RespondedAt        *time.Time    `db:"responded_at" json:"responded_at,omitempty"`
	ConfirmedAt        *time.Time    `db:"confirmed_at" json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time    `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CompletedAt        *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

// CanCancel reports whether a non-admin may still cancel at now.
func (b *Booking) CanCancel(now time.Time, window time.Duration) bool {
	return b.Status.IsActive() && b.StartsAt.Sub(now) > window
}

func (b *Booking) CanReview() bool {
	return b.Status == StatusCompleted
}

func (b *Booking) IsUpcoming(now time.Time) bool {
	return b.Status.IsActive() && b.StartsAt.After(now)
}

// View is a booking together with its derived flags, as returned by the API.
type View struct {
	*Booking
	CanCancel  bool `json:"can_cancel"`
	CanReview  bool `json:"can_review"`
	IsUpcoming bool `json:"is_upcoming"`
}

type CreateBookingRequest struct {
	OfferingID     int         `json:"offering_id" binding:"required,min=1"`
	BookingDate    string      `json:"booking_date" binding:"required,datetime=2006-01-02"`
	StartTime      string      `json:"start_time" binding:"required,hhmm"`
	EndTime        string      `json:"end_time" binding:"omitempty,hhmm"`
	NumberOfGuests int         `json:"number_of_guests" binding:"required,min=1"`
	GuestDetails   Guests      `json:"guest_details" binding:"omitempty,max=50,dive"`
	ContactInfo    ContactInfo `json:"contact_info"`
}

type RespondRequest struct {
	Action  string `json:"action" binding:"required,oneof=accept reject"`
	Message string `json:"message" binding:"max=1000"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// SlotAvailability is one resolved slot of a date with its remaining capacity.
type SlotAvailability struct {
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	MaxBookings int    `json:"max_bookings"`
	Booked      int    `json:"booked"`
	Remaining   int    `json:"remaining"`
}

type DayAvailability struct {
	OfferingID     int                `json:"offering_id"`
	Date           string             `json:"date"`
	IsAvailable    bool               `json:"is_available"`
	Reason         string             `json:"reason,omitempty"`
	UnitPriceCents int64              `json:"unit_price_cents"`
	Currency       string             `json:"currency"`
	Slots          []SlotAvailability `json:"slots"`
}
