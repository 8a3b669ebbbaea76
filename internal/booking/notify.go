package booking

import "context"

const (
	NoticeRequested = "booking_requested"
	NoticeConfirmed = "booking_confirmed"
	NoticeRejected  = "booking_rejected"
	NoticeCancelled = "booking_cancelled"
)

// Notice is a message about a booking addressed to one recipient.
type Notice struct {
	Type          string
	To            string
	Name          string
	OfferingTitle string
	Booking       *Booking
}

type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}
