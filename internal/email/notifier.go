package email

import (
	"context"
	"fmt"

	"huletfish/internal/booking"
)

const whenLayout = "Mon, Jan 2, 2006"

// Notify renders n and queues it for delivery.
func (s *Service) Notify(ctx context.Context, n booking.Notice) error {
	subject, body, err := render(n)
	if err != nil {
		return err
	}

	return s.Queue(ctx, Job{
		Type:    n.Type,
		To:      n.To,
		Name:    n.Name,
		Subject: subject,
		Body:    body,
	})
}

func render(n booking.Notice) (string, string, error) {
	b := n.Booking
	if b == nil {
		return "", "", fmt.Errorf("notice %s has no booking", n.Type)
	}

	details := fmt.Sprintf(`Experience: %s
Booking reference: %s
Date: %s
Time: %s - %s
Guests: %d`, n.OfferingTitle, b.BookingID, b.BookingDate.Format(whenLayout), b.StartTime, b.EndTime, b.NumberOfGuests)

	switch n.Type {
	case booking.NoticeRequested:
		return "New booking request - " + n.OfferingTitle, fmt.Sprintf(`Hi %s,

You have a new booking request waiting for your response:

%s

- Hulet Fish Team`, n.Name, details), nil

	case booking.NoticeConfirmed:
		return "Booking Confirmed - " + n.OfferingTitle, fmt.Sprintf(`Hi %s,

Your booking is confirmed!

%s
%s
- Hulet Fish Team`, n.Name, details, hostNote(b.HostMessage)), nil

	case booking.NoticeRejected:
		return "Booking Declined - " + n.OfferingTitle, fmt.Sprintf(`Hi %s,

Unfortunately the host could not accept your booking:

%s
%s
- Hulet Fish Team`, n.Name, details, hostNote(b.HostMessage)), nil

	case booking.NoticeCancelled:
		reason := ""
		if b.CancellationReason != "" {
			reason = "\nReason: " + b.CancellationReason + "\n"
		}
		return "Booking Cancelled - " + n.OfferingTitle, fmt.Sprintf(`Hi %s,

The following booking has been cancelled:

%s
%s
- Hulet Fish Team`, n.Name, details, reason), nil
	}

	return "", "", fmt.Errorf("unknown notice type %q", n.Type)
}

func hostNote(msg string) string {
	if msg == "" {
		return ""
	}
	return "\nMessage from your host: " + msg + "\n"
}
