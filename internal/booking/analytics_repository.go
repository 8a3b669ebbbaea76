package booking

import (
	"context"
	"fmt"
	"time"
)

type StatsByBucket struct {
	Bucket            string `db:"bucket" json:"bucket"`
	BookingsRequested int    `db:"bookings_requested" json:"bookings_requested"`
	BookingsConfirmed int    `db:"bookings_confirmed" json:"bookings_confirmed"`
	BookingsRejected  int    `db:"bookings_rejected" json:"bookings_rejected"`
	BookingsCancelled int    `db:"bookings_cancelled" json:"bookings_cancelled"`
	BookingsCompleted int    `db:"bookings_completed" json:"bookings_completed"`
	RevenueCents      int64  `db:"revenue_cents" json:"revenue_cents"`
}

type StatsByOffering struct {
	OfferingID        int    `db:"offering_id" json:"offering_id"`
	OfferingTitle     string `db:"offering_title" json:"offering_title"`
	BookingsRequested int    `db:"bookings_requested" json:"bookings_requested"`
	BookingsConfirmed int    `db:"bookings_confirmed" json:"bookings_confirmed"`
	BookingsCancelled int    `db:"bookings_cancelled" json:"bookings_cancelled"`
	Guests            int    `db:"guests" json:"guests"`
	RevenueCents      int64  `db:"revenue_cents" json:"revenue_cents"`
}

func (r *repository) StatsByDay(ctx context.Context, from, to time.Time) ([]StatsByBucket, error) {
	query := `
SELECT
  TO_CHAR(DATE(requested_at), 'YYYY-MM-DD')                  AS bucket,
  COUNT(*)                                                   AS bookings_requested,
  COUNT(*) FILTER (WHERE status IN ('confirmed', 'completed')) AS bookings_confirmed,
  COUNT(*) FILTER (WHERE status = 'rejected')                AS bookings_rejected,
  COUNT(*) FILTER (WHERE status = 'cancelled')               AS bookings_cancelled,
  COUNT(*) FILTER (WHERE status = 'completed')               AS bookings_completed,
  COALESCE(SUM(total_amount_cents) FILTER (WHERE status IN ('confirmed', 'completed')), 0) AS revenue_cents
FROM bookings
WHERE requested_at BETWEEN $1 AND $2
GROUP BY DATE(requested_at)
ORDER BY bucket;
`
	stats := []StatsByBucket{}
	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, fmt.Errorf("booking stats by day: %w", err)
	}
	return stats, nil
}

func (r *repository) StatsByOffering(ctx context.Context, from, to time.Time) ([]StatsByOffering, error) {
	query := `
SELECT
  o.id    AS offering_id,
  o.title AS offering_title,
  COUNT(b.id)                                                      AS bookings_requested,
  COUNT(b.id) FILTER (WHERE b.status IN ('confirmed', 'completed')) AS bookings_confirmed,
  COUNT(b.id) FILTER (WHERE b.status = 'cancelled')                AS bookings_cancelled,
  COALESCE(SUM(b.number_of_guests), 0)                             AS guests,
  COALESCE(SUM(b.total_amount_cents) FILTER (WHERE b.status IN ('confirmed', 'completed')), 0) AS revenue_cents
FROM offerings o
JOIN bookings b ON b.offering_id = o.id
WHERE b.requested_at BETWEEN $1 AND $2
GROUP BY o.id, o.title
ORDER BY o.id;
`
	stats := []StatsByOffering{}
	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, fmt.Errorf("booking stats by offering: %w", err)
	}
	return stats, nil
}
