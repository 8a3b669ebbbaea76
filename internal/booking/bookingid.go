package booking

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"huletfish/internal/apperror"
	"huletfish/internal/logger"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const (
	bookingIDPrefix  = "HF"
	bookingIDDay     = "060102"
	bookingIDLength  = len(bookingIDPrefix) + len(bookingIDDay) + 3
	maxDailySequence = 999

	redisCounterTTL = 48 * time.Hour
)

var ErrDailyCapacityExhausted = apperror.Validation(ReasonDailyCapacityExhausted,
	"daily booking capacity exhausted, please try again tomorrow")

// Counter hands out strictly increasing sequence numbers per day key,
// starting at 1. Implementations must be atomic across processes.
type Counter interface {
	Next(ctx context.Context, day string) (int64, error)
}

// Generator produces booking references of the form HFyymmddNNN, where the
// date is the creation day in the service timezone.
type Generator struct {
	counter Counter
	loc     *time.Location
}

func NewGenerator(counter Counter, loc *time.Location) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{counter: counter, loc: loc}
}

func (g *Generator) Next(ctx context.Context, now time.Time) (string, error) {
	day := now.In(g.loc).Format(bookingIDDay)

	seq, err := g.counter.Next(ctx, day)
	if err != nil {
		return "", fmt.Errorf("allocate booking id for %s: %w", day, err)
	}
	if seq > maxDailySequence {
		return "", ErrDailyCapacityExhausted
	}
	if seq < 1 {
		return "", fmt.Errorf("allocate booking id for %s: invalid sequence %d", day, seq)
	}

	return FormatBookingID(day, int(seq)), nil
}

func FormatBookingID(day string, seq int) string {
	return fmt.Sprintf("%s%s%03d", bookingIDPrefix, day, seq)
}

// ParseBookingID validates id and returns its calendar day and sequence.
func ParseBookingID(id string) (time.Time, int, error) {
	if len(id) != bookingIDLength || id[:len(bookingIDPrefix)] != bookingIDPrefix {
		return time.Time{}, 0, apperror.Validation("InvalidBookingID", fmt.Sprintf("invalid booking id %q", id))
	}

	dayPart := id[len(bookingIDPrefix) : len(bookingIDPrefix)+len(bookingIDDay)]
	day, err := time.Parse(bookingIDDay, dayPart)
	if err != nil {
		return time.Time{}, 0, apperror.Validation("InvalidBookingID", fmt.Sprintf("invalid booking id %q", id))
	}

	seqPart := id[len(bookingIDPrefix)+len(bookingIDDay):]
	seq, err := strconv.Atoi(seqPart)
	if err != nil || seq < 1 || seqPart[0] == '+' || seqPart[0] == '-' {
		return time.Time{}, 0, apperror.Validation("InvalidBookingID", fmt.Sprintf("invalid booking id %q", id))
	}

	return day, seq, nil
}

// PostgresCounter keeps one row per day and increments it in a single
// upsert, so concurrent callers never observe the same value.
type PostgresCounter struct {
	db *sqlx.DB
}

func NewPostgresCounter(db *sqlx.DB) *PostgresCounter {
	return &PostgresCounter{db: db}
}

func (c *PostgresCounter) Next(ctx context.Context, day string) (int64, error) {
	query := `
		INSERT INTO booking_id_counters (day, seq)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET seq = booking_id_counters.seq + 1
		RETURNING seq
	`

	var seq int64
	if err := c.db.GetContext(ctx, &seq, query, day); err != nil {
		return 0, err
	}
	return seq, nil
}

// RedisCounter uses INCR on a per-day key that expires after two days.
type RedisCounter struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb, ttl: redisCounterTTL}
}

func (c *RedisCounter) Next(ctx context.Context, day string) (int64, error) {
	key := "booking:seq:" + day

	seq, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if seq == 1 {
		if err := c.rdb.Expire(ctx, key, c.ttl).Err(); err != nil {
			logger.Warn("failed to set booking counter expiry", "key", key, "error", err)
		}
	}
	return seq, nil
}
