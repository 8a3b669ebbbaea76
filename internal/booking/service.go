package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"huletfish/internal/apperror"
	"huletfish/internal/auth"
	"huletfish/internal/logger"
	"huletfish/internal/metrics"
	"huletfish/internal/offering"
	"huletfish/internal/tracing"
	"huletfish/internal/user"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

const (
	GroupByDay      = "day"
	GroupByOffering = "offering"
)

type Config struct {
	Location           *time.Location
	CancellationWindow time.Duration
	CreateRetries      int
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

type Stats struct {
	From       time.Time         `json:"from"`
	To         time.Time         `json:"to"`
	GroupBy    string            `json:"group_by"`
	ByDay      []StatsByBucket   `json:"by_day,omitempty"`
	ByOffering []StatsByOffering `json:"by_offering,omitempty"`
}

type Service interface {
	Create(ctx context.Context, actor auth.Actor, req CreateBookingRequest) (*View, error)
	Get(ctx context.Context, actor auth.Actor, bookingID string) (*View, error)
	Respond(ctx context.Context, actor auth.Actor, bookingID string, req RespondRequest) (*View, error)
	Cancel(ctx context.Context, actor auth.Actor, bookingID string, reason string) (*View, error)
	Complete(ctx context.Context, actor auth.Actor, bookingID string) (*View, error)
	ListForTourist(ctx context.Context, actor auth.Actor) ([]View, error)
	ListForHost(ctx context.Context, actor auth.Actor) ([]View, error)
	ListForOffering(ctx context.Context, actor auth.Actor, offeringID int) ([]View, error)
	Availability(ctx context.Context, offeringID int, date string) (*DayAvailability, error)
	Stats(ctx context.Context, actor auth.Actor, from, to time.Time, groupBy string) (*Stats, error)
}

type service struct {
	repo      Repository
	offerings offering.Repository
	users     user.Repository
	ids       *Generator
	checker   *Checker
	notifier  Notifier
	tracer    trace.Tracer

	loc     *time.Location
	window  time.Duration
	retries int
	now     func() time.Time
}

func NewService(repo Repository, offerings offering.Repository, users user.Repository, ids *Generator, notifier Notifier, cfg Config) Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.CreateRetries < 1 {
		cfg.CreateRetries = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &service{
		repo:      repo,
		offerings: offerings,
		users:     users,
		ids:       ids,
		checker:   NewChecker(cfg.Location),
		notifier:  notifier,
		tracer:    tracing.Tracer("huletfish/booking"),
		loc:       cfg.Location,
		window:    cfg.CancellationWindow,
		retries:   cfg.CreateRetries,
		now:       cfg.Now,
	}
}

// Create validates and reserves a new pending booking. A concurrency
// conflict restarts the whole operation, up to the configured number of
// attempts.
func (s *service) Create(ctx context.Context, actor auth.Actor, req CreateBookingRequest) (view *View, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.Create", trace.WithAttributes(
		attribute.Int("offering.id", req.OfferingID),
		attribute.String("booking.date", req.BookingDate),
	))
	started := time.Now()
	defer func() {
		metrics.ObserveBookingCreate(time.Since(started).Seconds())
		if appErr, ok := apperror.As(err); ok && appErr.Kind == apperror.KindValidation {
			metrics.RecordBookingRejection(appErr.Reason)
		}
		tracing.End(span, err)
	}()

	if err := authorize(capCreate, actor, nil); err != nil {
		return nil, err
	}
	date, perr := time.Parse(offering.DateLayout, req.BookingDate)
	if perr != nil {
		return nil, apperror.Validation(ReasonInvalidDate, fmt.Sprintf("invalid booking date %q", req.BookingDate))
	}
	if err := s.checker.NotPast(date, s.now()); err != nil {
		return nil, err
	}
	if len(req.GuestDetails) > req.NumberOfGuests {
		return nil, apperror.Validation(ReasonInvalidGuestDetails,
			fmt.Sprintf("guest details list %d guests but the booking is for %d", len(req.GuestDetails), req.NumberOfGuests))
	}

	for attempt := 1; ; attempt++ {
		b, o, err := s.tryCreate(ctx, actor, req, date)
		if err == nil {
			metrics.RecordBookingTransition(string(StatusPending))
			logger.Info("booking created",
				"booking_id", b.BookingID, "offering_id", b.OfferingID, "tourist_id", b.TouristID, "attempt", attempt)
			s.notifyHost(ctx, NoticeRequested, b, o)
			return s.view(b), nil
		}
		if !errors.Is(err, apperror.ErrConcurrencyConflict) {
			return nil, err
		}
		if attempt >= s.retries {
			logger.Warn("booking create retries exhausted", "offering_id", req.OfferingID, "attempts", attempt, "error", err)
			return nil, ErrSlotUnavailable
		}
		metrics.RecordBookingCreateRetry()
		logger.Debug("retrying booking create", "offering_id", req.OfferingID, "attempt", attempt, "error", err)
	}
}

func (s *service) tryCreate(ctx context.Context, actor auth.Actor, req CreateBookingRequest, date time.Time) (*Booking, *offering.Offering, error) {
	o, err := s.offerings.GetByID(ctx, req.OfferingID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	decision, err := s.checker.Evaluate(o, Request{
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Guests:    req.NumberOfGuests,
	}, now)
	if err != nil {
		return nil, nil, err
	}

	overlapping, err := s.repo.CountOverlapping(ctx, o.ID, decision.Day, decision.Slot.StartTime, decision.Slot.EndTime)
	if err != nil {
		return nil, nil, err
	}
	if err := decision.Admit(overlapping); err != nil {
		return nil, nil, err
	}

	b := &Booking{
		TouristID:        actor.UserID,
		HostID:           o.HostID,
		OfferingID:       o.ID,
		BookingDate:      time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		StartTime:        decision.StartTime,
		EndTime:          decision.EndTime,
		StartsAt:         decision.StartsAt,
		NumberOfGuests:   req.NumberOfGuests,
		GuestDetails:     req.GuestDetails,
		ContactEmail:     req.ContactInfo.Email,
		ContactPhone:     req.ContactInfo.Phone,
		Status:           StatusPending,
		TotalAmountCents: o.Price.Total(decision.UnitPriceCents, req.NumberOfGuests),
		Currency:         o.Price.Currency,
		PaymentStatus:    PaymentPending,
	}

	assign := func(ctx context.Context) (string, error) {
		return s.ids.Next(ctx, now)
	}
	if err := s.repo.Reserve(ctx, b, decision.Slot, assign); err != nil {
		return nil, nil, err
	}
	return b, o, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, bookingID string) (*View, error) {
	b, err := s.loadFor(ctx, capView, actor, bookingID)
	if err != nil {
		return nil, err
	}
	return s.view(b), nil
}

func (s *service) Respond(ctx context.Context, actor auth.Actor, bookingID string, req RespondRequest) (view *View, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.Respond", trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer func() { tracing.End(span, err) }()

	b, err := s.loadFor(ctx, capRespond, actor, bookingID)
	if err != nil {
		return nil, err
	}

	var target Status
	var notice string
	switch req.Action {
	case ActionAccept:
		target, notice = StatusConfirmed, NoticeConfirmed
	case ActionReject:
		target, notice = StatusRejected, NoticeRejected
	default:
		return nil, apperror.Validation("InvalidAction", fmt.Sprintf("action must be %q or %q", ActionAccept, ActionReject))
	}
	if b.Status != StatusPending {
		return nil, apperror.State(fmt.Sprintf("booking is %s, only pending bookings can be answered", b.Status))
	}

	updated, err := s.repo.UpdateStatus(ctx, bookingID, StatusChange{
		From:    []Status{StatusPending},
		To:      target,
		At:      s.now(),
		Message: req.Message,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBookingTransition(string(target))
	logger.Info("booking answered", "booking_id", bookingID, "status", target, "host_id", actor.UserID)
	s.notifyTourist(ctx, notice, updated)
	return s.view(updated), nil
}

func (s *service) Cancel(ctx context.Context, actor auth.Actor, bookingID string, reason string) (view *View, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.Cancel", trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer func() { tracing.End(span, err) }()

	b, err := s.loadFor(ctx, capCancel, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.Status.CanTransitionTo(StatusCancelled) {
		return nil, apperror.State(fmt.Sprintf("booking is %s and can no longer be cancelled", b.Status))
	}

	now := s.now()
	if !actor.IsAdmin() && b.Status == StatusConfirmed && b.StartsAt.Sub(now) <= s.window {
		return nil, apperror.CancellationWindow(
			fmt.Sprintf("confirmed bookings cannot be cancelled within %s of the start time", s.window))
	}

	updated, err := s.repo.UpdateStatus(ctx, bookingID, StatusChange{
		From:    []Status{b.Status},
		To:      StatusCancelled,
		At:      now,
		Message: reason,
		By:      actor.UserID,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBookingTransition(string(StatusCancelled))
	logger.Info("booking cancelled", "booking_id", bookingID, "cancelled_by", actor.UserID, "previous_status", b.Status)

	if actor.UserID != updated.TouristID {
		s.notifyTourist(ctx, NoticeCancelled, updated)
	}
	if actor.UserID != updated.HostID {
		s.notifyHost(ctx, NoticeCancelled, updated, nil)
	}
	return s.view(updated), nil
}

func (s *service) Complete(ctx context.Context, actor auth.Actor, bookingID string) (*View, error) {
	if err := authorize(capComplete, actor, nil); err != nil {
		return nil, err
	}

	b, err := s.repo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusConfirmed {
		return nil, apperror.State(fmt.Sprintf("booking is %s, only confirmed bookings can be completed", b.Status))
	}
	now := s.now()
	if b.StartsAt.After(now) {
		return nil, apperror.State("booking cannot be completed before it starts")
	}

	updated, err := s.repo.UpdateStatus(ctx, bookingID, StatusChange{
		From: []Status{StatusConfirmed},
		To:   StatusCompleted,
		At:   now,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBookingTransition(string(StatusCompleted))
	logger.Info("booking completed", "booking_id", bookingID)
	return s.view(updated), nil
}

func (s *service) ListForTourist(ctx context.Context, actor auth.Actor) ([]View, error) {
	bookings, err := s.repo.ListByTourist(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.views(bookings), nil
}

func (s *service) ListForHost(ctx context.Context, actor auth.Actor) ([]View, error) {
	if err := authorize(capListHost, actor, nil); err != nil {
		return nil, err
	}
	bookings, err := s.repo.ListByHost(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.views(bookings), nil
}

func (s *service) ListForOffering(ctx context.Context, actor auth.Actor, offeringID int) ([]View, error) {
	if err := authorize(capAdminView, actor, nil); err != nil {
		return nil, err
	}
	bookings, err := s.repo.ListByOffering(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	return s.views(bookings), nil
}

// Availability reports the resolved slots of one date with the capacity
// still open in each.
func (s *service) Availability(ctx context.Context, offeringID int, date string) (*DayAvailability, error) {
	d, err := time.Parse(offering.DateLayout, date)
	if err != nil {
		return nil, apperror.Validation(ReasonInvalidDate, fmt.Sprintf("invalid date %q", date))
	}

	o, err := s.offerings.GetByID(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	if !o.Bookable() {
		return nil, offering.ErrOfferingNotFound
	}

	day := s.checker.Day(d)
	result := &DayAvailability{
		OfferingID:     o.ID,
		Date:           date,
		UnitPriceCents: o.Price.AmountCents,
		Currency:       o.Price.Currency,
		Slots:          []SlotAvailability{},
	}

	if s.checker.NotPast(day, s.now()) != nil {
		result.Reason = ReasonPastDate
		return result, nil
	}
	if _, blacked := o.Availability.Blackout(day); blacked {
		result.Reason = ReasonDateBlackedOut
		return result, nil
	}

	resolved := o.Availability.Resolve(day)
	if resolved.PriceCents != nil {
		result.UnitPriceCents = *resolved.PriceCents
	}
	if !resolved.IsAvailable || len(resolved.Slots) == 0 {
		result.Reason = ReasonDayUnavailable
		return result, nil
	}

	windows, err := s.repo.ActiveWindows(ctx, o.ID, day)
	if err != nil {
		return nil, err
	}

	for _, slot := range resolved.Slots {
		booked := 0
		for _, w := range windows {
			if w.StartTime < slot.EndTime && slot.StartTime < w.EndTime {
				booked++
			}
		}
		remaining := slot.MaxBookings - booked
		if remaining < 0 {
			remaining = 0
		}
		if remaining > 0 {
			result.IsAvailable = true
		}
		result.Slots = append(result.Slots, SlotAvailability{
			StartTime:   slot.StartTime,
			EndTime:     slot.EndTime,
			MaxBookings: slot.MaxBookings,
			Booked:      booked,
			Remaining:   remaining,
		})
	}
	if !result.IsAvailable {
		result.Reason = ReasonSlotFull
	}
	return result, nil
}

func (s *service) Stats(ctx context.Context, actor auth.Actor, from, to time.Time, groupBy string) (*Stats, error) {
	if err := authorize(capAdminView, actor, nil); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, apperror.Validation("InvalidRange", "'to' must not be before 'from'")
	}

	stats := &Stats{From: from, To: to, GroupBy: groupBy}
	var err error
	switch groupBy {
	case GroupByDay:
		stats.ByDay, err = s.repo.StatsByDay(ctx, from, to)
	case GroupByOffering:
		stats.ByOffering, err = s.repo.StatsByOffering(ctx, from, to)
	default:
		return nil, apperror.Validation("InvalidGroupBy", fmt.Sprintf("group_by must be %q or %q", GroupByDay, GroupByOffering))
	}
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *service) view(b *Booking) *View {
	now := s.now()
	return &View{
		Booking:    b,
		CanCancel:  b.CanCancel(now, s.window),
		CanReview:  b.CanReview(),
		IsUpcoming: b.IsUpcoming(now),
	}
}

func (s *service) views(bookings []Booking) []View {
	out := make([]View, 0, len(bookings))
	for i := range bookings {
		out = append(out, *s.view(&bookings[i]))
	}
	return out
}

// Notifications are best effort: failures are logged and counted and never
// undo the state change that triggered them.

func (s *service) notifyHost(ctx context.Context, noticeType string, b *Booking, o *offering.Offering) {
	if s.notifier == nil {
		return
	}
	host, err := s.users.FindByID(ctx, b.HostID)
	if err != nil {
		s.notifyFailed(noticeType, b, err)
		return
	}
	s.notify(ctx, Notice{
		Type:          noticeType,
		To:            host.Email,
		Name:          host.Name,
		OfferingTitle: s.offeringTitle(ctx, b, o),
		Booking:       b,
	})
}

func (s *service) notifyTourist(ctx context.Context, noticeType string, b *Booking) {
	if s.notifier == nil {
		return
	}
	name := "traveler"
	if tourist, err := s.users.FindByID(ctx, b.TouristID); err == nil {
		name = tourist.Name
	}
	s.notify(ctx, Notice{
		Type:          noticeType,
		To:            b.ContactEmail,
		Name:          name,
		OfferingTitle: s.offeringTitle(ctx, b, nil),
		Booking:       b,
	})
}

func (s *service) notify(ctx context.Context, n Notice) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.notifyFailed(n.Type, n.Booking, err)
		return
	}
	metrics.RecordNotification(n.Type, "queued")
}

func (s *service) notifyFailed(noticeType string, b *Booking, err error) {
	metrics.RecordNotification(noticeType, "failed")
	logger.Warn("failed to queue booking notification", "type", noticeType, "booking_id", b.BookingID, "error", err)
}

func (s *service) offeringTitle(ctx context.Context, b *Booking, o *offering.Offering) string {
	if o != nil {
		return o.Title
	}
	if o, err := s.offerings.GetByID(ctx, b.OfferingID); err == nil {
		return o.Title
	}
	return "your experience"
}
