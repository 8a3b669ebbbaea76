package booking

import (
	"fmt"
	"time"

	"huletfish/internal/apperror"
	"huletfish/internal/offering"
)

// Rejection reasons reported by the conflict checker and the create flow.
const (
	ReasonOfferingUnavailable    = "OfferingUnavailable"
	ReasonGuestCountOutOfRange   = "GuestCountOutOfRange"
	ReasonDateBlackedOut         = "DateBlackedOut"
	ReasonDayUnavailable         = "DayUnavailable"
	ReasonSlotFull               = "SlotFull"
	ReasonPastDate               = "PastDate"
	ReasonSlotUnavailable        = "SlotUnavailable"
	ReasonInvalidDate            = "InvalidDate"
	ReasonInvalidGuestDetails    = "InvalidGuestDetails"
	ReasonDailyCapacityExhausted = "DailyCapacityExhausted"
)

var (
	ErrSlotFull        = apperror.Validation(ReasonSlotFull, "the requested time slot is fully booked")
	ErrSlotUnavailable = apperror.Validation(ReasonSlotUnavailable, "slot no longer available, please try again")
)

// Request is a candidate booking as seen by the checker. Date carries the
// calendar day; its clock and location are ignored. An empty EndTime is
// derived from the offering.
type Request struct {
	Date      time.Time
	StartTime string
	EndTime   string
	Guests    int
}

// Decision describes an admissible request: the exact window it occupies,
// the defined slot containing it and the unit price in effect that day.
type Decision struct {
	Day            time.Time
	StartTime      string
	EndTime        string
	Slot           offering.TimeSlot
	UnitPriceCents int64
	StartsAt       time.Time
}

// Capacity is the number of active bookings the containing slot may hold.
func (d *Decision) Capacity() int {
	return d.Slot.MaxBookings
}

// Admit applies the capacity rule given the number of active bookings that
// overlap the containing slot. Capacity belongs to the defined slot, so a
// shorter requested window still competes with every booking in that slot.
func (d *Decision) Admit(overlapping int) error {
	if overlapping >= d.Slot.MaxBookings {
		return ErrSlotFull
	}
	return nil
}

// Checker decides whether a booking request may proceed. It is pure: all
// state it needs is passed in.
type Checker struct {
	loc *time.Location
}

func NewChecker(loc *time.Location) *Checker {
	if loc == nil {
		loc = time.UTC
	}
	return &Checker{loc: loc}
}

// Day returns midnight of d's calendar date in the checker's timezone.
func (c *Checker) Day(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.loc)
}

// NotPast rejects dates whose midnight is not strictly after now.
func (c *Checker) NotPast(date, now time.Time) error {
	if !c.Day(date).After(now) {
		return apperror.Validation(ReasonPastDate, "booking date must be in the future")
	}
	return nil
}

// Evaluate applies every rule that does not depend on existing bookings.
// The past-date rule runs first so a request for a date that is not strictly
// in the future is always reported as such.
func (c *Checker) Evaluate(o *offering.Offering, req Request, now time.Time) (*Decision, error) {
	if err := c.NotPast(req.Date, now); err != nil {
		return nil, err
	}
	day := c.Day(req.Date)

	startMin, err := offering.ParseClock(req.StartTime)
	if err != nil {
		return nil, apperror.Validation(offering.ReasonInvalidTimeSlot, err.Error())
	}
	startsAt := day.Add(time.Duration(startMin) * time.Minute)

	if !o.Bookable() {
		return nil, apperror.Validation(ReasonOfferingUnavailable, "offering is not available for booking")
	}

	if req.Guests < o.MinGuests || req.Guests > o.MaxGuests {
		return nil, apperror.Validation(ReasonGuestCountOutOfRange,
			fmt.Sprintf("number of guests must be between %d and %d", o.MinGuests, o.MaxGuests))
	}

	if b, ok := o.Availability.Blackout(day); ok {
		msg := "offering is not available on this date"
		if b.Reason != "" {
			msg += ": " + b.Reason
		}
		return nil, apperror.Validation(ReasonDateBlackedOut, msg)
	}

	resolved := o.Availability.Resolve(day)
	if !resolved.IsAvailable || len(resolved.Slots) == 0 {
		return nil, apperror.Validation(ReasonDayUnavailable, "offering is not available on this day")
	}

	endMin, err := c.endOf(o, resolved, startMin, req.EndTime)
	if err != nil {
		return nil, err
	}

	slot, ok := resolved.FindSlot(startMin, endMin)
	if !ok {
		return nil, apperror.Validation(ReasonDayUnavailable, "requested time is outside the offering's time slots")
	}

	unit := o.Price.AmountCents
	if resolved.PriceCents != nil {
		unit = *resolved.PriceCents
	}

	return &Decision{
		Day:            day,
		StartTime:      offering.FormatClock(startMin),
		EndTime:        offering.FormatClock(endMin),
		Slot:           slot,
		UnitPriceCents: unit,
		StartsAt:       startsAt,
	}, nil
}

// Check is Evaluate followed by Admit.
func (c *Checker) Check(o *offering.Offering, req Request, overlapping int, now time.Time) (*Decision, error) {
	d, err := c.Evaluate(o, req, now)
	if err != nil {
		return nil, err
	}
	if err := d.Admit(overlapping); err != nil {
		return nil, err
	}
	return d, nil
}

// endOf returns the requested end in minutes. Without an explicit end the
// offering's duration applies, else the end of the slot the start falls in.
func (c *Checker) endOf(o *offering.Offering, resolved offering.Resolved, startMin int, endTime string) (int, error) {
	if endTime != "" {
		endMin, err := offering.ParseClock(endTime)
		if err != nil {
			return 0, apperror.Validation(offering.ReasonInvalidTimeSlot, err.Error())
		}
		if endMin <= startMin {
			return 0, apperror.Validation(offering.ReasonInvalidTimeSlot, "end time must be after start time")
		}
		return endMin, nil
	}

	if o.Duration.Hours > 0 {
		return startMin + o.Duration.Hours*60, nil
	}

	for _, slot := range resolved.Slots {
		s, err1 := offering.ParseClock(slot.StartTime)
		e, err2 := offering.ParseClock(slot.EndTime)
		if err1 == nil && err2 == nil && s <= startMin && startMin < e {
			return e, nil
		}
	}
	return 0, apperror.Validation(ReasonDayUnavailable, "requested time is outside the offering's time slots")
}
