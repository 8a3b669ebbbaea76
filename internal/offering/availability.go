package offering

import (
	"fmt"
	"strings"
	"time"

	"huletfish/internal/apperror"
)

// DateLayout is the calendar-date format used for special and blackout dates.
const DateLayout = "2006-01-02"

const clockLayout = "15:04"

const ReasonInvalidTimeSlot = "InvalidTimeSlot"
const ReasonInvalidAvailability = "InvalidAvailability"

var weekdays = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// WeekdayName returns the lowercase schedule key for d.
func WeekdayName(d time.Weekday) string {
	return weekdays[d]
}

type TimeSlot struct {
	StartTime   string `json:"start_time" binding:"required,hhmm"`
	EndTime     string `json:"end_time" binding:"required,hhmm"`
	MaxBookings int    `json:"max_bookings" binding:"required,min=1"`
}

type DaySchedule struct {
	Day         string     `json:"day" binding:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	IsAvailable bool       `json:"is_available"`
	TimeSlots   []TimeSlot `json:"time_slots" binding:"omitempty,dive"`
}

// SpecialDate overrides the weekly schedule on one date. Nil PriceCents keeps
// the offering price; empty TimeSlots keeps the weekday's slots.
type SpecialDate struct {
	Date        string     `json:"date" binding:"required,datetime=2006-01-02"`
	IsAvailable bool       `json:"is_available"`
	PriceCents  *int64     `json:"price_cents,omitempty" binding:"omitempty,gte=0"`
	TimeSlots   []TimeSlot `json:"time_slots,omitempty" binding:"omitempty,dive"`
	Note        string     `json:"note,omitempty"`
}

type BlackoutRange struct {
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"required,datetime=2006-01-02"`
	Reason    string `json:"reason,omitempty"`
}

type Availability struct {
	Schedule      []DaySchedule   `json:"schedule" binding:"omitempty,dive"`
	SpecialDates  []SpecialDate   `json:"special_dates" binding:"omitempty,dive"`
	BlackoutDates []BlackoutRange `json:"blackout_dates" binding:"omitempty,dive"`
}

// Resolved is the effective availability of one calendar date.
type Resolved struct {
	IsAvailable bool
	Slots       []TimeSlot
	PriceCents  *int64
	Special     bool
}

// ParseClock parses a zero-padded "HH:MM" string into minutes after midnight.
func ParseClock(s string) (int, error) {
	if len(s) != len(clockLayout) {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock is the inverse of ParseClock.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ValidateTimeSlot rejects slots whose end is not strictly after their start.
func ValidateTimeSlot(slot TimeSlot) error {
	start, err := ParseClock(slot.StartTime)
	if err != nil {
		return apperror.Validation(ReasonInvalidTimeSlot, err.Error())
	}
	end, err := ParseClock(slot.EndTime)
	if err != nil {
		return apperror.Validation(ReasonInvalidTimeSlot, err.Error())
	}
	if end <= start {
		return apperror.Validation(ReasonInvalidTimeSlot,
			fmt.Sprintf("end time %s must be after start time %s", slot.EndTime, slot.StartTime))
	}
	if slot.MaxBookings < 1 {
		return apperror.Validation(ReasonInvalidTimeSlot, "max bookings must be at least 1")
	}
	return nil
}

// NormalizeMainImage leaves exactly one image flagged as main: the first
// flagged one, or the first image when none is flagged.
func NormalizeMainImage(images Images) Images {
	if len(images) == 0 {
		return images
	}
	mainIdx := -1
	for i := range images {
		if images[i].IsMain && mainIdx == -1 {
			mainIdx = i
			continue
		}
		images[i].IsMain = false
	}
	if mainIdx == -1 {
		images[0].IsMain = true
	}
	return images
}

func (a *Availability) Validate() error {
	seenDays := make(map[string]bool)
	for _, day := range a.Schedule {
		name := strings.ToLower(day.Day)
		if !isWeekday(name) {
			return apperror.Validation(ReasonInvalidAvailability, fmt.Sprintf("unknown weekday %q", day.Day))
		}
		if seenDays[name] {
			return apperror.Validation(ReasonInvalidAvailability, fmt.Sprintf("weekday %s listed twice", name))
		}
		seenDays[name] = true
		for _, slot := range day.TimeSlots {
			if err := ValidateTimeSlot(slot); err != nil {
				return err
			}
		}
	}

	seenDates := make(map[string]bool)
	for _, sd := range a.SpecialDates {
		if _, err := time.Parse(DateLayout, sd.Date); err != nil {
			return apperror.Validation(ReasonInvalidAvailability, fmt.Sprintf("invalid special date %q", sd.Date))
		}
		if seenDates[sd.Date] {
			return apperror.Validation(ReasonInvalidAvailability, fmt.Sprintf("special date %s listed twice", sd.Date))
		}
		seenDates[sd.Date] = true
		for _, slot := range sd.TimeSlots {
			if err := ValidateTimeSlot(slot); err != nil {
				return err
			}
		}
	}

	for _, b := range a.BlackoutDates {
		start, err := time.Parse(DateLayout, b.StartDate)
		if err != nil {
			return apperror.Validation(ReasonInvalidAvailability, fmt.Sprintf("invalid blackout start %q", b.StartDate))
		}
		end, err := time.Parse(DateLayout, b.EndDate)
		if err != nil {
			return apperror.Validation(ReasonInvalidAvailability, fmt.Sprintf("invalid blackout end %q", b.EndDate))
		}
		if end.Before(start) {
			return apperror.Validation(ReasonInvalidAvailability, "blackout end date is before its start date")
		}
	}
	return nil
}

// Blackout returns the blackout range containing date, if any.
func (a *Availability) Blackout(date time.Time) (*BlackoutRange, bool) {
	day := date.Format(DateLayout)
	for i := range a.BlackoutDates {
		b := &a.BlackoutDates[i]
		if b.StartDate <= day && day <= b.EndDate {
			return b, true
		}
	}
	return nil, false
}

// Resolve returns the effective availability of date: a special-date entry
// when one exists, otherwise the weekday schedule.
func (a *Availability) Resolve(date time.Time) Resolved {
	day := date.Format(DateLayout)
	weekly := a.weekday(date.Weekday())

	for _, sd := range a.SpecialDates {
		if sd.Date != day {
			continue
		}
		slots := sd.TimeSlots
		if len(slots) == 0 && weekly != nil {
			slots = weekly.TimeSlots
		}
		return Resolved{IsAvailable: sd.IsAvailable, Slots: slots, PriceCents: sd.PriceCents, Special: true}
	}

	if weekly == nil {
		return Resolved{}
	}
	return Resolved{IsAvailable: weekly.IsAvailable, Slots: weekly.TimeSlots}
}

func (a *Availability) weekday(d time.Weekday) *DaySchedule {
	name := WeekdayName(d)
	for i := range a.Schedule {
		if strings.ToLower(a.Schedule[i].Day) == name {
			return &a.Schedule[i]
		}
	}
	return nil
}

// FindSlot returns the defined slot that fully contains [start, end), given in
// minutes after midnight.
func (r Resolved) FindSlot(start, end int) (TimeSlot, bool) {
	for _, slot := range r.Slots {
		s, err := ParseClock(slot.StartTime)
		if err != nil {
			continue
		}
		e, err := ParseClock(slot.EndTime)
		if err != nil {
			continue
		}
		if s <= start && end <= e {
			return slot, true
		}
	}
	return TimeSlot{}, false
}

func isWeekday(name string) bool {
	for _, d := range weekdays {
		if d == name {
			return true
		}
	}
	return false
}
