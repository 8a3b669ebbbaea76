package offering

import (
	"testing"
	"time"

	"huletfish/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, s)
	require.NoError(t, err)
	return d
}

func price(cents int64) *int64 {
	return &cents
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"9:30", 0, true},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"0930", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, FormatClock(got))
		})
	}
}

func TestValidateTimeSlot(t *testing.T) {
	tests := []struct {
		name    string
		slot    TimeSlot
		wantErr bool
	}{
		{"valid", TimeSlot{StartTime: "09:00", EndTime: "11:00", MaxBookings: 2}, false},
		{"end equals start", TimeSlot{StartTime: "09:00", EndTime: "09:00", MaxBookings: 1}, true},
		{"end before start", TimeSlot{StartTime: "14:00", EndTime: "09:00", MaxBookings: 1}, true},
		{"bad format", TimeSlot{StartTime: "9am", EndTime: "11:00", MaxBookings: 1}, true},
		{"zero capacity", TimeSlot{StartTime: "09:00", EndTime: "11:00", MaxBookings: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTimeSlot(tt.slot)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, ReasonInvalidTimeSlot, apperror.ReasonOf(err))
		})
	}
}

func TestNormalizeMainImage(t *testing.T) {
	t.Run("none flagged", func(t *testing.T) {
		images := NormalizeMainImage(Images{{URL: "a"}, {URL: "b"}})
		assert.True(t, images[0].IsMain)
		assert.False(t, images[1].IsMain)
	})

	t.Run("several flagged", func(t *testing.T) {
		images := NormalizeMainImage(Images{{URL: "a"}, {URL: "b", IsMain: true}, {URL: "c", IsMain: true}})
		assert.False(t, images[0].IsMain)
		assert.True(t, images[1].IsMain)
		assert.False(t, images[2].IsMain)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, NormalizeMainImage(nil))
	})
}

func TestAvailability_Validate(t *testing.T) {
	valid := Availability{
		Schedule: []DaySchedule{
			{Day: "monday", IsAvailable: true, TimeSlots: []TimeSlot{{StartTime: "09:00", EndTime: "11:00", MaxBookings: 2}}},
		},
		SpecialDates:  []SpecialDate{{Date: "2030-01-07", IsAvailable: false}},
		BlackoutDates: []BlackoutRange{{StartDate: "2030-02-01", EndDate: "2030-02-03"}},
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(a *Availability)
	}{
		{"duplicate weekday", func(a *Availability) {
			a.Schedule = append(a.Schedule, DaySchedule{Day: "Monday"})
		}},
		{"unknown weekday", func(a *Availability) {
			a.Schedule = append(a.Schedule, DaySchedule{Day: "someday"})
		}},
		{"bad schedule slot", func(a *Availability) {
			a.Schedule[0].TimeSlots = []TimeSlot{{StartTime: "11:00", EndTime: "10:00", MaxBookings: 1}}
		}},
		{"bad special slot", func(a *Availability) {
			a.SpecialDates[0].TimeSlots = []TimeSlot{{StartTime: "11:00", EndTime: "11:00", MaxBookings: 1}}
		}},
		{"duplicate special date", func(a *Availability) {
			a.SpecialDates = append(a.SpecialDates, SpecialDate{Date: "2030-01-07"})
		}},
		{"inverted blackout", func(a *Availability) {
			a.BlackoutDates[0].EndDate = "2030-01-31"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Availability{
				Schedule:      append([]DaySchedule(nil), valid.Schedule...),
				SpecialDates:  append([]SpecialDate(nil), valid.SpecialDates...),
				BlackoutDates: append([]BlackoutRange(nil), valid.BlackoutDates...),
			}
			a.Schedule[0].TimeSlots = append([]TimeSlot(nil), valid.Schedule[0].TimeSlots...)
			tt.mutate(&a)
			assert.ErrorIs(t, a.Validate(), apperror.ErrValidation)
		})
	}
}

func TestAvailability_Blackout(t *testing.T) {
	a := Availability{BlackoutDates: []BlackoutRange{{StartDate: "2030-09-10", EndDate: "2030-09-12", Reason: "Meskel"}}}

	for _, d := range []string{"2030-09-10", "2030-09-11", "2030-09-12"} {
		b, ok := a.Blackout(date(t, d))
		assert.True(t, ok, d)
		assert.Equal(t, "Meskel", b.Reason)
	}
	for _, d := range []string{"2030-09-09", "2030-09-13"} {
		_, ok := a.Blackout(date(t, d))
		assert.False(t, ok, d)
	}
}

func TestAvailability_Resolve(t *testing.T) {
	mondaySlots := []TimeSlot{{StartTime: "09:00", EndTime: "11:00", MaxBookings: 2}}
	a := Availability{
		Schedule: []DaySchedule{
			{Day: "monday", IsAvailable: true, TimeSlots: mondaySlots},
			{Day: "tuesday", IsAvailable: false},
		},
		SpecialDates: []SpecialDate{
			// 2030-01-14 is a Monday
			{Date: "2030-01-14", IsAvailable: true, PriceCents: price(9000)},
			{Date: "2030-01-21", IsAvailable: false},
			{Date: "2030-01-19", IsAvailable: true, TimeSlots: []TimeSlot{{StartTime: "14:00", EndTime: "16:00", MaxBookings: 5}}},
		},
	}

	t.Run("weekday", func(t *testing.T) {
		r := a.Resolve(date(t, "2030-01-07"))
		assert.True(t, r.IsAvailable)
		assert.False(t, r.Special)
		assert.Equal(t, mondaySlots, r.Slots)
		assert.Nil(t, r.PriceCents)
	})

	t.Run("unavailable weekday", func(t *testing.T) {
		assert.False(t, a.Resolve(date(t, "2030-01-08")).IsAvailable)
	})

	t.Run("unscheduled weekday", func(t *testing.T) {
		r := a.Resolve(date(t, "2030-01-09"))
		assert.False(t, r.IsAvailable)
		assert.Empty(t, r.Slots)
	})

	t.Run("special date keeps weekday slots", func(t *testing.T) {
		r := a.Resolve(date(t, "2030-01-14"))
		assert.True(t, r.Special)
		assert.Equal(t, mondaySlots, r.Slots)
		require.NotNil(t, r.PriceCents)
		assert.Equal(t, int64(9000), *r.PriceCents)
	})

	t.Run("special date closes a weekday", func(t *testing.T) {
		assert.False(t, a.Resolve(date(t, "2030-01-21")).IsAvailable)
	})

	t.Run("special date opens a saturday", func(t *testing.T) {
		r := a.Resolve(date(t, "2030-01-19"))
		assert.True(t, r.IsAvailable)
		require.Len(t, r.Slots, 1)
		assert.Equal(t, "14:00", r.Slots[0].StartTime)
	})
}

func TestResolved_FindSlot(t *testing.T) {
	r := Resolved{Slots: []TimeSlot{
		{StartTime: "09:00", EndTime: "11:00", MaxBookings: 2},
		{StartTime: "14:00", EndTime: "17:00", MaxBookings: 4},
	}}

	slot, ok := r.FindSlot(9*60, 11*60)
	assert.True(t, ok)
	assert.Equal(t, 2, slot.MaxBookings)

	slot, ok = r.FindSlot(15*60, 16*60)
	assert.True(t, ok)
	assert.Equal(t, 4, slot.MaxBookings)

	_, ok = r.FindSlot(10*60, 12*60)
	assert.False(t, ok)
}

func TestPrice_Total(t *testing.T) {
	assert.Equal(t, int64(3000), Price{Unit: UnitPerPerson}.Total(1000, 3))
	assert.Equal(t, int64(1000), Price{Unit: UnitPerGroup}.Total(1000, 3))
	assert.Equal(t, int64(1000), Price{Unit: UnitPerFamily}.Total(1000, 5))
}
