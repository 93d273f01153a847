package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterval_Overlaps(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Interval
		expected bool
	}{
		{"identical", Interval{1080, 1140}, Interval{1080, 1140}, true},
		{"staggered starts overlap", Interval{1080, 1170}, Interval{1110, 1200}, true},
		{"contained", Interval{1080, 1200}, Interval{1110, 1140}, true},
		{"adjacent back-to-back", Interval{1080, 1140}, Interval{1140, 1200}, false},
		{"adjacent reversed", Interval{1140, 1200}, Interval{1080, 1140}, false},
		{"disjoint", Interval{600, 660}, Interval{1080, 1140}, false},
		{"touching start from before", Interval{1020, 1080}, Interval{1080, 1170}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Overlaps(tt.b))
			// overlap is symmetric
			assert.Equal(t, tt.expected, tt.b.Overlaps(tt.a))
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		minutes int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"18:00", 1080, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"18", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.minutes, got)
			assert.Equal(t, tt.input, FormatClock(got))
		})
	}
}

func TestSlotKey_String(t *testing.T) {
	key := SlotKey{
		TenantID:   "tenant-1",
		FacilityID: "fac-1",
		CourtID:    "court-a",
		Date:       "2026-02-10",
		StartTime:  "18:00",
	}

	assert.Equal(t, "slotlock:tenant-1:fac-1:court-a:2026-02-10:18:00", key.String())

	// A different start time must map to a different key.
	other := key
	other.StartTime = "18:30"
	assert.NotEqual(t, key.String(), other.String())
}

func TestSlotLock_Expired(t *testing.T) {
	now := time.Date(2026, 2, 10, 18, 0, 0, 0, time.UTC)
	lock := SlotLock{Token: "tok", ExpiresAt: now.Add(300 * time.Second)}

	assert.False(t, lock.Expired(now))
	assert.False(t, lock.Expired(now.Add(299*time.Second)))
	assert.True(t, lock.Expired(now.Add(300*time.Second)))
	assert.True(t, lock.Expired(now.Add(301*time.Second)))
}

func TestCourt_DurationsAllowed(t *testing.T) {
	court := Court{AllowedDurations: "60, 90,120"}
	assert.Equal(t, []int{60, 90, 120}, court.DurationsAllowed())

	assert.True(t, court.AllowsDuration(90))
	assert.False(t, court.AllowsDuration(45))

	// Empty list accepts any positive duration.
	open := Court{}
	assert.True(t, open.AllowsDuration(75))
	assert.False(t, open.AllowsDuration(0))

	// Garbage entries are skipped.
	messy := Court{AllowedDurations: "60,abc,,90"}
	assert.Equal(t, []int{60, 90}, messy.DurationsAllowed())
}

func TestBooking_Interval(t *testing.T) {
	b := Booking{Date: "2026-02-10", StartTime: "18:00", DurationMinutes: 90}

	iv, err := b.Interval()
	require.NoError(t, err)
	assert.Equal(t, Interval{Start: 1080, End: 1170}, iv)

	other := Booking{Date: "2026-02-10", StartTime: "18:30", DurationMinutes: 60}
	otherIv, err := other.Interval()
	require.NoError(t, err)

	// 18:00-19:30 and 18:30-19:30 collide even though starts differ.
	assert.True(t, iv.Overlaps(otherIv))
}

func TestBooking_TerminalAndActive(t *testing.T) {
	for _, st := range []string{BookingStatusReserved, BookingStatusPaid, BookingStatusConfirmed} {
		b := Booking{Status: st}
		assert.False(t, b.Terminal(), st)
		assert.True(t, b.Active(), st)
	}

	for _, st := range []string{BookingStatusCompleted, BookingStatusNoShow} {
		b := Booking{Status: st}
		assert.True(t, b.Terminal(), st)
		// completed and no-show bookings still occupy their interval
		assert.True(t, b.Active(), st)
	}

	cancelled := Booking{Status: BookingStatusCancelled}
	assert.True(t, cancelled.Terminal())
	assert.False(t, cancelled.Active())
}

func TestBooking_StartEnd(t *testing.T) {
	b := Booking{Date: "2026-02-10", StartTime: "18:00", DurationMinutes: 60}

	start, err := b.Start(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 10, 18, 0, 0, 0, time.UTC), start)

	end, err := b.End(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 10, 19, 0, 0, 0, time.UTC), end)
}
