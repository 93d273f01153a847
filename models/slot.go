package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SlotStatusAvailable = "available"
	SlotStatusLocked    = "locked"
	SlotStatusBooked    = "booked"
)

// SlotKey is the unit of mutual exclusion: one key per candidate start time.
// The tenant is part of the key, so cross-tenant contention is impossible.
type SlotKey struct {
	TenantID   string `json:"tenant_id"`
	FacilityID string `json:"facility_id"`
	CourtID    string `json:"court_id"`
	Date       string `json:"date"`       // 2006-01-02
	StartTime  string `json:"start_time"` // 15:04
}

func (k SlotKey) String() string {
	return fmt.Sprintf("slotlock:%s:%s:%s:%s:%s", k.TenantID, k.FacilityID, k.CourtID, k.Date, k.StartTime)
}

// SlotLock is the ephemeral claim on a SlotKey. At most one live lock exists
// per key; expiry is enforced by the store, not by callers.
type SlotLock struct {
	Key       SlotKey   `json:"key"`
	Token     string    `json:"token"`
	OwnerHint string    `json:"owner_hint"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (l *SlotLock) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// Slot is one entry in a day's availability grid.
type Slot struct {
	CourtID         string          `json:"court_id"`
	StartTime       string          `json:"start_time"`
	EndTime         string          `json:"end_time"`
	DurationMinutes int             `json:"duration_minutes"`
	Status          string          `json:"status"` // available, locked, booked
	Price           decimal.Decimal `json:"price"`
}

// Interval is a half-open [Start, End) range in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// Overlaps reports whether two half-open intervals intersect. Adjacent
// intervals (a.End == b.Start) do not conflict.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// ParseClock converts "15:04" into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock converts minutes since midnight into "15:04".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate validates a "2006-01-02" calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// SlotStart combines date and start time into an absolute instant in loc.
func SlotStart(date, startTime string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+startTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slot start %q %q: %w", date, startTime, err)
	}
	return t, nil
}
