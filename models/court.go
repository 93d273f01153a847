package models

import (
	"strconv"
	"strings"
)

const (
	CourtStatusActive      = "active"
	CourtStatusMaintenance = "maintenance"
	CourtStatusInactive    = "inactive"
)

// Court is a bookable resource owned by a facility. Read-only during the
// reservation flow.
type Court struct {
	ID               string  `db:"id" json:"id"`
	TenantID         string  `db:"tenant_id" json:"tenant_id"`
	FacilityID       string  `db:"facility_id" json:"facility_id"`
	Name             string  `db:"name" json:"name"`
	Sport            string  `db:"sport" json:"sport"`
	BasePricePerHour float64 `db:"base_price_per_hour" json:"base_price_per_hour"`
	AllowedDurations string  `db:"allowed_durations" json:"allowed_durations"` // "60,90,120"
	Status           string  `db:"status" json:"status"`
}

// DurationsAllowed parses the comma-separated duration list. Unparseable
// entries are skipped; an empty list means the facility default applies.
func (c Court) DurationsAllowed() []int {
	var out []int
	for _, part := range strings.Split(c.AllowedDurations, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if d, err := strconv.Atoi(part); err == nil && d > 0 {
			out = append(out, d)
		}
	}
	return out
}

// AllowsDuration reports whether a session duration is valid for this court.
func (c Court) AllowsDuration(minutes int) bool {
	allowed := c.DurationsAllowed()
	if len(allowed) == 0 {
		return minutes > 0
	}
	for _, d := range allowed {
		if d == minutes {
			return true
		}
	}
	return false
}

// Facility carries the booking policy knobs the reservation engine reads.
type Facility struct {
	ID                string `db:"id" json:"id"`
	TenantID          string `db:"tenant_id" json:"tenant_id"`
	Name              string `db:"name" json:"name"`
	Timezone          string `db:"timezone" json:"timezone"`
	CancellationHours int    `db:"cancellation_hours" json:"cancellation_hours"`
	SlotBufferMinutes int    `db:"slot_buffer_minutes" json:"slot_buffer_minutes"`
	MinNoticeMinutes  int    `db:"min_notice_minutes" json:"min_notice_minutes"`
	MaxAdvanceDays    int    `db:"max_advance_days" json:"max_advance_days"`
	Status            string `db:"status" json:"status"`
}

// OperatingHours is the weekly default window for a facility.
type OperatingHours struct {
	ID         string `db:"id" json:"id"`
	FacilityID string `db:"facility_id" json:"facility_id"`
	Weekday    int    `db:"weekday" json:"weekday"` // time.Weekday: 0 = Sunday
	OpenTime   string `db:"open_time" json:"open_time"`
	CloseTime  string `db:"close_time" json:"close_time"`
	IsClosed   bool   `db:"is_closed" json:"is_closed"`
}

// SpecialHours overrides OperatingHours for one exact date.
type SpecialHours struct {
	ID         string `db:"id" json:"id"`
	FacilityID string `db:"facility_id" json:"facility_id"`
	Date       string `db:"date" json:"date"`
	OpenTime   string `db:"open_time" json:"open_time"`
	CloseTime  string `db:"close_time" json:"close_time"`
	IsClosed   bool   `db:"is_closed" json:"is_closed"`
	Note       string `db:"note" json:"note"`
}
