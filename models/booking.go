package models

import (
	"time"
)

const (
	BookingStatusReserved  = "reserved"
	BookingStatusPaid      = "paid"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
	BookingStatusNoShow    = "no_show"
)

// Booking is the committed claim on a court interval. Bookings are never
// deleted; cancellation is a status.
type Booking struct {
	ID                 string     `db:"id" json:"id"`
	TenantID           string     `db:"tenant_id" json:"tenant_id"`
	FacilityID         string     `db:"facility_id" json:"facility_id"`
	CourtID            string     `db:"court_id" json:"court_id"`
	CustomerID         string     `db:"customer_id" json:"customer_id"`
	Date               string     `db:"date" json:"date"`
	StartTime          string     `db:"start_time" json:"start_time"`
	DurationMinutes    int        `db:"duration_minutes" json:"duration_minutes"`
	Status             string     `db:"status" json:"status"`
	Price              float64    `db:"price" json:"price"`
	DepositPaid        float64    `db:"deposit_paid" json:"deposit_paid"`
	BalancePaid        float64    `db:"balance_paid" json:"balance_paid"`
	StaffBooking       bool       `db:"staff_booking" json:"staff_booking"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	NoShowMarkedAt     *time.Time `json:"no_show_marked_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Active reports whether the booking still occupies its interval for
// overlap purposes. Cancelled bookings free the slot; every other status
// keeps it claimed.
func (b Booking) Active() bool {
	return b.Status != BookingStatusCancelled
}

// Terminal reports whether no further lifecycle transitions are possible.
func (b Booking) Terminal() bool {
	switch b.Status {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow:
		return true
	}
	return false
}

// Interval returns the half-open occupied range in minutes since midnight.
func (b Booking) Interval() (Interval, error) {
	start, err := ParseClock(b.StartTime)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: start + b.DurationMinutes}, nil
}

// SlotKey derives the lock key a non-staff creation must have held.
func (b Booking) SlotKey() SlotKey {
	return SlotKey{
		TenantID:   b.TenantID,
		FacilityID: b.FacilityID,
		CourtID:    b.CourtID,
		Date:       b.Date,
		StartTime:  b.StartTime,
	}
}

// Start resolves the booking's absolute start instant in loc.
func (b Booking) Start(loc *time.Location) (time.Time, error) {
	return SlotStart(b.Date, b.StartTime, loc)
}

// End resolves the booking's absolute end instant in loc.
func (b Booking) End(loc *time.Location) (time.Time, error) {
	start, err := b.Start(loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(b.DurationMinutes) * time.Minute), nil
}
