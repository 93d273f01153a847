package services

import (
	"context"
	"fmt"
	"time"

	"courtbook/config"
	"courtbook/models"
	"courtbook/monitoring"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// AvailabilityService builds the read-only day grid: SlotClock candidates
// classified against committed bookings and live locks. It never creates or
// mutates anything; a stale AVAILABLE here just means the later lock or
// commit attempt fails, which callers already handle.
type AvailabilityService struct {
	app   core.App
	locks LockStore
	cfg   *config.Config
}

func NewAvailabilityService(app core.App, locks LockStore, cfg *config.Config) *AvailabilityService {
	return &AvailabilityService{
		app:   app,
		locks: locks,
		cfg:   cfg,
	}
}

type DaySlots struct {
	FacilityID string        `json:"facility_id"`
	Date       string        `json:"date"`
	IsOpen     bool          `json:"is_open"`
	OpenTime   string        `json:"open_time,omitempty"`
	CloseTime  string        `json:"close_time,omitempty"`
	Slots      []models.Slot `json:"slots"`
}

type SlotCheck struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Stable reason codes for the check-availability endpoint.
const (
	ReasonOutsideOperatingHours = "outside_operating_hours"
	ReasonSlotAlreadyBooked     = "slot_already_booked"
	ReasonSlotLocked            = "slot_locked"
	ReasonCourtUnavailable      = "court_unavailable"
	ReasonDurationNotAllowed    = "duration_not_allowed"
)

// GetDaySlots returns the slot grid for every active court of the facility
// (or just courtID when given). durationMinutes selects the session length
// to step with; 0 falls back to the court's first allowed duration.
func (s *AvailabilityService) GetDaySlots(ctx context.Context, facilityID, date, courtID string, durationMinutes int) (*DaySlots, error) {
	started := time.Now()
	scope := "facility"
	if courtID != "" {
		scope = "court"
	}
	defer func() {
		monitoring.TrackAvailabilityRead(scope, time.Since(started))
	}()

	facility, err := findFacility(s.app, facilityID)
	if err != nil {
		return nil, err
	}

	window, err := resolveFacilityWindow(s.app, facility, date)
	if err != nil {
		return nil, err
	}

	out := &DaySlots{
		FacilityID: facilityID,
		Date:       date,
		IsOpen:     !window.IsClosed,
		Slots:      []models.Slot{},
	}
	if window.IsClosed {
		return out, nil
	}
	out.OpenTime = models.FormatClock(window.Open)
	out.CloseTime = models.FormatClock(window.Close)

	courts, err := listCourts(s.app, facilityID)
	if err != nil {
		return nil, err
	}

	for _, court := range courts {
		if courtID != "" && court.ID != courtID {
			continue
		}
		if court.Status != models.CourtStatusActive {
			continue
		}

		duration := durationMinutes
		if duration == 0 {
			if allowed := court.DurationsAllowed(); len(allowed) > 0 {
				duration = allowed[0]
			} else {
				duration = 60
			}
		}
		if !court.AllowsDuration(duration) {
			continue
		}

		bookings, err := listActiveBookings(s.app, court.ID, date)
		if err != nil {
			return nil, err
		}

		slots, err := s.courtSlots(ctx, facility, court, date, window, duration, bookings)
		if err != nil {
			return nil, err
		}
		out.Slots = append(out.Slots, slots...)
	}

	return out, nil
}

func (s *AvailabilityService) courtSlots(ctx context.Context, facility *models.Facility, court models.Court, date string, window DayWindow, duration int, bookings []models.Booking) ([]models.Slot, error) {
	price := slotPrice(court.BasePricePerHour, duration)

	var slots []models.Slot
	for _, start := range CandidateStarts(window, duration, facility.SlotBufferMinutes) {
		candidate := models.Interval{Start: start, End: start + duration}
		startStr := models.FormatClock(start)

		slot := models.Slot{
			CourtID:         court.ID,
			StartTime:       startStr,
			EndTime:         models.FormatClock(candidate.End),
			DurationMinutes: duration,
			Status:          models.SlotStatusAvailable,
			Price:           price,
		}

		booked, err := overlapsAny(candidate, bookings)
		if err != nil {
			return nil, err
		}

		switch {
		case booked:
			slot.Status = models.SlotStatusBooked
		default:
			key := models.SlotKey{
				TenantID:   facility.TenantID,
				FacilityID: facility.ID,
				CourtID:    court.ID,
				Date:       date,
				StartTime:  startStr,
			}
			lock, err := s.locks.Inspect(ctx, key)
			if err != nil {
				return nil, err
			}
			if lock != nil {
				slot.Status = models.SlotStatusLocked
			}
		}

		slots = append(slots, slot)
	}

	return slots, nil
}

// CheckSlot answers "could this exact slot be locked and booked right now"
// without taking anything.
func (s *AvailabilityService) CheckSlot(ctx context.Context, courtID, date, startTime string, durationMinutes int) (*SlotCheck, error) {
	court, err := findCourt(s.app, courtID)
	if err != nil {
		return nil, err
	}
	if court.Status != models.CourtStatusActive {
		return &SlotCheck{Reason: ReasonCourtUnavailable}, nil
	}

	facility, err := findFacility(s.app, court.FacilityID)
	if err != nil {
		return nil, err
	}

	if durationMinutes == 0 {
		if allowed := court.DurationsAllowed(); len(allowed) > 0 {
			durationMinutes = allowed[0]
		} else {
			durationMinutes = 60
		}
	}
	if !court.AllowsDuration(durationMinutes) {
		return &SlotCheck{Reason: ReasonDurationNotAllowed}, nil
	}

	window, err := resolveFacilityWindow(s.app, facility, date)
	if err != nil {
		return nil, err
	}

	start, err := models.ParseClock(startTime)
	if err != nil {
		return nil, err
	}
	if !ContainsStart(window, start, durationMinutes) {
		return &SlotCheck{Reason: ReasonOutsideOperatingHours}, nil
	}

	bookings, err := listActiveBookings(s.app, courtID, date)
	if err != nil {
		return nil, err
	}
	booked, err := overlapsAny(models.Interval{Start: start, End: start + durationMinutes}, bookings)
	if err != nil {
		return nil, err
	}
	if booked {
		return &SlotCheck{Reason: ReasonSlotAlreadyBooked}, nil
	}

	key := models.SlotKey{
		TenantID:   facility.TenantID,
		FacilityID: facility.ID,
		CourtID:    courtID,
		Date:       date,
		StartTime:  startTime,
	}
	lock, err := s.locks.Inspect(ctx, key)
	if err != nil {
		return nil, err
	}
	if lock != nil {
		return &SlotCheck{Reason: ReasonSlotLocked}, nil
	}

	return &SlotCheck{Available: true}, nil
}

// overlapsAny reports whether candidate intersects any non-cancelled
// booking. Full interval comparison: a 90-minute 18:00 candidate collides
// with a 60-minute 18:30 booking even though the start times differ.
func overlapsAny(candidate models.Interval, bookings []models.Booking) (bool, error) {
	for _, b := range bookings {
		if !b.Active() {
			continue
		}
		iv, err := b.Interval()
		if err != nil {
			return false, fmt.Errorf("booking %s has malformed interval: %w", b.ID, err)
		}
		if candidate.Overlaps(iv) {
			return true, nil
		}
	}
	return false, nil
}

// slotPrice quotes base_price_per_hour scaled to the session length,
// rounded to cents.
func slotPrice(basePerHour float64, durationMinutes int) decimal.Decimal {
	return decimal.NewFromFloat(basePerHour).
		Mul(decimal.NewFromInt(int64(durationMinutes))).
		Div(decimal.NewFromInt(60)).
		Round(2)
}
