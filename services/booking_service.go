package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"courtbook/config"
	"courtbook/internal/status"
	"courtbook/models"
	"courtbook/monitoring"

	"github.com/pocketbase/pocketbase/core"
)

// bookingStripes serializes commits per (court, date). The SQLite write path
// is already single-writer, but the overlap re-scan and the insert must be
// one critical section even if the store ever moves off SQLite.
const bookingStripes = 64

// BookingService owns every write to the bookings collection and drives the
// lifecycle state machine. Reads go through queries.go; the lock store only
// guards the window between "customer picked a slot" and "commit".
type BookingService struct {
	app    core.App
	locks  LockStore
	events EventPublisher
	cfg    *config.Config

	stripes [bookingStripes]sync.Mutex

	// injectable for tests
	now func() time.Time
}

func NewBookingService(app core.App, locks LockStore, events EventPublisher, cfg *config.Config) *BookingService {
	return &BookingService{
		app:    app,
		locks:  locks,
		events: events,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *BookingService) stripe(courtID, date string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(courtID))
	h.Write([]byte{'|'})
	h.Write([]byte(date))
	return &s.stripes[h.Sum32()%bookingStripes]
}

type CreateBookingRequest struct {
	CourtID         string `json:"court_id"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
	CustomerID      string `json:"customer_id"`
	LockToken       string `json:"lock_token"`
	Notes           string `json:"notes"`
}

// Create commits a reservation. Non-staff requests must present the token of
// a live lock on exactly this slot; staff requests skip the lock and the
// notice windows but never the overlap check.
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest, actor Actor) (*models.Booking, error) {
	booking, err := s.create(ctx, req, actor)
	if err != nil {
		monitoring.TrackBookingTransition("create", transitionOutcome(err))
		return nil, err
	}
	monitoring.TrackBookingTransition("create", "ok")

	go s.events.PublishBookingEvent(context.WithoutCancel(ctx),
		NewBookingEvent(EventBookingCreated, *booking, ""))

	slog.Info("booking created",
		"booking_id", booking.ID,
		"court_id", booking.CourtID,
		"date", booking.Date,
		"start_time", booking.StartTime,
		"staff", actor.Staff,
	)
	return booking, nil
}

func (s *BookingService) create(ctx context.Context, req CreateBookingRequest, actor Actor) (*models.Booking, error) {
	court, err := findCourt(s.app, req.CourtID)
	if err != nil {
		if isNotFound(err) {
			return nil, status.ErrCourtUnavailable
		}
		return nil, err
	}
	if court.Status != models.CourtStatusActive {
		return nil, status.ErrCourtUnavailable
	}

	facility, err := findFacility(s.app, court.FacilityID)
	if err != nil {
		return nil, err
	}

	duration := req.DurationMinutes
	if duration <= 0 || !court.AllowsDuration(duration) {
		return nil, status.ErrDurationNotAllowed
	}

	start, err := models.ParseClock(req.StartTime)
	if err != nil {
		return nil, status.ErrOutsideOperating
	}
	if _, err := models.ParseDate(req.Date); err != nil {
		return nil, status.ErrOutsideOperating
	}

	window, err := resolveFacilityWindow(s.app, facility, req.Date)
	if err != nil {
		return nil, err
	}
	if !ContainsStart(window, start, duration) {
		return nil, status.ErrOutsideOperating
	}

	loc := facilityLocation(facility)
	startAt, err := models.SlotStart(req.Date, req.StartTime, loc)
	if err != nil {
		return nil, status.ErrOutsideOperating
	}
	if !actor.Staff {
		if err := s.checkNoticeWindows(facility, startAt); err != nil {
			return nil, err
		}
	}

	key := models.SlotKey{
		TenantID:   facility.TenantID,
		FacilityID: facility.ID,
		CourtID:    court.ID,
		Date:       req.Date,
		StartTime:  req.StartTime,
	}

	holdsLock := false
	if !actor.Staff {
		lock, err := s.locks.Inspect(ctx, key)
		if err != nil {
			return nil, err
		}
		if lock == nil || lock.Token != req.LockToken {
			return nil, status.ErrSlotLockInvalid
		}
		holdsLock = true
	}

	var booking *models.Booking

	mu := s.stripe(court.ID, req.Date)
	mu.Lock()
	err = s.app.RunInTransaction(func(txApp core.App) error {
		existing, err := listActiveBookings(txApp, court.ID, req.Date)
		if err != nil {
			return err
		}
		candidate := models.Interval{Start: start, End: start + duration}
		conflict, err := overlapsAny(candidate, existing)
		if err != nil {
			return err
		}
		if conflict {
			return status.ErrSlotAlreadyBooked
		}

		collection, err := txApp.FindCollectionByNameOrId("bookings")
		if err != nil {
			return err
		}
		record := core.NewRecord(collection)
		record.Set("tenant_id", facility.TenantID)
		record.Set("facility_id", facility.ID)
		record.Set("court_id", court.ID)
		record.Set("customer_id", req.CustomerID)
		record.Set("date", req.Date)
		record.Set("start_time", req.StartTime)
		record.Set("duration_minutes", duration)
		record.Set("status", models.BookingStatusReserved)
		record.Set("price", slotPrice(court.BasePricePerHour, duration).InexactFloat64())
		record.Set("staff_booking", actor.Staff)
		record.Set("notes", req.Notes)
		if err := txApp.Save(record); err != nil {
			return fmt.Errorf("save booking: %w", err)
		}

		b := recordToBooking(record)
		booking = &b
		return nil
	})
	mu.Unlock()

	// The lock has done its job either way: on success the row now claims
	// the interval, on failure the slot must become lockable again.
	if holdsLock {
		if relErr := s.locks.Release(ctx, key, req.LockToken); relErr != nil {
			slog.Warn("failed to release slot lock after commit attempt",
				"error", relErr, "key", key.String())
		}
	}

	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) checkNoticeWindows(facility *models.Facility, startAt time.Time) error {
	minNotice := facility.MinNoticeMinutes
	if minNotice <= 0 {
		minNotice = s.cfg.MinNoticeMinutes
	}
	maxAdvance := facility.MaxAdvanceDays
	if maxAdvance <= 0 {
		maxAdvance = s.cfg.MaxAdvanceDays
	}

	now := s.now()
	if startAt.Sub(now) < time.Duration(minNotice)*time.Minute {
		return status.ErrBookingTooSoon
	}
	if startAt.Sub(now) > time.Duration(maxAdvance)*24*time.Hour {
		return status.ErrBookingTooFar
	}
	return nil
}

// MarkDepositPaid moves reserved -> paid once the deposit settles.
func (s *BookingService) MarkDepositPaid(ctx context.Context, bookingID string, amount float64, actor Actor) (*models.Booking, error) {
	return s.transition(ctx, bookingID, TransitionDepositPaid, EventBookingPaid, "", func(record *core.Record, booking models.Booking) error {
		record.Set("deposit_paid", amount)
		return nil
	})
}

// Confirm moves paid -> confirmed. balanceAmount settles the remainder; a
// zero amount is fine for staff comp bookings.
func (s *BookingService) Confirm(ctx context.Context, bookingID string, balanceAmount float64, actor Actor) (*models.Booking, error) {
	return s.transition(ctx, bookingID, TransitionConfirm, EventBookingConfirmed, "", func(record *core.Record, booking models.Booking) error {
		record.Set("balance_paid", balanceAmount)
		record.Set("confirmed_at", s.now().UTC())
		return nil
	})
}

// Cancel frees the interval. Non-staff actors are held to the facility's
// cancellation window; staff can cancel any non-terminal booking.
func (s *BookingService) Cancel(ctx context.Context, bookingID, reason string, actor Actor) (*models.Booking, error) {
	return s.transition(ctx, bookingID, TransitionCancel, EventBookingCancelled, reason, func(record *core.Record, booking models.Booking) error {
		facility, err := findFacility(s.app, booking.FacilityID)
		if err != nil {
			return err
		}
		hours := facility.CancellationHours
		if hours <= 0 {
			hours = s.cfg.DefaultCancellationHours
		}
		if err := checkCancelWindow(booking, hours, s.now(), facilityLocation(facility), actor); err != nil {
			return err
		}
		record.Set("cancelled_at", s.now().UTC())
		record.Set("cancellation_reason", reason)
		return nil
	})
}

// MarkNoShow records that the customer never turned up. Only valid once the
// session was due to start.
func (s *BookingService) MarkNoShow(ctx context.Context, bookingID string, actor Actor) (*models.Booking, error) {
	return s.transition(ctx, bookingID, TransitionNoShow, EventBookingNoShow, "", func(record *core.Record, booking models.Booking) error {
		facility, err := findFacility(s.app, booking.FacilityID)
		if err != nil {
			return err
		}
		if err := checkNoShowGuard(booking, s.now(), facilityLocation(facility)); err != nil {
			return err
		}
		record.Set("no_show_marked_at", s.now().UTC())
		return nil
	})
}

// Complete closes out a confirmed booking after the session ends.
func (s *BookingService) Complete(ctx context.Context, bookingID string, actor Actor) (*models.Booking, error) {
	return s.transition(ctx, bookingID, TransitionComplete, EventBookingCompleted, "", func(record *core.Record, booking models.Booking) error {
		facility, err := findFacility(s.app, booking.FacilityID)
		if err != nil {
			return err
		}
		return checkCompleteGuard(booking, s.now(), facilityLocation(facility), actor)
	})
}

// transition runs one lifecycle edge inside a transaction: re-load the row,
// resolve the edge against its current status, apply the mutator, save.
func (s *BookingService) transition(ctx context.Context, bookingID, event, eventType, reason string, mutate func(record *core.Record, booking models.Booking) error) (*models.Booking, error) {
	var booking *models.Booking

	err := s.app.RunInTransaction(func(txApp core.App) error {
		record, err := txApp.FindRecordById("bookings", bookingID)
		if err != nil {
			return status.ErrBookingNotFound
		}
		current := recordToBooking(record)

		next, err := nextStatus(current.Status, event)
		if err != nil {
			return err
		}
		if err := mutate(record, current); err != nil {
			return err
		}
		record.Set("status", next)
		if err := txApp.Save(record); err != nil {
			return fmt.Errorf("save booking %s: %w", bookingID, err)
		}

		b := recordToBooking(record)
		booking = &b
		return nil
	})
	if err != nil {
		monitoring.TrackBookingTransition(event, transitionOutcome(err))
		return nil, err
	}
	monitoring.TrackBookingTransition(event, "ok")

	go s.events.PublishBookingEvent(context.WithoutCancel(ctx),
		NewBookingEvent(eventType, *booking, reason))

	slog.Info("booking transition applied",
		"booking_id", booking.ID,
		"event", event,
		"status", booking.Status,
	)
	return booking, nil
}

// GetBooking loads one booking by id.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	record, err := s.app.FindRecordById("bookings", bookingID)
	if err != nil {
		return nil, status.ErrBookingNotFound
	}
	b := recordToBooking(record)
	return &b, nil
}

// ListCustomerBookings returns a customer's booking history, newest first.
func (s *BookingService) ListCustomerBookings(ctx context.Context, customerID string, limit int) ([]models.Booking, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	records, err := s.app.FindRecordsByFilter(
		"bookings",
		"customer_id = {:customer}",
		"-date,-start_time",
		limit,
		0,
		map[string]any{"customer": customerID},
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings for customer %s: %w", customerID, err)
	}

	out := make([]models.Booking, 0, len(records))
	for _, r := range records {
		out = append(out, recordToBooking(r))
	}
	return out, nil
}

// ListFacilityBookings returns a day's non-cancelled bookings across a
// facility, for the staff dashboard.
func (s *BookingService) ListFacilityBookings(ctx context.Context, facilityID, date string) ([]models.Booking, error) {
	return listFacilityBookings(s.app, facilityID, date)
}

func recordToBooking(record *core.Record) models.Booking {
	b := models.Booking{
		ID:                 record.Id,
		TenantID:           record.GetString("tenant_id"),
		FacilityID:         record.GetString("facility_id"),
		CourtID:            record.GetString("court_id"),
		CustomerID:         record.GetString("customer_id"),
		Date:               record.GetString("date"),
		StartTime:          record.GetString("start_time"),
		DurationMinutes:    record.GetInt("duration_minutes"),
		Status:             record.GetString("status"),
		Price:              record.GetFloat("price"),
		DepositPaid:        record.GetFloat("deposit_paid"),
		BalancePaid:        record.GetFloat("balance_paid"),
		StaffBooking:       record.GetBool("staff_booking"),
		CancellationReason: record.GetString("cancellation_reason"),
		CreatedAt:          record.GetDateTime("created").Time(),
	}
	if t := record.GetDateTime("confirmed_at").Time(); !t.IsZero() {
		b.ConfirmedAt = &t
	}
	if t := record.GetDateTime("cancelled_at").Time(); !t.IsZero() {
		b.CancelledAt = &t
	}
	if t := record.GetDateTime("no_show_marked_at").Time(); !t.IsZero() {
		b.NoShowMarkedAt = &t
	}
	return b
}

// facilityLocation resolves the facility timezone, falling back to UTC when
// the record carries an unknown zone name.
func facilityLocation(facility *models.Facility) *time.Location {
	if facility.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(facility.Timezone)
	if err != nil {
		slog.Warn("unknown facility timezone, using UTC",
			"facility_id", facility.ID, "timezone", facility.Timezone)
		return time.UTC
	}
	return loc
}

func transitionOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case status.IsDomainError(err):
		return "rejected"
	default:
		return "error"
	}
}
