package services

import (
	"context"
	"testing"
	"time"

	"courtbook/config"
	"courtbook/internal/status"
	_ "courtbook/migrations"
	"courtbook/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingFixture struct {
	app        *tests.TestApp
	store      *MemoryLockStore
	clock      *fakeClock
	svc        *BookingService
	tenantID   string
	facilityID string
	courtID    string
	customerID string
}

// newBookingFixture spins up a real app with the engine's collections, one
// facility open 08:00-22:00 every day, one active court (60/90 minute
// sessions at 20/hour) and one customer. The clock starts at
// 2026-02-10 12:00 UTC.
func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	tenantID := seedRecord(t, app, "tenants", map[string]any{
		"name":   "Acme Sports",
		"status": "active",
	})
	facilityID := seedRecord(t, app, "facilities", map[string]any{
		"tenant_id":           tenantID,
		"name":                "Downtown Club",
		"timezone":            "UTC",
		"cancellation_hours":  24,
		"slot_buffer_minutes": 0,
		"min_notice_minutes":  30,
		"max_advance_days":    30,
		"status":              "active",
	})
	courtID := seedRecord(t, app, "courts", map[string]any{
		"tenant_id":           tenantID,
		"facility_id":         facilityID,
		"name":                "Court 1",
		"sport":               "padel",
		"base_price_per_hour": 20.0,
		"allowed_durations":   "60,90",
		"status":              "active",
	})
	for weekday := 0; weekday < 7; weekday++ {
		seedRecord(t, app, "operating_hours", map[string]any{
			"facility_id": facilityID,
			"weekday":     weekday,
			"open_time":   "08:00",
			"close_time":  "22:00",
		})
	}

	customers, err := app.FindCollectionByNameOrId("customers")
	require.NoError(t, err)
	customer := core.NewRecord(customers)
	customer.Set("email", "player@example.com")
	customer.SetPassword("player-password-1")
	customer.Set("name", "Player One")
	require.NoError(t, app.Save(customer))

	clock := newFakeClock()
	store := NewMemoryLockStore()
	store.now = clock.Now

	cfg := &config.Config{
		LockTTL:                  300 * time.Second,
		MinNoticeMinutes:         30,
		MaxAdvanceDays:           30,
		DefaultCancellationHours: 24,
	}

	svc := NewBookingService(app, store, NopPublisher{}, cfg)
	svc.now = clock.Now

	return &bookingFixture{
		app:        app,
		store:      store,
		clock:      clock,
		svc:        svc,
		tenantID:   tenantID,
		facilityID: facilityID,
		courtID:    courtID,
		customerID: customer.Id,
	}
}

func seedRecord(t *testing.T, app core.App, collection string, fields map[string]any) string {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collection)
	require.NoError(t, err)

	record := core.NewRecord(col)
	for k, v := range fields {
		record.Set(k, v)
	}
	require.NoError(t, app.Save(record))
	return record.Id
}

func (f *bookingFixture) slotKey(date, startTime string) models.SlotKey {
	return models.SlotKey{
		TenantID:   f.tenantID,
		FacilityID: f.facilityID,
		CourtID:    f.courtID,
		Date:       date,
		StartTime:  startTime,
	}
}

func (f *bookingFixture) createReq(date, startTime string, duration int, token string) CreateBookingRequest {
	return CreateBookingRequest{
		CourtID:         f.courtID,
		Date:            date,
		StartTime:       startTime,
		DurationMinutes: duration,
		CustomerID:      f.customerID,
		LockToken:       token,
	}
}

func TestBookingService_Create_RequiresValidLock(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customer := Actor{ID: f.customerID}

	// no lock at all
	_, err := f.svc.Create(ctx, f.createReq("2026-02-11", "18:00", 60, ""), customer)
	assert.ErrorIs(t, err, status.ErrSlotLockInvalid)

	// a live lock but the wrong token
	_, err = f.store.Acquire(ctx, f.slotKey("2026-02-11", "18:00"), f.customerID, 300*time.Second)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.createReq("2026-02-11", "18:00", 60, "someone-elses-token"), customer)
	assert.ErrorIs(t, err, status.ErrSlotLockInvalid)
}

func TestBookingService_Create_TokenSingleUse(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customer := Actor{ID: f.customerID}
	key := f.slotKey("2026-02-11", "18:00")

	lock, err := f.store.Acquire(ctx, key, f.customerID, 300*time.Second)
	require.NoError(t, err)

	booking, err := f.svc.Create(ctx, f.createReq("2026-02-11", "18:00", 60, lock.Token), customer)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusReserved, booking.Status)
	assert.Equal(t, 20.0, booking.Price)
	assert.False(t, booking.StaffBooking)

	// commit consumed the lock
	held, err := f.store.Inspect(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, held)

	// replaying the spent token fails
	_, err = f.svc.Create(ctx, f.createReq("2026-02-11", "18:00", 60, lock.Token), customer)
	assert.ErrorIs(t, err, status.ErrSlotLockInvalid)
}

func TestBookingService_Create_OverlapAtCommit(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	staff := Actor{ID: "staff", Staff: true}
	customer := Actor{ID: f.customerID}

	// staff takes 18:00-19:30 without a lock
	_, err := f.svc.Create(ctx, f.createReq("2026-02-11", "18:00", 90, ""), staff)
	require.NoError(t, err)

	// locks are start-time granular, so 19:00 is still lockable, but the
	// commit's full interval re-check must reject 19:00-20:00
	key := f.slotKey("2026-02-11", "19:00")
	lock, err := f.store.Acquire(ctx, key, f.customerID, 300*time.Second)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.createReq("2026-02-11", "19:00", 60, lock.Token), customer)
	assert.ErrorIs(t, err, status.ErrSlotAlreadyBooked)

	// the failed commit released the lock so the slot is re-lockable
	held, err := f.store.Inspect(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, held)
	_, err = f.store.Acquire(ctx, key, "someone-else", 300*time.Second)
	require.NoError(t, err)

	// staff never bypasses the overlap check either
	_, err = f.svc.Create(ctx, f.createReq("2026-02-11", "19:00", 60, ""), staff)
	assert.ErrorIs(t, err, status.ErrSlotAlreadyBooked)
}

func TestBookingService_Create_StaffBypassesLockAndNotice(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	staff := Actor{ID: "staff", Staff: true}

	// 12:15 today is inside the 30 minute notice window; staff may backfill
	booking, err := f.svc.Create(ctx, f.createReq("2026-02-10", "12:15", 60, ""), staff)
	require.NoError(t, err)
	assert.True(t, booking.StaffBooking)
	assert.Equal(t, models.BookingStatusReserved, booking.Status)
}

func TestBookingService_Create_PolicyGuards(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	customer := Actor{ID: f.customerID}

	t.Run("inside minimum notice", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.createReq("2026-02-10", "12:15", 60, ""), customer)
		assert.ErrorIs(t, err, status.ErrBookingTooSoon)
	})

	t.Run("beyond maximum advance", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.createReq("2026-03-13", "18:00", 60, ""), customer)
		assert.ErrorIs(t, err, status.ErrBookingTooFar)
	})

	t.Run("outside operating hours", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.createReq("2026-02-11", "07:00", 60, ""), customer)
		assert.ErrorIs(t, err, status.ErrOutsideOperating)
	})

	t.Run("duration not offered by the court", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.createReq("2026-02-11", "18:00", 45, ""), customer)
		assert.ErrorIs(t, err, status.ErrDurationNotAllowed)
	})

	t.Run("unknown court", func(t *testing.T) {
		req := f.createReq("2026-02-11", "18:00", 60, "")
		req.CourtID = "missing-court-00"
		_, err := f.svc.Create(ctx, req, customer)
		assert.ErrorIs(t, err, status.ErrCourtUnavailable)
	})
}

func TestBookingService_LifecycleRoundtrip(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	staff := Actor{ID: "staff", Staff: true}
	customer := Actor{ID: f.customerID}

	booking, err := f.svc.Create(ctx, f.createReq("2026-02-11", "18:00", 60, ""), staff)
	require.NoError(t, err)

	paid, err := f.svc.MarkDepositPaid(ctx, booking.ID, 10, customer)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPaid, paid.Status)
	assert.Equal(t, 10.0, paid.DepositPaid)

	confirmed, err := f.svc.Confirm(ctx, booking.ID, 10, customer)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	// 30 hours of notice beats the 24 hour window, so the customer may
	// cancel without staff help
	cancelled, err := f.svc.Cancel(ctx, booking.ID, "rain", customer)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, "rain", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)

	// cancellation freed the interval for a fresh booking
	rebooked, err := f.svc.Create(ctx, f.createReq("2026-02-11", "18:00", 60, ""), staff)
	require.NoError(t, err)
	assert.NotEqual(t, booking.ID, rebooked.ID)

	// and the original is terminal
	_, err = f.svc.Cancel(ctx, booking.ID, "again", customer)
	assert.ErrorIs(t, err, status.ErrAlreadyCancelled)
}

func TestBookingService_Cancel_WindowEnforced(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	staff := Actor{ID: "staff", Staff: true}
	customer := Actor{ID: f.customerID}

	booking, err := f.svc.Create(ctx, f.createReq("2026-02-11", "18:00", 60, ""), staff)
	require.NoError(t, err)

	// 2 hours before start is inside the 24 hour window
	f.clock.Advance(28 * time.Hour)
	_, err = f.svc.Cancel(ctx, booking.ID, "", customer)
	assert.ErrorIs(t, err, status.ErrCancellationWindow)

	// staff overrides the window
	cancelled, err := f.svc.Cancel(ctx, booking.ID, "front desk", staff)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
}
