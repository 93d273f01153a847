package services

import (
	"context"
	"log/slog"
	"time"

	"courtbook/config"
	"courtbook/internal/status"
	"courtbook/models"
	"courtbook/monitoring"

	"github.com/pocketbase/pocketbase/core"
)

// LockService is the customer-facing face of the lock store: it resolves a
// court slot to its key, vets the slot before handing out a hold, and stamps
// every operation into the metrics.
type LockService struct {
	app   core.App
	locks LockStore
	cfg   *config.Config
}

func NewLockService(app core.App, locks LockStore, cfg *config.Config) *LockService {
	return &LockService{
		app:   app,
		locks: locks,
		cfg:   cfg,
	}
}

// AcquireSlotLock takes a short exclusive hold on a slot while the customer
// checks out. The slot must be real: active court, inside the operating
// window, not already claimed by a booking. Holding a lock on a dead slot
// would only waste the customer's time at commit.
func (s *LockService) AcquireSlotLock(ctx context.Context, courtID, date, startTime, ownerHint string) (*models.SlotLock, error) {
	lock, err := s.acquire(ctx, courtID, date, startTime, ownerHint)
	switch {
	case err == nil:
		monitoring.TrackLockOperation("acquire", "ok")
	case err == status.ErrSlotNotAvailable || err == status.ErrSlotAlreadyBooked:
		monitoring.TrackLockOperation("acquire", "contended")
	case status.IsDomainError(err):
		monitoring.TrackLockOperation("acquire", "invalid")
	default:
		monitoring.TrackLockOperation("acquire", "error")
	}
	return lock, err
}

func (s *LockService) acquire(ctx context.Context, courtID, date, startTime, ownerHint string) (*models.SlotLock, error) {
	court, err := findCourt(s.app, courtID)
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

	start, err := models.ParseClock(startTime)
	if err != nil {
		return nil, status.ErrOutsideOperating
	}
	if _, err := models.ParseDate(date); err != nil {
		return nil, status.ErrOutsideOperating
	}

	window, err := resolveFacilityWindow(s.app, facility, date)
	if err != nil {
		return nil, err
	}
	if window.IsClosed || start < window.Open || start >= window.Close {
		return nil, status.ErrOutsideOperating
	}

	// A lock is keyed by start time only, so the booked check uses the
	// shortest plausible session. Full interval validation happens again at
	// commit with the real duration.
	bookings, err := listActiveBookings(s.app, courtID, date)
	if err != nil {
		return nil, err
	}
	booked, err := overlapsAny(models.Interval{Start: start, End: start + 1}, bookings)
	if err != nil {
		return nil, err
	}
	if booked {
		return nil, status.ErrSlotAlreadyBooked
	}

	key := models.SlotKey{
		TenantID:   facility.TenantID,
		FacilityID: facility.ID,
		CourtID:    courtID,
		Date:       date,
		StartTime:  startTime,
	}

	lock, err := s.locks.Acquire(ctx, key, ownerHint, s.cfg.LockTTL)
	if err != nil {
		return nil, err
	}

	slog.Info("slot lock acquired",
		"key", key.String(),
		"owner", ownerHint,
		"expires_at", lock.ExpiresAt.Format(time.RFC3339),
	)
	return lock, nil
}

// RenewSlotLock extends a live hold for another full TTL.
func (s *LockService) RenewSlotLock(ctx context.Context, courtID, date, startTime, token string) (*models.SlotLock, error) {
	key, err := s.slotKey(courtID, date, startTime)
	if err != nil {
		monitoring.TrackLockOperation("renew", "invalid")
		return nil, err
	}

	lock, err := s.locks.Renew(ctx, key, token, s.cfg.LockTTL)
	switch {
	case err == nil:
		monitoring.TrackLockOperation("renew", "ok")
	case err == status.ErrSlotLockInvalid:
		monitoring.TrackLockOperation("renew", "invalid")
	default:
		monitoring.TrackLockOperation("renew", "error")
	}
	return lock, err
}

// ReleaseSlotLock drops a hold early so the slot shows AVAILABLE again.
func (s *LockService) ReleaseSlotLock(ctx context.Context, courtID, date, startTime, token string) error {
	key, err := s.slotKey(courtID, date, startTime)
	if err != nil {
		monitoring.TrackLockOperation("release", "invalid")
		return err
	}

	err = s.locks.Release(ctx, key, token)
	switch {
	case err == nil:
		monitoring.TrackLockOperation("release", "ok")
	case err == status.ErrSlotLockInvalid:
		monitoring.TrackLockOperation("release", "invalid")
	default:
		monitoring.TrackLockOperation("release", "error")
	}
	return err
}

// ValidateSlotLock confirms a token still owns its slot, without touching
// the TTL. The checkout page polls this to warn before the hold expires.
func (s *LockService) ValidateSlotLock(ctx context.Context, courtID, date, startTime, token string) (*models.SlotLock, error) {
	key, err := s.slotKey(courtID, date, startTime)
	if err != nil {
		return nil, err
	}

	lock, err := s.locks.Inspect(ctx, key)
	if err != nil {
		return nil, err
	}
	if lock == nil || lock.Token != token {
		return nil, status.ErrSlotLockInvalid
	}
	return lock, nil
}

func (s *LockService) slotKey(courtID, date, startTime string) (models.SlotKey, error) {
	court, err := findCourt(s.app, courtID)
	if err != nil {
		if isNotFound(err) {
			return models.SlotKey{}, status.ErrCourtUnavailable
		}
		return models.SlotKey{}, err
	}
	return models.SlotKey{
		TenantID:   court.TenantID,
		FacilityID: court.FacilityID,
		CourtID:    court.ID,
		Date:       date,
		StartTime:  startTime,
	}, nil
}
