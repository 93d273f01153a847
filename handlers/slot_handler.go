package handlers

import (
	"net/http"
	"strconv"

	"courtbook/config"
	"courtbook/security"
	"courtbook/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type SlotHandler struct {
	availability *services.AvailabilityService
	locks        *services.LockService
	limiter      *security.RateLimiter
	cfg          *config.Config
}

func NewSlotHandler(availability *services.AvailabilityService, locks *services.LockService, limiter *security.RateLimiter, cfg *config.Config) *SlotHandler {
	return &SlotHandler{
		availability: availability,
		locks:        locks,
		limiter:      limiter,
		cfg:          cfg,
	}
}

// GetTimeSlots returns the day grid for a facility.
// GET /api/v1/facilities/{facilityId}/time-slots?date=2026-03-14&court_id=&duration=60
func (h *SlotHandler) GetTimeSlots(e *core.RequestEvent) error {
	facilityID := e.Request.PathValue("facilityId")
	query := e.Request.URL.Query()

	date := query.Get("date")
	if date == "" {
		return apis.NewBadRequestError("date is required", nil)
	}
	duration, _ := strconv.Atoi(query.Get("duration"))

	slots, err := h.availability.GetDaySlots(e.Request.Context(), facilityID, date, query.Get("court_id"), duration)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, slots)
}

// CheckAvailability answers for one exact slot.
// GET /api/v1/courts/{courtId}/check-availability?date=&start_time=&duration=
func (h *SlotHandler) CheckAvailability(e *core.RequestEvent) error {
	courtID := e.Request.PathValue("courtId")
	query := e.Request.URL.Query()

	date := query.Get("date")
	startTime := query.Get("start_time")
	if date == "" || startTime == "" {
		return apis.NewBadRequestError("date and start_time are required", nil)
	}
	duration, _ := strconv.Atoi(query.Get("duration"))

	check, err := h.availability.CheckSlot(e.Request.Context(), courtID, date, startTime, duration)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, check)
}

type lockRequest struct {
	CourtID   string `json:"court_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	Token     string `json:"token"`
}

// AcquireLock takes a checkout hold on a slot.
// POST /api/v1/slots/lock
func (h *SlotHandler) AcquireLock(e *core.RequestEvent) error {
	identity, err := callerIdentity(e, h.cfg)
	if err != nil {
		return err
	}

	allowed, _ := h.limiter.Allow(e.Request.Context(), identity)
	if !allowed {
		return apis.NewTooManyRequestsError("too many lock attempts, slow down", nil)
	}

	var req lockRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("invalid request body", err)
	}
	if req.CourtID == "" || req.Date == "" || req.StartTime == "" {
		return apis.NewBadRequestError("court_id, date and start_time are required", nil)
	}

	lock, err := h.locks.AcquireSlotLock(e.Request.Context(), req.CourtID, req.Date, req.StartTime, identity)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, lock)
}

// RenewLock extends a hold for another full TTL.
// POST /api/v1/slots/renew-lock
func (h *SlotHandler) RenewLock(e *core.RequestEvent) error {
	var req lockRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("invalid request body", err)
	}
	if req.Token == "" {
		return apis.NewBadRequestError("token is required", nil)
	}

	lock, err := h.locks.RenewSlotLock(e.Request.Context(), req.CourtID, req.Date, req.StartTime, req.Token)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, lock)
}

// ReleaseLock drops a hold early.
// POST /api/v1/slots/unlock
func (h *SlotHandler) ReleaseLock(e *core.RequestEvent) error {
	var req lockRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("invalid request body", err)
	}
	if req.Token == "" {
		return apis.NewBadRequestError("token is required", nil)
	}

	if err := h.locks.ReleaseSlotLock(e.Request.Context(), req.CourtID, req.Date, req.StartTime, req.Token); err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]bool{"released": true})
}

// ValidateLock reports whether a token still owns its slot.
// GET /api/v1/slots/validate-lock?court_id=&date=&start_time=&token=
func (h *SlotHandler) ValidateLock(e *core.RequestEvent) error {
	query := e.Request.URL.Query()

	lock, err := h.locks.ValidateSlotLock(e.Request.Context(),
		query.Get("court_id"), query.Get("date"), query.Get("start_time"), query.Get("token"))
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"valid":      true,
		"expires_at": lock.ExpiresAt,
	})
}

// callerIdentity resolves who is making the request: the authenticated
// customer record, or a staff integration presenting the shared API key.
func callerIdentity(e *core.RequestEvent, cfg *config.Config) (string, error) {
	if e.Auth != nil {
		return e.Auth.Id, nil
	}
	if security.VerifyStaffKey(cfg.StaffAPIKeyHash, e.Request.Header.Get("X-Staff-Key")) {
		return "staff", nil
	}
	return "", apis.NewUnauthorizedError("authentication required", nil)
}

// isStaffRequest reports whether the request carries the staff API key.
func isStaffRequest(e *core.RequestEvent, cfg *config.Config) bool {
	return security.VerifyStaffKey(cfg.StaffAPIKeyHash, e.Request.Header.Get("X-Staff-Key"))
}
