package handlers

import (
	"net/http"

	"courtbook/config"
	"courtbook/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// AdminHandler serves the staff dashboard endpoints. Every route requires
// the staff API key.
type AdminHandler struct {
	bookings *services.BookingService
	sweeper  services.LockSweeper
	cfg      *config.Config
}

func NewAdminHandler(bookings *services.BookingService, sweeper services.LockSweeper, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		bookings: bookings,
		sweeper:  sweeper,
		cfg:      cfg,
	}
}

func (h *AdminHandler) requireStaff(e *core.RequestEvent) error {
	if !isStaffRequest(e, h.cfg) {
		return apis.NewForbiddenError("staff access required", nil)
	}
	return nil
}

// DayBookings lists every non-cancelled booking across a facility's courts
// for one date.
// GET /api/v1/admin/facilities/{facilityId}/bookings?date=
func (h *AdminHandler) DayBookings(e *core.RequestEvent) error {
	if err := h.requireStaff(e); err != nil {
		return err
	}

	date := e.Request.URL.Query().Get("date")
	if date == "" {
		return apis.NewBadRequestError("date is required", nil)
	}

	bookings, err := h.bookings.ListFacilityBookings(e.Request.Context(), e.Request.PathValue("facilityId"), date)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, bookings)
}

// SweepLocks runs an expiry sweep on demand, outside the reaper's schedule.
// POST /api/v1/admin/locks/sweep
func (h *AdminHandler) SweepLocks(e *core.RequestEvent) error {
	if err := h.requireStaff(e); err != nil {
		return err
	}

	removed, live, err := h.sweeper.SweepExpired(e.Request.Context())
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]int{
		"removed": removed,
		"live":    live,
	})
}
