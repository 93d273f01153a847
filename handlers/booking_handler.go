package handlers

import (
	"net/http"
	"strconv"

	"courtbook/config"
	"courtbook/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type BookingHandler struct {
	bookings *services.BookingService
	cfg      *config.Config
}

func NewBookingHandler(bookings *services.BookingService, cfg *config.Config) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		cfg:      cfg,
	}
}

// actor resolves the lifecycle actor for a request. Staff integrations are
// identified by API key; everyone else must be an authenticated customer.
func (h *BookingHandler) actor(e *core.RequestEvent) (services.Actor, error) {
	if isStaffRequest(e, h.cfg) {
		return services.Actor{ID: "staff", Staff: true}, nil
	}
	if e.Auth != nil {
		return services.Actor{ID: e.Auth.Id}, nil
	}
	return services.Actor{}, apis.NewUnauthorizedError("authentication required", nil)
}

// CreateBooking commits a reservation against a held lock.
// POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return err
	}

	var req services.CreateBookingRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("invalid request body", err)
	}
	if req.CourtID == "" || req.Date == "" || req.StartTime == "" {
		return apis.NewBadRequestError("court_id, date and start_time are required", nil)
	}

	// Customers always book for themselves. Staff may book on a walk-in
	// customer's behalf by naming them.
	if !actor.Staff {
		req.CustomerID = actor.ID
	}
	if req.CustomerID == "" {
		return apis.NewBadRequestError("customer_id is required", nil)
	}

	booking, err := h.bookings.Create(e.Request.Context(), req, actor)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusCreated, booking)
}

// GetBooking returns one booking. Customers can only see their own.
// GET /api/v1/bookings/{id}
func (h *BookingHandler) GetBooking(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return err
	}

	booking, err := h.bookings.GetBooking(e.Request.Context(), e.Request.PathValue("id"))
	if err != nil {
		return toAPIError(err)
	}
	if !actor.Staff && booking.CustomerID != actor.ID {
		return apis.NewForbiddenError("not your booking", nil)
	}
	return e.JSON(http.StatusOK, booking)
}

type paymentRequest struct {
	Amount float64 `json:"amount"`
}

// MarkPaid records the deposit and moves the booking to paid.
// POST /api/v1/bookings/{id}/pay
func (h *BookingHandler) MarkPaid(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return err
	}

	var req paymentRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("invalid request body", err)
	}

	booking, err := h.bookings.MarkDepositPaid(e.Request.Context(), e.Request.PathValue("id"), req.Amount, actor)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, booking)
}

// Confirm settles the balance and confirms the session.
// POST /api/v1/bookings/{id}/confirm
func (h *BookingHandler) Confirm(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return err
	}

	var req paymentRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("invalid request body", err)
	}

	booking, err := h.bookings.Confirm(e.Request.Context(), e.Request.PathValue("id"), req.Amount, actor)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, booking)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel frees the slot, subject to the facility's cancellation window.
// POST /api/v1/bookings/{id}/cancel
func (h *BookingHandler) Cancel(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return err
	}

	var req cancelRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("invalid request body", err)
	}

	bookingID := e.Request.PathValue("id")
	if !actor.Staff {
		existing, err := h.bookings.GetBooking(e.Request.Context(), bookingID)
		if err != nil {
			return toAPIError(err)
		}
		if existing.CustomerID != actor.ID {
			return apis.NewForbiddenError("not your booking", nil)
		}
	}

	booking, err := h.bookings.Cancel(e.Request.Context(), bookingID, req.Reason, actor)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, booking)
}

// MarkNoShow records that the customer never arrived. Staff only.
// POST /api/v1/bookings/{id}/no-show
func (h *BookingHandler) MarkNoShow(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return err
	}
	if !actor.Staff {
		return apis.NewForbiddenError("staff access required", nil)
	}

	booking, err := h.bookings.MarkNoShow(e.Request.Context(), e.Request.PathValue("id"), actor)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, booking)
}

// Complete closes out a finished session. Staff only.
// POST /api/v1/bookings/{id}/complete
func (h *BookingHandler) Complete(e *core.RequestEvent) error {
	actor, err := h.actor(e)
	if err != nil {
		return err
	}
	if !actor.Staff {
		return apis.NewForbiddenError("staff access required", nil)
	}

	booking, err := h.bookings.Complete(e.Request.Context(), e.Request.PathValue("id"), actor)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, booking)
}

// History lists the authenticated customer's bookings, newest first.
// GET /api/v1/bookings/history?limit=50
func (h *BookingHandler) History(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("authentication required", nil)
	}

	limit, _ := strconv.Atoi(e.Request.URL.Query().Get("limit"))

	bookings, err := h.bookings.ListCustomerBookings(e.Request.Context(), e.Auth.Id, limit)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, bookings)
}
