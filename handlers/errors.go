package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"courtbook/internal/status"

	"github.com/pocketbase/pocketbase/apis"
)

// toAPIError maps domain errors onto the API error taxonomy. Conflicts over
// a slot or a lifecycle state are 409s, policy rejections are 400s, and
// anything unrecognized stays a 500 so it shows up in the logs.
func toAPIError(err error) error {
	switch {
	case errors.Is(err, status.ErrBookingNotFound):
		return apis.NewNotFoundError("booking not found", err)
	case errors.Is(err, status.ErrCourtUnavailable):
		return apis.NewNotFoundError("court not available", err)
	case errors.Is(err, sql.ErrNoRows):
		// an unknown facility/court id from the read queries
		return apis.NewNotFoundError("resource not found", err)
	case errors.Is(err, status.ErrSlotNotAvailable),
		errors.Is(err, status.ErrSlotAlreadyBooked):
		return apis.NewApiError(http.StatusConflict, "slot is not available", err)
	case errors.Is(err, status.ErrSlotLockInvalid):
		return apis.NewApiError(http.StatusConflict, "slot lock is invalid or expired", err)
	case errors.Is(err, status.ErrInvalidTransition),
		errors.Is(err, status.ErrAlreadyCancelled),
		errors.Is(err, status.ErrAlreadyCompleted):
		return apis.NewApiError(http.StatusConflict, err.Error(), err)
	case errors.Is(err, status.ErrOutsideOperating),
		errors.Is(err, status.ErrBookingTooSoon),
		errors.Is(err, status.ErrBookingTooFar),
		errors.Is(err, status.ErrCancellationWindow),
		errors.Is(err, status.ErrDurationNotAllowed):
		return apis.NewBadRequestError(err.Error(), err)
	default:
		return apis.NewApiError(http.StatusInternalServerError, "something went wrong", err)
	}
}
