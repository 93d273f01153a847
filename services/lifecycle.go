package services

import (
	"time"

	"courtbook/internal/status"
	"courtbook/models"
)

// Lifecycle events. Creation is not listed: it is the (none) -> reserved
// edge and goes through BookingService.Create.
const (
	TransitionDepositPaid = "deposit_paid"
	TransitionConfirm     = "confirm"
	TransitionCancel      = "cancel"
	TransitionNoShow      = "mark_no_show"
	TransitionComplete    = "mark_completed"
)

type transitionKey struct {
	from  string
	event string
}

// The full lifecycle: reserved -> paid -> confirmed -> completed, with
// cancelled and no_show as alternate terminals. Anything not listed here is
// an invalid transition, full stop.
var transitions = map[transitionKey]string{
	{models.BookingStatusReserved, TransitionDepositPaid}: models.BookingStatusPaid,
	{models.BookingStatusPaid, TransitionConfirm}:         models.BookingStatusConfirmed,
	{models.BookingStatusReserved, TransitionCancel}:      models.BookingStatusCancelled,
	{models.BookingStatusPaid, TransitionCancel}:          models.BookingStatusCancelled,
	{models.BookingStatusConfirmed, TransitionCancel}:     models.BookingStatusCancelled,
	{models.BookingStatusPaid, TransitionNoShow}:          models.BookingStatusNoShow,
	{models.BookingStatusConfirmed, TransitionNoShow}:     models.BookingStatusNoShow,
	{models.BookingStatusConfirmed, TransitionComplete}:   models.BookingStatusCompleted,
}

// nextStatus resolves one lifecycle edge. Illegal moves out of a terminal
// state get the more specific already-cancelled/already-completed error so
// callers can tell a double-cancel from a genuinely nonsensical move.
func nextStatus(from, event string) (string, error) {
	if to, ok := transitions[transitionKey{from: from, event: event}]; ok {
		return to, nil
	}
	switch from {
	case models.BookingStatusCancelled:
		return "", status.ErrAlreadyCancelled
	case models.BookingStatusCompleted:
		return "", status.ErrAlreadyCompleted
	}
	return "", status.ErrInvalidTransition
}

// Actor identifies who is driving a lifecycle change. Staff actors bypass
// the lock requirement on create and the cancellation window.
type Actor struct {
	ID    string
	Staff bool
}

// checkCancelWindow enforces the facility notice policy: non-staff actors
// must cancel at least cancellationHours before the start.
func checkCancelWindow(booking models.Booking, cancellationHours int, now time.Time, loc *time.Location, actor Actor) error {
	if actor.Staff {
		return nil
	}

	start, err := booking.Start(loc)
	if err != nil {
		return err
	}

	if start.Sub(now) < time.Duration(cancellationHours)*time.Hour {
		return status.ErrCancellationWindow
	}
	return nil
}

// checkNoShowGuard: a customer cannot be a no-show before the session was
// due to start.
func checkNoShowGuard(booking models.Booking, now time.Time, loc *time.Location) error {
	start, err := booking.Start(loc)
	if err != nil {
		return err
	}
	if now.Before(start) {
		return status.ErrInvalidTransition
	}
	return nil
}

// checkCompleteGuard: completion requires the session to be over, unless
// staff closes it out explicitly.
func checkCompleteGuard(booking models.Booking, now time.Time, loc *time.Location, actor Actor) error {
	if actor.Staff {
		return nil
	}
	end, err := booking.End(loc)
	if err != nil {
		return err
	}
	if now.Before(end) {
		return status.ErrInvalidTransition
	}
	return nil
}
