package status

import "errors"

var (
	ErrSlotNotAvailable   = errors.New("slot: slot not available")
	ErrSlotLockInvalid    = errors.New("slot: lock token invalid or expired")
	ErrSlotAlreadyBooked  = errors.New("slot: slot already booked")
	ErrOutsideOperating   = errors.New("slot: outside operating hours")
	ErrBookingTooSoon     = errors.New("booking: start time is inside the minimum notice window")
	ErrBookingTooFar      = errors.New("booking: start time is beyond the maximum advance window")
	ErrInvalidTransition  = errors.New("booking: invalid lifecycle transition")
	ErrCancellationWindow = errors.New("booking: cancellation window has passed")
	ErrAlreadyCancelled   = errors.New("booking: booking already cancelled")
	ErrAlreadyCompleted   = errors.New("booking: booking already completed")
	ErrCourtUnavailable   = errors.New("court: court not available for booking")
	ErrDurationNotAllowed = errors.New("court: session duration not allowed for this court")
	ErrBookingNotFound    = errors.New("booking: booking not found")
)

var domainErrors = []error{
	ErrSlotNotAvailable,
	ErrSlotLockInvalid,
	ErrSlotAlreadyBooked,
	ErrOutsideOperating,
	ErrBookingTooSoon,
	ErrBookingTooFar,
	ErrInvalidTransition,
	ErrCancellationWindow,
	ErrAlreadyCancelled,
	ErrAlreadyCompleted,
	ErrCourtUnavailable,
	ErrDurationNotAllowed,
	ErrBookingNotFound,
}

// IsDomainError distinguishes a rule rejection from an infrastructure
// failure. Rejections map to 4xx responses and "rejected" metrics outcomes.
func IsDomainError(err error) bool {
	for _, sentinel := range domainErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
