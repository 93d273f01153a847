package services

import (
	"testing"
	"time"

	"courtbook/internal/status"
	"courtbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus_HappyPath(t *testing.T) {
	tests := []struct {
		from  string
		event string
		want  string
	}{
		{models.BookingStatusReserved, TransitionDepositPaid, models.BookingStatusPaid},
		{models.BookingStatusPaid, TransitionConfirm, models.BookingStatusConfirmed},
		{models.BookingStatusConfirmed, TransitionComplete, models.BookingStatusCompleted},
		{models.BookingStatusReserved, TransitionCancel, models.BookingStatusCancelled},
		{models.BookingStatusPaid, TransitionCancel, models.BookingStatusCancelled},
		{models.BookingStatusConfirmed, TransitionCancel, models.BookingStatusCancelled},
		{models.BookingStatusPaid, TransitionNoShow, models.BookingStatusNoShow},
		{models.BookingStatusConfirmed, TransitionNoShow, models.BookingStatusNoShow},
	}

	for _, tt := range tests {
		got, err := nextStatus(tt.from, tt.event)
		require.NoError(t, err, "%s + %s", tt.from, tt.event)
		assert.Equal(t, tt.want, got)
	}
}

func TestNextStatus_RejectsIllegalMoves(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		event   string
		wantErr error
	}{
		{"confirm before paying", models.BookingStatusReserved, TransitionConfirm, status.ErrInvalidTransition},
		{"complete without confirming", models.BookingStatusPaid, TransitionComplete, status.ErrInvalidTransition},
		{"no-show before any payment", models.BookingStatusReserved, TransitionNoShow, status.ErrInvalidTransition},
		{"double cancel", models.BookingStatusCancelled, TransitionCancel, status.ErrAlreadyCancelled},
		{"pay a cancelled booking", models.BookingStatusCancelled, TransitionDepositPaid, status.ErrAlreadyCancelled},
		{"cancel a completed booking", models.BookingStatusCompleted, TransitionCancel, status.ErrAlreadyCompleted},
		{"complete twice", models.BookingStatusCompleted, TransitionComplete, status.ErrAlreadyCompleted},
		{"cancel a no-show", models.BookingStatusNoShow, TransitionCancel, status.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextStatus(tt.from, tt.event)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, got)
		})
	}
}

func TestNextStatus_TerminalStatesHaveNoExits(t *testing.T) {
	terminals := []string{
		models.BookingStatusCompleted,
		models.BookingStatusCancelled,
		models.BookingStatusNoShow,
	}
	events := []string{
		TransitionDepositPaid,
		TransitionConfirm,
		TransitionCancel,
		TransitionNoShow,
		TransitionComplete,
	}

	for _, from := range terminals {
		for _, event := range events {
			_, err := nextStatus(from, event)
			assert.Error(t, err, "%s must not leave terminal state %s", event, from)
		}
	}
}

func cancelFixture(t *testing.T) models.Booking {
	t.Helper()
	return models.Booking{
		ID:              "bk-1",
		Date:            "2026-03-14",
		StartTime:       "18:00",
		DurationMinutes: 60,
		Status:          models.BookingStatusConfirmed,
	}
}

func TestCheckCancelWindow(t *testing.T) {
	booking := cancelFixture(t)
	customer := Actor{ID: "cust-1"}
	staff := Actor{ID: "staff-1", Staff: true}

	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

	t.Run("well before the window", func(t *testing.T) {
		now := start.Add(-25 * time.Hour)
		assert.NoError(t, checkCancelWindow(booking, 24, now, time.UTC, customer))
	})

	t.Run("inside the window", func(t *testing.T) {
		now := start.Add(-2 * time.Hour)
		err := checkCancelWindow(booking, 24, now, time.UTC, customer)
		assert.ErrorIs(t, err, status.ErrCancellationWindow)
	})

	t.Run("exactly on the boundary", func(t *testing.T) {
		now := start.Add(-24 * time.Hour)
		assert.NoError(t, checkCancelWindow(booking, 24, now, time.UTC, customer))
	})

	t.Run("staff override inside the window", func(t *testing.T) {
		now := start.Add(-30 * time.Minute)
		assert.NoError(t, checkCancelWindow(booking, 24, now, time.UTC, staff))
	})
}

func TestCheckNoShowGuard(t *testing.T) {
	booking := cancelFixture(t)
	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

	err := checkNoShowGuard(booking, start.Add(-time.Minute), time.UTC)
	assert.ErrorIs(t, err, status.ErrInvalidTransition, "no-show before start must be rejected")

	assert.NoError(t, checkNoShowGuard(booking, start, time.UTC))
	assert.NoError(t, checkNoShowGuard(booking, start.Add(15*time.Minute), time.UTC))
}

func TestCheckCompleteGuard(t *testing.T) {
	booking := cancelFixture(t)
	end := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	customer := Actor{ID: "cust-1"}
	staff := Actor{ID: "staff-1", Staff: true}

	err := checkCompleteGuard(booking, end.Add(-time.Minute), time.UTC, customer)
	assert.ErrorIs(t, err, status.ErrInvalidTransition)

	assert.NoError(t, checkCompleteGuard(booking, end, time.UTC, customer))
	assert.NoError(t, checkCompleteGuard(booking, end.Add(-30*time.Minute), time.UTC, staff),
		"staff can close out early")
}

func TestTransitionOutcomeClassification(t *testing.T) {
	assert.Equal(t, "ok", transitionOutcome(nil))
	assert.Equal(t, "rejected", transitionOutcome(status.ErrSlotAlreadyBooked))
	assert.Equal(t, "rejected", transitionOutcome(status.ErrCancellationWindow))
	assert.Equal(t, "error", transitionOutcome(assert.AnError))
}
