package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"courtbook/models"
	"courtbook/utils"

	"github.com/google/uuid"
	pubnub "github.com/pubnub/go"
)

// Lifecycle event types consumed by the reputation, credit-ledger and
// WhatsApp services. Fire-and-forget: publishing is never part of a commit's
// success criterion.
const (
	EventBookingCreated   = "booking.created"
	EventBookingPaid      = "booking.paid"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingCompleted = "booking.completed"
	EventBookingNoShow    = "booking.no_show"
)

type BookingEvent struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	TenantID   string         `json:"tenant_id"`
	Booking    models.Booking `json:"booking"`
	Reason     string         `json:"reason,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewBookingEvent stamps id and time so every consumer sees the same
// identity for one emission.
func NewBookingEvent(eventType string, booking models.Booking, reason string) BookingEvent {
	return BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		TenantID:   booking.TenantID,
		Booking:    booking,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}

type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, event BookingEvent)
}

// PubNubPublisher fans lifecycle events out on per-tenant channels. A
// circuit breaker keeps a broken event bus from slowing the booking path.
type PubNubPublisher struct {
	pubnub  *pubnub.PubNub
	breaker *utils.CircuitBreaker
}

func NewPubNubPublisher(pn *pubnub.PubNub) *PubNubPublisher {
	return &PubNubPublisher{
		pubnub:  pn,
		breaker: utils.NewCircuitBreaker("pubnub-events"),
	}
}

func (p *PubNubPublisher) PublishBookingEvent(ctx context.Context, event BookingEvent) {
	channel := fmt.Sprintf("tenant-%s-bookings", event.TenantID)

	_, err := p.breaker.Execute(ctx, func() (interface{}, error) {
		_, _, err := p.pubnub.Publish().
			Channel(channel).
			Message(event).
			Execute()
		return nil, err
	})
	if err != nil {
		slog.Error("failed to publish booking event",
			"error", err,
			"event_id", event.ID,
			"type", event.Type,
			"booking_id", event.Booking.ID,
		)
		return
	}

	slog.Info("booking event published",
		"event_id", event.ID,
		"type", event.Type,
		"booking_id", event.Booking.ID,
		"channel", channel,
	)
}

// NopPublisher is used in tests and when no PubNub keys are configured.
type NopPublisher struct{}

func (NopPublisher) PublishBookingEvent(ctx context.Context, event BookingEvent) {}
