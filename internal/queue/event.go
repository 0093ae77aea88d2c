// Package queue defines booking event payloads exchanged over RabbitMQ,
// the publisher that emits them and the consumer that records them.
package queue

import (
	"time"

	"github.com/iliyamo/car-rental-marketplace/internal/model"
)

// DefaultQueueName is the durable queue booking events are routed to.
const DefaultQueueName = "booking.events"

// Event types.
const (
	EventBookingCreated       = "booking.created"
	EventBookingCancelled     = "booking.cancelled"
	EventBookingStatusChanged = "booking.status_changed"
	EventBookingReviewed      = "booking.reviewed"
)

// BookingEvent is published after a booking write commits. It carries
// enough for downstream consumers to log, notify or feed analytics without
// querying the primary database.
type BookingEvent struct {
	Type        string    `json:"type"`
	BookingID   uint64    `json:"booking_id"`
	UserID      uint64    `json:"user_id"`
	HostID      uint64    `json:"host_id"`
	CarID       uint64    `json:"car_id"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"total_amount"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewBookingEvent snapshots b as an event of the given type.
func NewBookingEvent(typ string, b *model.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:        typ,
		BookingID:   b.ID,
		UserID:      b.UserID,
		HostID:      b.HostID,
		CarID:       b.CarID,
		Status:      b.Status,
		TotalAmount: b.TotalAmount,
		StartDate:   b.StartDate,
		EndDate:     b.EndDate,
		OccurredAt:  at.UTC(),
	}
}
