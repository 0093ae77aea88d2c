package model

import "time"

// Booking statuses.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingActive    = "active"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// Payment statuses.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// Cancellation actors recorded in Booking.CancelledBy.
const (
	CancelledByUser  = "user"
	CancelledByHost  = "host"
	CancelledByAdmin = "admin"
)

// BookingStatuses lists every status a caller may set explicitly.
var BookingStatuses = []string{BookingPending, BookingConfirmed, BookingActive, BookingCompleted, BookingCancelled}

// BlockingStatuses are the statuses that reserve a car for their interval.
var BlockingStatuses = []string{BookingConfirmed, BookingActive}

// IsBookingStatus reports whether s is one of BookingStatuses.
func IsBookingStatus(s string) bool {
	for _, v := range BookingStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Booking is a time-bounded rental of a car by a user.  PricePerDay is a
// snapshot of the car's rate when the booking was created; TotalDays and
// TotalAmount are derived from it at creation time and never recomputed.
//
// Fields:
//  ID                 – primary key identifier.
//  UserID             – renting user.
//  CarID              – rented car.
//  HostID             – owner of the car at booking time.
//  StartDate, EndDate – rental interval (inclusive for overlap checks).
//  PickupTime         – free-form time string, e.g. "10:00".
//  DropoffTime        – free-form time string.
//  Status             – one of BookingStatuses.
//  PaymentStatus      – pending, paid or refunded.
//  CancellationReason – set on cancel.
//  CancelledBy        – user, host or admin.
//  Review             – nil until the renter reviews a completed booking.
type Booking struct {
	ID                 uint64      `json:"id"`
	UserID             uint64      `json:"userId"`
	CarID              uint64      `json:"carId"`
	HostID             uint64      `json:"hostId"`
	User               *UserRef    `json:"user,omitempty"`
	Host               *UserRef    `json:"host,omitempty"`
	Car                *CarSummary `json:"car,omitempty"`
	StartDate          time.Time   `json:"startDate"`
	EndDate            time.Time   `json:"endDate"`
	PickupTime         string      `json:"pickupTime"`
	DropoffTime        string      `json:"dropoffTime"`
	TotalDays          int         `json:"totalDays"`
	PricePerDay        float64     `json:"pricePerDay"`
	TotalAmount        float64     `json:"totalAmount"`
	Status             string      `json:"status"`
	PaymentStatus      string      `json:"paymentStatus"`
	PaymentMethod      *string     `json:"paymentMethod,omitempty"`
	TransactionID      *string     `json:"transactionId,omitempty"`
	CancellationReason *string     `json:"cancellationReason,omitempty"`
	CancelledBy        *string     `json:"cancelledBy,omitempty"`
	CancelledAt        *time.Time  `json:"cancelledAt,omitempty"`
	Review             *Review     `json:"review,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// Review is the renter's single rating of a completed booking.
type Review struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// BookingStats summarises a renter's bookings.
type BookingStats struct {
	UpcomingTrips  int     `json:"upcomingTrips"`
	CompletedTrips int     `json:"completedTrips"`
	TotalSpent     float64 `json:"totalSpent"`
}
