package service

import (
	"math"
	"time"

	"github.com/iliyamo/car-rental-marketplace/internal/model"
)

// Overlaps reports whether [s1, e1] and [s2, e2] intersect, both ends inclusive.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return !s1.After(e2) && !e1.Before(s2)
}

// ConflictsWith reports whether [start, end] overlaps any of booked.
func ConflictsWith(booked []model.DateRange, start, end time.Time) bool {
	for _, d := range booked {
		if Overlaps(d.StartDate, d.EndDate, start, end) {
			return true
		}
	}
	return false
}

// RentalDays is the number of days charged for a rental, ceil((end-start)/24h).
// It is zero or negative for empty or inverted intervals.
func RentalDays(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}

// NextRating folds one more review into a running average.
func NextRating(cur model.Rating, score int) model.Rating {
	return model.Rating{
		Average: (cur.Average*float64(cur.Count) + float64(score)) / float64(cur.Count+1),
		Count:   cur.Count + 1,
	}
}

// CancelActor names who cancelled: the renter, otherwise the host side.
// Admin cancellations are recorded as host.
func CancelActor(id Identity, b *model.Booking) string {
	if id.ID == b.UserID {
		return model.CancelledByUser
	}
	return model.CancelledByHost
}

// CanCancel returns the InvalidState error for bookings that may no longer
// be cancelled, or nil.
func CanCancel(b *model.Booking) error {
	switch b.Status {
	case model.BookingCompleted:
		return InvalidState("Cannot cancel completed booking")
	case model.BookingCancelled:
		return InvalidState("Booking is already cancelled")
	}
	return nil
}

// ParseDate accepts YYYY-MM-DD or RFC 3339 and returns the instant in UTC.
func ParseDate(s string) (time.Time, bool) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
