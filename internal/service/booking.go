package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/car-rental-marketplace/internal/logger"
	"github.com/iliyamo/car-rental-marketplace/internal/model"
	"github.com/iliyamo/car-rental-marketplace/internal/queue"
	"github.com/iliyamo/car-rental-marketplace/internal/repository"
)

// CreateBookingInput is the renter's booking request. Dates are
// YYYY-MM-DD or RFC 3339 strings.
type CreateBookingInput struct {
	CarID         uint64
	StartDate     string
	EndDate       string
	PickupTime    string
	DropoffTime   string
	PaymentMethod string
}

// BookingService owns the booking lifecycle: creation with overlap
// checks, status updates, cancellation and reviews.
type BookingService struct {
	tx       TxRunner
	cars     CarStore
	bookings BookingStore
	events   EventPublisher
	now      func() time.Time
}

// NewBookingService wires the lifecycle manager. events may be nil.
func NewBookingService(tx TxRunner, cars CarStore, bookings BookingStore, events EventPublisher) *BookingService {
	return &BookingService{tx: tx, cars: cars, bookings: bookings, events: events, now: time.Now}
}

// Create validates and persists a booking as confirmed and paid. The car
// row stays locked from the availability check until the insert commits.
func (s *BookingService) Create(ctx context.Context, id Identity, in CreateBookingInput) (*model.Booking, error) {
	if in.CarID == 0 || blank(in.StartDate) || blank(in.EndDate) || blank(in.PickupTime) || blank(in.DropoffTime) {
		return nil, InvalidInput("Please provide all required fields")
	}
	start, okStart := ParseDate(strings.TrimSpace(in.StartDate))
	end, okEnd := ParseDate(strings.TrimSpace(in.EndDate))
	if !okStart || !okEnd {
		return nil, InvalidInput("Invalid date format")
	}

	var b model.Booking
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		car, err := s.cars.GetForUpdateTx(ctx, tx, in.CarID)
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound("Car not found")
		}
		if err != nil {
			return err
		}
		if !car.IsActive {
			return InvalidState("Car is not available for booking")
		}
		if car.HostID == id.ID {
			return Forbidden("You cannot book your own car")
		}
		booked, err := s.bookings.BlockingIntervalsTx(ctx, tx, car.ID)
		if err != nil {
			return err
		}
		if ConflictsWith(booked, start, end) {
			return Conflict("Car is already booked for selected dates")
		}
		days := RentalDays(start, end)
		if days < 1 {
			return InvalidInput("Booking must be at least 1 day")
		}
		b = model.Booking{
			UserID:        id.ID,
			CarID:         car.ID,
			HostID:        car.HostID,
			StartDate:     start,
			EndDate:       end,
			PickupTime:    strings.TrimSpace(in.PickupTime),
			DropoffTime:   strings.TrimSpace(in.DropoffTime),
			TotalDays:     days,
			PricePerDay:   car.PricePerDay,
			TotalAmount:   float64(days) * car.PricePerDay,
			Status:        model.BookingConfirmed,
			PaymentStatus: model.PaymentPaid,
		}
		if pm := strings.TrimSpace(in.PaymentMethod); pm != "" {
			b.PaymentMethod = &pm
		}
		return s.bookings.CreateTx(ctx, tx, &b)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventBookingCreated, &b)
	return s.bookings.GetByID(ctx, b.ID)
}

// Get returns a booking visible to the caller.
func (s *BookingService) Get(ctx context.Context, id Identity, bookingID uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFound("Booking not found")
	}
	if err != nil {
		return nil, err
	}
	if !CanAccessBooking(id, b) {
		return nil, Forbidden("Not authorized to view this booking")
	}
	return b, nil
}

// UpdateStatus sets any of the five statuses. Moving into completed
// credits the booking to the car's counters in the same transaction.
func (s *BookingService) UpdateStatus(ctx context.Context, id Identity, bookingID uint64, status string) (*model.Booking, error) {
	if !model.IsBookingStatus(status) {
		return nil, InvalidInput("Invalid status")
	}
	var b *model.Booking
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		b, err = s.bookings.GetForUpdateTx(ctx, tx, bookingID)
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound("Booking not found")
		}
		if err != nil {
			return err
		}
		if !CanAccessBooking(id, b) {
			return Forbidden("Not authorized to update this booking")
		}
		if err := s.bookings.UpdateStatusTx(ctx, tx, b.ID, status); err != nil {
			return err
		}
		if status == model.BookingCompleted && b.Status != model.BookingCompleted {
			if err := s.cars.AddCompletedTx(ctx, tx, b.CarID, b.TotalAmount); err != nil {
				return err
			}
		}
		b.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventBookingStatusChanged, b)
	return s.bookings.GetByID(ctx, b.ID)
}

// Cancel cancels a booking that is neither completed nor cancelled.
func (s *BookingService) Cancel(ctx context.Context, id Identity, bookingID uint64, reason string) (*model.Booking, error) {
	var b *model.Booking
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		b, err = s.bookings.GetForUpdateTx(ctx, tx, bookingID)
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound("Booking not found")
		}
		if err != nil {
			return err
		}
		if !CanAccessBooking(id, b) {
			return Forbidden("Not authorized to cancel this booking")
		}
		if err := CanCancel(b); err != nil {
			return err
		}
		at := s.now().UTC()
		by := CancelActor(id, b)
		if err := s.bookings.CancelTx(ctx, tx, b.ID, reason, by, at); err != nil {
			return err
		}
		b.Status = model.BookingCancelled
		b.CancellationReason, b.CancelledBy, b.CancelledAt = &reason, &by, &at
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventBookingCancelled, b)
	return s.bookings.GetByID(ctx, b.ID)
}

// AddReview records the renter's rating of a completed booking and folds
// it into the car's running average atomically.
func (s *BookingService) AddReview(ctx context.Context, id Identity, bookingID uint64, rating int, comment string) (*model.Booking, error) {
	if rating < 1 || rating > 5 {
		return nil, InvalidInput("Please provide a rating between 1 and 5")
	}
	var b *model.Booking
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		b, err = s.bookings.GetForUpdateTx(ctx, tx, bookingID)
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound("Booking not found")
		}
		if err != nil {
			return err
		}
		if b.UserID != id.ID {
			return Forbidden("Only the booking user can add a review")
		}
		if b.Status != model.BookingCompleted {
			return InvalidState("Can only review completed bookings")
		}
		if b.Review != nil {
			return Conflict("You have already reviewed this booking")
		}
		rv := model.Review{Rating: rating, Comment: strings.TrimSpace(comment), CreatedAt: s.now().UTC()}
		ok, err := s.bookings.AddReviewTx(ctx, tx, b.ID, rv)
		if err != nil {
			return err
		}
		if !ok {
			return Conflict("You have already reviewed this booking")
		}
		car, err := s.cars.GetForUpdateTx(ctx, tx, b.CarID)
		if err != nil {
			return err
		}
		if err := s.cars.SetRatingTx(ctx, tx, car.ID, NextRating(car.Rating, rating)); err != nil {
			return err
		}
		b.Review = &rv
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventBookingReviewed, b)
	return s.bookings.GetByID(ctx, b.ID)
}

// ListMine returns the caller's bookings, optionally filtered by status.
func (s *BookingService) ListMine(ctx context.Context, id Identity, status string) ([]model.Booking, error) {
	return s.bookings.ListByUser(ctx, id.ID, strings.TrimSpace(status))
}

// ListForHost returns bookings made on the caller's cars.
func (s *BookingService) ListForHost(ctx context.Context, id Identity, status string) ([]model.Booking, error) {
	return s.bookings.ListByHost(ctx, id.ID, strings.TrimSpace(status))
}

// Stats returns the caller's renter dashboard counters.
func (s *BookingService) Stats(ctx context.Context, id Identity) (model.BookingStats, error) {
	return s.bookings.StatsForUser(ctx, id.ID, s.now().UTC())
}

func (s *BookingService) publish(ctx context.Context, typ string, b *model.Booking) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, queue.NewBookingEvent(typ, b, s.now())); err != nil {
		logger.WarnContext(ctx, "publish booking event failed", "type", typ, "booking_id", b.ID, "error", err)
	}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
