package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/car-rental-marketplace/internal/model"
	"github.com/iliyamo/car-rental-marketplace/internal/queue"
	"github.com/iliyamo/car-rental-marketplace/internal/repository"
)

// TxRunner runs fn in a database transaction; see repository.Transactor.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// CarStore is the persistence the services need for cars.
type CarStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Car, error)
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Car, error)
	Search(ctx context.Context, f repository.CarFilter) ([]model.Car, int, error)
	Create(ctx context.Context, car *model.Car) error
	Update(ctx context.Context, car *model.Car) error
	Delete(ctx context.Context, id uint64) error
	SetActive(ctx context.Context, id uint64, active bool) error
	SetRatingTx(ctx context.Context, tx *sql.Tx, id uint64, rating model.Rating) error
	AddCompletedTx(ctx context.Context, tx *sql.Tx, id uint64, amount float64) error
	ListByHost(ctx context.Context, hostID uint64) ([]model.CarWithBookingCount, error)
	HostStats(ctx context.Context, hostID uint64) (model.HostStats, error)
}

// BookingStore is the persistence the services need for bookings.
type BookingStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error)
	BlockingIntervalsTx(ctx context.Context, tx *sql.Tx, carID uint64) ([]model.DateRange, error)
	CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error
	CancelTx(ctx context.Context, tx *sql.Tx, id uint64, reason, by string, at time.Time) error
	AddReviewTx(ctx context.Context, tx *sql.Tx, id uint64, rv model.Review) (bool, error)
	ListByUser(ctx context.Context, userID uint64, status string) ([]model.Booking, error)
	ListByHost(ctx context.Context, hostID uint64, status string) ([]model.Booking, error)
	StatsForUser(ctx context.Context, userID uint64, now time.Time) (model.BookingStats, error)
	BookedDates(ctx context.Context, carID uint64) ([]model.DateRange, error)
	CountBlockingForCar(ctx context.Context, carID uint64) (int, error)
}

// EventPublisher emits booking events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

var (
	_ CarStore     = (*repository.CarRepo)(nil)
	_ BookingStore = (*repository.BookingRepo)(nil)
	_ TxRunner     = (*repository.Transactor)(nil)
)
