package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/car-rental-marketplace/internal/model"
	"github.com/iliyamo/car-rental-marketplace/internal/queue"
	"github.com/iliyamo/car-rental-marketplace/internal/repository"
)

// fakeTx runs fn with a nil transaction and records whether it failed.
type fakeTx struct {
	calls      int
	rolledBack int
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	f.calls++
	if err := fn(nil); err != nil {
		f.rolledBack++
		return err
	}
	return nil
}

// MockCarStore
type MockCarStore struct {
	mock.Mock
}

func (m *MockCarStore) GetByID(ctx context.Context, id uint64) (*model.Car, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Car), args.Error(1)
}
func (m *MockCarStore) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Car, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Car), args.Error(1)
}
func (m *MockCarStore) Search(ctx context.Context, f repository.CarFilter) ([]model.Car, int, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]model.Car), args.Int(1), args.Error(2)
}
func (m *MockCarStore) Create(ctx context.Context, car *model.Car) error {
	args := m.Called(ctx, car)
	return args.Error(0)
}
func (m *MockCarStore) Update(ctx context.Context, car *model.Car) error {
	args := m.Called(ctx, car)
	return args.Error(0)
}
func (m *MockCarStore) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockCarStore) SetActive(ctx context.Context, id uint64, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}
func (m *MockCarStore) SetRatingTx(ctx context.Context, tx *sql.Tx, id uint64, rating model.Rating) error {
	args := m.Called(ctx, tx, id, rating)
	return args.Error(0)
}
func (m *MockCarStore) AddCompletedTx(ctx context.Context, tx *sql.Tx, id uint64, amount float64) error {
	args := m.Called(ctx, tx, id, amount)
	return args.Error(0)
}
func (m *MockCarStore) ListByHost(ctx context.Context, hostID uint64) ([]model.CarWithBookingCount, error) {
	args := m.Called(ctx, hostID)
	return args.Get(0).([]model.CarWithBookingCount), args.Error(1)
}
func (m *MockCarStore) HostStats(ctx context.Context, hostID uint64) (model.HostStats, error) {
	args := m.Called(ctx, hostID)
	return args.Get(0).(model.HostStats), args.Error(1)
}

// MockBookingStore
type MockBookingStore struct {
	mock.Mock
}

func (m *MockBookingStore) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}
func (m *MockBookingStore) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}
func (m *MockBookingStore) BlockingIntervalsTx(ctx context.Context, tx *sql.Tx, carID uint64) ([]model.DateRange, error) {
	args := m.Called(ctx, tx, carID)
	list, _ := args.Get(0).([]model.DateRange)
	return list, args.Error(1)
}
func (m *MockBookingStore) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	args := m.Called(ctx, tx, b)
	return args.Error(0)
}
func (m *MockBookingStore) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	args := m.Called(ctx, tx, id, status)
	return args.Error(0)
}
func (m *MockBookingStore) CancelTx(ctx context.Context, tx *sql.Tx, id uint64, reason, by string, at time.Time) error {
	args := m.Called(ctx, tx, id, reason, by, at)
	return args.Error(0)
}
func (m *MockBookingStore) AddReviewTx(ctx context.Context, tx *sql.Tx, id uint64, rv model.Review) (bool, error) {
	args := m.Called(ctx, tx, id, rv)
	return args.Bool(0), args.Error(1)
}
func (m *MockBookingStore) ListByUser(ctx context.Context, userID uint64, status string) ([]model.Booking, error) {
	args := m.Called(ctx, userID, status)
	return args.Get(0).([]model.Booking), args.Error(1)
}
func (m *MockBookingStore) ListByHost(ctx context.Context, hostID uint64, status string) ([]model.Booking, error) {
	args := m.Called(ctx, hostID, status)
	return args.Get(0).([]model.Booking), args.Error(1)
}
func (m *MockBookingStore) StatsForUser(ctx context.Context, userID uint64, now time.Time) (model.BookingStats, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(model.BookingStats), args.Error(1)
}
func (m *MockBookingStore) BookedDates(ctx context.Context, carID uint64) ([]model.DateRange, error) {
	args := m.Called(ctx, carID)
	return args.Get(0).([]model.DateRange), args.Error(1)
}
func (m *MockBookingStore) CountBlockingForCar(ctx context.Context, carID uint64) (int, error) {
	args := m.Called(ctx, carID)
	return args.Int(0), args.Error(1)
}

// MockPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}
