package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/car-rental-marketplace/internal/model"
	"github.com/iliyamo/car-rental-marketplace/internal/repository"
)

// CarPage is one page of a car listing.
type CarPage struct {
	Cars        []model.Car
	Total       int
	TotalPages  int
	CurrentPage int
}

// CarPatch carries a partial listing update; nil fields are left as is.
type CarPatch struct {
	Brand        *string
	Model        *string
	Year         *int
	Category     *string
	Transmission *string
	FuelType     *string
	Seats        *int
	PricePerDay  *float64
	Location     *model.Location
	Images       *[]string
	Features     *[]string
	Description  *string
	LicensePlate *string
	Mileage      *int
	IsActive     *bool
}

// CarService is the car catalogue: listing, CRUD and the host dashboard.
type CarService struct {
	cars     CarStore
	bookings BookingStore
}

func NewCarService(cars CarStore, bookings BookingStore) *CarService {
	return &CarService{cars: cars, bookings: bookings}
}

// List runs a filtered, paginated listing.
func (s *CarService) List(ctx context.Context, f repository.CarFilter) (CarPage, error) {
	f.Normalize()
	cars, total, err := s.cars.Search(ctx, f)
	if err != nil {
		return CarPage{}, err
	}
	return CarPage{
		Cars:        cars,
		Total:       total,
		TotalPages:  (total + f.Limit - 1) / f.Limit,
		CurrentPage: f.Page,
	}, nil
}

// Get returns a car and the intervals it is booked for.
func (s *CarService) Get(ctx context.Context, carID uint64) (*model.Car, []model.DateRange, error) {
	car, err := s.load(ctx, carID)
	if err != nil {
		return nil, nil, err
	}
	dates, err := s.bookings.BookedDates(ctx, carID)
	if err != nil {
		return nil, nil, err
	}
	return car, dates, nil
}

// Create lists a new car owned by the caller.
func (s *CarService) Create(ctx context.Context, id Identity, car *model.Car) (*model.Car, error) {
	car.HostID = id.ID
	car.IsActive = true
	car.Rating = model.Rating{}
	car.TotalBookings, car.TotalEarnings = 0, 0
	normalizeCar(car)
	if err := s.cars.Create(ctx, car); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, Conflict("A car with this license plate already exists")
		}
		return nil, err
	}
	return car, nil
}

// Update applies a partial update when the caller owns the car or is admin.
func (s *CarService) Update(ctx context.Context, id Identity, carID uint64, p CarPatch) (*model.Car, error) {
	car, err := s.load(ctx, carID)
	if err != nil {
		return nil, err
	}
	if !CanManage(id, car.HostID) {
		return nil, Forbidden("Not authorized to update this car")
	}
	p.apply(car)
	normalizeCar(car)
	if err := s.cars.Update(ctx, car); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, Conflict("A car with this license plate already exists")
		}
		return nil, err
	}
	return car, nil
}

// Delete removes a car unless it still has confirmed or active bookings.
func (s *CarService) Delete(ctx context.Context, id Identity, carID uint64) error {
	car, err := s.load(ctx, carID)
	if err != nil {
		return err
	}
	if !CanManage(id, car.HostID) {
		return Forbidden("Not authorized to delete this car")
	}
	n, err := s.bookings.CountBlockingForCar(ctx, carID)
	if err != nil {
		return err
	}
	if n > 0 {
		return InvalidState("Cannot delete car with active bookings")
	}
	return s.cars.Delete(ctx, carID)
}

// ToggleStatus flips the car's isActive flag and returns the car.
func (s *CarService) ToggleStatus(ctx context.Context, id Identity, carID uint64) (*model.Car, error) {
	car, err := s.load(ctx, carID)
	if err != nil {
		return nil, err
	}
	if !CanManage(id, car.HostID) {
		return nil, Forbidden("Not authorized to update this car")
	}
	car.IsActive = !car.IsActive
	if err := s.cars.SetActive(ctx, carID, car.IsActive); err != nil {
		return nil, err
	}
	return car, nil
}

// MyCars lists the caller's cars with booking counts.
func (s *CarService) MyCars(ctx context.Context, id Identity) ([]model.CarWithBookingCount, error) {
	return s.cars.ListByHost(ctx, id.ID)
}

// HostStats returns the caller's host dashboard.
func (s *CarService) HostStats(ctx context.Context, id Identity) (model.HostStats, error) {
	return s.cars.HostStats(ctx, id.ID)
}

func (s *CarService) load(ctx context.Context, carID uint64) (*model.Car, error) {
	car, err := s.cars.GetByID(ctx, carID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFound("Car not found")
	}
	return car, err
}

func (p CarPatch) apply(car *model.Car) {
	if p.Brand != nil {
		car.Brand = *p.Brand
	}
	if p.Model != nil {
		car.Model = *p.Model
	}
	if p.Year != nil {
		car.Year = *p.Year
	}
	if p.Category != nil {
		car.Category = *p.Category
	}
	if p.Transmission != nil {
		car.Transmission = *p.Transmission
	}
	if p.FuelType != nil {
		car.FuelType = *p.FuelType
	}
	if p.Seats != nil {
		car.Seats = *p.Seats
	}
	if p.PricePerDay != nil {
		car.PricePerDay = *p.PricePerDay
	}
	if p.Location != nil {
		car.Location = *p.Location
	}
	if p.Images != nil {
		car.Images = *p.Images
	}
	if p.Features != nil {
		car.Features = *p.Features
	}
	if p.Description != nil {
		car.Description = *p.Description
	}
	if p.LicensePlate != nil {
		car.LicensePlate = *p.LicensePlate
	}
	if p.Mileage != nil {
		car.Mileage = *p.Mileage
	}
	if p.IsActive != nil {
		car.IsActive = *p.IsActive
	}
}

func normalizeCar(car *model.Car) {
	car.Brand = strings.TrimSpace(car.Brand)
	car.Model = strings.TrimSpace(car.Model)
	car.Description = strings.TrimSpace(car.Description)
	car.Location.City = strings.TrimSpace(car.Location.City)
	car.LicensePlate = strings.ToUpper(strings.TrimSpace(car.LicensePlate))
	if car.Images == nil {
		car.Images = []string{}
	}
	if car.Features == nil {
		car.Features = []string{}
	}
}
