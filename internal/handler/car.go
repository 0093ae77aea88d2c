package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental-marketplace/internal/logger"
	"github.com/iliyamo/car-rental-marketplace/internal/model"
	"github.com/iliyamo/car-rental-marketplace/internal/repository"
	"github.com/iliyamo/car-rental-marketplace/internal/service"
)

// CarCatalogue is implemented by service.CarService.
type CarCatalogue interface {
	List(ctx context.Context, f repository.CarFilter) (service.CarPage, error)
	Get(ctx context.Context, carID uint64) (*model.Car, []model.DateRange, error)
	Create(ctx context.Context, id service.Identity, car *model.Car) (*model.Car, error)
	Update(ctx context.Context, id service.Identity, carID uint64, p service.CarPatch) (*model.Car, error)
	Delete(ctx context.Context, id service.Identity, carID uint64) error
	ToggleStatus(ctx context.Context, id service.Identity, carID uint64) (*model.Car, error)
	MyCars(ctx context.Context, id service.Identity) ([]model.CarWithBookingCount, error)
	HostStats(ctx context.Context, id service.Identity) (model.HostStats, error)
}

// CachePurger drops cached listing responses after a write.
type CachePurger interface {
	Purge(ctx context.Context) error
}

type CarHandler struct {
	Cars  CarCatalogue
	Cache CachePurger // may be nil
}

func NewCarHandler(cars CarCatalogue, cache CachePurger) *CarHandler {
	return &CarHandler{Cars: cars, Cache: cache}
}

// ----- DTOs -----

type locationReq struct {
	City        string             `json:"city" validate:"required" msg:"Please provide a city"`
	Address     string             `json:"address"`
	State       string             `json:"state"`
	Pincode     string             `json:"pincode"`
	Coordinates *model.Coordinates `json:"coordinates"`
}

func (l locationReq) model() model.Location {
	return model.Location{City: l.City, Address: l.Address, State: l.State, Pincode: l.Pincode, Coordinates: l.Coordinates}
}

type createCarReq struct {
	Brand        string      `json:"brand" validate:"required" msg:"Please provide car brand"`
	Model        string      `json:"model" validate:"required" msg:"Please provide car model"`
	Year         int         `json:"year" validate:"caryear" msg:"Please provide a valid car year"`
	Category     string      `json:"category" validate:"oneof=Sedan SUV Hatchback Luxury Sports Electric"`
	Transmission string      `json:"transmission" validate:"oneof=Automatic Manual"`
	FuelType     string      `json:"fuelType" validate:"oneof=Petrol Diesel Electric Hybrid"`
	Seats        int         `json:"seats" validate:"min=2,max=8"`
	PricePerDay  float64     `json:"pricePerDay" validate:"gt=0" msg:"Please provide price per day"`
	Location     locationReq `json:"location"`
	Images       []string    `json:"images" validate:"omitempty,dive,required"`
	Features     []string    `json:"features"`
	Description  string      `json:"description" validate:"max=1000"`
	LicensePlate string      `json:"licensePlate" validate:"required" msg:"Please provide the license plate"`
	Mileage      int         `json:"mileage" validate:"min=0"`
}

func (r createCarReq) model() *model.Car {
	return &model.Car{
		Brand: r.Brand, Model: r.Model, Year: r.Year,
		Category: r.Category, Transmission: r.Transmission, FuelType: r.FuelType,
		Seats: r.Seats, PricePerDay: r.PricePerDay, Location: r.Location.model(),
		Images: r.Images, Features: r.Features, Description: r.Description,
		LicensePlate: r.LicensePlate, Mileage: r.Mileage,
	}
}

// updateCarReq has the same rules as createCarReq for every field that
// is present.
type updateCarReq struct {
	Brand        *string      `json:"brand" validate:"omitempty,min=1"`
	Model        *string      `json:"model" validate:"omitempty,min=1"`
	Year         *int         `json:"year" validate:"omitempty,caryear" msg:"Please provide a valid car year"`
	Category     *string      `json:"category" validate:"omitempty,oneof=Sedan SUV Hatchback Luxury Sports Electric"`
	Transmission *string      `json:"transmission" validate:"omitempty,oneof=Automatic Manual"`
	FuelType     *string      `json:"fuelType" validate:"omitempty,oneof=Petrol Diesel Electric Hybrid"`
	Seats        *int         `json:"seats" validate:"omitempty,min=2,max=8"`
	PricePerDay  *float64     `json:"pricePerDay" validate:"omitempty,gt=0"`
	Location     *locationReq `json:"location"`
	Images       *[]string    `json:"images"`
	Features     *[]string    `json:"features"`
	Description  *string      `json:"description" validate:"omitempty,max=1000"`
	LicensePlate *string      `json:"licensePlate" validate:"omitempty,min=1"`
	Mileage      *int         `json:"mileage" validate:"omitempty,min=0"`
	IsActive     *bool        `json:"isActive"`
}

func (r updateCarReq) patch() service.CarPatch {
	p := service.CarPatch{
		Brand: r.Brand, Model: r.Model, Year: r.Year,
		Category: r.Category, Transmission: r.Transmission, FuelType: r.FuelType,
		Seats: r.Seats, PricePerDay: r.PricePerDay,
		Images: r.Images, Features: r.Features, Description: r.Description,
		LicensePlate: r.LicensePlate, Mileage: r.Mileage, IsActive: r.IsActive,
	}
	if r.Location != nil {
		loc := r.Location.model()
		p.Location = &loc
	}
	return p
}

// filterFromQuery reads the listing query string. Unparseable numbers are
// ignored rather than rejected.
func filterFromQuery(c echo.Context) repository.CarFilter {
	f := repository.CarFilter{
		Category:     c.QueryParam("category"),
		Transmission: c.QueryParam("transmission"),
		FuelType:     c.QueryParam("fuelType"),
		City:         c.QueryParam("city"),
		Search:       c.QueryParam("search"),
		Sort:         c.QueryParam("sort"),
		OnlyActive:   true,
	}
	if v, err := strconv.ParseFloat(c.QueryParam("minPrice"), 64); err == nil {
		f.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(c.QueryParam("maxPrice"), 64); err == nil {
		f.MaxPrice = &v
	}
	if v, err := strconv.Atoi(c.QueryParam("seats")); err == nil {
		f.MinSeats = &v
	}
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil {
		f.Page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		f.Limit = v
	}
	return f
}

// ListCars is the public catalogue.
func (h *CarHandler) ListCars(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	page, err := h.Cars.List(ctx, filterFromQuery(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{
		"count":       len(page.Cars),
		"total":       page.Total,
		"totalPages":  page.TotalPages,
		"currentPage": page.CurrentPage,
		"cars":        page.Cars,
	})
}

// GetCar returns a car with its booked intervals.
func (h *CarHandler) GetCar(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	car, dates, err := h.Cars.Get(ctx, id)
	if err != nil {
		return err
	}
	if dates == nil {
		dates = []model.DateRange{}
	}
	return respond(c, http.StatusOK, echo.Map{"car": car, "bookedDates": dates})
}

func (h *CarHandler) CreateCar(c echo.Context) error {
	var req createCarReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	car, err := h.Cars.Create(ctx, identity(c), req.model())
	if err != nil {
		return err
	}
	h.purge(ctx)
	return respond(c, http.StatusCreated, echo.Map{"message": "Car listed successfully", "car": car})
}

func (h *CarHandler) UpdateCar(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateCarReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	car, err := h.Cars.Update(ctx, identity(c), id, req.patch())
	if err != nil {
		return err
	}
	h.purge(ctx)
	return respond(c, http.StatusOK, echo.Map{"message": "Car updated successfully", "car": car})
}

func (h *CarHandler) DeleteCar(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Cars.Delete(ctx, identity(c), id); err != nil {
		return err
	}
	h.purge(ctx)
	return respond(c, http.StatusOK, echo.Map{"message": "Car deleted successfully"})
}

func (h *CarHandler) ToggleStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	car, err := h.Cars.ToggleStatus(ctx, identity(c), id)
	if err != nil {
		return err
	}
	h.purge(ctx)
	msg := "Car deactivated successfully"
	if car.IsActive {
		msg = "Car activated successfully"
	}
	return respond(c, http.StatusOK, echo.Map{"message": msg, "car": car})
}

// MyCars lists the caller's own cars with booking counts.
func (h *CarHandler) MyCars(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	cars, err := h.Cars.MyCars(ctx, identity(c))
	if err != nil {
		return err
	}
	if cars == nil {
		cars = []model.CarWithBookingCount{}
	}
	return respond(c, http.StatusOK, echo.Map{"count": len(cars), "cars": cars})
}

func (h *CarHandler) HostStats(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	stats, err := h.Cars.HostStats(ctx, identity(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"stats": stats})
}

// purge invalidates cached listings. Failures only cost freshness until
// the cache TTL expires.
func (h *CarHandler) purge(ctx context.Context) { purgeListings(ctx, h.Cache) }

func purgeListings(ctx context.Context, cache CachePurger) {
	if cache == nil {
		return
	}
	if err := cache.Purge(ctx); err != nil {
		logger.Warn("car cache purge failed", "error", err)
	}
}
