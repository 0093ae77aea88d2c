package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental-marketplace/internal/model"
	"github.com/iliyamo/car-rental-marketplace/internal/service"
)

// BookingManager is implemented by service.BookingService.
type BookingManager interface {
	Create(ctx context.Context, id service.Identity, in service.CreateBookingInput) (*model.Booking, error)
	Get(ctx context.Context, id service.Identity, bookingID uint64) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id service.Identity, bookingID uint64, status string) (*model.Booking, error)
	Cancel(ctx context.Context, id service.Identity, bookingID uint64, reason string) (*model.Booking, error)
	AddReview(ctx context.Context, id service.Identity, bookingID uint64, rating int, comment string) (*model.Booking, error)
	ListMine(ctx context.Context, id service.Identity, status string) ([]model.Booking, error)
	ListForHost(ctx context.Context, id service.Identity, status string) ([]model.Booking, error)
	Stats(ctx context.Context, id service.Identity) (model.BookingStats, error)
}

type BookingHandler struct {
	Bookings BookingManager
	Cache    CachePurger // may be nil; reviews and completions change car listings
}

func NewBookingHandler(b BookingManager, cache CachePurger) *BookingHandler {
	return &BookingHandler{Bookings: b, Cache: cache}
}

// Required fields are checked by the booking service so the message
// matches for every caller.
type createBookingReq struct {
	CarID         uint64 `json:"carId"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	PickupTime    string `json:"pickupTime"`
	DropoffTime   string `json:"dropoffTime"`
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,oneof=card upi netbanking wallet"`
}

type statusReq struct {
	Status string `json:"status"`
}

type cancelReq struct {
	Reason string `json:"reason" validate:"max=500"`
}

type reviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" validate:"max=500"`
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req createBookingReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	b, err := h.Bookings.Create(ctx, identity(c), service.CreateBookingInput{
		CarID:         req.CarID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		PickupTime:    req.PickupTime,
		DropoffTime:   req.DropoffTime,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, echo.Map{"message": "Booking created successfully", "booking": b})
}

// MyBookings lists the caller's rentals; ?status narrows the list.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Bookings.ListMine(ctx, identity(c), c.QueryParam("status"))
	if err != nil {
		return err
	}
	return bookingList(c, list)
}

// HostBookings lists bookings made on the caller's cars.
func (h *BookingHandler) HostBookings(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Bookings.ListForHost(ctx, identity(c), c.QueryParam("status"))
	if err != nil {
		return err
	}
	return bookingList(c, list)
}

func bookingList(c echo.Context, list []model.Booking) error {
	if list == nil {
		list = []model.Booking{}
	}
	return respond(c, http.StatusOK, echo.Map{"count": len(list), "bookings": list})
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	b, err := h.Bookings.Get(ctx, identity(c), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"booking": b})
}

func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req statusReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	b, err := h.Bookings.UpdateStatus(ctx, identity(c), id, req.Status)
	if err != nil {
		return err
	}
	if b.Status == model.BookingCompleted {
		purgeListings(ctx, h.Cache)
	}
	return respond(c, http.StatusOK, echo.Map{"message": "Booking status updated", "booking": b})
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req cancelReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	b, err := h.Bookings.Cancel(ctx, identity(c), id, req.Reason)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"message": "Booking cancelled successfully", "booking": b})
}

func (h *BookingHandler) AddReview(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req reviewReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	b, err := h.Bookings.AddReview(ctx, identity(c), id, req.Rating, req.Comment)
	if err != nil {
		return err
	}
	purgeListings(ctx, h.Cache)
	return respond(c, http.StatusOK, echo.Map{"message": "Review added successfully", "booking": b})
}

// Stats is the renter dashboard.
func (h *BookingHandler) Stats(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	stats, err := h.Bookings.Stats(ctx, identity(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"stats": stats})
}
