package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/car-rental-marketplace/internal/model"
	"github.com/iliyamo/car-rental-marketplace/internal/service"
)

type MockBookingManager struct{ mock.Mock }

func (m *MockBookingManager) booking(args mock.Arguments) (*model.Booking, error) {
	b, _ := args.Get(0).(*model.Booking)
	return b, args.Error(1)
}

func (m *MockBookingManager) Create(ctx context.Context, id service.Identity, in service.CreateBookingInput) (*model.Booking, error) {
	return m.booking(m.Called(ctx, id, in))
}

func (m *MockBookingManager) Get(ctx context.Context, id service.Identity, bookingID uint64) (*model.Booking, error) {
	return m.booking(m.Called(ctx, id, bookingID))
}

func (m *MockBookingManager) UpdateStatus(ctx context.Context, id service.Identity, bookingID uint64, status string) (*model.Booking, error) {
	return m.booking(m.Called(ctx, id, bookingID, status))
}

func (m *MockBookingManager) Cancel(ctx context.Context, id service.Identity, bookingID uint64, reason string) (*model.Booking, error) {
	return m.booking(m.Called(ctx, id, bookingID, reason))
}

func (m *MockBookingManager) AddReview(ctx context.Context, id service.Identity, bookingID uint64, rating int, comment string) (*model.Booking, error) {
	return m.booking(m.Called(ctx, id, bookingID, rating, comment))
}

func (m *MockBookingManager) ListMine(ctx context.Context, id service.Identity, status string) ([]model.Booking, error) {
	args := m.Called(ctx, id, status)
	list, _ := args.Get(0).([]model.Booking)
	return list, args.Error(1)
}

func (m *MockBookingManager) ListForHost(ctx context.Context, id service.Identity, status string) ([]model.Booking, error) {
	args := m.Called(ctx, id, status)
	list, _ := args.Get(0).([]model.Booking)
	return list, args.Error(1)
}

func (m *MockBookingManager) Stats(ctx context.Context, id service.Identity) (model.BookingStats, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.BookingStats), args.Error(1)
}

var renterID = service.Identity{ID: 1, Role: model.RoleUser}

func bookingRoutes(b *MockBookingManager, cache CachePurger) *echo.Echo {
	h := NewBookingHandler(b, cache)
	e := newServer(1, model.RoleUser)
	e.POST("/bookings", h.CreateBooking)
	e.GET("/bookings/my-bookings", h.MyBookings)
	e.GET("/bookings/stats", h.Stats)
	e.GET("/bookings/host/bookings", h.HostBookings)
	e.GET("/bookings/:id", h.GetBooking)
	e.PUT("/bookings/:id/status", h.UpdateStatus)
	e.PUT("/bookings/:id/cancel", h.CancelBooking)
	e.POST("/bookings/:id/review", h.AddReview)
	return e
}

func TestBooking_Create(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		b := new(MockBookingManager)
		want := service.CreateBookingInput{CarID: 3, StartDate: "2024-01-01", EndDate: "2024-01-03", PickupTime: "10:00", DropoffTime: "18:00"}
		b.On("Create", mock.Anything, renterID, want).
			Return(&model.Booking{ID: 12, CarID: 3, TotalDays: 2, TotalAmount: 3000, Status: model.BookingConfirmed}, nil)

		rec := do(bookingRoutes(b, nil), http.MethodPost, "/bookings",
			`{"carId":3,"startDate":"2024-01-01","endDate":"2024-01-03","pickupTime":"10:00","dropoffTime":"18:00"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		body := decode(t, rec)
		assert.Equal(t, "Booking created successfully", body["message"])
		booking := body["booking"].(map[string]any)
		assert.Equal(t, float64(2), booking["totalDays"])
		assert.Equal(t, float64(3000), booking["totalAmount"])
		assert.Equal(t, "confirmed", booking["status"])
	})

	t.Run("Overlap", func(t *testing.T) {
		b := new(MockBookingManager)
		b.On("Create", mock.Anything, renterID, mock.Anything).
			Return(nil, service.Conflict("Car is not available for selected dates"))
		rec := do(bookingRoutes(b, nil), http.MethodPost, "/bookings", `{"carId":3}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Car is not available for selected dates", decode(t, rec)["message"])
	})

	t.Run("Unknown payment method", func(t *testing.T) {
		b := new(MockBookingManager)
		rec := do(bookingRoutes(b, nil), http.MethodPost, "/bookings", `{"carId":3,"paymentMethod":"cash"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "paymentMethod must be one of: card upi netbanking wallet", decode(t, rec)["message"])
		b.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Bad body", func(t *testing.T) {
		rec := do(bookingRoutes(new(MockBookingManager), nil), http.MethodPost, "/bookings", `{"carId":"x"`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request body", decode(t, rec)["message"])
	})
}

func TestBooking_Lists(t *testing.T) {
	b := new(MockBookingManager)
	b.On("ListMine", mock.Anything, renterID, "completed").Return(nil, nil)
	b.On("ListForHost", mock.Anything, renterID, "").Return([]model.Booking{{ID: 1}, {ID: 2}}, nil)
	e := bookingRoutes(b, nil)

	rec := do(e, http.MethodGet, "/bookings/my-bookings?status=completed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(0), body["count"])
	assert.Equal(t, []any{}, body["bookings"])

	rec = do(e, http.MethodGet, "/bookings/host/bookings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decode(t, rec)["count"])
}

func TestBooking_Get(t *testing.T) {
	b := new(MockBookingManager)
	b.On("Get", mock.Anything, renterID, uint64(12)).Return(nil, service.Forbidden("Not authorized to view this booking"))
	rec := do(bookingRoutes(b, nil), http.MethodGet, "/bookings/12", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authorized to view this booking", decode(t, rec)["message"])
}

func TestBooking_Transitions(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
		body   string
		setup  func(b *MockBookingManager)
		status int
		msg    string
		purges int
	}{
		{
			name: "Status updated", method: http.MethodPut, path: "/bookings/12/status", body: `{"status":"completed"}`,
			setup: func(b *MockBookingManager) {
				b.On("UpdateStatus", mock.Anything, renterID, uint64(12), "completed").Return(&model.Booking{ID: 12, Status: "completed"}, nil)
			},
			status: http.StatusOK, msg: "Booking status updated", purges: 1,
		},
		{
			name: "Activated", method: http.MethodPut, path: "/bookings/12/status", body: `{"status":"active"}`,
			setup: func(b *MockBookingManager) {
				b.On("UpdateStatus", mock.Anything, renterID, uint64(12), "active").Return(&model.Booking{ID: 12, Status: "active"}, nil)
			},
			status: http.StatusOK, msg: "Booking status updated",
		},
		{
			name: "Invalid status", method: http.MethodPut, path: "/bookings/12/status", body: `{"status":"lost"}`,
			setup: func(b *MockBookingManager) {
				b.On("UpdateStatus", mock.Anything, renterID, uint64(12), "lost").Return(nil, service.InvalidInput("Invalid status"))
			},
			status: http.StatusBadRequest, msg: "Invalid status",
		},
		{
			name: "Cancelled", method: http.MethodPut, path: "/bookings/12/cancel", body: `{"reason":"Plans changed"}`,
			setup: func(b *MockBookingManager) {
				b.On("Cancel", mock.Anything, renterID, uint64(12), "Plans changed").Return(&model.Booking{ID: 12, Status: "cancelled"}, nil)
			},
			status: http.StatusOK, msg: "Booking cancelled successfully",
		},
		{
			name: "Cancel completed", method: http.MethodPut, path: "/bookings/12/cancel", body: `{}`,
			setup: func(b *MockBookingManager) {
				b.On("Cancel", mock.Anything, renterID, uint64(12), "").Return(nil, service.InvalidState("Cannot cancel completed booking"))
			},
			status: http.StatusBadRequest, msg: "Cannot cancel completed booking",
		},
		{
			name: "Reviewed", method: http.MethodPost, path: "/bookings/12/review", body: `{"rating":5,"comment":"Great"}`,
			setup: func(b *MockBookingManager) {
				b.On("AddReview", mock.Anything, renterID, uint64(12), 5, "Great").Return(&model.Booking{ID: 12}, nil)
			},
			status: http.StatusOK, msg: "Review added successfully", purges: 1,
		},
		{
			name: "Second review", method: http.MethodPost, path: "/bookings/12/review", body: `{"rating":4}`,
			setup: func(b *MockBookingManager) {
				b.On("AddReview", mock.Anything, renterID, uint64(12), 4, "").Return(nil, service.Conflict("You have already reviewed this booking"))
			},
			status: http.StatusBadRequest, msg: "You have already reviewed this booking",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, purger := new(MockBookingManager), new(countingPurger)
			tc.setup(b)
			rec := do(bookingRoutes(b, purger), tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.msg, decode(t, rec)["message"])
			assert.Equal(t, tc.purges, purger.calls)
			b.AssertExpectations(t)
		})
	}
}

func TestBooking_Stats(t *testing.T) {
	b := new(MockBookingManager)
	b.On("Stats", mock.Anything, renterID).Return(model.BookingStats{UpcomingTrips: 1, CompletedTrips: 2, TotalSpent: 4500}, nil)
	rec := do(bookingRoutes(b, nil), http.MethodGet, "/bookings/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode(t, rec)["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["completedTrips"])
	assert.Equal(t, float64(4500), stats["totalSpent"])
}
