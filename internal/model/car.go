package model

import "time"

// Car categories accepted for a listing.
const (
	CategorySedan     = "Sedan"
	CategorySUV       = "SUV"
	CategoryHatchback = "Hatchback"
	CategoryLuxury    = "Luxury"
	CategorySports    = "Sports"
	CategoryElectric  = "Electric"
)

// Transmission and fuel type values.
const (
	TransmissionAutomatic = "Automatic"
	TransmissionManual    = "Manual"

	FuelPetrol   = "Petrol"
	FuelDiesel   = "Diesel"
	FuelElectric = "Electric"
	FuelHybrid   = "Hybrid"
)

// Car is a listing published by a host.  It is stored in the `cars`
// table; list-valued fields (images, features) are JSON columns.
//
// Fields:
//  ID            – primary key identifier.
//  HostID        – user that owns the car (cars.host_id).
//  Brand, Model  – free text, trimmed on write.
//  Year          – model year, 1990..next year.
//  Category      – one of the Category* constants.
//  Transmission  – Automatic or Manual.
//  FuelType      – one of the Fuel* constants.
//  Seats         – passenger seats, 2..8.
//  PricePerDay   – daily rate in whole currency units.
//  Location      – city is required; the rest is optional.
//  LicensePlate  – unique, stored upper-case.
//  IsActive      – soft-disable flag; inactive cars are hidden and not bookable.
//  Rating        – running average and count of reviews.
//  TotalBookings – completed bookings counted so far.
//  TotalEarnings – sum of completed booking amounts.
type Car struct {
	ID            uint64    `json:"id"`
	HostID        uint64    `json:"hostId"`
	Host          *UserRef  `json:"host,omitempty"`
	Brand         string    `json:"brand"`
	Model         string    `json:"model"`
	Year          int       `json:"year"`
	Category      string    `json:"category"`
	Transmission  string    `json:"transmission"`
	FuelType      string    `json:"fuelType"`
	Seats         int       `json:"seats"`
	PricePerDay   float64   `json:"pricePerDay"`
	Location      Location  `json:"location"`
	Images        []string  `json:"images"`
	Features      []string  `json:"features"`
	Description   string    `json:"description"`
	LicensePlate  string    `json:"licensePlate"`
	Mileage       int       `json:"mileage"`
	IsActive      bool      `json:"isActive"`
	Rating        Rating    `json:"rating"`
	TotalBookings int       `json:"totalBookings"`
	TotalEarnings float64   `json:"totalEarnings"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Location describes where a car can be picked up.
type Location struct {
	City        string       `json:"city"`
	Address     string       `json:"address,omitempty"`
	State       string       `json:"state,omitempty"`
	Pincode     string       `json:"pincode,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Rating is a running average kept next to the number of reviews that
// produced it.
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// CarSummary is the reduced view of a car embedded in booking lists.
type CarSummary struct {
	ID          uint64   `json:"id"`
	Brand       string   `json:"brand"`
	Model       string   `json:"model"`
	Year        int      `json:"year"`
	Images      []string `json:"images"`
	Category    string   `json:"category"`
	PricePerDay float64  `json:"pricePerDay"`
	Location    Location `json:"location"`
}

// CarWithBookingCount is returned by the host "my cars" listing.
type CarWithBookingCount struct {
	Car
	BookingCount int `json:"bookingCount"`
}

// DateRange is a booked interval exposed on the car detail page.
type DateRange struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// HostStats aggregates a host's dashboard numbers.
type HostStats struct {
	TotalCars     int     `json:"totalCars"`
	ActiveCars    int     `json:"activeCars"`
	TotalBookings int     `json:"totalBookings"`
	TotalRevenue  float64 `json:"totalRevenue"`
	AvgRating     float64 `json:"avgRating"`
}
