package chatbot

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/iliyamo/car-rental-marketplace/internal/repository"
)

// ActionSearchCars is the only action the assistant can request.
const ActionSearchCars = "search_cars"

// Chat searches return at most this many cars, best rated first.
const (
	SearchLimit = 6
	SearchSort  = "-rating"
)

// actionSpan matches from the first "{" to the last "}" around an
// "action" key.
var actionSpan = regexp.MustCompile(`(?s)\{.*"action".*\}`)

// Number accepts JSON numbers and numeric strings; models emit both.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	*n = Number(f)
	return nil
}

// Filters are the search criteria the model extracted.
type Filters struct {
	City         string  `json:"city,omitempty"`
	Category     string  `json:"category,omitempty"`
	Transmission string  `json:"transmission,omitempty"`
	FuelType     string  `json:"fuelType,omitempty"`
	MinPrice     *Number `json:"minPrice,omitempty"`
	MaxPrice     *Number `json:"maxPrice,omitempty"`
	Seats        *Number `json:"seats,omitempty"`
}

type Intent struct {
	Action  string  `json:"action"`
	Filters Filters `json:"filters"`
}

// ParseIntent extracts the action object from a model reply. ok is false
// for plain text and for spans that are not valid JSON.
func ParseIntent(reply string) (Intent, bool) {
	span := actionSpan.FindString(reply)
	if span == "" {
		return Intent{}, false
	}
	var in Intent
	if err := json.Unmarshal([]byte(span), &in); err != nil {
		return Intent{}, false
	}
	return in, true
}

// CarFilter maps the extracted criteria onto a listing query over active
// cars. Enumerations match exactly, ignoring case; numbers are truncated
// to integers and zero means unset.
func (f Filters) CarFilter() repository.CarFilter {
	out := repository.CarFilter{
		City:         f.City,
		Category:     f.Category,
		Transmission: f.Transmission,
		FuelType:     f.FuelType,
		OnlyActive:   true,
		Page:         1,
		Limit:        SearchLimit,
		Sort:         SearchSort,
	}
	if v := truncated(f.MinPrice); v > 0 {
		out.MinPrice = &v
	}
	if v := truncated(f.MaxPrice); v > 0 {
		out.MaxPrice = &v
	}
	if v := int(truncated(f.Seats)); v > 0 {
		out.MinSeats = &v
	}
	return out
}

func truncated(n *Number) float64 {
	if n == nil {
		return 0
	}
	return float64(int64(*n))
}
