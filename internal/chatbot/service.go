package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/car-rental-marketplace/internal/model"
	"github.com/iliyamo/car-rental-marketplace/internal/repository"
)

// HistoryLimit is how many previous turns are forwarded to the model.
const HistoryLimit = 10

// Reply types.
const (
	ReplyText = "text"
	ReplyCars = "cars"
)

// CarFinder is the slice of the car repository the assistant needs.
type CarFinder interface {
	Search(ctx context.Context, f repository.CarFilter) ([]model.Car, int, error)
	DistinctCities(ctx context.Context, limit int) ([]string, error)
	TopCategory(ctx context.Context) (string, error)
}

// Reply is what the assistant answers to one message.
type Reply struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Filters *Filters    `json:"filters,omitempty"`
	Cars    []model.Car `json:"cars"`
}

type Service struct {
	llm  Completer
	cars CarFinder
}

func NewService(llm Completer, cars CarFinder) *Service {
	return &Service{llm: llm, cars: cars}
}

// Respond sends message with the trailing history to the model. A
// search_cars reply runs the search and answers with the matching cars.
func (s *Service) Respond(ctx context.Context, message string, history []Message) (Reply, error) {
	msgs := make([]Message, 0, HistoryLimit+2)
	msgs = append(msgs, Message{Role: "system", Content: SystemPrompt})
	msgs = append(msgs, trimHistory(history)...)
	msgs = append(msgs, Message{Role: "user", Content: message})

	text, err := s.llm.Complete(ctx, msgs)
	if err != nil {
		return Reply{}, err
	}

	in, ok := ParseIntent(text)
	if !ok || in.Action != ActionSearchCars {
		return Reply{Type: ReplyText, Message: text}, nil
	}

	cars, _, err := s.cars.Search(ctx, in.Filters.CarFilter())
	if err != nil {
		return Reply{}, fmt.Errorf("chat search: %w", err)
	}
	filters := in.Filters
	return Reply{Type: ReplyCars, Message: foundMessage(len(cars), filters.City), Filters: &filters, Cars: cars}, nil
}

// Suggestions returns quick prompts seeded from the live catalogue.
func (s *Service) Suggestions(ctx context.Context) ([]string, error) {
	cities, err := s.cars.DistinctCities(ctx, 1)
	if err != nil {
		return nil, err
	}
	top, err := s.cars.TopCategory(ctx)
	if err != nil {
		return nil, err
	}
	out := []string{"Show me available cars"}
	if len(cities) > 0 {
		out = append(out, "Cars in "+cities[0])
	}
	if top != "" {
		out = append(out, "Show me "+top+"s")
	}
	return append(out,
		"Cars under ₹2000 per day",
		"Automatic transmission cars",
		"Electric vehicles available",
	), nil
}

// IsUnauthorized reports whether err came from a rejected API key.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// trimHistory keeps the last HistoryLimit user/assistant turns. Other
// roles are dropped so clients cannot inject system messages.
func trimHistory(h []Message) []Message {
	out := make([]Message, 0, len(h))
	for _, m := range h {
		if (m.Role == "user" || m.Role == "assistant") && strings.TrimSpace(m.Content) != "" {
			out = append(out, m)
		}
	}
	if len(out) > HistoryLimit {
		out = out[len(out)-HistoryLimit:]
	}
	return out
}

func foundMessage(n int, city string) string {
	if n == 0 {
		return "Sorry, I couldn't find any cars matching your criteria. Try adjusting your filters or searching in a different location."
	}
	plural := ""
	if n > 1 {
		plural = "s"
	}
	where := ""
	if city != "" {
		where = " in " + city
	}
	return fmt.Sprintf("Great news! I found %d car%s for you%s. Here's what's available:", n, plural, where)
}
