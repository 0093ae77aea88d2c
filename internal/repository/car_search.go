package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/car-rental-marketplace/internal/model"
)

// Listing defaults.
const (
	DefaultCarPageSize = 12
	MaxCarPageSize     = 100
	DefaultCarSort     = "-createdAt"
)

// CarFilter defines filters, sorting and pagination for listing cars.
// Zero values mean "not set": empty strings and nil pointers add no
// predicate. Page and Limit are normalised by Normalize.
type CarFilter struct {
	Category     string
	Transmission string
	FuelType     string
	City         string
	MinPrice     *float64
	MaxPrice     *float64
	MinSeats     *int
	Search       string
	HostID       *uint64
	OnlyActive   bool
	Page         int
	Limit        int
	Sort         string
}

// sortColumns whitelists the sort keys clients may use.
var sortColumns = map[string]string{
	"createdAt":      "c.created_at",
	"pricePerDay":    "c.price_per_day",
	"year":           "c.year",
	"rating":         "c.rating_average",
	"rating.average": "c.rating_average",
	"seats":          "c.seats",
}

// Normalize applies the listing defaults in place and returns f.
func (f *CarFilter) Normalize() *CarFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultCarPageSize
	}
	if f.Limit > MaxCarPageSize {
		f.Limit = MaxCarPageSize
	}
	if f.Sort == "" {
		f.Sort = DefaultCarSort
	}
	return f
}

// Offset is the row offset of the current page.
func (f CarFilter) Offset() int { return (f.Page - 1) * f.Limit }

// BuildCarWhere translates the filter into a WHERE condition and its
// positional arguments. The condition is "1=1" when no filter is set.
func BuildCarWhere(f CarFilter) (string, []any) {
	where := []string{}
	args := []any{}

	if f.OnlyActive {
		where = append(where, "c.is_active = 1")
	}
	if f.HostID != nil {
		where = append(where, "c.host_id = ?")
		args = append(args, *f.HostID)
	}
	if v := strings.TrimSpace(f.Category); v != "" {
		where = append(where, "LOWER(c.category) = ?")
		args = append(args, strings.ToLower(v))
	}
	if v := strings.TrimSpace(f.Transmission); v != "" {
		where = append(where, "LOWER(c.transmission) = ?")
		args = append(args, strings.ToLower(v))
	}
	if v := strings.TrimSpace(f.FuelType); v != "" {
		where = append(where, "LOWER(c.fuel_type) = ?")
		args = append(args, strings.ToLower(v))
	}
	if v := strings.TrimSpace(f.City); v != "" {
		where = append(where, "LOWER(c.city) LIKE ?")
		args = append(args, likePattern(v))
	}
	if f.MinPrice != nil {
		where = append(where, "c.price_per_day >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where = append(where, "c.price_per_day <= ?")
		args = append(args, *f.MaxPrice)
	}
	if f.MinSeats != nil {
		where = append(where, "c.seats >= ?")
		args = append(args, *f.MinSeats)
	}
	if v := strings.TrimSpace(f.Search); v != "" {
		p := likePattern(v)
		where = append(where, "(LOWER(c.brand) LIKE ? OR LOWER(c.model) LIKE ? OR LOWER(c.description) LIKE ?)")
		args = append(args, p, p, p)
	}

	if len(where) == 0 {
		return "1=1", args
	}
	return strings.Join(where, " AND "), args
}

// BuildCarOrder maps a "-field" / "field" sort key onto an ORDER BY
// clause. Unknown keys fall back to newest first.
func BuildCarOrder(sort string) string {
	key := strings.TrimSpace(sort)
	dir := "ASC"
	if strings.HasPrefix(key, "-") {
		dir = "DESC"
		key = key[1:]
	}
	col, ok := sortColumns[key]
	if !ok {
		return "c.created_at DESC, c.id DESC"
	}
	return col + " " + dir + ", c.id DESC"
}

// likePattern lower-cases v and escapes LIKE wildcards so user input is
// matched literally as a substring.
func likePattern(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(v)) + "%"
}

// Search returns one page of cars matching f together with the total
// number of matches. Each car carries its host summary.
func (r *CarRepo) Search(ctx context.Context, f CarFilter) ([]model.Car, int, error) {
	f.Normalize()
	cond, args := BuildCarWhere(f)

	var total int
	countSQL := `SELECT COUNT(*) FROM cars c WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := `SELECT ` + carColumns + `, ` + hostColumns + `
		FROM cars c
		LEFT JOIN users h ON h.id = c.host_id
		WHERE ` + cond + `
		ORDER BY ` + BuildCarOrder(f.Sort) + `
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), f.Limit, f.Offset())

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Car, 0, f.Limit)
	for rows.Next() {
		var h hostRef
		car, err := scanCar(rows, h.dest()...)
		if err != nil {
			return nil, 0, err
		}
		car.Host = h.ref(car.HostID)
		out = append(out, *car)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
