package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/iliyamo/car-rental-marketplace/internal/model"
)

// CarRepo provides access to the cars table. Images and features are
// stored as JSON arrays; location is flattened into city/address/state/
// pincode/latitude/longitude columns.
type CarRepo struct {
	db *sql.DB
}

// NewCarRepo returns a new CarRepo bound to the given database.
func NewCarRepo(db *sql.DB) *CarRepo { return &CarRepo{db: db} }

const carColumns = `c.id, c.host_id, c.brand, c.model, c.year, c.category, c.transmission, c.fuel_type,
	c.seats, c.price_per_day, c.city, c.address, c.state, c.pincode, c.latitude, c.longitude,
	c.images, c.features, c.description, c.license_plate, c.mileage, c.is_active,
	c.rating_average, c.rating_count, c.total_bookings, c.total_earnings, c.created_at, c.updated_at`

const hostColumns = `h.full_name, h.email, h.phone, h.profile_image`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanCar reads one row selected with carColumns followed by any extra
// destinations the caller appends (host columns, counters).
func scanCar(s rowScanner, extra ...any) (*model.Car, error) {
	var (
		car                            model.Car
		address, state, pincode, descr sql.NullString
		lat, lng                       sql.NullFloat64
		images, features               []byte
	)
	dest := []any{
		&car.ID, &car.HostID, &car.Brand, &car.Model, &car.Year, &car.Category, &car.Transmission, &car.FuelType,
		&car.Seats, &car.PricePerDay, &car.Location.City, &address, &state, &pincode, &lat, &lng,
		&images, &features, &descr, &car.LicensePlate, &car.Mileage, &car.IsActive,
		&car.Rating.Average, &car.Rating.Count, &car.TotalBookings, &car.TotalEarnings, &car.CreatedAt, &car.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	car.Location.Address = address.String
	car.Location.State = state.String
	car.Location.Pincode = pincode.String
	car.Description = descr.String
	if lat.Valid && lng.Valid {
		car.Location.Coordinates = &model.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	car.Images = decodeList(images)
	car.Features = decodeList(features)
	return &car, nil
}

// hostRef collects the joined host columns of a car row.
type hostRef struct {
	name, email, phone, image sql.NullString
}

func (h *hostRef) dest() []any { return []any{&h.name, &h.email, &h.phone, &h.image} }

func (h *hostRef) ref(id uint64) *model.UserRef {
	if !h.name.Valid {
		return nil
	}
	return &model.UserRef{ID: id, FullName: h.name.String, Email: h.email.String, Phone: h.phone.String, ProfileImage: h.image.String}
}

func decodeList(raw []byte) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return []string{}
	}
	return out
}

func encodeList(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func coords(loc model.Location) (any, any) {
	if loc.Coordinates == nil {
		return nil, nil
	}
	return loc.Coordinates.Lat, loc.Coordinates.Lng
}

// GetByID returns the car with its host summary. ErrNotFound when missing.
func (r *CarRepo) GetByID(ctx context.Context, id uint64) (*model.Car, error) {
	q := `SELECT ` + carColumns + `, ` + hostColumns + `
		FROM cars c
		LEFT JOIN users h ON h.id = c.host_id
		WHERE c.id = ?`
	var h hostRef
	car, err := scanCar(r.db.QueryRowContext(ctx, q, id), h.dest()...)
	if err != nil {
		return nil, notFound(err)
	}
	car.Host = h.ref(car.HostID)
	return car, nil
}

// GetForUpdateTx loads a car and takes a row lock held until tx ends.
// Booking creation uses the lock to serialise overlapping requests.
func (r *CarRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Car, error) {
	q := `SELECT ` + carColumns + ` FROM cars c WHERE c.id = ? FOR UPDATE`
	car, err := scanCar(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return car, nil
}

// Create inserts a car and populates its ID and timestamps.
// A reused licence plate yields ErrDuplicate.
func (r *CarRepo) Create(ctx context.Context, car *model.Car) error {
	const q = `INSERT INTO cars (host_id, brand, model, year, category, transmission, fuel_type, seats,
		price_per_day, city, address, state, pincode, latitude, longitude, images, features,
		description, license_plate, mileage, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	lat, lng := coords(car.Location)
	res, err := r.db.ExecContext(ctx, q,
		car.HostID, car.Brand, car.Model, car.Year, car.Category, car.Transmission, car.FuelType, car.Seats,
		car.PricePerDay, car.Location.City, car.Location.Address, car.Location.State, car.Location.Pincode, lat, lng,
		encodeList(car.Images), encodeList(car.Features), car.Description, car.LicensePlate, car.Mileage, car.IsActive,
		now, now)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert car: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	car.ID = uint64(id)
	car.CreatedAt, car.UpdatedAt = now, now
	return nil
}

// Update writes the client-editable listing fields of car. Rating and
// booking counters are maintained elsewhere and are not touched here.
func (r *CarRepo) Update(ctx context.Context, car *model.Car) error {
	const q = `UPDATE cars SET brand = ?, model = ?, year = ?, category = ?, transmission = ?, fuel_type = ?,
		seats = ?, price_per_day = ?, city = ?, address = ?, state = ?, pincode = ?, latitude = ?, longitude = ?,
		images = ?, features = ?, description = ?, license_plate = ?, mileage = ?, is_active = ?, updated_at = ?
		WHERE id = ?`
	now := time.Now().UTC()
	lat, lng := coords(car.Location)
	res, err := r.db.ExecContext(ctx, q,
		car.Brand, car.Model, car.Year, car.Category, car.Transmission, car.FuelType,
		car.Seats, car.PricePerDay, car.Location.City, car.Location.Address, car.Location.State, car.Location.Pincode, lat, lng,
		encodeList(car.Images), encodeList(car.Features), car.Description, car.LicensePlate, car.Mileage, car.IsActive, now,
		car.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update car: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 for unchanged rows too; confirm existence.
		var one int
		if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM cars WHERE id = ?", car.ID).Scan(&one); err != nil {
			return notFound(err)
		}
	}
	car.UpdatedAt = now
	return nil
}

// Delete hard-deletes a car row.
func (r *CarRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cars WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete car: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive flips the listing visibility flag.
func (r *CarRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	_, err := r.db.ExecContext(ctx, "UPDATE cars SET is_active = ?, updated_at = ? WHERE id = ?", active, time.Now().UTC(), id)
	return err
}

// SetRatingTx stores a recomputed rating inside tx.
func (r *CarRepo) SetRatingTx(ctx context.Context, tx *sql.Tx, id uint64, rating model.Rating) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE cars SET rating_average = ?, rating_count = ? WHERE id = ?",
		rating.Average, rating.Count, id)
	return err
}

// AddCompletedTx credits a completed booking to the car's counters.
func (r *CarRepo) AddCompletedTx(ctx context.Context, tx *sql.Tx, id uint64, amount float64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE cars SET total_bookings = total_bookings + 1, total_earnings = total_earnings + ? WHERE id = ?",
		amount, id)
	return err
}

// ListByHost returns the host's cars newest first, each with the number of
// confirmed, active or completed bookings it has.
func (r *CarRepo) ListByHost(ctx context.Context, hostID uint64) ([]model.CarWithBookingCount, error) {
	q := `SELECT ` + carColumns + `,
			(SELECT COUNT(*) FROM bookings b
			 WHERE b.car_id = c.id AND b.status IN ('confirmed','active','completed')) AS booking_count
		FROM cars c
		WHERE c.host_id = ?
		ORDER BY c.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.CarWithBookingCount, 0)
	for rows.Next() {
		var count int
		car, err := scanCar(rows, &count)
		if err != nil {
			return nil, err
		}
		out = append(out, model.CarWithBookingCount{Car: *car, BookingCount: count})
	}
	return out, rows.Err()
}

// HostStats aggregates the host dashboard numbers.
func (r *CarRepo) HostStats(ctx context.Context, hostID uint64) (model.HostStats, error) {
	var (
		st  model.HostStats
		avg sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_active), 0),
			AVG(CASE WHEN rating_count > 0 THEN rating_average END)
		 FROM cars WHERE host_id = ?`, hostID).Scan(&st.TotalCars, &st.ActiveCars, &avg)
	if err != nil {
		return st, err
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'completed' AND payment_status = 'paid' THEN total_amount END), 0)
		 FROM bookings
		 WHERE host_id = ? AND status IN ('confirmed','active','completed')`, hostID).Scan(&st.TotalBookings, &st.TotalRevenue)
	if err != nil {
		return st, err
	}
	if avg.Valid {
		st.AvgRating = math.Round(avg.Float64*10) / 10
	}
	return st, nil
}

// ReconcileRatings recomputes rating_average and rating_count from the
// reviews stored on completed bookings and rewrites the rows that drifted.
// It returns the number of cars corrected.
func (r *CarRepo) ReconcileRatings(ctx context.Context) (int64, error) {
	const q = `UPDATE cars c
		LEFT JOIN (
			SELECT car_id, AVG(review_rating) AS avg_rating, COUNT(*) AS cnt
			FROM bookings
			WHERE status = 'completed' AND review_rating IS NOT NULL
			GROUP BY car_id
		) r ON r.car_id = c.id
		SET c.rating_average = COALESCE(r.avg_rating, 0), c.rating_count = COALESCE(r.cnt, 0)
		WHERE c.rating_count <> COALESCE(r.cnt, 0)
		   OR ABS(c.rating_average - COALESCE(r.avg_rating, 0)) > 0.0001`
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("reconcile ratings: %w", err)
	}
	return res.RowsAffected()
}

// DistinctCities lists up to limit cities that have an active listing.
func (r *CarRepo) DistinctCities(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT city FROM cars WHERE is_active = 1 ORDER BY city LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]string, 0, limit)
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, err
		}
		out = append(out, city)
	}
	return out, rows.Err()
}

// TopCategory returns the category with the most active listings, or ""
// when there are none.
func (r *CarRepo) TopCategory(ctx context.Context) (string, error) {
	var cat string
	err := r.db.QueryRowContext(ctx,
		`SELECT category FROM cars WHERE is_active = 1
		 GROUP BY category ORDER BY COUNT(*) DESC, category LIMIT 1`).Scan(&cat)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return cat, err
}
