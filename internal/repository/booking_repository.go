package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/car-rental-marketplace/internal/model"
)

// BookingRepo provides access to the bookings table. A booking's review
// lives in the review_rating / review_comment / review_created_at columns
// and is NULL until the renter reviews the completed rental.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `b.id, b.user_id, b.car_id, b.host_id, b.start_date, b.end_date, b.pickup_time, b.dropoff_time,
	b.total_days, b.price_per_day, b.total_amount, b.status, b.payment_status, b.payment_method, b.transaction_id,
	b.cancellation_reason, b.cancelled_by, b.cancelled_at, b.review_rating, b.review_comment, b.review_created_at,
	b.created_at, b.updated_at`

// bookingDetailSelect joins the car summary, the host and the renter.
const bookingDetailSelect = `SELECT ` + bookingColumns + `,
		c.brand, c.model, c.year, c.images, c.category, c.price_per_day, c.city, c.address, c.state, c.pincode,
		h.full_name, h.email, h.phone, h.profile_image,
		u.full_name, u.email, u.phone, u.profile_image
	FROM bookings b
	JOIN cars c ON c.id = b.car_id
	LEFT JOIN users h ON h.id = b.host_id
	LEFT JOIN users u ON u.id = b.user_id`

func scanBooking(s rowScanner, extra ...any) (*model.Booking, error) {
	var (
		b                           model.Booking
		payMethod, txID, reason, by sql.NullString
		cancelledAt, reviewAt       sql.NullTime
		reviewRating                sql.NullInt64
		reviewComment               sql.NullString
	)
	dest := []any{
		&b.ID, &b.UserID, &b.CarID, &b.HostID, &b.StartDate, &b.EndDate, &b.PickupTime, &b.DropoffTime,
		&b.TotalDays, &b.PricePerDay, &b.TotalAmount, &b.Status, &b.PaymentStatus, &payMethod, &txID,
		&reason, &by, &cancelledAt, &reviewRating, &reviewComment, &reviewAt,
		&b.CreatedAt, &b.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	b.PaymentMethod = nullString(payMethod)
	b.TransactionID = nullString(txID)
	b.CancellationReason = nullString(reason)
	b.CancelledBy = nullString(by)
	if cancelledAt.Valid {
		t := cancelledAt.Time
		b.CancelledAt = &t
	}
	if reviewRating.Valid {
		b.Review = &model.Review{Rating: int(reviewRating.Int64), Comment: reviewComment.String, CreatedAt: reviewAt.Time}
	}
	return &b, nil
}

func scanBookingDetail(s rowScanner) (*model.Booking, error) {
	var (
		car                     model.CarSummary
		images                  []byte
		address, state, pincode sql.NullString
		host, user              hostRef
	)
	extra := []any{&car.Brand, &car.Model, &car.Year, &images, &car.Category, &car.PricePerDay,
		&car.Location.City, &address, &state, &pincode}
	extra = append(extra, host.dest()...)
	extra = append(extra, user.dest()...)
	b, err := scanBooking(s, extra...)
	if err != nil {
		return nil, err
	}
	car.ID = b.CarID
	car.Images = decodeList(images)
	car.Location.Address = address.String
	car.Location.State = state.String
	car.Location.Pincode = pincode.String
	b.Car = &car
	b.Host = host.ref(b.HostID)
	b.User = user.ref(b.UserID)
	return b, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// GetByID returns a booking with its car, host and renter summaries.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := scanBookingDetail(r.db.QueryRowContext(ctx, bookingDetailSelect+` WHERE b.id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

// GetForUpdateTx loads the bare booking row and locks it until tx ends.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	b, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ? FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

// BlockingIntervalsTx lists the confirmed or active intervals of carID
// as seen inside tx. Callers hold the car row lock so the list cannot
// change until tx ends.
func (r *BookingRepo) BlockingIntervalsTx(ctx context.Context, tx *sql.Tx, carID uint64) ([]model.DateRange, error) {
	return intervals(ctx, tx, carID)
}

// CreateTx inserts b within tx and fills its ID and timestamps.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, car_id, host_id, start_date, end_date, pickup_time, dropoff_time,
		total_days, price_per_day, total_amount, status, payment_status, payment_method, transaction_id,
		created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, q,
		b.UserID, b.CarID, b.HostID, b.StartDate, b.EndDate, b.PickupTime, b.DropoffTime,
		b.TotalDays, b.PricePerDay, b.TotalAmount, b.Status, b.PaymentStatus, b.PaymentMethod, b.TransactionID,
		now, now)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.CreatedAt, b.UpdatedAt = now, now
	return nil
}

// UpdateStatusTx sets the status of a booking.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id)
	return err
}

// CancelTx marks a booking cancelled and records who cancelled it and why.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64, reason, by string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = 'cancelled', cancellation_reason = ?, cancelled_by = ?, cancelled_at = ?, updated_at = ?
		 WHERE id = ?`,
		reason, by, at, at, id)
	return err
}

// AddReviewTx attaches rv to a completed, not yet reviewed booking. It
// returns false when the guard matched no row, e.g. a concurrent review
// already landed.
func (r *BookingRepo) AddReviewTx(ctx context.Context, tx *sql.Tx, id uint64, rv model.Review) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET review_rating = ?, review_comment = ?, review_created_at = ?, updated_at = ?
		 WHERE id = ? AND review_rating IS NULL AND status = 'completed'`,
		rv.Rating, rv.Comment, rv.CreatedAt, rv.CreatedAt, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListByUser returns the renter's bookings newest first, optionally
// restricted to one status.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64, status string) ([]model.Booking, error) {
	return r.list(ctx, "b.user_id = ?", userID, status)
}

// ListByHost returns bookings of the host's cars newest first.
func (r *BookingRepo) ListByHost(ctx context.Context, hostID uint64, status string) ([]model.Booking, error) {
	return r.list(ctx, "b.host_id = ?", hostID, status)
}

func (r *BookingRepo) list(ctx context.Context, cond string, id uint64, status string) ([]model.Booking, error) {
	q := bookingDetailSelect + ` WHERE ` + cond
	args := []any{id}
	if status != "" {
		q += ` AND b.status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY b.created_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBookingDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// StatsForUser computes the renter dashboard counters relative to now.
func (r *BookingRepo) StatsForUser(ctx context.Context, userID uint64, now time.Time) (model.BookingStats, error) {
	const q = `SELECT
		COALESCE(SUM(CASE WHEN status IN ('confirmed','active') AND start_date >= ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status IN ('completed','active','confirmed') AND payment_status = 'paid'
			THEN total_amount ELSE 0 END), 0)
		FROM bookings WHERE user_id = ?`
	var st model.BookingStats
	err := r.db.QueryRowContext(ctx, q, now, userID).Scan(&st.UpcomingTrips, &st.CompletedTrips, &st.TotalSpent)
	return st, err
}

// BookedDates lists the intervals during which carID is reserved.
func (r *BookingRepo) BookedDates(ctx context.Context, carID uint64) ([]model.DateRange, error) {
	return intervals(ctx, r.db, carID)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func intervals(ctx context.Context, q queryer, carID uint64) ([]model.DateRange, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT start_date, end_date FROM bookings
		 WHERE car_id = ? AND status IN ('confirmed','active')
		 ORDER BY start_date`, carID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.DateRange, 0)
	for rows.Next() {
		var d model.DateRange
		if err := rows.Scan(&d.StartDate, &d.EndDate); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountBlockingForCar counts the confirmed or active bookings of carID.
func (r *BookingRepo) CountBlockingForCar(ctx context.Context, carID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE car_id = ? AND status IN ('confirmed','active')", carID).Scan(&n)
	return n, err
}
