package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/car-rental-marketplace/internal/model"
	"github.com/iliyamo/car-rental-marketplace/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, full_name, email, password_hash, role, phone, profile_image, is_active, created_at, updated_at"

func scanUser(s rowScanner) (model.User, error) {
	var (
		u            model.User
		phone, image sql.NullString
	)
	err := s.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &phone, &image, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	u.Phone = phone.String
	u.ProfileImage = image.String
	return u, notFound(err)
}

// Create hashes password and inserts the user, returning its ID.
func (r *UserRepo) Create(ctx context.Context, fullName, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (full_name, email, password_hash, role) VALUES (?,?,?,?)",
		strings.TrimSpace(fullName), email, hash, role)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// UpdateProfile changes the non-nil fields and returns the fresh row.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, fullName, phone *string) (model.User, error) {
	sets := []string{}
	args := []any{}
	if fullName != nil {
		sets = append(sets, "full_name=?")
		args = append(args, strings.TrimSpace(*fullName))
	}
	if phone != nil {
		sets = append(sets, "phone=?")
		args = append(args, strings.TrimSpace(*phone))
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at=?")
		args = append(args, time.Now().UTC(), id)
		if _, err := r.DB.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
			return model.User{}, err
		}
	}
	return r.GetByID(ctx, id)
}
