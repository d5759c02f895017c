package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"skbeauty-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id uint) (User, error)
	UpdateProfile(ctx context.Context, id uint, params UpdateProfileParams) (User, error)
	UpdatePassword(ctx context.Context, id uint, hashedPassword string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const userColumns = `id, username, email, password, phone, alt_phone, address, city, salon, is_staff, created_at, updated_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Password,
		&u.Phone, &u.AltPhone, &u.Address, &u.City, &u.Salon,
		&u.IsStaff, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (r *repository) Create(ctx context.Context, u User) (User, error) {
	log := logger.FromCtx(ctx)

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password, phone, alt_phone, address, city, salon)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+userColumns,
		u.Username, u.Email, u.Password, u.Phone, u.AltPhone, u.Address, u.City, u.Salon,
	)

	created, err := scanUser(row)
	if err != nil {
		log.Error("db: failed to insert user",
			zap.String("username", u.Username),
			zap.Error(err),
		)
		if strings.Contains(err.Error(), "users_email_key") {
			return User{}, ErrEmailExists
		}
		if strings.Contains(err.Error(), "users_username_key") {
			return User{}, ErrUsernameExists
		}
		return User{}, err
	}

	return created, nil
}

func (r *repository) FindByUsername(ctx context.Context, username string) (User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (r *repository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (r *repository) FindByID(ctx context.Context, id uint) (User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (r *repository) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2
	`, hashedPassword, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) UpdateProfile(ctx context.Context, id uint, params UpdateProfileParams) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET phone      = COALESCE($1, phone),
		    alt_phone  = COALESCE($2, alt_phone),
		    address    = COALESCE($3, address),
		    city       = COALESCE($4, city),
		    salon      = COALESCE($5, salon),
		    updated_at = NOW()
		WHERE id = $6
		RETURNING `+userColumns,
		params.Phone, params.AltPhone, params.Address, params.City, params.Salon, id,
	)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}
