package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"huletfish/internal/apperror"
	"huletfish/internal/db"

	"github.com/jmoiron/sqlx"
)

var ErrUserNotFound = apperror.NotFound("user not found")

const selectUser = `
	SELECT id, name, email, password_hash, role, host_approved, created_at
	FROM users
`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, password_hash, role, host_approved, created_at
	`

	var user User
	if err := r.db.GetContext(ctx, &user, query, name, email, passwordHash, role); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, selectUser+` WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, selectUser+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	return db.Exists(ctx, r.db, query, email)
}

func (r *repository) ApproveHost(ctx context.Context, id int) error {
	query := `UPDATE users SET host_approved = TRUE WHERE id = $1 AND role = 'host'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
