package offering

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"huletfish/internal/apperror"

	"github.com/jmoiron/sqlx"
)

var ErrOfferingNotFound = apperror.NotFound("offering not found")

const selectOffering = `
	SELECT
		o.id, o.host_id, o.title, o.description, o.category, o.price, o.duration,
		o.max_guests, o.min_guests, o.images, o.availability, o.is_active, o.is_approved,
		o.approval_note, u.host_approved, o.created_at, o.updated_at
	FROM offerings o
	JOIN users u ON u.id = o.host_id
`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, o *Offering) error {
	query := `
		INSERT INTO offerings (host_id, title, description, category, price, duration,
			max_guests, min_guests, images, availability, is_active, is_approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		o.HostID, o.Title, o.Description, o.Category, o.Price, o.Duration,
		o.MaxGuests, o.MinGuests, o.Images, o.Availability, o.IsActive, o.IsApproved,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert offering: %w", err)
	}

	return nil
}

func (r *repository) Update(ctx context.Context, o *Offering) error {
	query := `
		UPDATE offerings
		SET title = $2, description = $3, category = $4, price = $5, duration = $6,
			max_guests = $7, min_guests = $8, images = $9, availability = $10,
			is_approved = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		o.ID, o.Title, o.Description, o.Category, o.Price, o.Duration,
		o.MaxGuests, o.MinGuests, o.Images, o.Availability, o.IsApproved,
	).Scan(&o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOfferingNotFound
	}
	if err != nil {
		return fmt.Errorf("update offering %d: %w", o.ID, err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Offering, error) {
	var o Offering
	err := r.db.GetContext(ctx, &o, selectOffering+` WHERE o.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOfferingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get offering %d: %w", id, err)
	}

	return &o, nil
}

func (r *repository) ListPublic(ctx context.Context, filter ListFilter) ([]Offering, error) {
	query := selectOffering + ` WHERE o.is_active AND o.is_approved AND u.host_approved`
	args := []interface{}{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND o.category = $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	offerings := []Offering{}
	if err := r.db.SelectContext(ctx, &offerings, query, args...); err != nil {
		return nil, fmt.Errorf("list offerings: %w", err)
	}

	return offerings, nil
}

func (r *repository) ListByHost(ctx context.Context, hostID int) ([]Offering, error) {
	offerings := []Offering{}
	err := r.db.SelectContext(ctx, &offerings, selectOffering+` WHERE o.host_id = $1 ORDER BY o.created_at DESC`, hostID)
	if err != nil {
		return nil, fmt.Errorf("list offerings for host %d: %w", hostID, err)
	}

	return offerings, nil
}

func (r *repository) SetApproval(ctx context.Context, id int, approved bool, note string) error {
	query := `
		UPDATE offerings
		SET is_approved = $2, approval_note = $3, updated_at = NOW()
		WHERE id = $1
	`

	return r.execOne(ctx, query, id, approved, note)
}

func (r *repository) Deactivate(ctx context.Context, id int) error {
	query := `
		UPDATE offerings
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
	`

	return r.execOne(ctx, query, id)
}

func (r *repository) execOne(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrOfferingNotFound
	}

	return nil
}
