package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcosta87/eventos/internal/model"
)

// OrganizerRepository handles persistence for organizer accounts.
type OrganizerRepository struct {
	db *pgxpool.Pool
}

// NewOrganizerRepository constructs an OrganizerRepository.
func NewOrganizerRepository(db *pgxpool.Pool) *OrganizerRepository {
	return &OrganizerRepository{db: db}
}

// GetByUsername returns an organizer or ErrNotFound.
func (r *OrganizerRepository) GetByUsername(ctx context.Context, username string) (*model.Organizer, error) {
	var o model.Organizer
	err := r.db.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at
		 FROM organizers WHERE username = $1`,
		username,
	).Scan(&o.ID, &o.Username, &o.PasswordHash, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get organizer: %w", err)
	}
	return &o, nil
}

// Create inserts a new organizer with an already-hashed password.
func (r *OrganizerRepository) Create(ctx context.Context, username, passwordHash string) (*model.Organizer, error) {
	o := &model.Organizer{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO organizers (id, username, password_hash, created_at)
		 VALUES ($1, $2, $3, $4)`,
		o.ID, o.Username, o.PasswordHash, o.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert organizer: %w", err)
	}
	return o, nil
}

// Count returns the number of organizer accounts.
func (r *OrganizerRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM organizers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count organizers: %w", err)
	}
	return n, nil
}
