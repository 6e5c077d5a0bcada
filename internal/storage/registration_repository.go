package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wallet-insight/internal/models"
)

// RegistrationRepository persists user registrations. Usernames are
// write-once: a second insert for the same username is rejected without
// touching the stored row.
type RegistrationRepository struct {
	db *PostgresDB
}

// ErrUsernameTaken is returned when registering an existing username.
var ErrUsernameTaken = errors.New("username already registered")

// NewRegistrationRepository creates a new registration repository
func NewRegistrationRepository(db *PostgresDB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create inserts a registration. Returns ErrUsernameTaken when the
// username already exists.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	if reg.ID == "" {
		reg.ID = uuid.New().String()
	}
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now().UTC()
	}

	query := `
		INSERT INTO registrations (id, username, wallet_address, blockchain, registered_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO NOTHING
	`

	result, err := r.db.Pool().Exec(ctx, query,
		reg.ID,
		reg.Username,
		reg.WalletAddress,
		reg.Blockchain,
		reg.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create registration: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUsernameTaken
	}

	return nil
}

// GetByUsername retrieves a registration. Returns nil when unknown.
func (r *RegistrationRepository) GetByUsername(ctx context.Context, username string) (*models.Registration, error) {
	query := `
		SELECT id, username, wallet_address, blockchain, registered_at
		FROM registrations
		WHERE username = $1
	`

	var reg models.Registration
	err := r.db.Pool().QueryRow(ctx, query, username).Scan(
		&reg.ID,
		&reg.Username,
		&reg.WalletAddress,
		&reg.Blockchain,
		&reg.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}

	return &reg, nil
}

// List retrieves all registrations, newest first.
func (r *RegistrationRepository) List(ctx context.Context, limit, offset int) ([]*models.Registration, error) {
	query := `
		SELECT id, username, wallet_address, blockchain, registered_at
		FROM registrations
		ORDER BY registered_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Pool().Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var regs []*models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(
			&reg.ID,
			&reg.Username,
			&reg.WalletAddress,
			&reg.Blockchain,
			&reg.RegisteredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, &reg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registrations: %w", err)
	}

	return regs, nil
}
