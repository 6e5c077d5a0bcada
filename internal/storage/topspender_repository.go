package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-insight/internal/models"
)

// TopSpenderRepository persists the highest-spending wallet per UTC day.
// One row per day; re-scanning a day replaces the row.
type TopSpenderRepository struct {
	db *PostgresDB
}

// NewTopSpenderRepository creates a new top spender repository
func NewTopSpenderRepository(db *PostgresDB) *TopSpenderRepository {
	return &TopSpenderRepository{db: db}
}

// Save inserts or replaces the row for a day.
func (r *TopSpenderRepository) Save(ctx context.Context, spender *models.TopSpender) error {
	spender.DetectedAt = time.Now()

	query := `
		INSERT INTO top_spenders (day, blockchain, wallet, amount, detected_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (day)
		DO UPDATE SET
			blockchain = EXCLUDED.blockchain,
			wallet = EXCLUDED.wallet,
			amount = EXCLUDED.amount,
			detected_at = EXCLUDED.detected_at
	`

	_, err := r.db.Pool().Exec(ctx, query,
		spender.Day,
		spender.Blockchain,
		spender.Wallet,
		spender.Amount,
		spender.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save top spender: %w", err)
	}

	return nil
}

// Get retrieves the row for a day (YYYY-MM-DD). Returns nil when no scan
// has been stored for that day.
func (r *TopSpenderRepository) Get(ctx context.Context, day string) (*models.TopSpender, error) {
	query := `
		SELECT day, blockchain, wallet, amount, detected_at
		FROM top_spenders
		WHERE day = $1
	`

	var spender models.TopSpender
	err := r.db.Pool().QueryRow(ctx, query, day).Scan(
		&spender.Day,
		&spender.Blockchain,
		&spender.Wallet,
		&spender.Amount,
		&spender.DetectedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get top spender: %w", err)
	}

	return &spender, nil
}
