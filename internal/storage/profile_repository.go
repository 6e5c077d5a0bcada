package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-insight/internal/models"
)

// ProfileRepository persists spending profiles. One row per wallet
// address; Save replaces the whole row, matching the classifier's
// recompute-in-full lifecycle.
type ProfileRepository struct {
	db *PostgresDB
}

// NewProfileRepository creates a new spending profile repository
func NewProfileRepository(db *PostgresDB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Save inserts or replaces the profile for a wallet. A save after a
// narrower analysis window erases whatever the previous row held.
func (r *ProfileRepository) Save(ctx context.Context, profile *models.SpendingProfile) error {
	profile.UpdatedAt = time.Now()

	tokenJSON, err := json.Marshal(profile.RepeatedTokenTrades)
	if err != nil {
		return fmt.Errorf("failed to marshal token counts: %w", err)
	}

	query := `
		INSERT INTO spending_profiles (wallet_address, frequent_small_trades, repeated_token_trades, large_spends, is_demo, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (wallet_address)
		DO UPDATE SET
			frequent_small_trades = EXCLUDED.frequent_small_trades,
			repeated_token_trades = EXCLUDED.repeated_token_trades,
			large_spends = EXCLUDED.large_spends,
			is_demo = EXCLUDED.is_demo,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.Pool().Exec(ctx, query,
		profile.WalletAddress,
		profile.FrequentSmallTrades,
		tokenJSON,
		profile.LargeSpends,
		profile.IsDemo,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save spending profile: %w", err)
	}

	return nil
}

// Get retrieves the profile for a wallet. Returns nil when no analysis
// has been stored.
func (r *ProfileRepository) Get(ctx context.Context, walletAddress string) (*models.SpendingProfile, error) {
	query := `
		SELECT wallet_address, frequent_small_trades, repeated_token_trades, large_spends, is_demo, updated_at
		FROM spending_profiles
		WHERE wallet_address = $1
	`

	var profile models.SpendingProfile
	var tokenJSON []byte

	err := r.db.Pool().QueryRow(ctx, query, walletAddress).Scan(
		&profile.WalletAddress,
		&profile.FrequentSmallTrades,
		&tokenJSON,
		&profile.LargeSpends,
		&profile.IsDemo,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get spending profile: %w", err)
	}

	if len(tokenJSON) > 0 {
		if err := json.Unmarshal(tokenJSON, &profile.RepeatedTokenTrades); err != nil {
			return nil, fmt.Errorf("failed to unmarshal token counts: %w", err)
		}
	}

	return &profile, nil
}

// ListFlagged retrieves profiles currently carrying the demo flag.
func (r *ProfileRepository) ListFlagged(ctx context.Context, limit int) ([]*models.SpendingProfile, error) {
	query := `
		SELECT wallet_address, frequent_small_trades, repeated_token_trades, large_spends, is_demo, updated_at
		FROM spending_profiles
		WHERE is_demo = true
		ORDER BY updated_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list flagged profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.SpendingProfile
	for rows.Next() {
		var profile models.SpendingProfile
		var tokenJSON []byte
		if err := rows.Scan(
			&profile.WalletAddress,
			&profile.FrequentSmallTrades,
			&tokenJSON,
			&profile.LargeSpends,
			&profile.IsDemo,
			&profile.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan spending profile: %w", err)
		}
		if len(tokenJSON) > 0 {
			if err := json.Unmarshal(tokenJSON, &profile.RepeatedTokenTrades); err != nil {
				return nil, fmt.Errorf("failed to unmarshal token counts: %w", err)
			}
		}
		profiles = append(profiles, &profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}

	return profiles, nil
}
