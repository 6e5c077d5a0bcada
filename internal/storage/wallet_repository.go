package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/types"
)

// WalletRepository persists aggregated wallet rows. One row per
// (wallet_address, blockchain); upserts replace the stored totals rather
// than accumulating into them.
type WalletRepository struct {
	db *PostgresDB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *PostgresDB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Upsert inserts or replaces the wallet row. Last write wins.
func (r *WalletRepository) Upsert(ctx context.Context, wallet *models.Wallet) error {
	wallet.LastUpdated = time.Now()

	query := `
		INSERT INTO wallets (wallet_address, blockchain, total_received, transaction_count, last_updated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (wallet_address, blockchain)
		DO UPDATE SET
			total_received = EXCLUDED.total_received,
			transaction_count = EXCLUDED.transaction_count,
			last_updated = EXCLUDED.last_updated
	`

	_, err := r.db.Pool().Exec(ctx, query,
		wallet.Address,
		wallet.Blockchain,
		wallet.TotalReceived,
		wallet.TransactionCount,
		wallet.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert wallet: %w", err)
	}

	return nil
}

// Get retrieves a wallet row by address and chain. Returns nil when the
// wallet is unknown.
func (r *WalletRepository) Get(ctx context.Context, address string, chain types.ChainID) (*models.Wallet, error) {
	query := `
		SELECT wallet_address, blockchain, total_received, transaction_count, last_updated
		FROM wallets
		WHERE wallet_address = $1 AND blockchain = $2
	`

	var wallet models.Wallet
	err := r.db.Pool().QueryRow(ctx, query, address, chain).Scan(
		&wallet.Address,
		&wallet.Blockchain,
		&wallet.TotalReceived,
		&wallet.TransactionCount,
		&wallet.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return &wallet, nil
}

// ListByChain retrieves wallet rows for a chain, repeat buyers first,
// richest first within each cohort.
func (r *WalletRepository) ListByChain(ctx context.Context, chain types.ChainID, limit int) ([]*models.Wallet, error) {
	query := `
		SELECT wallet_address, blockchain, total_received, transaction_count, last_updated
		FROM wallets
		WHERE blockchain = $1
		ORDER BY (transaction_count > 2) DESC, total_received DESC
		LIMIT $2
	`

	rows, err := r.db.Pool().Query(ctx, query, chain, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*models.Wallet
	for rows.Next() {
		var wallet models.Wallet
		if err := rows.Scan(
			&wallet.Address,
			&wallet.Blockchain,
			&wallet.TotalReceived,
			&wallet.TransactionCount,
			&wallet.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, &wallet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallets: %w", err)
	}

	return wallets, nil
}

// Count returns the number of stored wallet rows for a chain.
func (r *WalletRepository) Count(ctx context.Context, chain types.ChainID) (int64, error) {
	var count int64
	err := r.db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM wallets WHERE blockchain = $1`, chain).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count wallets: %w", err)
	}
	return count, nil
}
