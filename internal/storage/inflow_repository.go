package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/types"
)

// InflowRepository archives the normalized records each aggregation run
// observed. Rows are append-only; the archive is a queryable history, not
// a source of truth for the wallet totals.
type InflowRepository struct {
	db *ClickHouseDB
}

// NewInflowRepository creates a new inflow archive repository
func NewInflowRepository(db *ClickHouseDB) *InflowRepository {
	return &InflowRepository{db: db}
}

// InsertBatch appends one run's records.
func (r *InflowRepository) InsertBatch(ctx context.Context, inflows []*models.Inflow) error {
	if len(inflows) == 0 {
		return nil
	}

	batch, err := r.db.Conn().PrepareBatch(ctx, `
		INSERT INTO wallet_inflows (run_id, blockchain, address, amount, token, timestamp, ingested_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare inflow batch: %w", err)
	}

	now := time.Now()
	for _, inflow := range inflows {
		ingested := inflow.IngestedAt
		if ingested.IsZero() {
			ingested = now
		}
		if err := batch.Append(
			inflow.RunID,
			string(inflow.Blockchain),
			inflow.Address,
			inflow.Amount,
			inflow.Token,
			inflow.Timestamp,
			ingested,
		); err != nil {
			return fmt.Errorf("failed to append inflow: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send inflow batch: %w", err)
	}

	return nil
}

// ListByAddress returns archived records for one wallet, newest first.
func (r *InflowRepository) ListByAddress(ctx context.Context, chain types.ChainID, address string, limit int) ([]*models.Inflow, error) {
	query := `
		SELECT run_id, blockchain, address, amount, token, timestamp, ingested_at
		FROM wallet_inflows
		WHERE blockchain = ? AND address = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := r.db.Conn().Query(ctx, query, string(chain), address, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query inflows: %w", err)
	}
	defer rows.Close()

	var inflows []*models.Inflow
	for rows.Next() {
		var inflow models.Inflow
		var blockchain string
		if err := rows.Scan(
			&inflow.RunID,
			&blockchain,
			&inflow.Address,
			&inflow.Amount,
			&inflow.Token,
			&inflow.Timestamp,
			&inflow.IngestedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan inflow: %w", err)
		}
		inflow.Blockchain = types.ChainID(blockchain)
		inflows = append(inflows, &inflow)
	}

	return inflows, rows.Err()
}
