package repository

import (
	"context"
	"fmt"

	"lottery/database"
	"lottery/models"

	"github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5"
)

// SettlementRepository implements the SettlementRepository interface
type SettlementRepository struct {
	q queryable
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db *database.DB) *SettlementRepository {
	return &SettlementRepository{q: db.Pool}
}

// newSettlementRepositoryWithTx creates a new settlement repository with a transaction
func newSettlementRepositoryWithTx(tx queryable) *SettlementRepository {
	return &SettlementRepository{q: tx}
}

const settlementColumns = `id, lottery_id, result_address, pool_address, winner, winner_index,
	pool_amount, winner_amount, participants, settled_at`

// Create inserts the audit row for a completed settlement
func (r *SettlementRepository) Create(ctx context.Context, settlement *models.Settlement) error {
	poolAmount, err := toBigint(settlement.PoolAmount)
	if err != nil {
		return err
	}
	winnerAmount, err := toBigint(settlement.WinnerAmount)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO settlements (` + settlementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.q.Exec(ctx, query,
		settlement.ID,
		int64(settlement.LotteryID),
		settlement.ResultAddress.String(),
		settlement.PoolAddress.String(),
		settlement.Winner.String(),
		int64(settlement.WinnerIndex),
		poolAmount,
		winnerAmount,
		settlement.Participants,
		settlement.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create settlement for lottery %d: %w", settlement.LotteryID, err)
	}

	return nil
}

// GetByResultAddress returns the settlement recorded into a result account, nil if none
func (r *SettlementRepository) GetByResultAddress(ctx context.Context, address solana.PublicKey) (*models.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE result_address = $1`

	settlement, err := scanSettlement(r.q.QueryRow(ctx, query, address.String()))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement for %s: %w", address, err)
	}

	return settlement, nil
}

// GetByLotteryID returns settlements for a lottery id, newest first
func (r *SettlementRepository) GetByLotteryID(ctx context.Context, lotteryID uint32) ([]*models.Settlement, error) {
	query := `
		SELECT ` + settlementColumns + `
		FROM settlements
		WHERE lottery_id = $1
		ORDER BY settled_at DESC
	`

	rows, err := r.q.Query(ctx, query, int64(lotteryID))
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements for lottery %d: %w", lotteryID, err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settlements: %w", err)
	}

	return settlements, nil
}

func scanSettlement(row pgx.Row) (*models.Settlement, error) {
	var (
		settlement               models.Settlement
		lotteryID, winnerIndex   int64
		result, pool, winner     string
		poolAmount, winnerAmount int64
	)
	err := row.Scan(
		&settlement.ID,
		&lotteryID,
		&result,
		&pool,
		&winner,
		&winnerIndex,
		&poolAmount,
		&winnerAmount,
		&settlement.Participants,
		&settlement.SettledAt,
	)
	if err != nil {
		return nil, err
	}

	settlement.LotteryID = uint32(lotteryID)
	settlement.WinnerIndex = uint32(winnerIndex)
	if settlement.ResultAddress, err = parseKey(result); err != nil {
		return nil, err
	}
	if settlement.PoolAddress, err = parseKey(pool); err != nil {
		return nil, err
	}
	if settlement.Winner, err = parseKey(winner); err != nil {
		return nil, err
	}
	if settlement.PoolAmount, err = fromBigint(poolAmount); err != nil {
		return nil, err
	}
	if settlement.WinnerAmount, err = fromBigint(winnerAmount); err != nil {
		return nil, err
	}

	return &settlement, nil
}
