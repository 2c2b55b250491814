package repository

import (
	"context"
	"fmt"

	"lottery/database"
	"lottery/models"

	"github.com/google/uuid"
)

// TransferRepository implements the TransferRepository interface
type TransferRepository struct {
	q queryable
}

// NewTransferRepository creates a new transfer repository
func NewTransferRepository(db *database.DB) *TransferRepository {
	return &TransferRepository{q: db.Pool}
}

// newTransferRepositoryWithTx creates a new transfer repository with a transaction
func newTransferRepositoryWithTx(tx queryable) *TransferRepository {
	return &TransferRepository{q: tx}
}

// Record appends a journal entry
func (r *TransferRepository) Record(ctx context.Context, transfer *models.Transfer) error {
	amount, err := toBigint(transfer.Amount)
	if err != nil {
		return err
	}
	balanceAfter, err := toBigint(transfer.BalanceAfter)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO transfers
		(settlement_id, kind, role, from_address, to_address, asset, amount, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		transfer.SettlementID,
		string(transfer.Kind),
		string(transfer.Role),
		transfer.From.String(),
		transfer.To.String(),
		transfer.Asset.String(),
		amount,
		balanceAfter,
	).Scan(&transfer.ID, &transfer.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record %s transfer from %s: %w", transfer.Kind, transfer.From, err)
	}

	return nil
}

// GetBySettlement returns every transfer made by one settlement, in execution order
func (r *TransferRepository) GetBySettlement(ctx context.Context, settlementID uuid.UUID) ([]*models.Transfer, error) {
	query := `
		SELECT id, settlement_id, kind, role, from_address, to_address, asset, amount, balance_after, created_at
		FROM transfers
		WHERE settlement_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, settlementID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers for settlement %s: %w", settlementID, err)
	}
	defer rows.Close()

	var transfers []*models.Transfer
	for rows.Next() {
		var (
			transfer       models.Transfer
			kind, role     string
			from, to, mint string
			amount, after  int64
		)
		err := rows.Scan(
			&transfer.ID,
			&transfer.SettlementID,
			&kind,
			&role,
			&from,
			&to,
			&mint,
			&amount,
			&after,
			&transfer.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}

		transfer.Kind = models.TransferKind(kind)
		transfer.Role = models.PayeeRole(role)
		if transfer.From, err = parseKey(from); err != nil {
			return nil, err
		}
		if transfer.To, err = parseKey(to); err != nil {
			return nil, err
		}
		if transfer.Asset, err = parseKey(mint); err != nil {
			return nil, err
		}
		if transfer.Amount, err = fromBigint(amount); err != nil {
			return nil, err
		}
		if transfer.BalanceAfter, err = fromBigint(after); err != nil {
			return nil, err
		}

		transfers = append(transfers, &transfer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfers: %w", err)
	}

	return transfers, nil
}
