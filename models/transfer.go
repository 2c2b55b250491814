package models

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// TransferKind describes why value moved
type TransferKind string

const (
	TransferKindPayout   TransferKind = "payout"
	TransferKindDeposit  TransferKind = "deposit"
	TransferKindWithdraw TransferKind = "withdraw"
)

// Transfer is one journaled value movement
type Transfer struct {
	ID           int64            `db:"id" json:"id"`
	SettlementID *uuid.UUID       `db:"settlement_id" json:"settlement_id,omitempty"`
	Kind         TransferKind     `db:"kind" json:"kind"`
	Role         PayeeRole        `db:"role" json:"role,omitempty"`
	From         solana.PublicKey `db:"from_address" json:"from"`
	To           solana.PublicKey `db:"to_address" json:"to"`
	Asset        solana.PublicKey `db:"asset" json:"asset"` // zero key for native value
	Amount       uint64           `db:"amount" json:"amount"`
	BalanceAfter uint64           `db:"balance_after" json:"balance_after"` // source balance after the movement
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}
