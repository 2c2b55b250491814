package models

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// SettlementResultSize is the encoded size of a SettlementResult (u32 id + 32 byte key)
const SettlementResultSize = 4 + solana.PublicKeyLength

// SettlementResult is the record written once into the result-storage account
type SettlementResult struct {
	LotteryID uint32           `json:"lottery_id"`
	Winner    solana.PublicKey `json:"winner"`
}

// Settlement is the audit row kept alongside the on-ledger result record
type Settlement struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	LotteryID     uint32           `db:"lottery_id" json:"lottery_id"`
	ResultAddress solana.PublicKey `db:"result_address" json:"result_address"`
	PoolAddress   solana.PublicKey `db:"pool_address" json:"pool_address"`
	Winner        solana.PublicKey `db:"winner" json:"winner"`
	WinnerIndex   uint32           `db:"winner_index" json:"winner_index"`
	PoolAmount    uint64           `db:"pool_amount" json:"pool_amount"`
	WinnerAmount  uint64           `db:"winner_amount" json:"winner_amount"`
	Participants  int              `db:"participants" json:"participants"`
	SettledAt     time.Time        `db:"settled_at" json:"settled_at"`
}

// SettlementReport is what a successful settlement hands back to its caller
type SettlementReport struct {
	Settlement *Settlement       `json:"settlement"`
	Result     *SettlementResult `json:"result"`
	Payouts    []Payout          `json:"payouts"`
}
