package models

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Account is the fetched view of a single ledger account for the duration of one call.
// IsSigner and IsWritable come from the instruction that referenced the account, not from storage.
type Account struct {
	Address    solana.PublicKey `db:"address"`
	Owner      solana.PublicKey `db:"owner"`
	Lamports   uint64           `db:"lamports"`
	Data       []byte           `db:"data"`
	IsSigner   bool             `db:"-"`
	IsWritable bool             `db:"-"`
	CreatedAt  time.Time        `db:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at"`
}

// AccountMeta references an account by address inside an instruction
type AccountMeta struct {
	PublicKey  solana.PublicKey `json:"pubkey"`
	IsSigner   bool             `json:"is_signer"`
	IsWritable bool             `json:"is_writable"`
}

// IsOwnedBy reports whether the account is owned by the given program
func (a *Account) IsOwnedBy(program solana.PublicKey) bool {
	return a.Owner.Equals(program)
}

// IsZeroed reports whether every data byte is zero
func (a *Account) IsZeroed() bool {
	for _, b := range a.Data {
		if b != 0 {
			return false
		}
	}
	return true
}
