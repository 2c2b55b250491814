package testutil

import (
	"context"
	"testing"

	"lottery/database"
	"lottery/models"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

// TestKey returns a deterministic address filled with n
func TestKey(n byte) solana.PublicKey {
	var key solana.PublicKey
	for i := range key {
		key[i] = n
	}
	return key
}

// CreateTestWallet creates a system-owned account holding native value
func CreateTestWallet(n byte, lamports uint64) *models.Account {
	return &models.Account{
		Address:  TestKey(n),
		Owner:    solana.SystemProgramID,
		Lamports: lamports,
		Data:     []byte{},
	}
}

// CreateTestTokenAccount creates a token holding of mint controlled by owner
func CreateTestTokenAccount(n byte, mint, owner solana.PublicKey, amount uint64) *models.Account {
	return &models.Account{
		Address:  TestKey(n),
		Owner:    solana.TokenProgramID,
		Lamports: 2_039_280,
		Data:     models.EncodeTokenHolding(&models.TokenHolding{Mint: mint, Owner: owner, Amount: amount}),
	}
}

// CreateTestResultStorage creates an empty result account owned by program
func CreateTestResultStorage(n byte, program solana.PublicKey, lamports uint64) *models.Account {
	return &models.Account{
		Address:  TestKey(n),
		Owner:    program,
		Lamports: lamports,
		Data:     make([]byte, models.SettlementResultSize),
	}
}

// SeedAccounts inserts accounts directly through the pool
func SeedAccounts(t *testing.T, db *database.DB, accounts ...*models.Account) {
	ctx := context.Background()
	for _, a := range accounts {
		_, err := db.Exec(ctx,
			`INSERT INTO accounts (address, owner, lamports, data) VALUES ($1, $2, $3, $4)`,
			a.Address.String(), a.Owner.String(), int64(a.Lamports), a.Data,
		)
		require.NoError(t, err)
	}
}
