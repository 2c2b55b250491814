package repository

import (
	"context"
	"math"
	"testing"

	"lottery/repository/testutil"
	"lottery/service"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("account not found", func(t *testing.T) {
		account, err := repo.Get(ctx, testutil.TestKey(0x99))
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("token account round trip", func(t *testing.T) {
		created := testutil.CreateTestTokenAccount(0x01, testutil.TestKey(0xE0), testutil.TestKey(0x02), 42)
		require.NoError(t, repo.Create(ctx, created))
		assert.False(t, created.CreatedAt.IsZero())

		account, err := repo.Get(ctx, created.Address)
		require.NoError(t, err)
		require.NotNil(t, account)

		assert.Equal(t, created.Address, account.Address)
		assert.Equal(t, solana.TokenProgramID, account.Owner)
		assert.Equal(t, created.Lamports, account.Lamports)
		assert.Equal(t, created.Data, account.Data)
		assert.False(t, account.IsSigner)
	})

	t.Run("duplicate address", func(t *testing.T) {
		wallet := testutil.CreateTestWallet(0x03, 10)
		require.NoError(t, repo.Create(ctx, wallet))
		assert.Error(t, repo.Create(ctx, testutil.CreateTestWallet(0x03, 20)))
	})

	t.Run("balance beyond storable range", func(t *testing.T) {
		assert.Error(t, repo.Create(ctx, testutil.CreateTestWallet(0x04, math.MaxUint64)))
	})
}

func TestAccountRepository_Updates(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	wallet := testutil.CreateTestWallet(0x10, 1_000)
	testutil.SeedAccounts(t, testDB.DB, wallet)

	require.NoError(t, repo.UpdateLamports(ctx, wallet.Address, 250))
	require.NoError(t, repo.UpdateData(ctx, wallet.Address, []byte{1, 2, 3}))

	account, err := repo.Get(ctx, wallet.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), account.Lamports)
	assert.Equal(t, []byte{1, 2, 3}, account.Data)

	err = repo.UpdateLamports(ctx, testutil.TestKey(0x77), 1)
	assert.ErrorIs(t, err, service.ErrAccountNotFound)

	err = repo.UpdateData(ctx, testutil.TestKey(0x77), nil)
	assert.ErrorIs(t, err, service.ErrAccountNotFound)
}

func TestAccountRepository_GetForUpdate(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	testutil.SeedAccounts(t, testDB.DB,
		testutil.CreateTestWallet(0x20, 1),
		testutil.CreateTestWallet(0x21, 2),
		testutil.CreateTestWallet(0x22, 3),
	)

	tx, err := testDB.DB.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	repo := newAccountRepositoryWithTx(tx)

	t.Run("all present", func(t *testing.T) {
		accounts, err := repo.GetForUpdate(ctx, []solana.PublicKey{testutil.TestKey(0x22), testutil.TestKey(0x20)})
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, uint64(3), accounts[testutil.TestKey(0x22)].Lamports)
		assert.Equal(t, uint64(1), accounts[testutil.TestKey(0x20)].Lamports)
	})

	t.Run("one missing", func(t *testing.T) {
		_, err := repo.GetForUpdate(ctx, []solana.PublicKey{testutil.TestKey(0x21), testutil.TestKey(0x88)})
		assert.ErrorIs(t, err, service.ErrAccountNotFound)
	})
}
