package repository

import (
	"context"
	"fmt"

	"lottery/database"
	"lottery/models"
	"lottery/service"

	"github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5"
)

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

const accountColumns = `address, owner, lamports, data, created_at, updated_at`

// Get retrieves an account by address, nil if it does not exist
func (r *AccountRepository) Get(ctx context.Context, address solana.PublicKey) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE address = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, address.String()))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", address, err)
	}

	return account, nil
}

// GetForUpdate locks every requested row. Rows are locked in address order so that
// concurrent settlements sharing accounts cannot deadlock.
func (r *AccountRepository) GetForUpdate(ctx context.Context, addresses []solana.PublicKey) (map[solana.PublicKey]*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE address = ANY($1)
		ORDER BY address
		FOR UPDATE
	`

	rows, err := r.q.Query(ctx, query, keyStrings(addresses))
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}
	defer rows.Close()

	accounts := make(map[solana.PublicKey]*models.Account, len(addresses))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts[account.Address] = account
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	for _, address := range addresses {
		if _, ok := accounts[address]; !ok {
			return nil, fmt.Errorf("%w: %s", service.ErrAccountNotFound, address)
		}
	}

	return accounts, nil
}

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	lamports, err := toBigint(account.Lamports)
	if err != nil {
		return err
	}
	data := account.Data
	if data == nil {
		data = []byte{}
	}

	query := `
		INSERT INTO accounts (address, owner, lamports, data)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err = r.q.QueryRow(ctx, query,
		account.Address.String(),
		account.Owner.String(),
		lamports,
		data,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account %s: %w", account.Address, err)
	}

	return nil
}

// UpdateLamports overwrites the native balance of an account
func (r *AccountRepository) UpdateLamports(ctx context.Context, address solana.PublicKey, lamports uint64) error {
	value, err := toBigint(lamports)
	if err != nil {
		return err
	}

	query := `UPDATE accounts SET lamports = $2, updated_at = NOW() WHERE address = $1`

	result, err := r.q.Exec(ctx, query, address.String(), value)
	if err != nil {
		return fmt.Errorf("failed to update lamports for %s: %w", address, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", service.ErrAccountNotFound, address)
	}

	return nil
}

// UpdateData overwrites the data of an account
func (r *AccountRepository) UpdateData(ctx context.Context, address solana.PublicKey, data []byte) error {
	query := `UPDATE accounts SET data = $2, updated_at = NOW() WHERE address = $1`

	result, err := r.q.Exec(ctx, query, address.String(), data)
	if err != nil {
		return fmt.Errorf("failed to update data for %s: %w", address, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", service.ErrAccountNotFound, address)
	}

	return nil
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var (
		account  models.Account
		address  string
		owner    string
		lamports int64
	)
	if err := row.Scan(&address, &owner, &lamports, &account.Data, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if account.Address, err = parseKey(address); err != nil {
		return nil, err
	}
	if account.Owner, err = parseKey(owner); err != nil {
		return nil, err
	}
	if account.Lamports, err = fromBigint(lamports); err != nil {
		return nil, err
	}

	return &account, nil
}
