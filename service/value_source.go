package service

import (
	"context"
	"fmt"
	"math"

	"lottery/models"

	"github.com/gagliardetto/solana-go"
)

// ValueSource abstracts the asset a pool custodies. Transfers mutate the in-memory
// accounts and persist them through the ledger in the same unit of work.
type ValueSource interface {
	// Asset returns the mint being moved, the zero key for native value
	Asset() solana.PublicKey

	// Balance returns how much the account holds of the asset
	Balance(account *models.Account) (uint64, error)

	// CheckAuthority verifies that authority may move value out of source
	CheckAuthority(source, authority *models.Account) error

	// CheckDestination verifies that the account can receive the asset
	CheckDestination(dest *models.Account) error

	// Transfer moves amount from one account to another
	Transfer(ctx context.Context, accounts AccountRepository, from, to *models.Account, amount uint64) error
}

// NewValueSource builds the value source for a configured mode
func NewValueSource(mode string, payoutMint solana.PublicKey) (ValueSource, error) {
	switch mode {
	case "", "native":
		return NativeValueSource{}, nil
	case "token":
		if payoutMint.IsZero() {
			return nil, fmt.Errorf("token value source requires a payout mint")
		}
		return TokenValueSource{Mint: payoutMint}, nil
	default:
		return nil, fmt.Errorf("unknown value source %q", mode)
	}
}

// NativeValueSource moves lamports between system-owned wallets
type NativeValueSource struct{}

func (NativeValueSource) Asset() solana.PublicKey {
	return solana.PublicKey{}
}

func (NativeValueSource) Balance(account *models.Account) (uint64, error) {
	return account.Lamports, nil
}

func (NativeValueSource) CheckAuthority(source, authority *models.Account) error {
	if !authority.IsSigner {
		return fmt.Errorf("%w: %s did not sign", ErrUnauthorized, authority.Address)
	}
	if !source.IsOwnedBy(solana.SystemProgramID) {
		return fmt.Errorf("%w: %s is owned by %s, not the system program", ErrWrongOwner, source.Address, source.Owner)
	}
	if !source.Address.Equals(authority.Address) {
		return fmt.Errorf("%w: %s does not control %s", ErrUnauthorized, authority.Address, source.Address)
	}
	return nil
}

func (NativeValueSource) CheckDestination(dest *models.Account) error {
	return nil
}

func (NativeValueSource) Transfer(ctx context.Context, accounts AccountRepository, from, to *models.Account, amount uint64) error {
	if from.Address.Equals(to.Address) {
		return fmt.Errorf("%w: cannot transfer from %s to itself", ErrInvalidDestination, from.Address)
	}
	if from.Lamports < amount {
		return fmt.Errorf("%w: %s has %d, need %d", ErrInsufficientFunds, from.Address, from.Lamports, amount)
	}
	if to.Lamports > math.MaxUint64-amount {
		return fmt.Errorf("balance overflow crediting %s", to.Address)
	}

	if err := accounts.UpdateLamports(ctx, from.Address, from.Lamports-amount); err != nil {
		return fmt.Errorf("failed to debit %s: %w", from.Address, err)
	}
	if err := accounts.UpdateLamports(ctx, to.Address, to.Lamports+amount); err != nil {
		return fmt.Errorf("failed to credit %s: %w", to.Address, err)
	}

	from.Lamports -= amount
	to.Lamports += amount
	return nil
}

// TokenValueSource moves a fungible asset between token holdings of one mint
type TokenValueSource struct {
	Mint solana.PublicKey
}

func (s TokenValueSource) Asset() solana.PublicKey {
	return s.Mint
}

func (s TokenValueSource) holding(account *models.Account) (*models.TokenHolding, error) {
	if !account.IsOwnedBy(solana.TokenProgramID) {
		return nil, fmt.Errorf("%w: %s is owned by %s, not the token program", ErrWrongOwner, account.Address, account.Owner)
	}
	holding, err := models.DecodeTokenHolding(account.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAssetMismatch, account.Address, err)
	}
	if !holding.Mint.Equals(s.Mint) {
		return nil, fmt.Errorf("%w: %s holds %s, expected %s", ErrAssetMismatch, account.Address, holding.Mint, s.Mint)
	}
	return holding, nil
}

func (s TokenValueSource) Balance(account *models.Account) (uint64, error) {
	holding, err := s.holding(account)
	if err != nil {
		return 0, err
	}
	return holding.Amount, nil
}

func (s TokenValueSource) CheckAuthority(source, authority *models.Account) error {
	if !authority.IsSigner {
		return fmt.Errorf("%w: %s did not sign", ErrUnauthorized, authority.Address)
	}
	holding, err := s.holding(source)
	if err != nil {
		return err
	}
	if !holding.Owner.Equals(authority.Address) {
		return fmt.Errorf("%w: %s does not control %s", ErrUnauthorized, authority.Address, source.Address)
	}
	return nil
}

func (s TokenValueSource) CheckDestination(dest *models.Account) error {
	_, err := s.holding(dest)
	return err
}

func (s TokenValueSource) Transfer(ctx context.Context, accounts AccountRepository, from, to *models.Account, amount uint64) error {
	if from.Address.Equals(to.Address) {
		return fmt.Errorf("%w: cannot transfer from %s to itself", ErrInvalidDestination, from.Address)
	}
	src, err := s.holding(from)
	if err != nil {
		return err
	}
	dst, err := s.holding(to)
	if err != nil {
		return err
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: %s has %d, need %d", ErrInsufficientFunds, from.Address, src.Amount, amount)
	}
	if dst.Amount > math.MaxUint64-amount {
		return fmt.Errorf("balance overflow crediting %s", to.Address)
	}

	fromData, err := models.WithTokenAmount(from.Data, src.Amount-amount)
	if err != nil {
		return err
	}
	toData, err := models.WithTokenAmount(to.Data, dst.Amount+amount)
	if err != nil {
		return err
	}

	if err := accounts.UpdateData(ctx, from.Address, fromData); err != nil {
		return fmt.Errorf("failed to debit %s: %w", from.Address, err)
	}
	if err := accounts.UpdateData(ctx, to.Address, toData); err != nil {
		return fmt.Errorf("failed to credit %s: %w", to.Address, err)
	}

	from.Data = fromData
	to.Data = toData
	return nil
}
