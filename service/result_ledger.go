package service

import (
	"context"
	"fmt"

	"lottery/models"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ResultLedger owns the settlement record kept in a pre-allocated, program-owned account
type ResultLedger struct {
	programID solana.PublicKey
	rent      Rent
}

// NewResultLedger creates a result ledger for accounts owned by programID
func NewResultLedger(programID solana.PublicKey, rent Rent) *ResultLedger {
	return &ResultLedger{
		programID: programID,
		rent:      rent,
	}
}

// CheckStorage verifies that storage can durably hold a result and does not hold one yet
func (l *ResultLedger) CheckStorage(storage *models.Account) error {
	if !storage.IsOwnedBy(l.programID) {
		return fmt.Errorf("%w: %w: result storage %s is owned by %s", ErrStorageNotFunded, ErrWrongOwner, storage.Address, storage.Owner)
	}
	if len(storage.Data) < models.SettlementResultSize {
		return fmt.Errorf("%w: result storage %s has %d bytes, need %d", ErrStorageNotFunded, storage.Address, len(storage.Data), models.SettlementResultSize)
	}
	if !l.rent.IsExempt(storage.Lamports, len(storage.Data)) {
		return fmt.Errorf("%w: result storage %s holds %d lamports, rent-exempt minimum is %d",
			ErrStorageNotFunded, storage.Address, storage.Lamports, l.rent.MinimumBalance(len(storage.Data)))
	}
	if !storage.IsZeroed() {
		return fmt.Errorf("%w: %s", ErrAlreadySettled, storage.Address)
	}
	return nil
}

// Write serializes result into storage. Callers run CheckStorage first.
func (l *ResultLedger) Write(ctx context.Context, accounts AccountRepository, storage *models.Account, result *models.SettlementResult) error {
	encoded, err := EncodeSettlementResult(result)
	if err != nil {
		return err
	}

	data := make([]byte, len(storage.Data))
	copy(data, encoded)

	if err := accounts.UpdateData(ctx, storage.Address, data); err != nil {
		return fmt.Errorf("failed to write settlement result: %w", err)
	}
	storage.Data = data
	return nil
}

// Read loads and decodes the result held by a storage account
func (l *ResultLedger) Read(ctx context.Context, accounts AccountRepository, address solana.PublicKey) (*models.SettlementResult, error) {
	storage, err := accounts.Get(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get result storage: %w", err)
	}
	if storage == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	if !storage.IsOwnedBy(l.programID) {
		return nil, fmt.Errorf("%w: result storage %s is owned by %s", ErrWrongOwner, storage.Address, storage.Owner)
	}
	return DecodeSettlementResult(storage.Data)
}

// EncodeSettlementResult produces the borsh form of a result
func EncodeSettlementResult(result *models.SettlementResult) ([]byte, error) {
	encoded, err := bin.MarshalBorsh(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settlement result: %w", err)
	}
	return encoded, nil
}

// DecodeSettlementResult parses result storage data; an all-zero record was never written
func DecodeSettlementResult(data []byte) (*models.SettlementResult, error) {
	if len(data) < models.SettlementResultSize {
		return nil, fmt.Errorf("%w: record has %d bytes", ErrNotSettled, len(data))
	}

	record := data[:models.SettlementResultSize]
	zeroed := true
	for _, b := range record {
		if b != 0 {
			zeroed = false
			break
		}
	}
	if zeroed {
		return nil, ErrNotSettled
	}

	var result models.SettlementResult
	if err := bin.UnmarshalBorsh(&result, record); err != nil {
		return nil, fmt.Errorf("failed to decode settlement result: %w", err)
	}
	return &result, nil
}
