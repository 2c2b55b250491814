package service

import (
	"context"
	"fmt"

	"lottery/events"
	"lottery/models"
)

// MoveValue performs one transfer through the value source, journals it and raises a
// transfer event (delivered only if the unit of work commits). This is the single
// entry point for value movement.
func MoveValue(ctx context.Context, ledger Ledger, source ValueSource, from, to *models.Account, transfer *models.Transfer) error {
	if transfer.Amount == 0 {
		return ErrInvalidAmount
	}

	if err := source.Transfer(ctx, ledger.AccountRepository(), from, to, transfer.Amount); err != nil {
		return err
	}

	balanceAfter, err := source.Balance(from)
	if err != nil {
		return fmt.Errorf("failed to read balance after transfer: %w", err)
	}

	transfer.From = from.Address
	transfer.To = to.Address
	transfer.Asset = source.Asset()
	transfer.BalanceAfter = balanceAfter

	if err := ledger.TransferRepository().Record(ctx, transfer); err != nil {
		return fmt.Errorf("failed to record transfer: %w", err)
	}

	ledger.EventBus().Publish(events.TransferEvent{
		SettlementID: transfer.SettlementID,
		Kind:         transfer.Kind,
		Role:         transfer.Role,
		From:         transfer.From,
		To:           transfer.To,
		Asset:        transfer.Asset,
		Amount:       transfer.Amount,
	})

	return nil
}
