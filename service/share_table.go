package service

import (
	"fmt"
	"math/bits"

	"lottery/models"
)

// ValidateShareTable checks that every fixed share is a proper fraction, roles are
// unique, and the winner keeps a non-zero share
func ValidateShareTable(table models.ShareTable) error {
	seen := make(map[models.PayeeRole]bool, len(table.Shares))
	for i, share := range table.Shares {
		if share.Role == "" {
			return fmt.Errorf("%w: share %d has no role", ErrInvalidShareTable, i)
		}
		if share.Role == models.WinnerRole {
			return fmt.Errorf("%w: role %q is reserved", ErrInvalidShareTable, share.Role)
		}
		if seen[share.Role] {
			return fmt.Errorf("%w: duplicate role %q", ErrInvalidShareTable, share.Role)
		}
		seen[share.Role] = true

		if share.BasisPoints == 0 || share.BasisPoints > models.BasisPointsDenominator {
			return fmt.Errorf("%w: role %q has %d basis points", ErrInvalidShareTable, share.Role, share.BasisPoints)
		}
	}

	if table.FixedBasisPoints() >= models.BasisPointsDenominator {
		return fmt.Errorf("%w: fixed shares total %d basis points, leaving nothing for the winner", ErrInvalidShareTable, table.FixedBasisPoints())
	}

	return nil
}

// ComputeAmounts splits a pool balance. Fixed payees are rounded down in declared order
// and the winner receives the remainder, so the amounts always sum to the balance.
func ComputeAmounts(poolBalance uint64, table models.ShareTable) (*models.Allocation, error) {
	if poolBalance == 0 {
		return nil, ErrEmptyPool
	}
	if err := ValidateShareTable(table); err != nil {
		return nil, err
	}

	allocation := &models.Allocation{
		PoolBalance:  poolBalance,
		FixedAmounts: make([]uint64, 0, len(table.Shares)),
	}

	var reserved uint64
	for _, share := range table.Shares {
		amount := fraction(poolBalance, uint64(share.BasisPoints))
		allocation.FixedAmounts = append(allocation.FixedAmounts, amount)
		reserved += amount
	}
	allocation.WinnerAmount = poolBalance - reserved

	return allocation, nil
}

// fraction computes floor(balance * bps / denominator) without overflowing 64 bits
func fraction(balance, bps uint64) uint64 {
	hi, lo := bits.Mul64(balance, bps)
	quo, _ := bits.Div64(hi, lo, models.BasisPointsDenominator)
	return quo
}
