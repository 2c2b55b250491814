package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// BasisPointsDenominator is the whole pool expressed in basis points
const BasisPointsDenominator = 10_000

// PayeeRole names a fixed recipient of a share of every pool
type PayeeRole string

// WinnerRole labels the winner's payout in allocations and transfer journals
const WinnerRole PayeeRole = "winner"

// Share is one fixed payee's entitlement in basis points
type Share struct {
	Role        PayeeRole `json:"role"`
	BasisPoints uint32    `json:"basis_points"`
}

// ShareTable lists fixed payees in payout order. The winner receives whatever the fixed
// payees leave behind.
type ShareTable struct {
	Shares []Share `json:"shares"`
}

// FixedBasisPoints sums the fixed shares
func (t ShareTable) FixedBasisPoints() uint64 {
	var total uint64
	for _, s := range t.Shares {
		total += uint64(s.BasisPoints)
	}
	return total
}

// WinnerBasisPoints is the nominal winner share before rounding
func (t ShareTable) WinnerBasisPoints() uint64 {
	fixed := t.FixedBasisPoints()
	if fixed >= BasisPointsDenominator {
		return 0
	}
	return BasisPointsDenominator - fixed
}

// String renders the table in the same form ParseShareTable accepts
func (t ShareTable) String() string {
	parts := make([]string, 0, len(t.Shares))
	for _, s := range t.Shares {
		parts = append(parts, fmt.Sprintf("%s:%d", s.Role, s.BasisPoints))
	}
	return strings.Join(parts, ",")
}

// ParseShareTable parses "role:bps,role:bps" into a share table. Structural checks
// (ranges, duplicates, totals) are left to the settlement validation.
func ParseShareTable(raw string) (ShareTable, error) {
	var table ShareTable
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return table, nil
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		role, bps, ok := strings.Cut(part, ":")
		if !ok {
			return ShareTable{}, fmt.Errorf("invalid share %q: expected role:basis_points", part)
		}
		value, err := strconv.ParseUint(strings.TrimSpace(bps), 10, 32)
		if err != nil {
			return ShareTable{}, fmt.Errorf("invalid basis points for %q: %w", role, err)
		}
		table.Shares = append(table.Shares, Share{
			Role:        PayeeRole(strings.TrimSpace(role)),
			BasisPoints: uint32(value),
		})
	}

	return table, nil
}

// Payout is one computed transfer out of the pool
type Payout struct {
	Role   PayeeRole        `json:"role"`
	To     solana.PublicKey `json:"to"`
	Amount uint64           `json:"amount"`
}

// Allocation is the split of one pool balance. Fixed amounts keep the share table order.
type Allocation struct {
	PoolBalance  uint64   `json:"pool_balance"`
	FixedAmounts []uint64 `json:"fixed_amounts"`
	WinnerAmount uint64   `json:"winner_amount"`
}
