package repository

import (
	"context"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// queryable is satisfied by both the pool and an open transaction
type queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// toBigint converts an unsigned amount to the signed column type
func toBigint(value uint64) (int64, error) {
	if value > math.MaxInt64 {
		return 0, fmt.Errorf("amount %d exceeds the storable maximum", value)
	}
	return int64(value), nil
}

// fromBigint converts a stored amount back, rejecting corrupt negative values
func fromBigint(value int64) (uint64, error) {
	if value < 0 {
		return 0, fmt.Errorf("stored amount %d is negative", value)
	}
	return uint64(value), nil
}

func parseKey(value string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid stored address %q: %w", value, err)
	}
	return key, nil
}

func keyStrings(keys []solana.PublicKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}
