package models

import (
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	// TokenHoldingSize is the length of a token account in the SPL layout
	TokenHoldingSize = 165

	// tokenAmountOffset is where the little-endian amount starts (after mint and owner)
	tokenAmountOffset = 64
)

// TokenHolding is the prefix of an SPL token account: which asset, who controls it, how much
type TokenHolding struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

// DecodeTokenHolding reads a token holding out of raw account data
func DecodeTokenHolding(data []byte) (*TokenHolding, error) {
	if len(data) < tokenAmountOffset+8 {
		return nil, fmt.Errorf("token account data too short: %d bytes", len(data))
	}

	var holding TokenHolding
	if err := bin.NewBinDecoder(data).Decode(&holding); err != nil {
		return nil, fmt.Errorf("failed to decode token holding: %w", err)
	}

	return &holding, nil
}

// EncodeTokenHolding produces account data for a fresh, initialized token holding
func EncodeTokenHolding(holding *TokenHolding) []byte {
	data := make([]byte, TokenHoldingSize)
	copy(data[0:32], holding.Mint[:])
	copy(data[32:64], holding.Owner[:])
	binary.LittleEndian.PutUint64(data[tokenAmountOffset:], holding.Amount)
	// account state: initialized
	data[108] = 1
	return data
}

// WithTokenAmount returns a copy of token account data with the amount replaced
func WithTokenAmount(data []byte, amount uint64) ([]byte, error) {
	if len(data) < tokenAmountOffset+8 {
		return nil, fmt.Errorf("token account data too short: %d bytes", len(data))
	}

	out := make([]byte, len(data))
	copy(out, data)
	binary.LittleEndian.PutUint64(out[tokenAmountOffset:], amount)
	return out, nil
}
