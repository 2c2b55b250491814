package service

import (
	"fmt"

	"lottery/models"

	"github.com/gagliardetto/solana-go"
)

// Roster is the ordered list of participant pairs for one settlement
type Roster struct {
	entries []models.ParticipantEntry
}

// NewRoster pairs a flat account sequence: even positions are payout targets,
// odd positions the matching eligibility holdings
func NewRoster(accounts []*models.Account) (*Roster, error) {
	if len(accounts)%2 != 0 {
		return nil, fmt.Errorf("%w: %d participant accounts is not a multiple of 2", ErrMalformedRoster, len(accounts))
	}

	entries := make([]models.ParticipantEntry, 0, len(accounts)/2)
	for i := 0; i < len(accounts); i += 2 {
		if accounts[i] == nil || accounts[i+1] == nil {
			return nil, fmt.Errorf("%w: participant %d has a missing account", ErrMalformedRoster, i/2)
		}
		entries = append(entries, models.ParticipantEntry{
			PayoutTarget: accounts[i],
			Eligibility:  accounts[i+1],
		})
	}

	return &Roster{entries: entries}, nil
}

// Len returns the number of participant pairs
func (r *Roster) Len() int {
	return len(r.entries)
}

// Entries returns the participant pairs in roster order
func (r *Roster) Entries() []models.ParticipantEntry {
	return r.entries
}

// Validate checks every participant and reports the first one that fails.
//
// With a zero payoutMint prizes are paid in native value and the eligibility holding
// must be owned by the payout target itself. Otherwise the payout target is a token
// holding of payoutMint and both holdings must belong to the same wallet.
func (r *Roster) Validate(eligibilityMint, payoutMint solana.PublicKey) error {
	for i, entry := range r.entries {
		if err := validateEntry(entry, eligibilityMint, payoutMint); err != nil {
			return fmt.Errorf("%w: participant %d (%s): %v", ErrIneligibleParticipant, i, entry.PayoutTarget.Address, err)
		}
	}
	return nil
}

func validateEntry(entry models.ParticipantEntry, eligibilityMint, payoutMint solana.PublicKey) error {
	if !entry.Eligibility.IsOwnedBy(solana.TokenProgramID) {
		return fmt.Errorf("eligibility account %s is not a token account", entry.Eligibility.Address)
	}

	holding, err := models.DecodeTokenHolding(entry.Eligibility.Data)
	if err != nil {
		return err
	}
	if holding.Amount == 0 {
		return fmt.Errorf("eligibility balance is zero")
	}
	if !holding.Mint.Equals(eligibilityMint) {
		return fmt.Errorf("eligibility mint %s, expected %s", holding.Mint, eligibilityMint)
	}

	payoutOwner := entry.PayoutTarget.Address
	if !payoutMint.IsZero() {
		if !entry.PayoutTarget.IsOwnedBy(solana.TokenProgramID) {
			return fmt.Errorf("payout account %s is not a token account", entry.PayoutTarget.Address)
		}
		payout, err := models.DecodeTokenHolding(entry.PayoutTarget.Data)
		if err != nil {
			return err
		}
		if !payout.Mint.Equals(payoutMint) {
			return fmt.Errorf("payout mint %s, expected %s", payout.Mint, payoutMint)
		}
		payoutOwner = payout.Owner
	}

	if !holding.Owner.Equals(payoutOwner) {
		return fmt.Errorf("eligibility owner %s does not match payout owner %s", holding.Owner, payoutOwner)
	}

	return nil
}
