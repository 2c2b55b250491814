package instruction

import (
	"fmt"

	"lottery/service"

	"github.com/gagliardetto/solana-go"
)

// RewardAccounts is the typed view of a reward-winners account list:
// authority, pool, one payee per fixed share, result storage, then participant pairs
type RewardAccounts struct {
	Authority     *solana.AccountMeta
	Pool          *solana.AccountMeta
	FixedPayees   []*solana.AccountMeta
	ResultStorage *solana.AccountMeta
	Participants  []*solana.AccountMeta
}

// ParseRewardAccounts splits a positional account list for a table of fixedShares payees.
// Participant pairing is left to the roster so that an odd tail is reported as a roster error.
func ParseRewardAccounts(metas []*solana.AccountMeta, fixedShares int) (*RewardAccounts, error) {
	required := 3 + fixedShares
	if len(metas) < required {
		return nil, fmt.Errorf("%w: reward needs at least %d accounts, got %d", ErrNotEnoughAccounts, required, len(metas))
	}

	return &RewardAccounts{
		Authority:     metas[0],
		Pool:          metas[1],
		FixedPayees:   metas[2 : 2+fixedShares],
		ResultStorage: metas[2+fixedShares],
		Participants:  metas[3+fixedShares:],
	}, nil
}

// Metas flattens the accounts back into instruction order
func (a *RewardAccounts) Metas() []*solana.AccountMeta {
	metas := make([]*solana.AccountMeta, 0, 3+len(a.FixedPayees)+len(a.Participants))
	metas = append(metas, a.Authority, a.Pool)
	metas = append(metas, a.FixedPayees...)
	metas = append(metas, a.ResultStorage)
	return append(metas, a.Participants...)
}

// Request converts the accounts and payload into a settlement request
func (a *RewardAccounts) Request(args RewardWinnersArgs) *service.SettlementRequest {
	req := &service.SettlementRequest{
		LotteryID:     args.LotteryID,
		WinnerIndex:   args.WinnerIndex,
		Authority:     a.Authority.PublicKey,
		Pool:          a.Pool.PublicKey,
		ResultStorage: a.ResultStorage.PublicKey,
		FixedPayees:   keys(a.FixedPayees),
		Participants:  keys(a.Participants),
		Signers:       signers(a.Metas()),
		Writable:      writable(a.Metas()),
	}
	return req
}

// TransferAccounts is the typed view of a deposit or withdraw account list:
// the signing authority, the account value leaves, the account value enters
type TransferAccounts struct {
	Authority *solana.AccountMeta
	From      *solana.AccountMeta
	To        *solana.AccountMeta
}

// ParseTransferAccounts reads the three accounts of a deposit or withdraw
func ParseTransferAccounts(metas []*solana.AccountMeta) (*TransferAccounts, error) {
	if len(metas) < 3 {
		return nil, fmt.Errorf("%w: transfer needs 3 accounts, got %d", ErrNotEnoughAccounts, len(metas))
	}
	return &TransferAccounts{
		Authority: metas[0],
		From:      metas[1],
		To:        metas[2],
	}, nil
}

// Metas flattens the accounts back into instruction order
func (a *TransferAccounts) Metas() []*solana.AccountMeta {
	return []*solana.AccountMeta{a.Authority, a.From, a.To}
}

func keys(metas []*solana.AccountMeta) []solana.PublicKey {
	out := make([]solana.PublicKey, len(metas))
	for i, m := range metas {
		out[i] = m.PublicKey
	}
	return out
}

func writable(metas []*solana.AccountMeta) []solana.PublicKey {
	var out []solana.PublicKey
	for _, m := range metas {
		if m.IsWritable {
			out = append(out, m.PublicKey)
		}
	}
	return out
}

func signers(metas []*solana.AccountMeta) []solana.PublicKey {
	var out []solana.PublicKey
	for _, m := range metas {
		if m.IsSigner {
			out = append(out, m.PublicKey)
		}
	}
	return out
}
