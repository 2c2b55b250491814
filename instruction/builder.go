package instruction

import (
	"github.com/gagliardetto/solana-go"
)

// NewRewardWinnersInstruction builds a complete reward-winners instruction
func NewRewardWinnersInstruction(programID solana.PublicKey, args RewardWinnersArgs, accounts *RewardAccounts) (*solana.GenericInstruction, error) {
	data, err := EncodeRewardWinners(args)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(programID, accounts.Metas(), data), nil
}

// NewDepositInstruction builds a deposit of amount from a depositor-controlled account into pool
func NewDepositInstruction(programID, depositor, source, pool solana.PublicKey, amount uint64) (*solana.GenericInstruction, error) {
	data, err := EncodeDeposit(amount)
	if err != nil {
		return nil, err
	}
	accounts := &TransferAccounts{
		Authority: solana.NewAccountMeta(depositor, false, true),
		From:      solana.NewAccountMeta(source, true, false),
		To:        solana.NewAccountMeta(pool, true, false),
	}
	return solana.NewInstruction(programID, accounts.Metas(), data), nil
}

// NewWithdrawInstruction builds a withdrawal of amount from pool to destination
func NewWithdrawInstruction(programID, authority, pool, destination solana.PublicKey, amount uint64) (*solana.GenericInstruction, error) {
	data, err := EncodeWithdraw(amount)
	if err != nil {
		return nil, err
	}
	accounts := &TransferAccounts{
		Authority: solana.NewAccountMeta(authority, false, true),
		From:      solana.NewAccountMeta(pool, true, false),
		To:        solana.NewAccountMeta(destination, true, false),
	}
	return solana.NewInstruction(programID, accounts.Metas(), data), nil
}

// RewardAccountsFor assembles reward accounts with the usual signer and writable flags
func RewardAccountsFor(authority, pool solana.PublicKey, payees []solana.PublicKey, storage solana.PublicKey, participants []solana.PublicKey) *RewardAccounts {
	accounts := &RewardAccounts{
		Authority:     solana.NewAccountMeta(authority, false, true),
		Pool:          solana.NewAccountMeta(pool, true, false),
		ResultStorage: solana.NewAccountMeta(storage, true, false),
	}
	if authority.Equals(pool) {
		accounts.Pool.IsSigner = true
	}
	for _, p := range payees {
		accounts.FixedPayees = append(accounts.FixedPayees, solana.NewAccountMeta(p, true, false))
	}
	for i, p := range participants {
		// payout targets receive value, eligibility holdings are only read
		accounts.Participants = append(accounts.Participants, solana.NewAccountMeta(p, i%2 == 0, false))
	}
	return accounts
}
