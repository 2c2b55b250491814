package service

import (
	"context"
	"fmt"

	"lottery/models"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ExecutorConfig parameterizes one settlement engine
type ExecutorConfig struct {
	ProgramID       solana.PublicKey
	ShareTable      models.ShareTable
	EligibilityMint solana.PublicKey
	// PayoutMint is zero when prizes are paid in native value
	PayoutMint  solana.PublicKey
	ValueSource ValueSource
	Rent        Rent
}

// SettlementInput carries the already-locked accounts of one settlement call.
// An address that appears in several roles is the same *models.Account everywhere.
type SettlementInput struct {
	SettlementID  uuid.UUID
	LotteryID     uint32
	WinnerIndex   uint32
	Authority     *models.Account
	Pool          *models.Account
	FixedPayees   []*models.Account
	ResultStorage *models.Account
	Participants  []*models.Account
}

// SettlementOutcome is everything the executor decided and did
type SettlementOutcome struct {
	Result     *models.SettlementResult
	Winner     models.ParticipantEntry
	Allocation *models.Allocation
	Payouts    []models.Payout
	Roster     *Roster
}

// SettlementExecutor validates, pays out, and records one lottery
type SettlementExecutor struct {
	cfg    ExecutorConfig
	ledger *ResultLedger
}

// NewSettlementExecutor creates an executor after checking its share table
func NewSettlementExecutor(cfg ExecutorConfig) (*SettlementExecutor, error) {
	if cfg.ProgramID.IsZero() {
		return nil, fmt.Errorf("program id is required")
	}
	if cfg.ValueSource == nil {
		return nil, fmt.Errorf("value source is required")
	}
	if cfg.EligibilityMint.IsZero() {
		return nil, fmt.Errorf("eligibility mint is required")
	}
	if err := ValidateShareTable(cfg.ShareTable); err != nil {
		return nil, err
	}
	if cfg.Rent == (Rent{}) {
		cfg.Rent = DefaultRent
	}

	return &SettlementExecutor{
		cfg:    cfg,
		ledger: NewResultLedger(cfg.ProgramID, cfg.Rent),
	}, nil
}

// ShareTable returns the table the executor pays out with
func (e *SettlementExecutor) ShareTable() models.ShareTable {
	return e.cfg.ShareTable
}

// ResultLedger returns the ledger results are written to
func (e *SettlementExecutor) ResultLedger() *ResultLedger {
	return e.ledger
}

// ValueSource returns the asset the executor moves
func (e *SettlementExecutor) ValueSource() ValueSource {
	return e.cfg.ValueSource
}

// Execute runs one settlement. Every check happens before the first transfer and the
// result record is written last. The executor never undoes a transfer itself: on error
// the caller's unit of work must roll back.
func (e *SettlementExecutor) Execute(ctx context.Context, ledger Ledger, in *SettlementInput) (*SettlementOutcome, error) {
	source := e.cfg.ValueSource
	if in.Pool == nil || in.ResultStorage == nil {
		return nil, fmt.Errorf("%w: pool and result storage are required", ErrAccountNotFound)
	}

	// 1. authorization over the pool
	if in.Authority == nil || !in.Authority.IsSigner {
		return nil, fmt.Errorf("%w: pool authority signature missing", ErrUnauthorized)
	}
	if err := source.CheckAuthority(in.Pool, in.Authority); err != nil {
		return nil, err
	}
	if err := requireWritable(in.Pool); err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}

	// 2. result storage must already be able to hold the record
	if err := requireWritable(in.ResultStorage); err != nil {
		return nil, fmt.Errorf("result storage: %w", err)
	}
	if err := e.ledger.CheckStorage(in.ResultStorage); err != nil {
		return nil, err
	}

	// 3. every participant, before anything moves
	roster, err := NewRoster(in.Participants)
	if err != nil {
		return nil, err
	}
	if err := roster.Validate(e.cfg.EligibilityMint, e.cfg.PayoutMint); err != nil {
		return nil, err
	}

	// 4. winner
	winner, err := SelectWinner(roster, in.WinnerIndex)
	if err != nil {
		return nil, err
	}

	// 5. amounts
	balance, err := source.Balance(in.Pool)
	if err != nil {
		return nil, err
	}
	allocation, err := ComputeAmounts(balance, e.cfg.ShareTable)
	if err != nil {
		return nil, err
	}

	payouts, recipients, err := e.planPayouts(in, winner, allocation)
	if err != nil {
		return nil, err
	}

	// 6. transfers: fixed payees in declared order, winner last
	settlementID := in.SettlementID
	for i, payout := range payouts {
		if payout.Amount == 0 {
			continue
		}
		transfer := &models.Transfer{
			SettlementID: &settlementID,
			Kind:         models.TransferKindPayout,
			Role:         payout.Role,
			Amount:       payout.Amount,
		}
		if err := MoveValue(ctx, ledger, source, in.Pool, recipients[i], transfer); err != nil {
			return nil, fmt.Errorf("failed to pay %s: %w", payout.Role, err)
		}
	}

	// 7. the record exists only if every transfer went through
	result := &models.SettlementResult{
		LotteryID: in.LotteryID,
		Winner:    winner.PayoutTarget.Address,
	}
	if err := e.ledger.Write(ctx, ledger.AccountRepository(), in.ResultStorage, result); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"settlementID": settlementID,
		"lotteryID":    in.LotteryID,
		"winner":       result.Winner.String(),
		"poolAmount":   allocation.PoolBalance,
		"winnerAmount": allocation.WinnerAmount,
	}).Info("Lottery settled")

	return &SettlementOutcome{
		Result:     result,
		Winner:     winner,
		Allocation: allocation,
		Payouts:    payouts,
		Roster:     roster,
	}, nil
}

// planPayouts pairs computed amounts with recipient accounts and checks that each
// recipient can receive the asset
func (e *SettlementExecutor) planPayouts(in *SettlementInput, winner models.ParticipantEntry, allocation *models.Allocation) ([]models.Payout, []*models.Account, error) {
	shares := e.cfg.ShareTable.Shares
	if len(in.FixedPayees) != len(shares) {
		return nil, nil, fmt.Errorf("%w: %d fixed payee accounts for %d shares", ErrInvalidShareTable, len(in.FixedPayees), len(shares))
	}

	payouts := make([]models.Payout, 0, len(shares)+1)
	recipients := make([]*models.Account, 0, len(shares)+1)
	for i, share := range shares {
		payouts = append(payouts, models.Payout{
			Role:   share.Role,
			To:     in.FixedPayees[i].Address,
			Amount: allocation.FixedAmounts[i],
		})
		recipients = append(recipients, in.FixedPayees[i])
	}
	payouts = append(payouts, models.Payout{
		Role:   models.WinnerRole,
		To:     winner.PayoutTarget.Address,
		Amount: allocation.WinnerAmount,
	})
	recipients = append(recipients, winner.PayoutTarget)

	for i, recipient := range recipients {
		if recipient == nil {
			return nil, nil, fmt.Errorf("%w: missing account for %s", ErrInvalidDestination, payouts[i].Role)
		}
		if err := requireWritable(recipient); err != nil {
			return nil, nil, fmt.Errorf("%s payee: %w", payouts[i].Role, err)
		}
		if recipient.Address.Equals(in.Pool.Address) {
			return nil, nil, fmt.Errorf("%w: %s pays back into the pool", ErrInvalidDestination, payouts[i].Role)
		}
		if recipient.Address.Equals(in.ResultStorage.Address) {
			return nil, nil, fmt.Errorf("%w: %s pays into the result storage", ErrInvalidDestination, payouts[i].Role)
		}
		if err := e.cfg.ValueSource.CheckDestination(recipient); err != nil {
			return nil, nil, fmt.Errorf("%s payee: %w", payouts[i].Role, err)
		}
	}

	return payouts, recipients, nil
}

func requireWritable(account *models.Account) error {
	if !account.IsWritable {
		return fmt.Errorf("%w: %s", ErrReadOnlyAccount, account.Address)
	}
	return nil
}
