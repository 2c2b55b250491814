package service

import (
	"context"
	"fmt"
	"sort"

	"lottery/events"
	"lottery/metrics"
	"lottery/models"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

// SettlementRequest is the typed form of a reward-winners instruction
type SettlementRequest struct {
	LotteryID     uint32
	WinnerIndex   uint32
	Authority     solana.PublicKey
	Pool          solana.PublicKey
	FixedPayees   []solana.PublicKey // one per share, in share table order
	ResultStorage solana.PublicKey
	Participants  []solana.PublicKey // payout target, eligibility, payout target, ...
	Signers       []solana.PublicKey
	Writable      []solana.PublicKey
}

// addresses returns every distinct account the request touches, sorted so that rows are
// always locked in the same order
func (r *SettlementRequest) addresses() []solana.PublicKey {
	seen := make(map[solana.PublicKey]bool)
	var out []solana.PublicKey
	add := func(keys ...solana.PublicKey) {
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	add(r.Authority, r.Pool, r.ResultStorage)
	add(r.FixedPayees...)
	add(r.Participants...)

	sortKeys(out)
	return out
}

// markPrivileges copies the signer and writable flags of an instruction onto locked accounts
func markPrivileges(accounts map[solana.PublicKey]*models.Account, signers, writable []solana.PublicKey) {
	for _, key := range signers {
		if account, ok := accounts[key]; ok {
			account.IsSigner = true
		}
	}
	for _, key := range writable {
		if account, ok := accounts[key]; ok {
			account.IsWritable = true
		}
	}
}

func sortKeys(keys []solana.PublicKey) {
	sort.Slice(keys, func(i, j int) bool {
		return string(keys[i][:]) < string(keys[j][:])
	})
}

type settlementService struct {
	uowFactory UnitOfWorkFactory
	executor   *SettlementExecutor
	clock      clockwork.Clock
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory, executor *SettlementExecutor, clock clockwork.Clock) SettlementService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &settlementService{
		uowFactory: uowFactory,
		executor:   executor,
		clock:      clock,
	}
}

// Settle runs one settlement inside a single unit of work. Any failure rolls back every
// transfer and the result write.
func (s *settlementService) Settle(ctx context.Context, req *SettlementRequest) (*models.SettlementReport, error) {
	start := s.clock.Now()
	settlementID := uuid.New()

	logger := log.WithFields(log.Fields{
		"settlementID":  settlementID,
		"lotteryID":     req.LotteryID,
		"winnerIndex":   req.WinnerIndex,
		"pool":          req.Pool.String(),
		"resultStorage": req.ResultStorage.String(),
		"participants":  len(req.Participants),
	})

	report, err := s.settle(ctx, settlementID, req)

	metrics.SettlementDuration.Observe(s.clock.Since(start).Seconds())
	metrics.SettlementsTotal.WithLabelValues(ErrorKind(err)).Inc()

	if err != nil {
		logger.WithError(err).Warn("Settlement rejected")
		return nil, err
	}

	for _, payout := range report.Payouts {
		metrics.PayoutAmountTotal.WithLabelValues(string(payout.Role)).Add(float64(payout.Amount))
	}
	logger.WithField("winner", report.Result.Winner.String()).Info("Settlement committed")

	return report, nil
}

func (s *settlementService) settle(ctx context.Context, settlementID uuid.UUID, req *SettlementRequest) (*models.SettlementReport, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	accounts, err := uow.AccountRepository().GetForUpdate(ctx, req.addresses())
	if err != nil {
		return nil, err
	}
	markPrivileges(accounts, req.Signers, req.Writable)

	input := &SettlementInput{
		SettlementID:  settlementID,
		LotteryID:     req.LotteryID,
		WinnerIndex:   req.WinnerIndex,
		Authority:     accounts[req.Authority],
		Pool:          accounts[req.Pool],
		ResultStorage: accounts[req.ResultStorage],
		FixedPayees:   make([]*models.Account, 0, len(req.FixedPayees)),
		Participants:  make([]*models.Account, 0, len(req.Participants)),
	}
	for _, addr := range req.FixedPayees {
		input.FixedPayees = append(input.FixedPayees, accounts[addr])
	}
	for _, addr := range req.Participants {
		input.Participants = append(input.Participants, accounts[addr])
	}

	outcome, err := s.executor.Execute(ctx, uow, input)
	if err != nil {
		return nil, err
	}

	settlement := &models.Settlement{
		ID:            settlementID,
		LotteryID:     req.LotteryID,
		ResultAddress: req.ResultStorage,
		PoolAddress:   req.Pool,
		Winner:        outcome.Result.Winner,
		WinnerIndex:   req.WinnerIndex,
		PoolAmount:    outcome.Allocation.PoolBalance,
		WinnerAmount:  outcome.Allocation.WinnerAmount,
		Participants:  outcome.Roster.Len(),
		SettledAt:     s.clock.Now().UTC(),
	}
	if err := uow.SettlementRepository().Create(ctx, settlement); err != nil {
		return nil, fmt.Errorf("failed to record settlement: %w", err)
	}

	uow.EventBus().Publish(events.SettlementCompletedEvent{
		SettlementID:  settlementID,
		LotteryID:     req.LotteryID,
		ResultAddress: req.ResultStorage,
		Winner:        outcome.Result.Winner,
		Asset:         s.executor.ValueSource().Asset(),
		PoolAmount:    outcome.Allocation.PoolBalance,
		WinnerAmount:  outcome.Allocation.WinnerAmount,
		Participants:  outcome.Roster.Len(),
		Payouts:       outcome.Payouts,
		SettledAt:     settlement.SettledAt,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.SettlementReport{
		Settlement: settlement,
		Result:     outcome.Result,
		Payouts:    outcome.Payouts,
	}, nil
}

// GetResult decodes the result stored in a result account
func (s *settlementService) GetResult(ctx context.Context, address solana.PublicKey) (*models.SettlementResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return s.executor.ResultLedger().Read(ctx, uow.AccountRepository(), address)
}

// GetSettlement returns the audit row and its transfers for a result account
func (s *settlementService) GetSettlement(ctx context.Context, address solana.PublicKey) (*models.Settlement, []*models.Transfer, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settlement, err := uow.SettlementRepository().GetByResultAddress(ctx, address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	if settlement == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotSettled, address)
	}

	transfers, err := uow.TransferRepository().GetBySettlement(ctx, settlement.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get settlement transfers: %w", err)
	}

	return settlement, transfers, nil
}

// GetByLotteryID returns every settlement recorded for a lottery id, newest first
func (s *settlementService) GetByLotteryID(ctx context.Context, lotteryID uint32) ([]*models.Settlement, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settlements, err := uow.SettlementRepository().GetByLotteryID(ctx, lotteryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlements for lottery %d: %w", lotteryID, err)
	}
	if settlements == nil {
		settlements = []*models.Settlement{}
	}
	return settlements, nil
}
