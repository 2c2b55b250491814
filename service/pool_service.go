package service

import (
	"context"
	"fmt"

	"lottery/metrics"
	"lottery/models"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
)

// DepositRequest moves value from a depositor-controlled account into the pool
type DepositRequest struct {
	Depositor solana.PublicKey // signer controlling Source
	Source    solana.PublicKey
	Pool      solana.PublicKey
	Amount    uint64
	Signers   []solana.PublicKey
	Writable  []solana.PublicKey
}

// WithdrawRequest moves value out of the pool to a destination account
type WithdrawRequest struct {
	Authority   solana.PublicKey
	Pool        solana.PublicKey
	Destination solana.PublicKey
	Amount      uint64
	Signers     []solana.PublicKey
	Writable    []solana.PublicKey
}

type poolService struct {
	uowFactory UnitOfWorkFactory
	source     ValueSource
}

// NewPoolService creates a new pool service
func NewPoolService(uowFactory UnitOfWorkFactory, source ValueSource) PoolService {
	return &poolService{
		uowFactory: uowFactory,
		source:     source,
	}
}

// Deposit moves value from a depositor-controlled account into the pool
func (s *poolService) Deposit(ctx context.Context, req *DepositRequest) (*models.Transfer, error) {
	transfer, err := s.move(ctx, models.TransferKindDeposit, req.Depositor, req.Source, req.Pool, req.Amount, req.Signers, req.Writable)
	metrics.PoolTransfersTotal.WithLabelValues(string(models.TransferKindDeposit), ErrorKind(err)).Inc()
	return transfer, err
}

// Withdraw moves value out of the pool on the pool authority's signature
func (s *poolService) Withdraw(ctx context.Context, req *WithdrawRequest) (*models.Transfer, error) {
	transfer, err := s.move(ctx, models.TransferKindWithdraw, req.Authority, req.Pool, req.Destination, req.Amount, req.Signers, req.Writable)
	metrics.PoolTransfersTotal.WithLabelValues(string(models.TransferKindWithdraw), ErrorKind(err)).Inc()
	return transfer, err
}

func (s *poolService) move(ctx context.Context, kind models.TransferKind, authority, from, to solana.PublicKey, amount uint64, signers, writable []solana.PublicKey) (*models.Transfer, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	if from.Equals(to) {
		return nil, fmt.Errorf("%w: source and destination are both %s", ErrInvalidDestination, from)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	addresses := []solana.PublicKey{from, to}
	if !authority.Equals(from) && !authority.Equals(to) {
		addresses = append(addresses, authority)
	}
	sortKeys(addresses)

	accounts, err := uow.AccountRepository().GetForUpdate(ctx, addresses)
	if err != nil {
		return nil, err
	}
	markPrivileges(accounts, signers, writable)
	for _, account := range []*models.Account{accounts[from], accounts[to]} {
		if err := requireWritable(account); err != nil {
			return nil, err
		}
	}

	if err := s.source.CheckAuthority(accounts[from], accounts[authority]); err != nil {
		return nil, err
	}
	if err := s.source.CheckDestination(accounts[to]); err != nil {
		return nil, err
	}

	transfer := &models.Transfer{
		Kind:   kind,
		Role:   models.PayeeRole(kind),
		Amount: amount,
	}
	if err := MoveValue(ctx, uow, s.source, accounts[from], accounts[to], transfer); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"kind":   kind,
		"from":   from.String(),
		"to":     to.String(),
		"amount": amount,
	}).Info("Pool transfer committed")

	return transfer, nil
}
