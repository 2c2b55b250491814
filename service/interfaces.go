package service

import (
	"context"

	"lottery/events"
	"lottery/models"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// AccountRepository defines the interface for ledger account access
type AccountRepository interface {
	// Get retrieves an account without locking it, nil if it does not exist
	Get(ctx context.Context, address solana.PublicKey) (*models.Account, error)

	// GetForUpdate locks and returns every requested account, failing if any is missing
	GetForUpdate(ctx context.Context, addresses []solana.PublicKey) (map[solana.PublicKey]*models.Account, error)

	// Create inserts a new account
	Create(ctx context.Context, account *models.Account) error

	// UpdateLamports overwrites the native balance of an account
	UpdateLamports(ctx context.Context, address solana.PublicKey, lamports uint64) error

	// UpdateData overwrites the data of an account
	UpdateData(ctx context.Context, address solana.PublicKey, data []byte) error
}

// TransferRepository defines the interface for the transfer journal
type TransferRepository interface {
	// Record appends a journal entry
	Record(ctx context.Context, transfer *models.Transfer) error

	// GetBySettlement returns every transfer made by one settlement, in execution order
	GetBySettlement(ctx context.Context, settlementID uuid.UUID) ([]*models.Transfer, error)
}

// SettlementRepository defines the interface for settlement audit rows
type SettlementRepository interface {
	// Create inserts the audit row for a completed settlement
	Create(ctx context.Context, settlement *models.Settlement) error

	// GetByResultAddress returns the settlement recorded into a result account, nil if none
	GetByResultAddress(ctx context.Context, address solana.PublicKey) (*models.Settlement, error)

	// GetByLotteryID returns settlements for a lottery id, newest first
	GetByLotteryID(ctx context.Context, lotteryID uint32) ([]*models.Settlement, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// Ledger is the slice of a unit of work that moves value and journals it
type Ledger interface {
	AccountRepository() AccountRepository
	TransferRepository() TransferRepository
	EventBus() EventPublisher
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	TransferRepository() TransferRepository
	SettlementRepository() SettlementRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// SettlementService defines the interface for lottery settlement
type SettlementService interface {
	// Settle validates the roster, pays every share and records the result atomically
	Settle(ctx context.Context, req *SettlementRequest) (*models.SettlementReport, error)

	// GetResult decodes the result stored in a result account
	GetResult(ctx context.Context, address solana.PublicKey) (*models.SettlementResult, error)

	// GetSettlement returns the audit row and its transfers for a result account
	GetSettlement(ctx context.Context, address solana.PublicKey) (*models.Settlement, []*models.Transfer, error)

	// GetByLotteryID returns every settlement recorded for a lottery id, newest first
	GetByLotteryID(ctx context.Context, lotteryID uint32) ([]*models.Settlement, error)
}

// PoolService defines the interface for one-shot pool funding operations
type PoolService interface {
	// Deposit moves value from a participant-controlled account into the pool
	Deposit(ctx context.Context, req *DepositRequest) (*models.Transfer, error)

	// Withdraw moves value out of the pool on the pool authority's signature
	Withdraw(ctx context.Context, req *WithdrawRequest) (*models.Transfer, error)
}
