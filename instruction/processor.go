package instruction

import (
	"context"
	"errors"
	"fmt"

	"lottery/metrics"
	"lottery/models"
	"lottery/service"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
)

// Result is what a processed instruction produced; exactly one field is set
type Result struct {
	Opcode     Opcode                   `json:"-"`
	Settlement *models.SettlementReport `json:"settlement,omitempty"`
	Transfer   *models.Transfer         `json:"transfer,omitempty"`
}

// Processor is the program entrypoint: it checks the target program, decodes the data
// and dispatches to the services
type Processor struct {
	programID   solana.PublicKey
	fixedShares int
	settlements service.SettlementService
	pools       service.PoolService
}

// NewProcessor creates a processor for programID whose share table has fixedShares payees
func NewProcessor(programID solana.PublicKey, fixedShares int, settlements service.SettlementService, pools service.PoolService) *Processor {
	return &Processor{
		programID:   programID,
		fixedShares: fixedShares,
		settlements: settlements,
		pools:       pools,
	}
}

// ProgramID returns the program this processor answers for
func (p *Processor) ProgramID() solana.PublicKey {
	return p.programID
}

// Process runs one instruction
func (p *Processor) Process(ctx context.Context, ix solana.Instruction) (*Result, error) {
	opcode := "unknown"
	result, err := p.process(ctx, ix)
	if result != nil {
		opcode = result.Opcode.String()
	}
	metrics.InstructionsTotal.WithLabelValues(opcode, ErrorKind(err)).Inc()
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Processor) process(ctx context.Context, ix solana.Instruction) (*Result, error) {
	if !ix.ProgramID().Equals(p.programID) {
		return nil, fmt.Errorf("%w: %s", ErrIncorrectProgramID, ix.ProgramID())
	}

	data, err := ix.Data()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	decoded, err := Decode(data)
	if err != nil {
		return nil, err
	}

	result := &Result{Opcode: decoded.Opcode}
	log.WithFields(log.Fields{
		"opcode":   decoded.Opcode.String(),
		"accounts": len(ix.Accounts()),
	}).Debug("Processing instruction")

	switch decoded.Opcode {
	case OpRewardWinners:
		accounts, err := ParseRewardAccounts(ix.Accounts(), p.fixedShares)
		if err != nil {
			return result, err
		}
		report, err := p.settlements.Settle(ctx, accounts.Request(*decoded.Reward))
		if err != nil {
			return result, err
		}
		result.Settlement = report

	case OpDeposit:
		accounts, err := ParseTransferAccounts(ix.Accounts())
		if err != nil {
			return result, err
		}
		transfer, err := p.pools.Deposit(ctx, &service.DepositRequest{
			Depositor: accounts.Authority.PublicKey,
			Source:    accounts.From.PublicKey,
			Pool:      accounts.To.PublicKey,
			Amount:    decoded.Amount.Amount,
			Signers:   signers(accounts.Metas()),
			Writable:  writable(accounts.Metas()),
		})
		if err != nil {
			return result, err
		}
		result.Transfer = transfer

	case OpWithdraw:
		accounts, err := ParseTransferAccounts(ix.Accounts())
		if err != nil {
			return result, err
		}
		transfer, err := p.pools.Withdraw(ctx, &service.WithdrawRequest{
			Authority:   accounts.Authority.PublicKey,
			Pool:        accounts.From.PublicKey,
			Destination: accounts.To.PublicKey,
			Amount:      decoded.Amount.Amount,
			Signers:     signers(accounts.Metas()),
			Writable:    writable(accounts.Metas()),
		})
		if err != nil {
			return result, err
		}
		result.Transfer = transfer
	}

	return result, nil
}

// ErrorKind labels instruction-boundary errors and defers everything else to the services
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInstruction):
		return "invalid_instruction"
	case errors.Is(err, ErrIncorrectProgramID):
		return "incorrect_program_id"
	case errors.Is(err, ErrNotEnoughAccounts):
		return "not_enough_accounts"
	default:
		return service.ErrorKind(err)
	}
}
