package instruction

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// Instruction-boundary failures
var (
	ErrInvalidInstruction = errors.New("invalid instruction data")
	ErrIncorrectProgramID = errors.New("incorrect program id")
	ErrNotEnoughAccounts  = errors.New("not enough account keys")
)

// Opcode selects the operation encoded in the first byte of instruction data
type Opcode uint8

const (
	OpRewardWinners Opcode = 0
	OpDeposit       Opcode = 1
	OpWithdraw      Opcode = 2
)

func (o Opcode) String() string {
	switch o {
	case OpRewardWinners:
		return "reward_winners"
	case OpDeposit:
		return "deposit"
	case OpWithdraw:
		return "withdraw"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(o))
	}
}

// RewardWinnersArgs is the payload of OpRewardWinners
type RewardWinnersArgs struct {
	LotteryID   uint32
	WinnerIndex uint32
}

// AmountArgs is the payload of OpDeposit and OpWithdraw
type AmountArgs struct {
	Amount uint64
}

// Decoded is instruction data split into its opcode and typed payload
type Decoded struct {
	Opcode Opcode
	Reward *RewardWinnersArgs
	Amount *AmountArgs
}

// EncodeRewardWinners builds the data of a reward-winners instruction
func EncodeRewardWinners(args RewardWinnersArgs) ([]byte, error) {
	return encode(OpRewardWinners, &args)
}

// EncodeDeposit builds the data of a deposit instruction
func EncodeDeposit(amount uint64) ([]byte, error) {
	return encode(OpDeposit, &AmountArgs{Amount: amount})
}

// EncodeWithdraw builds the data of a withdraw instruction
func EncodeWithdraw(amount uint64) ([]byte, error) {
	return encode(OpWithdraw, &AmountArgs{Amount: amount})
}

func encode(op Opcode, payload any) ([]byte, error) {
	body, err := bin.MarshalBorsh(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", op, err)
	}
	return append([]byte{byte(op)}, body...), nil
}

// Decode parses instruction data. Unknown opcodes, short payloads and trailing bytes
// are all rejected.
func Decode(data []byte) (*Decoded, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrInvalidInstruction)
	}

	decoded := &Decoded{Opcode: Opcode(data[0])}
	decoder := bin.NewBorshDecoder(data[1:])

	var payload any
	switch decoded.Opcode {
	case OpRewardWinners:
		decoded.Reward = &RewardWinnersArgs{}
		payload = decoded.Reward
	case OpDeposit, OpWithdraw:
		decoded.Amount = &AmountArgs{}
		payload = decoded.Amount
	default:
		return nil, fmt.Errorf("%w: unknown opcode %d", ErrInvalidInstruction, data[0])
	}

	if err := decoder.Decode(payload); err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", ErrInvalidInstruction, decoded.Opcode, err)
	}
	if decoder.HasRemaining() {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidInstruction, decoder.Remaining())
	}

	return decoded, nil
}
