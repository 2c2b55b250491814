package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"lottery/api"
	"lottery/config"
	"lottery/database"
	"lottery/instruction"
	"lottery/models"
	"lottery/service"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	flag "github.com/spf13/pflag"
)

type settleOptions struct {
	args         instruction.RewardWinnersArgs
	authority    solana.PublicKey
	pool         solana.PublicKey
	storage      solana.PublicKey
	payees       []solana.PublicKey
	participants []solana.PublicKey
	encode       bool
}

func parseSettleArgs(args []string) (*settleOptions, error) {
	fs := flag.NewFlagSet("settle", flag.ContinueOnError)
	lotteryID := fs.Uint32("lottery-id", 0, "lottery identifier recorded in the result")
	winnerIndex := fs.Uint32("winner-index", 0, "index of the winning participant pair")
	authority := fs.String("authority", "", "pool authority, signs the instruction")
	pool := fs.String("pool", "", "prize pool account")
	storage := fs.String("storage", "", "result storage account")
	payees := fs.StringSlice("payees", nil, "fixed payee accounts in share table order")
	participants := fs.StringSlice("participants", nil, "payout target and eligibility accounts, alternating")
	encode := fs.Bool("encode", false, "print the instruction as JSON instead of executing it")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts := &settleOptions{
		args:   instruction.RewardWinnersArgs{LotteryID: *lotteryID, WinnerIndex: *winnerIndex},
		encode: *encode,
	}

	var err error
	if opts.authority, err = parseKeyFlag("authority", *authority); err != nil {
		return nil, err
	}
	if opts.pool, err = parseKeyFlag("pool", *pool); err != nil {
		return nil, err
	}
	if opts.storage, err = parseKeyFlag("storage", *storage); err != nil {
		return nil, err
	}
	if opts.payees, err = parseKeyList("payees", *payees); err != nil {
		return nil, err
	}
	if opts.participants, err = parseKeyList("participants", *participants); err != nil {
		return nil, err
	}

	return opts, nil
}

func (o *settleOptions) instruction(programID solana.PublicKey) (*solana.GenericInstruction, error) {
	accounts := instruction.RewardAccountsFor(o.authority, o.pool, o.payees, o.storage, o.participants)
	return instruction.NewRewardWinnersInstruction(programID, o.args, accounts)
}

// Settle runs one reward-winners instruction against the ledger and prints the report
func Settle(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseSettleArgs(args)
	if err != nil {
		return err
	}

	cfg := config.Get()
	ix, err := opts.instruction(cfg.ProgramID)
	if err != nil {
		return fmt.Errorf("failed to build instruction: %w", err)
	}
	if opts.encode {
		return printInstruction(out, ix)
	}

	return withEngine(ctx, cfg, func(eng *engine) error {
		result, err := eng.processor.Process(ctx, ix)
		if err != nil {
			return err
		}
		return printJSON(out, result)
	})
}

type transferOptions struct {
	authority solana.PublicKey
	from      solana.PublicKey
	to        solana.PublicKey
	amount    uint64
	encode    bool
}

func parseTransferArgs(name string, args []string) (*transferOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	authority := fs.String("authority", "", "signer controlling the source account")
	from := fs.String("from", "", "account value leaves")
	to := fs.String("to", "", "account value enters")
	amount := fs.Uint64("amount", 0, "amount in the smallest unit of the asset")
	encode := fs.Bool("encode", false, "print the instruction as JSON instead of executing it")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts := &transferOptions{amount: *amount, encode: *encode}
	var err error
	if opts.authority, err = parseKeyFlag("authority", *authority); err != nil {
		return nil, err
	}
	if opts.from, err = parseKeyFlag("from", *from); err != nil {
		return nil, err
	}
	if opts.to, err = parseKeyFlag("to", *to); err != nil {
		return nil, err
	}
	return opts, nil
}

// Transfer runs one deposit or withdraw instruction and prints the journaled transfer
func Transfer(ctx context.Context, kind models.TransferKind, args []string, out io.Writer) error {
	opts, err := parseTransferArgs(string(kind), args)
	if err != nil {
		return err
	}

	cfg := config.Get()
	var ix *solana.GenericInstruction
	switch kind {
	case models.TransferKindDeposit:
		ix, err = instruction.NewDepositInstruction(cfg.ProgramID, opts.authority, opts.from, opts.to, opts.amount)
	case models.TransferKindWithdraw:
		ix, err = instruction.NewWithdrawInstruction(cfg.ProgramID, opts.authority, opts.from, opts.to, opts.amount)
	default:
		return fmt.Errorf("unknown transfer kind %q", kind)
	}
	if err != nil {
		return fmt.Errorf("failed to build instruction: %w", err)
	}
	if opts.encode {
		return printInstruction(out, ix)
	}

	return withEngine(ctx, cfg, func(eng *engine) error {
		result, err := eng.processor.Process(ctx, ix)
		if err != nil {
			return err
		}
		return printJSON(out, result)
	})
}

type resultOptions struct {
	address   solana.PublicKey
	audit     bool
	lotteryID *uint32
}

func parseResultArgs(args []string) (*resultOptions, error) {
	fs := flag.NewFlagSet("result", flag.ContinueOnError)
	audit := fs.Bool("audit", false, "print the settlement audit row and its transfers")
	lotteryID := fs.Uint32("lottery-id", 0, "list every settlement recorded for a lottery id instead")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts := &resultOptions{audit: *audit}
	if fs.Changed("lottery-id") {
		if fs.NArg() != 0 {
			return nil, fmt.Errorf("--lottery-id does not take a result address")
		}
		opts.lotteryID = lotteryID
		return opts, nil
	}

	if fs.NArg() != 1 {
		return nil, fmt.Errorf("usage: lottery result [--audit] <result-address> | --lottery-id <id>")
	}
	address, err := parseKeyFlag("result-address", fs.Arg(0))
	if err != nil {
		return nil, err
	}
	opts.address = address
	return opts, nil
}

// Result prints the settlement result stored in a result account, its audit row with
// --audit, or every settlement of one lottery with --lottery-id
func Result(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseResultArgs(args)
	if err != nil {
		return err
	}

	return withEngine(ctx, config.Get(), func(eng *engine) error {
		return printResult(ctx, eng.settlements, opts, out)
	})
}

func printResult(ctx context.Context, settlements service.SettlementService, opts *resultOptions, out io.Writer) error {
	switch {
	case opts.lotteryID != nil:
		rows, err := settlements.GetByLotteryID(ctx, *opts.lotteryID)
		if err != nil {
			return err
		}
		return printJSON(out, rows)
	case opts.audit:
		settlement, transfers, err := settlements.GetSettlement(ctx, opts.address)
		if err != nil {
			return err
		}
		return printJSON(out, api.SettlementResponse{Settlement: settlement, Transfers: transfers})
	default:
		result, err := settlements.GetResult(ctx, opts.address)
		if err != nil {
			return err
		}
		return printJSON(out, result)
	}
}

func withEngine(ctx context.Context, cfg *config.Config, fn func(eng *engine) error) error {
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	eng, err := newEngine(cfg, db)
	if err != nil {
		return err
	}
	return fn(eng)
}

func printInstruction(out io.Writer, ix *solana.GenericInstruction) error {
	data, err := ix.Data()
	if err != nil {
		return err
	}

	req := api.InstructionRequest{
		ProgramID: ix.ProgramID(),
		Data:      base58.Encode(data),
		Accounts:  make([]models.AccountMeta, 0, len(ix.Accounts())),
	}
	for _, meta := range ix.Accounts() {
		req.Accounts = append(req.Accounts, models.AccountMeta{
			PublicKey:  meta.PublicKey,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		})
	}
	return printJSON(out, req)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseKeyFlag(name, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, fmt.Errorf("--%s is required", name)
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return key, nil
}

func parseKeyList(name string, values []string) ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, 0, len(values))
	for _, v := range values {
		key, err := solana.PublicKeyFromBase58(v)
		if err != nil {
			return nil, fmt.Errorf("invalid --%s entry %q: %w", name, v, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
