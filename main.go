package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lottery/cmd"
	"lottery/database"
	"lottery/models"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const usage = `usage: lottery [command] [args...]

commands:
  run                               start the HTTP service (default)
  migrate up|down [steps]|status    manage the database schema
  settle [flags]                    settle one lottery
  deposit [flags]                   move value into a pool
  withdraw [flags]                  move value out of a pool
  result [--audit] <address>        print a stored settlement result
  result --lottery-id <id>          list every settlement of a lottery`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	command := "run"
	var args []string
	if len(os.Args) > 1 {
		command = os.Args[1]
		args = os.Args[2:]
	}

	var err error
	switch command {
	case "run":
		err = cmd.Run(ctx)
	case "migrate":
		err = handleMigrationCommand(args)
	case "settle":
		err = cmd.Settle(ctx, args, os.Stdout)
	case "deposit":
		err = cmd.Transfer(ctx, models.TransferKindDeposit, args, os.Stdout)
	case "withdraw":
		err = cmd.Transfer(ctx, models.TransferKindWithdraw, args, os.Stdout)
	case "result":
		err = cmd.Result(ctx, args, os.Stdout)
	case "help", "-h", "--help":
		fmt.Println(usage)
		return
	default:
		err = fmt.Errorf("unknown command %q\n%s", command, usage)
	}

	if err != nil {
		log.WithError(err).Fatalf("%s failed", command)
	}
}

func handleMigrationCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: lottery migrate [up|down|status] [args...]")
	}

	// migrations bypass config.Get, so .env is loaded here
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read .env: %w", err)
	}

	switch args[0] {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(args) > 1 {
			steps = args[1]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", args[0])
	}
}
