package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"casino/cmd"
	"casino/config"
	"casino/database"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	var err error
	switch command {
	case "serve":
		err = cmd.Run(ctx)
	case "migrate":
		err = handleMigrationCommand()
	case "adjust-balance":
		err = handleAdjustBalance(ctx)
	case "ban", "unban":
		err = handleSetBanned(ctx, command == "ban")
	case "simulate":
		err = handleSimulate()
	default:
		err = fmt.Errorf("unknown command: %s (expected serve, migrate, adjust-balance, ban, unban or simulate)", command)
	}
	if err != nil {
		log.WithError(err).Fatalf("%s failed", command)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: casino migrate [up|down|status] [args...]")
	}

	switch os.Args[2] {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", os.Args[2])
	}
}

func handleAdjustBalance(ctx context.Context) error {
	if len(os.Args) < 4 {
		return fmt.Errorf("usage: casino adjust-balance <account-id> <amount> [reason]")
	}

	accountID, err := strconv.ParseInt(os.Args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid account id: %w", err)
	}
	amount, err := decimal.NewFromString(os.Args[3])
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	reason := "manual adjustment"
	if len(os.Args) > 4 {
		reason = strings.Join(os.Args[4:], " ")
	}

	account, err := cmd.AdjustBalance(ctx, accountID, amount, reason)
	if err != nil {
		return err
	}
	fmt.Printf("account %d balance %s\n", account.ID, account.Balance.StringFixed(2))
	return nil
}

func handleSetBanned(ctx context.Context, banned bool) error {
	if len(os.Args) < 4 {
		return fmt.Errorf("usage: casino %s <account-id> <reason>", os.Args[1])
	}

	accountID, err := strconv.ParseInt(os.Args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid account id: %w", err)
	}

	account, err := cmd.SetBanned(ctx, accountID, banned, strings.Join(os.Args[3:], " "))
	if err != nil {
		return err
	}
	fmt.Printf("account %d banned=%t\n", account.ID, account.Banned)
	return nil
}

func handleSimulate() error {
	policyPath := os.Getenv("POLICY_PATH")
	if policyPath == "" {
		policyPath = config.NewTestConfig().PolicyPath
	}

	opts, err := cmd.ParseSimulateArgs(os.Args[2:], policyPath)
	if err != nil {
		return err
	}
	return cmd.Simulate(os.Stdout, opts)
}
