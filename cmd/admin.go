package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"casino/config"
	"casino/database"
	"casino/domain/engine"
	"casino/domain/entities"
	"casino/domain/policy"
	"casino/domain/services"
	"casino/infrastructure"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// AdjustBalance credits or debits an account outside of play. The account is
// created with a zero balance if it does not exist.
func AdjustBalance(ctx context.Context, accountID int64, amount decimal.Decimal, reason string) (*entities.Account, error) {
	cfg := config.Get()
	setupLogging(cfg)

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	accounts := services.NewAccountService(infrastructure.NewUnitOfWorkFactory(db, infrastructure.NewNoopEventPublisher()))
	if _, err := accounts.GetOrCreate(ctx, accountID, decimal.Zero); err != nil {
		return nil, err
	}
	return accounts.AdjustBalance(ctx, accountID, amount, reason)
}

// SetBanned bans or unbans an account
func SetBanned(ctx context.Context, accountID int64, banned bool, reason string) (*entities.Account, error) {
	cfg := config.Get()
	setupLogging(cfg)

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	accounts := services.NewAccountService(infrastructure.NewUnitOfWorkFactory(db, infrastructure.NewNoopEventPublisher()))
	return accounts.SetBanned(ctx, accountID, banned, reason)
}

// SimulateOptions configures a policy dry run
type SimulateOptions struct {
	PolicyPath string
	Game       entities.GameKind
	Rounds     int
	PlayCount  int64
	Seed       uint64
}

// Simulate plays rounds against the policy file without a database and
// writes a summary to out
func Simulate(out io.Writer, opts SimulateOptions) error {
	snap, err := policy.LoadFile(opts.PolicyPath)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}

	params := engine.SimulationParams{
		Game:         opts.Game,
		Rounds:       opts.Rounds,
		PlayCount:    opts.PlayCount,
		Stake:        decimal.NewFromInt(100),
		DiceTarget:   50,
		CrashCashout: decimal.RequireFromString("2"),
		RouletteBets: []entities.RouletteSubBet{{Type: entities.RouletteRed, Stake: decimal.NewFromInt(100)}},
	}

	// Gate traces are noise at this volume
	level := log.GetLevel()
	log.SetLevel(log.WarnLevel)
	defer log.SetLevel(level)

	report, err := engine.New(engine.NewSeededSource(opts.Seed)).Simulate(snap, params)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out,
		"policy %s\ngame %s, %d rounds at play count %d\nwin rate %.4f (± %.4f)\nreturn to player %.4f\nmax multiplier %s\n",
		snap.Version, report.Game, report.Rounds, opts.PlayCount,
		report.WinRate(), 2*report.StdErr(), report.RTP(), report.MaxMultiplier.String())
	return err
}

// ParseSimulateArgs reads "<game> <rounds> [play-count] [seed]"
func ParseSimulateArgs(args []string, policyPath string) (SimulateOptions, error) {
	opts := SimulateOptions{PolicyPath: policyPath, Seed: 1}
	if len(args) < 2 {
		return opts, fmt.Errorf("usage: casino simulate <slots|dice|crash|roulette> <rounds> [play-count] [seed]")
	}

	opts.Game = entities.GameKind(args[0])
	if !opts.Game.Valid() || opts.Game == entities.GameKindExternal {
		return opts, fmt.Errorf("unknown game: %s", args[0])
	}

	rounds, err := strconv.Atoi(args[1])
	if err != nil || rounds <= 0 {
		return opts, fmt.Errorf("rounds must be a positive integer")
	}
	opts.Rounds = rounds

	if len(args) > 2 {
		if opts.PlayCount, err = strconv.ParseInt(args[2], 10, 64); err != nil || opts.PlayCount < 0 {
			return opts, fmt.Errorf("play count must be a non-negative integer")
		}
	}
	if len(args) > 3 {
		if opts.Seed, err = strconv.ParseUint(args[3], 10, 64); err != nil {
			return opts, fmt.Errorf("invalid seed: %w", err)
		}
	}
	return opts, nil
}
