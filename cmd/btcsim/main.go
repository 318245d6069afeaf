// Command btcsim drives the double-spend simulator from the command line:
// a standard n-miner scenario, a mixed honest/SPV/attacker race, and a
// Monte-Carlo sweep over confirmation targets (original `main.py`'s three
// entry points, §4.7).
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/drewstone/btcsimulator/internal/config"
	"github.com/drewstone/btcsimulator/internal/pubsub"
	"github.com/drewstone/btcsimulator/internal/simulator"
	"github.com/drewstone/btcsimulator/internal/store"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "btcsim",
		Usage: "discrete-event simulator of a PoW blockchain double-spend race",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable debug-level logging"},
			&cli.StringFlag{Name: "db", Usage: "leveldb directory for persistence (defaults to no persistence; records are discarded)"},
		},
		Before: func(c *cli.Context) error {
			level := slog.LevelInfo
			if c.Bool("verbose") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
		Commands: []*cli.Command{
			standardCommand,
			mixedSPVAttackCommand,
			sweepCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "btcsim:", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor mirrors the original's "return -1 on persistence failure"
// convention (main.py's ConnectionError handling, §7): an unreachable
// store is the one error class that gets its own exit code, everything
// else (bad flags, validation errors) exits 1.
func exitCodeFor(err error) int {
	var unreachable *store.ErrUnreachable
	if errors.As(err, &unreachable) {
		return 255
	}
	return 1
}

func openStore(c *cli.Context) (store.Store, error) {
	dir := c.String("db")
	if dir == "" {
		return store.NewNoop(), nil
	}
	return store.OpenLevelDB(dir)
}

var standardCommand = &cli.Command{
	Name:  "standard",
	Usage: "run n miners with no adversarial behaviour",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "miners", Value: 20},
		&cli.Float64Flag{Name: "days", Value: 10},
		&cli.Int64Flag{Name: "seed", Value: 1},
	},
	Action: func(c *cli.Context) error {
		st, err := openStore(c)
		if err != nil {
			return err
		}
		defer st.Close()
		cfg := config.Standard{
			NumMiners: c.Int("miners"),
			Days:      c.Float64("days"),
			Seed:      c.Int64("seed"),
		}
		result, err := simulator.Standard(cfg, st, pubsub.NewBroker(), slog.Default())
		if err != nil {
			return err
		}
		fmt.Printf("elapsed=%0.2fs final_height=%d converged=%t\n", result.Elapsed, result.FinalHeight, result.Converged)
		for i, blocks := range result.TotalBlocks {
			fmt.Printf("  miner-%d: share=%.4f blocks=%d\n", i, result.HashShares[i], blocks)
		}
		return nil
	},
}

var mixedSPVAttackCommand = &cli.Command{
	Name:  "mixed-spv-attack",
	Usage: "race an attacker's private chain against an honest (and optional SPV) network",
	Flags: []cli.Flag{
		&cli.Float64Flag{Name: "alpha", Value: 0.3, Usage: "attacker hash share"},
		&cli.Float64Flag{Name: "beta", Value: 0.6, Usage: "honest miner hash share (remainder 1-alpha-beta goes to an SPV miner, omitted if <= 0)"},
		&cli.Float64Flag{Name: "days", Value: 10},
		&cli.IntFlag{Name: "target-confirms", Aliases: []string{"k"}, Value: 3},
		&cli.Float64Flag{Name: "val-frac", Value: 0.1, Usage: "fraction of full validation time the SPV miner spends"},
		&cli.BoolFlag{Name: "follow-honest-before-fork", Value: true},
		&cli.BoolFlag{Name: "full-reset", Usage: "accumulate independent races instead of stopping at the first"},
		&cli.Int64Flag{Name: "seed", Value: 1},
	},
	Action: func(c *cli.Context) error {
		st, err := openStore(c)
		if err != nil {
			return err
		}
		defer st.Close()
		cfg := config.MixedSPVAttack{
			Alpha:              c.Float64("alpha"),
			Beta:               c.Float64("beta"),
			TargetConfirms:     c.Int("target-confirms"),
			ValFrac:            c.Float64("val-frac"),
			Days:               c.Float64("days"),
			Seed:               c.Int64("seed"),
			FollowHonestBefore: c.Bool("follow-honest-before-fork"),
			FullReset:          c.Bool("full-reset"),
		}
		result, err := simulator.MixedSPVAttack(cfg, st, pubsub.NewBroker(), slog.Default())
		if err != nil {
			return err
		}
		if cfg.FullReset {
			fmt.Printf("elapsed=%0.2fs wins=%d loses=%d restarts=%d p_win=%.4f\n",
				result.Elapsed, result.Wins, result.Loses, result.NumRestarts, winFraction(result.Wins, result.Loses))
		} else {
			fmt.Printf("elapsed=%0.2fs outcome=%s\n", result.Elapsed, result.Outcome)
		}
		return nil
	},
}

func winFraction(wins, loses int) float64 {
	if wins+loses == 0 {
		return 0
	}
	return float64(wins) / float64(wins+loses)
}

var sweepCommand = &cli.Command{
	Name:  "sweep",
	Usage: "Monte-Carlo sweep of win probability across confirmation targets",
	Flags: []cli.Flag{
		&cli.Float64Flag{Name: "alpha", Value: 0.3},
		&cli.Float64Flag{Name: "beta", Value: 0.1},
		&cli.StringFlag{Name: "k-values", Value: "1,2,3,4,5", Usage: "comma-separated confirmation targets"},
		&cli.IntFlag{Name: "trials", Value: 100},
		&cli.BoolFlag{Name: "full-reset"},
		&cli.Int64Flag{Name: "seed", Value: 1},
	},
	Action: func(c *cli.Context) error {
		st, err := openStore(c)
		if err != nil {
			return err
		}
		defer st.Close()
		kValues, err := parseIntList(c.String("k-values"))
		if err != nil {
			return err
		}
		cfg := config.Sweep{
			Alpha:     c.Float64("alpha"),
			Beta:      c.Float64("beta"),
			KValues:   kValues,
			Trials:    c.Int("trials"),
			FullReset: c.Bool("full-reset"),
			Seed:      c.Int64("seed"),
		}
		points, err := simulator.Sweep(cfg, st, slog.Default())
		if err != nil {
			return err
		}
		for _, p := range points {
			fmt.Printf("k=%d trials=%d wins=%d p_win=%.4f\n", p.TargetConfirms, p.Trials, p.Wins, p.WinProbability)
		}
		return nil
	},
}

func parseIntList(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("k-values: %q is not an integer: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
