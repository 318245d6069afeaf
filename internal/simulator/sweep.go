package simulator

import (
	"log/slog"

	"github.com/drewstone/btcsimulator/internal/config"
	"github.com/drewstone/btcsimulator/internal/store"
)

// SweepPoint is one (k, estimated P(win)) sample from a Monte-Carlo sweep
// (SPEC_FULL.md §4 "Parameter sweep / Monte-Carlo driver", supplementing
// the distillation's single-race scenario with the original's
// `run_mixed_mc` batch driver).
type SweepPoint struct {
	TargetConfirms int
	Trials         int
	Wins           int
	WinProbability float64
}

// Sweep runs cfg.Trials independent single races per k in cfg.KValues,
// each with a freshly derived seed so trials are statistically
// independent despite sharing one configured base seed, and reports the
// empirical win fraction per k — the same shape as plotting P(win) against
// k in the original's Monte-Carlo notebook.
func Sweep(cfg config.Sweep, st store.Store, log *slog.Logger) ([]SweepPoint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	points := make([]SweepPoint, len(cfg.KValues))
	for i, k := range cfg.KValues {
		wins := 0
		for trial := 0; trial < cfg.Trials; trial++ {
			raceCfg := config.MixedSPVAttack{
				Alpha:              cfg.Alpha,
				Beta:               cfg.Beta,
				TargetConfirms:     k,
				ValFrac:            1,
				Days:               365,
				Seed:               cfg.Seed + int64(i)*int64(cfg.Trials) + int64(trial),
				FollowHonestBefore: true,
				FullReset:          false,
			}
			result, err := MixedSPVAttack(raceCfg, st, nil, log)
			if err != nil {
				return nil, err
			}
			if result.Outcome == RaceWon {
				wins++
			}
		}
		points[i] = SweepPoint{
			TargetConfirms: k,
			Trials:         cfg.Trials,
			Wins:           wins,
			WinProbability: float64(wins) / float64(cfg.Trials),
		}
	}
	return points, nil
}
