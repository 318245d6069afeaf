package simulator

import (
	"testing"

	"github.com/drewstone/btcsimulator/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardConvergesToOneChain(t *testing.T) {
	cfg := config.Standard{NumMiners: 5, Days: 3, Seed: 7}
	result, err := Standard(cfg, nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, result.Converged, "all miners should settle on one chain head by the end of the run")
	assert.Greater(t, result.FinalHeight, int64(0))
	assert.Len(t, result.TotalBlocks, 5)
	sum := 0.0
	for _, s := range result.HashShares {
		sum += s
	}
	assert.InDelta(t, 1.0, sum, 1e-9, "dirichlet shares must sum to 1")
}

func TestStandardIsDeterministicForSameSeed(t *testing.T) {
	cfg := config.Standard{NumMiners: 4, Days: 2, Seed: 99}
	a, err := Standard(cfg, nil, nil, nil)
	require.NoError(t, err)
	b, err := Standard(cfg, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, a.FinalHeight, b.FinalHeight)
	assert.Equal(t, a.TotalBlocks, b.TotalBlocks)
	assert.Equal(t, a.HashShares, b.HashShares)
}

func TestStandardRejectsInvalidConfig(t *testing.T) {
	_, err := Standard(config.Standard{NumMiners: 0, Days: 1}, nil, nil, nil)
	require.Error(t, err)
}

func TestMixedSPVAttackResolvesWithinBudget(t *testing.T) {
	cfg := config.MixedSPVAttack{
		Alpha: 0.4, Beta: 0.1, TargetConfirms: 2, ValFrac: 1,
		Days: 30, Seed: 11,
	}
	result, err := MixedSPVAttack(cfg, nil, nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, RaceUnresolved, result.Outcome, "a 30-day budget at 40% hashrate should resolve within 2 confirmations")
}

func TestMixedSPVAttackWeakAttackerUsuallyLoses(t *testing.T) {
	cfg := config.MixedSPVAttack{
		Alpha: 0.05, Beta: 0.05, TargetConfirms: 6, ValFrac: 1,
		Days: 60, Seed: 3,
	}
	result, err := MixedSPVAttack(cfg, nil, nil, nil)
	require.NoError(t, err)
	if result.Outcome != RaceUnresolved {
		assert.Equal(t, RaceLost, result.Outcome)
	}
}

func TestMixedSPVAttackFullResetAccumulatesRaces(t *testing.T) {
	cfg := config.MixedSPVAttack{
		Alpha: 0.3, Beta: 0.1, TargetConfirms: 2, ValFrac: 1,
		Days: 90, Seed: 21, FullReset: true,
	}
	result, err := MixedSPVAttack(cfg, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, RaceUnresolved, result.Outcome, "full-reset mode never reports a single outcome")
	assert.Greater(t, result.Wins+result.Loses, 0, "a 90-day budget should accumulate at least one race")
	assert.Equal(t, result.Wins+result.Loses, result.NumRestarts)
}

func TestMixedSPVAttackRejectsInvalidConfig(t *testing.T) {
	_, err := MixedSPVAttack(config.MixedSPVAttack{Alpha: 0.6, Beta: 0.6, TargetConfirms: 1, Days: 1}, nil, nil, nil)
	require.Error(t, err)
}

func TestSweepProducesOneProbabilityPerK(t *testing.T) {
	cfg := config.Sweep{Alpha: 0.3, Beta: 0.1, KValues: []int{1, 2, 4}, Trials: 3, Seed: 5}
	points, err := Sweep(cfg, nil, nil)
	require.NoError(t, err)
	require.Len(t, points, 3)
	for i, k := range cfg.KValues {
		assert.Equal(t, k, points[i].TargetConfirms)
		assert.Equal(t, cfg.Trials, points[i].Trials)
		assert.GreaterOrEqual(t, points[i].WinProbability, 0.0)
		assert.LessOrEqual(t, points[i].WinProbability, 1.0)
	}
}
