package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardValidate(t *testing.T) {
	require.NoError(t, Standard{NumMiners: 5, Days: 1}.Validate())

	err := Standard{NumMiners: 0, Days: 1}.Validate()
	require.Error(t, err)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "num_miners", ce.Field)
}

func TestMixedSPVAttackRejectsOversizedHashShares(t *testing.T) {
	err := MixedSPVAttack{Alpha: 0.6, Beta: 0.5, TargetConfirms: 6, ValFrac: 1, Days: 1}.Validate()
	require.Error(t, err)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "alpha+beta", ce.Field)
}

func TestMixedSPVAttackRejectsNonPositiveTargetConfirms(t *testing.T) {
	err := MixedSPVAttack{Alpha: 0.3, Beta: 0.1, TargetConfirms: 0, ValFrac: 1, Days: 1}.Validate()
	require.Error(t, err)
}

func TestMixedSPVAttackAccepts(t *testing.T) {
	require.NoError(t, MixedSPVAttack{Alpha: 0.3, Beta: 0.2, TargetConfirms: 6, ValFrac: 1, Days: 10}.Validate())
}

func TestSweepValidate(t *testing.T) {
	require.NoError(t, Sweep{Alpha: 0.3, Beta: 0.1, KValues: []int{1, 3, 6}, Trials: 50}.Validate())

	err := Sweep{Alpha: 0.3, Beta: 0.1, KValues: nil, Trials: 50}.Validate()
	require.Error(t, err)
}
