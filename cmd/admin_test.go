package cmd

import (
	"bytes"
	"testing"

	"casino/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPolicyPath = "../config/policy.yaml"

func TestParseSimulateArgs(t *testing.T) {
	opts, err := ParseSimulateArgs([]string{"dice", "1000", "25", "7"}, testPolicyPath)
	require.NoError(t, err)
	assert.Equal(t, entities.GameKindDice, opts.Game)
	assert.Equal(t, 1000, opts.Rounds)
	assert.Equal(t, int64(25), opts.PlayCount)
	assert.Equal(t, uint64(7), opts.Seed)

	opts, err = ParseSimulateArgs([]string{"crash", "10"}, testPolicyPath)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), opts.Seed)
	assert.Zero(t, opts.PlayCount)

	for _, args := range [][]string{
		{"dice"},
		{"poker", "10"},
		{"external", "10"},
		{"slots", "0"},
		{"slots", "ten"},
		{"slots", "10", "-1"},
		{"slots", "10", "0", "seed"},
	} {
		_, err := ParseSimulateArgs(args, testPolicyPath)
		assert.Error(t, err, "%v", args)
	}
}

func TestSimulate(t *testing.T) {
	for _, game := range []entities.GameKind{
		entities.GameKindSlots,
		entities.GameKindDice,
		entities.GameKindCrash,
		entities.GameKindRoulette,
	} {
		t.Run(string(game), func(t *testing.T) {
			var out bytes.Buffer
			err := Simulate(&out, SimulateOptions{PolicyPath: testPolicyPath, Game: game, Rounds: 500, Seed: 3})
			require.NoError(t, err)
			assert.Contains(t, out.String(), "return to player")
			assert.Contains(t, out.String(), string(game))
		})
	}
}

func TestSimulate_MissingPolicy(t *testing.T) {
	err := Simulate(&bytes.Buffer{}, SimulateOptions{PolicyPath: "does-not-exist.yaml", Game: entities.GameKindDice, Rounds: 1})
	assert.Error(t, err)
}
