package engine

import (
	"testing"
	"time"

	"casino/domain/entities"
	"casino/domain/policy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource returns the same float for every gate and clamps IntN to n-1
type fixedSource struct {
	f float64
	i int
}

func (s fixedSource) Float64() float64 { return s.f }

func (s fixedSource) IntN(n int) int {
	if s.i >= n {
		return n - 1
	}
	return s.i
}

// passGates makes every percentage chance pass and every probability gate
// set to zero fail
var passGates = fixedSource{f: 0}

// failGates makes every chance and gate fail
var failGates = fixedSource{f: 0.999}

func testSnapshot(t *testing.T) *policy.Snapshot {
	t.Helper()
	snap, err := policy.LoadFile("../../config/policy.yaml")
	require.NoError(t, err)
	return snap
}

const settledPlays = 1000

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDiceMultiplier(t *testing.T) {
	assert.Equal(t, "1.7", DiceMultiplier(15, 50).String())
	assert.Equal(t, "85", DiceMultiplier(15, 1).String())
	assert.Equal(t, "0.8585", DiceMultiplier(15, 99).String())
}

func TestEvaluateDice(t *testing.T) {
	snap := testSnapshot(t)

	t.Run("winning roll", func(t *testing.T) {
		out := EvaluateDice(snap, settledPlays, dec("100"), 50, 23, failGates)
		assert.True(t, out.Win)
		assert.Equal(t, 23, out.Roll)
		assert.Equal(t, "1.7", out.Multiplier.String())
		assert.Equal(t, "170", out.Payout.String())
		assert.Equal(t, entities.GateNone, out.Gate)
	})

	t.Run("roll equal to target wins", func(t *testing.T) {
		out := EvaluateDice(snap, settledPlays, dec("10"), 50, 50, failGates)
		assert.True(t, out.Win)
	})

	t.Run("losing roll", func(t *testing.T) {
		out := EvaluateDice(snap, settledPlays, dec("100"), 50, 51, passGates)
		assert.False(t, out.Win)
		assert.True(t, out.Payout.IsZero())
		assert.True(t, out.Multiplier.IsZero())
	})

	t.Run("onboarding stage lowers the edge", func(t *testing.T) {
		out := EvaluateDice(snap, 0, dec("100"), 50, 10, failGates)
		assert.Equal(t, "1.8", out.Multiplier.String())
	})

	t.Run("forced loss redraws above target", func(t *testing.T) {
		snap := testSnapshot(t)
		snap.Dice.Stages[1].ForcedLossProbability = 1

		for _, i := range []int{0, 25, 99} {
			out := EvaluateDice(snap, settledPlays, dec("100"), 75, 3, fixedSource{f: 0.5, i: i})
			assert.False(t, out.Win)
			assert.Equal(t, entities.GateForcedLoss, out.Gate)
			assert.Greater(t, out.Roll, 75)
			assert.LessOrEqual(t, out.Roll, 100)
			assert.True(t, out.Payout.IsZero())
		}
	})
}

func grid(rows ...[3]entities.Symbol) entities.SlotGrid {
	var g entities.SlotGrid
	for i, r := range rows {
		g[i] = r
	}
	return g
}

func TestEvaluateSlots_LinesSum(t *testing.T) {
	snap := testSnapshot(t)
	g := grid(
		[3]entities.Symbol{"cherry", "cherry", "cherry"},
		[3]entities.Symbol{"bell", "bell", "bell"},
		[3]entities.Symbol{"lemon", "diamond", "star"},
	)

	out, err := EvaluateSlots(snap, settledPlays, dec("10"), g, passGates)
	require.NoError(t, err)

	// top row cherry 2 + middle row bell 5 × 1.25
	require.Len(t, out.Lines, 2)
	assert.Equal(t, entities.SlotLineTopRow, out.Lines[0].Line)
	assert.Equal(t, entities.SlotLineMiddleRow, out.Lines[1].Line)
	assert.Equal(t, "6.25", out.Lines[1].Multiplier.String())
	assert.Equal(t, "8.25", out.Multiplier.String())
	assert.Equal(t, "82.5", out.Payout.String())
	assert.True(t, out.Won())

	sum := decimal.Zero
	for _, l := range out.Lines {
		sum = sum.Add(l.Multiplier)
	}
	assert.True(t, sum.Equal(out.Multiplier))
}

func TestEvaluateSlots_DiagonalAndPair(t *testing.T) {
	snap := testSnapshot(t)
	g := grid(
		[3]entities.Symbol{"seven", "lemon", "bar"},
		[3]entities.Symbol{"bell", "seven", "diamond"},
		[3]entities.Symbol{"star", "cherry", "seven"},
	)

	out, err := EvaluateSlots(snap, settledPlays, dec("1"), g, passGates)
	require.NoError(t, err)

	var diag, pairs int
	for _, l := range out.Lines {
		switch l.Match {
		case entities.SlotMatchTriple:
			diag++
			assert.Equal(t, entities.SlotLineDiagonal, l.Line)
			assert.Equal(t, "37.5", l.Multiplier.String())
		case entities.SlotMatchPair:
			pairs++
			assert.Equal(t, "0.1", l.Multiplier.String())
		}
	}
	assert.Equal(t, 1, diag)
	assert.Zero(t, pairs, "no line has exactly two of a kind")
}

func TestEvaluateSlots_PairLine(t *testing.T) {
	snap := testSnapshot(t)
	g := grid(
		[3]entities.Symbol{"bell", "bell", "bar"},
		[3]entities.Symbol{"lemon", "cherry", "seven"},
		[3]entities.Symbol{"diamond", "star", "lemon"},
	)

	out, err := EvaluateSlots(snap, settledPlays, dec("10"), g, passGates)
	require.NoError(t, err)
	require.Len(t, out.Lines, 1)
	assert.Equal(t, entities.SlotMatchPair, out.Lines[0].Match)
	assert.Equal(t, entities.Symbol("bell"), out.Lines[0].Symbol)
	assert.Equal(t, "1", out.Payout.String())
}

func TestEvaluateSlots_ChancesFail(t *testing.T) {
	snap := testSnapshot(t)
	g := grid(
		[3]entities.Symbol{"cherry", "cherry", "cherry"},
		[3]entities.Symbol{"cherry", "cherry", "cherry"},
		[3]entities.Symbol{"cherry", "cherry", "cherry"},
	)

	out, err := EvaluateSlots(snap, settledPlays, dec("10"), g, failGates)
	require.NoError(t, err)
	assert.False(t, out.Won())
	assert.Empty(t, out.Lines)
	assert.True(t, out.Payout.IsZero())
}

func TestEvaluateSlots_FullGridBeatsEveryLine(t *testing.T) {
	snap := testSnapshot(t)
	g := grid(
		[3]entities.Symbol{"lemon", "lemon", "lemon"},
		[3]entities.Symbol{"lemon", "lemon", "lemon"},
		[3]entities.Symbol{"lemon", "lemon", "lemon"},
	)

	out, err := EvaluateSlots(snap, settledPlays, dec("10"), g, fixedSource{f: 0.05})
	require.NoError(t, err)
	require.True(t, out.FullGrid)
	require.Len(t, out.Lines, 1)
	assert.Equal(t, entities.SlotLineFullGrid, out.Lines[0].Line)
	assert.Equal(t, "5", out.Multiplier.String())
	assert.Equal(t, []entities.Gate{entities.GateJackpot}, out.Gates)

	// The same grid scored line by line pays less
	snap.Slots.JackpotChance = 0
	lines, err := EvaluateSlots(snap, settledPlays, dec("10"), g, fixedSource{f: 0.05})
	require.NoError(t, err)
	assert.False(t, lines.FullGrid)
	assert.Len(t, lines.Lines, 8)
	assert.True(t, out.Multiplier.GreaterThanOrEqual(lines.Multiplier))
}

func TestEvaluateSlots_BigWinBoostsJackpot(t *testing.T) {
	snap := testSnapshot(t)
	g := grid(
		[3]entities.Symbol{"bell", "bell", "bell"},
		[3]entities.Symbol{"bell", "bell", "bell"},
		[3]entities.Symbol{"bell", "bell", "bell"},
	)

	out, err := EvaluateSlots(snap, 0, dec("1"), g, passGates)
	require.NoError(t, err)
	assert.Equal(t, []entities.Gate{entities.GateJackpot, entities.GateBigWin}, out.Gates)
	assert.Equal(t, "100", out.Multiplier.String())
}

func TestPickSymbol(t *testing.T) {
	symbols := []policy.SymbolConfig{
		{Name: "a", Weight: 1},
		{Name: "never", Weight: 0},
		{Name: "b", Weight: 3},
	}

	sym, err := PickSymbol(symbols, fixedSource{i: 0})
	require.NoError(t, err)
	assert.Equal(t, entities.Symbol("a"), sym)

	for _, i := range []int{1, 2, 3} {
		sym, err := PickSymbol(symbols, fixedSource{i: i})
		require.NoError(t, err)
		assert.Equal(t, entities.Symbol("b"), sym)
	}

	_, err = PickSymbol([]policy.SymbolConfig{{Name: "x", Weight: 0}}, passGates)
	assert.ErrorIs(t, err, entities.ErrInternalGenerator)
}

func TestPickSymbol_Distribution(t *testing.T) {
	symbols := []policy.SymbolConfig{{Name: "common", Weight: 9}, {Name: "rare", Weight: 1}}
	rng := NewSeededSource(42)

	rare := 0
	const draws = 20000
	for i := 0; i < draws; i++ {
		sym, err := PickSymbol(symbols, rng)
		require.NoError(t, err)
		if sym == "rare" {
			rare++
		}
	}
	assert.InDelta(t, 0.1, float64(rare)/draws, 0.01)
}

func TestCrashPointFromUniform(t *testing.T) {
	snap := testSnapshot(t)

	assert.Equal(t, "1", CrashPointFromUniform(&snap.Crash, 0).String())
	assert.Equal(t, "1.94", CrashPointFromUniform(&snap.Crash, 0.5).String())
	assert.Equal(t, "1000", CrashPointFromUniform(&snap.Crash, 0.9999999).String())
}

func TestDrawCrashPoint(t *testing.T) {
	snap := testSnapshot(t)

	point, gate := DrawCrashPoint(snap, settledPlays, fixedSource{f: 0.5})
	assert.Equal(t, entities.GateNone, gate)
	assert.Equal(t, "1.94", point.String())

	point, gate = DrawCrashPoint(snap, settledPlays, fixedSource{f: 0.01})
	assert.Equal(t, entities.GateInstant, gate)
	assert.Equal(t, "1", point.String())
}

func TestResolveCrash(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	session := &entities.CrashSession{
		ID:         uuid.New(),
		Stake:      dec("10"),
		CrashPoint: dec("3.47"),
		ExpiresAt:  now.Add(time.Minute),
	}

	out := ResolveCrash(session, dec("2.5"), now)
	assert.True(t, out.Win)
	assert.Equal(t, "25", out.Payout.String())
	assert.Equal(t, session.ID, out.SessionID)

	out = ResolveCrash(session, dec("3.47"), now)
	assert.True(t, out.Win, "claim at the crash point survives")

	out = ResolveCrash(session, dec("3.48"), now)
	assert.False(t, out.Win)
	assert.True(t, out.Payout.IsZero())

	out = ResolveCrash(session, dec("1.5"), now.Add(time.Minute))
	assert.False(t, out.Win)
	assert.True(t, out.Expired)

	expired := ExpireCrash(session)
	assert.True(t, expired.Expired)
	assert.True(t, expired.Claimed.IsZero())
	assert.Equal(t, entities.GameKindCrash, expired.Kind())
}

func TestResolveCrash_ClaimNeverExceedsPoint(t *testing.T) {
	snap := testSnapshot(t)
	rng := NewSeededSource(7)
	now := time.Now()

	for i := 0; i < 2000; i++ {
		point, _ := DrawCrashPoint(snap, settledPlays, rng)
		require.True(t, point.GreaterThanOrEqual(decimal.NewFromInt(1)))
		require.True(t, point.LessThanOrEqual(decimal.NewFromInt(1000)))

		session := &entities.CrashSession{Stake: dec("1"), CrashPoint: point, ExpiresAt: now.Add(time.Hour)}
		out := ResolveCrash(session, dec("2"), now)
		if out.Win {
			require.True(t, out.Multiplier.LessThanOrEqual(point))
		}
	}
}

func TestEngine_PlaySlotsWithSeededSource(t *testing.T) {
	snap := testSnapshot(t)
	eng := New(NewSeededSource(99))

	for i := 0; i < 500; i++ {
		out, err := eng.PlaySlots(snap, int64(i), dec("3"))
		require.NoError(t, err)

		sum := decimal.Zero
		for _, l := range out.Lines {
			sum = sum.Add(l.Multiplier)
		}
		require.True(t, sum.Equal(out.Multiplier))
		require.True(t, out.Payout.Equal(entities.PayoutFor(out.Stake, out.Multiplier)))
	}
}

func TestEngine_SameSeedSameOutcomes(t *testing.T) {
	snap := testSnapshot(t)
	a := New(NewSeededSource(5))
	b := New(NewSeededSource(5))

	for i := 0; i < 50; i++ {
		assert.Equal(t, a.PlayDice(snap, 0, dec("1"), 40).Roll, b.PlayDice(snap, 0, dec("1"), 40).Roll)
	}
}
