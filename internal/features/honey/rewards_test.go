package honey

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRoller всегда возвращает одно и то же число (обрезанное до n-1).
type fixedRoller int

func (f fixedRoller) IntN(n int) int {
	if int(f) >= n {
		return n - 1
	}
	return int(f)
}

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(2026, 7501))
}

func TestComputeReward_HighDailyOnlyZeroOrOne(t *testing.T) {
	rng := seeded()
	for _, before := range []int64{7501, 7502, 9000, 50_000, 1 << 40} {
		for i := 0; i < 500; i++ {
			got := ComputeReward(before, rng)
			require.Contains(t, []int64{0, 1}, got, "before=%d", before)
		}
	}
}

func TestComputeReward_FirstOfDayDistribution(t *testing.T) {
	const trials = 200_000
	rng := seeded()
	counts := map[int64]int{}

	for i := 0; i < trials; i++ {
		counts[ComputeReward(0, rng)]++
	}

	want := map[int64]float64{
		25:   0.60,
		50:   0.20,
		100:  0.10,
		200:  0.05,
		500:  0.045,
		1000: 0.005,
	}
	require.Len(t, counts, len(want), "unexpected rewards: %v", counts)
	for reward, p := range want {
		got := float64(counts[reward]) / trials
		assert.InDelta(t, p, got, 0.01, "reward %d", reward)
	}
}

func TestComputeReward_WheelSlices(t *testing.T) {
	tests := []struct {
		draw int
		want int64
	}{
		{0, 25}, {599, 25},
		{600, 50}, {799, 50},
		{800, 100}, {899, 100},
		{900, 200}, {949, 200},
		{950, 500}, {994, 500},
		{995, 1000}, {999, 1000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ComputeReward(0, fixedRoller(tt.draw)), "draw=%d", tt.draw)
	}
}

func TestComputeReward_BandRanges(t *testing.T) {
	tests := []struct {
		before   int64
		min, max int64
	}{
		{1, 25, 50},
		{500, 25, 50},
		{501, 10, 20},
		{1000, 10, 20},
		{1001, 5, 10},
		{2000, 5, 10},
		{2001, 1, 5},
		{5000, 1, 5},
		{5001, 0, 2},
		{6000, 0, 2},
		{7500, 0, 2},
		{7501, 0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.min, ComputeReward(tt.before, fixedRoller(0)), "low end, before=%d", tt.before)
		assert.Equal(t, tt.max, ComputeReward(tt.before, fixedRoller(1<<30)), "high end, before=%d", tt.before)
		assert.Equal(t, tt.max, MaxReward(tt.before), "ceiling, before=%d", tt.before)
	}
}

func TestMaxReward_NonIncreasing(t *testing.T) {
	prev := MaxReward(0)
	assert.Equal(t, int64(1000), prev)

	var ceilings []int64
	for before := int64(0); before <= 10_000; before++ {
		cur := MaxReward(before)
		require.LessOrEqual(t, cur, prev, "ceiling grew at before=%d", before)
		if cur != prev || before == 0 {
			ceilings = append(ceilings, cur)
		}
		prev = cur
	}
	assert.Equal(t, []int64{1000, 50, 20, 10, 5, 2, 1}, ceilings)
}

func TestComputeReward_NegativeTreatedAsFirst(t *testing.T) {
	assert.Equal(t, int64(500), ComputeReward(-10, fixedRoller(960)))
}
