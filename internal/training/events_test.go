package training

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPullEventQueueProperties(t *testing.T) {
	for seed := int64(0); seed < 100; seed++ {
		rng := rand.New(rand.NewSource(seed))
		queue := NewPullEventQueue(rng)
		require.Len(t, queue, PullEventCount, "seed %d", seed)

		seen := make(map[float64]bool)
		kinds := make(map[EventKind]int)
		for _, ev := range queue {
			assert.Greater(t, ev.TriggerDistanceCm, 2.0, "seed %d", seed)
			assert.LessOrEqual(t, ev.TriggerDistanceCm, 18.0, "seed %d", seed)
			rounded := math.Round(ev.TriggerDistanceCm*10) / 10
			assert.InDelta(t, rounded, ev.TriggerDistanceCm, 1e-9,
				"seed %d: distance %v not one-decimal", seed, ev.TriggerDistanceCm)
			assert.False(t, seen[ev.TriggerDistanceCm],
				"seed %d: duplicate distance %v", seed, ev.TriggerDistanceCm)
			seen[ev.TriggerDistanceCm] = true
			kinds[ev.Kind]++
		}
		assert.Equal(t, 2, kinds[EventScream], "seed %d", seed)
		assert.Equal(t, 1, kinds[EventHighResistance], "seed %d", seed)
		assert.Equal(t, 1, kinds[EventLowResistance], "seed %d", seed)
	}
}

func TestNewPullEventQueueDeterministic(t *testing.T) {
	a := NewPullEventQueue(rand.New(rand.NewSource(42)))
	b := NewPullEventQueue(rand.New(rand.NewSource(42)))
	assert.Equal(t, a, b)
}
