// Package training implements the multi-phase catheter removal procedure:
// the phase state machine, the randomized pull-event queue, and the session
// recorder handed to the persistence collaborator.
package training

import (
	"math"
	"math/rand"
)

// EventKind identifies a scripted interruption during the pull phase.
type EventKind string

const (
	// EventScream is a patient pain cue.
	EventScream EventKind = "scream"
	// EventHighResistance is a high pulling-resistance cue.
	EventHighResistance EventKind = "high_resistance"
	// EventLowResistance is a low pulling-resistance cue.
	EventLowResistance EventKind = "low_resistance"
)

// PullEvent is one scripted interruption, armed at a randomized pull depth.
type PullEvent struct {
	TriggerDistanceCm float64   `json:"trigger_distance_cm"`
	Kind              EventKind `json:"kind"`
}

// PullEventCount is the fixed number of scripted events per session.
const PullEventCount = 4

// NewPullEventQueue generates the event queue for one pull phase: four
// distinct one-decimal distances drawn uniformly from (2.0, 18.0] cm,
// paired with a shuffled multiset of two screams, one high-resistance and
// one low-resistance cue. The returned order is the trigger order and is
// independent of the distance order.
func NewPullEventQueue(rng *rand.Rand) []PullEvent {
	seen := make(map[float64]bool, PullEventCount)
	distances := make([]float64, 0, PullEventCount)
	for len(distances) < PullEventCount {
		d := math.Round((2.0+rng.Float64()*16.0)*10) / 10
		if d <= 2.0 || seen[d] {
			continue
		}
		seen[d] = true
		distances = append(distances, d)
	}

	kinds := []EventKind{EventScream, EventScream, EventHighResistance, EventLowResistance}
	rng.Shuffle(len(kinds), func(i, j int) {
		kinds[i], kinds[j] = kinds[j], kinds[i]
	})

	queue := make([]PullEvent, PullEventCount)
	for i := range queue {
		queue[i] = PullEvent{TriggerDistanceCm: distances[i], Kind: kinds[i]}
	}
	rng.Shuffle(len(queue), func(i, j int) {
		queue[i], queue[j] = queue[j], queue[i]
	})

	return queue
}
