package training

import (
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medsim/epitrainer/internal/geometry"
	"github.com/medsim/epitrainer/internal/gesture"
)

type fakeSaver struct {
	mu      sync.Mutex
	records []*SessionRecord
	err     error
}

func (s *fakeSaver) SaveSession(rec *SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeSaver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

var testAnchor = geometry.Point{X: 320, Y: 240}

func pinchedAt(p geometry.Point) gesture.Snapshot {
	return gesture.Snapshot{
		Handedness: "Right",
		Confidence: 0.95,
		PinchPoint: p,
		Pinch:      gesture.PinchState{IsPinched: true, Distance: 40, Strength: 0.7},
	}
}

func openAt(p geometry.Point) gesture.Snapshot {
	return gesture.Snapshot{
		Handedness: "Right",
		Confidence: 0.95,
		PinchPoint: p,
		Pinch:      gesture.PinchState{IsPinched: false, Distance: 200},
	}
}

func circularSnap(count float64) gesture.Snapshot {
	s := openAt(testAnchor)
	s.Circular = gesture.CircularMotion{
		IsCircular:  true,
		MotionCount: count,
		HasCenter:   true,
		Center:      testAnchor,
		Radius:      60,
		Consistency: 0.9,
	}
	return s
}

func newTestController(seed int64) (*Controller, *fakeSaver) {
	saver := &fakeSaver{}
	c := NewController(Config{
		UserID: "tester",
		Rand:   rand.New(rand.NewSource(seed)),
		Saver:  saver,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return c, saver
}

func hasEffect(effects []Effect, kind EffectKind) bool {
	for _, e := range effects {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func findEffect(effects []Effect, kind EffectKind) (Effect, bool) {
	for _, e := range effects {
		if e.Kind == kind {
			return e, true
		}
	}
	return Effect{}, false
}

// driveToHold runs out the guidance narration.
func driveToHold(t *testing.T, c *Controller, t0 time.Time) time.Time {
	t.Helper()
	now := t0.Add(GuidanceDuration)
	c.Feed(nil, now)
	require.Equal(t, PhaseHoldCatheter, c.CurrentPhase())
	return now
}

// driveToPeel completes the hold with an uninterrupted pinch.
func driveToPeel(t *testing.T, c *Controller, now time.Time) time.Time {
	t.Helper()
	c.Feed([]gesture.Snapshot{pinchedAt(testAnchor)}, now.Add(time.Second))
	now = now.Add(time.Second + HoldDuration)
	c.Feed([]gesture.Snapshot{pinchedAt(testAnchor)}, now)
	require.Equal(t, PhasePeelDressing, c.CurrentPhase())
	return now
}

// driveToWipe keeps the hand clear of the dressing for the full interval.
func driveToWipe(t *testing.T, c *Controller, now time.Time) time.Time {
	t.Helper()
	outside := geometry.Point{X: 100, Y: 100}
	c.Feed([]gesture.Snapshot{openAt(outside)}, now.Add(time.Second))
	now = now.Add(time.Second + DressingDuration)
	c.Feed([]gesture.Snapshot{openAt(outside)}, now)
	require.Equal(t, PhaseWipeBlood, c.CurrentPhase())
	return now
}

// driveToPull wipes all three stains and waits out the advance delay.
func driveToPull(t *testing.T, c *Controller, now time.Time) time.Time {
	t.Helper()
	for i := 0; i < WipeCirclesRequired; i++ {
		now = now.Add(time.Second)
		effects := c.Feed([]gesture.Snapshot{circularSnap(1.0)}, now)
		require.True(t, hasEffect(effects, EffectMarkerCleaned))
		require.True(t, hasEffect(effects, EffectResetWipeTracking))
	}
	now = now.Add(WipeAdvanceDelay)
	c.Feed(nil, now)
	require.Equal(t, PhasePullCatheter, c.CurrentPhase())
	return now
}

func TestGuidanceAdvancesAfterNarration(t *testing.T) {
	c, _ := newTestController(1)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	effects := c.Start(t0)
	ent, ok := findEffect(effects, EffectPhaseEntered)
	require.True(t, ok)
	assert.Equal(t, PhaseGuidance, ent.Phase)

	assert.Empty(t, c.Feed(nil, t0.Add(GuidanceDuration-100*time.Millisecond)))
	assert.Equal(t, PhaseGuidance, c.CurrentPhase())

	effects = c.Feed(nil, t0.Add(GuidanceDuration))
	assert.Equal(t, PhaseHoldCatheter, c.CurrentPhase())
	ent, ok = findEffect(effects, EffectPhaseEntered)
	require.True(t, ok)
	assert.Equal(t, PhaseHoldCatheter, ent.Phase)
	assert.True(t, hasEffect(effects, EffectGuideText))
}

func TestHoldContinuousPinchSucceeds(t *testing.T) {
	c, _ := newTestController(1)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.Start(t0)
	now := driveToHold(t, c, t0)

	for offset := time.Duration(0); offset < HoldDuration; offset += 100 * time.Millisecond {
		c.Feed([]gesture.Snapshot{pinchedAt(testAnchor)}, now.Add(time.Second+offset))
		require.Equal(t, PhaseHoldCatheter, c.CurrentPhase())
	}
	c.Feed([]gesture.Snapshot{pinchedAt(testAnchor)}, now.Add(time.Second+HoldDuration))
	assert.Equal(t, PhasePeelDressing, c.CurrentPhase())
}

func TestHoldBriefGapRestartsContinuousRun(t *testing.T) {
	c, _ := newTestController(1)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.Start(t0)
	base := driveToHold(t, c, t0).Add(time.Second)

	step := 100 * time.Millisecond
	feed := func(offset time.Duration, snaps []gesture.Snapshot) {
		c.Feed(snaps, base.Add(offset))
	}

	// 1.9 s pinch, 0.4 s detection gap, 0.2 s pinch: no success
	for off := time.Duration(0); off <= 1900*time.Millisecond; off += step {
		feed(off, []gesture.Snapshot{pinchedAt(testAnchor)})
	}
	for off := 2 * time.Second; off <= 2200*time.Millisecond; off += step {
		feed(off, nil)
	}
	for off := 2300 * time.Millisecond; off <= 2500*time.Millisecond; off += step {
		feed(off, []gesture.Snapshot{pinchedAt(testAnchor)})
		require.Equal(t, PhaseHoldCatheter, c.CurrentPhase())
	}

	// the run restarted at 2.3 s, so 2.0 s later it succeeds
	feed(2300*time.Millisecond+HoldDuration, []gesture.Snapshot{pinchedAt(testAnchor)})
	assert.Equal(t, PhasePeelDressing, c.CurrentPhase())
}

func TestHoldLongGapResetsEntirely(t *testing.T) {
	c, _ := newTestController(1)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.Start(t0)
	base := driveToHold(t, c, t0).Add(time.Second)

	step := 100 * time.Millisecond
	for off := time.Duration(0); off <= 1900*time.Millisecond; off += step {
		c.Feed([]gesture.Snapshot{pinchedAt(testAnchor)}, base.Add(off))
	}
	for off := 2 * time.Second; off <= 2400*time.Millisecond; off += step {
		c.Feed(nil, base.Add(off))
	}

	resume := base.Add(2500 * time.Millisecond)
	c.Feed([]gesture.Snapshot{pinchedAt(testAnchor)}, resume)
	c.Feed([]gesture.Snapshot{pinchedAt(testAnchor)}, resume.Add(HoldDuration-100*time.Millisecond))
	require.Equal(t, PhaseHoldCatheter, c.CurrentPhase())
	c.Feed([]gesture.Snapshot{pinchedAt(testAnchor)}, resume.Add(HoldDuration))
	assert.Equal(t, PhasePeelDressing, c.CurrentPhase())
}

func TestHoldIgnoresPinchAwayFromAnchor(t *testing.T) {
	c, _ := newTestController(1)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.Start(t0)
	now := driveToHold(t, c, t0)

	far := geometry.Point{X: 100, Y: 100}
	for i := 0; i < 30; i++ {
		c.Feed([]gesture.Snapshot{pinchedAt(far)}, now.Add(time.Duration(i+1)*200*time.Millisecond))
	}
	assert.Equal(t, PhaseHoldCatheter, c.CurrentPhase())
}

func TestPeelReentryCancelsDeparture(t *testing.T) {
	c, _ := newTestController(1)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.Start(t0)
	now := driveToPeel(t, c, driveToHold(t, c, t0))

	outside := geometry.Point{X: 100, Y: 100}
	c.Feed([]gesture.Snapshot{openAt(outside)}, now.Add(time.Second))
	c.Feed([]gesture.Snapshot{openAt(outside)}, now.Add(5*time.Second))
	require.Equal(t, PhasePeelDressing, c.CurrentPhase())

	// back inside the dressing radius: accumulated time is forfeited
	c.Feed([]gesture.Snapshot{openAt(testAnchor)}, now.Add(5500*time.Millisecond))

	c.Feed([]gesture.Snapshot{openAt(outside)}, now.Add(6*time.Second))
	c.Feed([]gesture.Snapshot{openAt(outside)}, now.Add(9*time.Second))
	require.Equal(t, PhasePeelDressing, c.CurrentPhase())
	c.Feed([]gesture.Snapshot{openAt(outside)}, now.Add(12*time.Second))
	assert.Equal(t, PhaseWipeBlood, c.CurrentPhase())
}

func TestWipeRequiresThreeCircles(t *testing.T) {
	c, _ := newTestController(1)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.Start(t0)
	now := driveToWipe(t, c, driveToPeel(t, c, driveToHold(t, c, t0)))

	// incomplete circular motion does not count
	effects := c.Feed([]gesture.Snapshot{circularSnap(0.5)}, now.Add(time.Second))
	assert.False(t, hasEffect(effects, EffectMarkerCleaned))

	for i := 0; i < WipeCirclesRequired; i++ {
		now = now.Add(2 * time.Second)
		effects = c.Feed([]gesture.Snapshot{circularSnap(1.0)}, now)
		ev, ok := findEffect(effects, EffectMarkerCleaned)
		require.True(t, ok)
		assert.Equal(t, i, ev.Marker)
		require.True(t, hasEffect(effects, EffectResetWipeTracking))
	}
	require.Equal(t, PhaseWipeBlood, c.CurrentPhase())

	c.Feed(nil, now.Add(WipeAdvanceDelay-100*time.Millisecond))
	require.Equal(t, PhaseWipeBlood, c.CurrentPhase())
	c.Feed(nil, now.Add(WipeAdvanceDelay))
	assert.Equal(t, PhasePullCatheter, c.CurrentPhase())
	assert.Len(t, c.Queue(), PullEventCount)
}

func TestPullFullRunCompletesOnce(t *testing.T) {
	c, saver := newTestController(7)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.Start(t0)
	now := driveToPull(t, c, driveToWipe(t, c, driveToPeel(t, c, driveToHold(t, c, t0))))

	queue := c.Queue()
	require.Len(t, queue, PullEventCount)

	answered := 0
	y := needleHeadY
	for i := 0; i < 300 && c.CurrentPhase() == PhasePullCatheter; i++ {
		now = now.Add(50 * time.Millisecond)
		effects := c.Feed([]gesture.Snapshot{pinchedAt(geometry.Point{X: 320, Y: y})}, now)
		assert.False(t, hasEffect(effects, EffectSpeedWarning), "slow pull must not warn")
		if trig, ok := findEffect(effects, EffectQuizTrigger); ok {
			require.Less(t, answered, PullEventCount)
			assert.Equal(t, queue[answered].Kind, trig.Event, "events fire in queue order")
			answered++
			c.Resume(true, now)
			continue
		}
		y += 5
	}

	require.Equal(t, PhaseComplete, c.CurrentPhase())
	assert.Equal(t, PullEventCount, answered)
	require.Equal(t, 1, saver.count())

	rec := saver.records[0]
	assert.Equal(t, 100.0, rec.AccuracyPct)
	assert.InDelta(t, PullLineLengthCm, rec.MaxPullDistanceCm, 1e-9)
	require.Len(t, rec.Events, PullEventCount)

	// further frames after completion change nothing
	effects := c.Feed([]gesture.Snapshot{pinchedAt(geometry.Point{X: 320, Y: y})}, now.Add(time.Second))
	assert.Empty(t, effects)
	assert.Equal(t, 1, saver.count())
}

func TestPullWrongAnswersLowerAccuracy(t *testing.T) {
	c, saver := newTestController(11)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.Start(t0)
	now := driveToPull(t, c, driveToWipe(t, c, driveToPeel(t, c, driveToHold(t, c, t0))))

	answered := 0
	y := needleHeadY
	for i := 0; i < 300 && c.CurrentPhase() == PhasePullCatheter; i++ {
		now = now.Add(50 * time.Millisecond)
		effects := c.Feed([]gesture.Snapshot{pinchedAt(geometry.Point{X: 320, Y: y})}, now)
		if hasEffect(effects, EffectQuizTrigger) {
			// answer the first two wrong
			c.Resume(answered >= 2, now)
			answered++
			continue
		}
		y += 5
	}

	require.Equal(t, PhaseComplete, c.CurrentPhase())
	require.Equal(t, 1, saver.count())
	assert.Equal(t, 50.0, saver.records[0].AccuracyPct)
}

func TestPullSpeedWarningFiresOnce(t *testing.T) {
	c, _ := newTestController(3)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.Start(t0)
	now := driveToPull(t, c, driveToWipe(t, c, driveToPeel(t, c, driveToHold(t, c, t0))))

	c.Feed([]gesture.Snapshot{pinchedAt(geometry.Point{X: 320, Y: 150})}, now.Add(50*time.Millisecond))
	effects := c.Feed([]gesture.Snapshot{pinchedAt(geometry.Point{X: 320, Y: 230})}, now.Add(100*time.Millisecond))
	assert.True(t, hasEffect(effects, EffectSpeedWarning), "80 px in 50 ms exceeds the limit")

	// the advisory is refreshed, not re-announced, while still showing
	effects = c.Feed([]gesture.Snapshot{pinchedAt(geometry.Point{X: 320, Y: 310})}, now.Add(150*time.Millisecond))
	assert.False(t, hasEffect(effects, EffectSpeedWarning))

	st := c.State(now.Add(200 * time.Millisecond))
	assert.True(t, st.SpeedWarning)
	st = c.State(now.Add(5 * time.Second))
	assert.False(t, st.SpeedWarning)
}

func TestResumeWithoutPendingQuizIsIgnored(t *testing.T) {
	c, _ := newTestController(1)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.Start(t0)
	driveToHold(t, c, t0)

	assert.Empty(t, c.Resume(true, t0.Add(20*time.Second)))
	assert.Equal(t, PhaseHoldCatheter, c.CurrentPhase())
}

func TestAbortStopsSession(t *testing.T) {
	c, saver := newTestController(1)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.Start(t0)
	driveToHold(t, c, t0)

	c.Abort()
	effects := c.Feed([]gesture.Snapshot{pinchedAt(testAnchor)}, t0.Add(30*time.Second))
	assert.Empty(t, effects)
	assert.Equal(t, PhaseHoldCatheter, c.CurrentPhase())
	assert.Equal(t, 0, saver.count())
	assert.True(t, c.State(t0.Add(30*time.Second)).Aborted)
}

func TestStateSnapshot(t *testing.T) {
	c, _ := newTestController(1)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.Start(t0)

	st := c.State(t0.Add(5 * time.Second))
	assert.Equal(t, "guidance", st.Phase)
	assert.InDelta(t, 5.0, st.PhaseElapsedSec, 1e-9)
	assert.NotEmpty(t, st.SessionID)

	now := driveToHold(t, c, t0)
	c.Feed([]gesture.Snapshot{pinchedAt(testAnchor)}, now.Add(time.Second))
	st = c.State(now.Add(2 * time.Second))
	assert.Equal(t, "hold_catheter", st.Phase)
	assert.InDelta(t, 0.5, st.HoldProgress, 1e-9)
}
