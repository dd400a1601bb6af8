package training

import (
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medsim/epitrainer/internal/geometry"
	"github.com/medsim/epitrainer/internal/gesture"
)

// Phase enumerates the steps of the catheter removal procedure.
type Phase int

const (
	PhaseGuidance Phase = iota
	PhaseHoldCatheter
	PhasePeelDressing
	PhaseWipeBlood
	PhasePullCatheter
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseGuidance:
		return "guidance"
	case PhaseHoldCatheter:
		return "hold_catheter"
	case PhasePeelDressing:
		return "peel_dressing"
	case PhaseWipeBlood:
		return "wipe_blood"
	case PhasePullCatheter:
		return "pull_catheter"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Procedure timing and distance parameters.
const (
	GuidanceDuration = 18 * time.Second

	HoldDuration       = 2 * time.Second
	HoldAnchorRadius   = 20.0
	PinchLossTolerance = 500 * time.Millisecond

	DressingRadius   = 70.0
	DressingDuration = 6 * time.Second

	WipeCirclesRequired = 3
	WipeMarkerFade      = 500 * time.Millisecond
	WipeAdvanceDelay    = 2 * time.Second

	// The on-screen catheter line is 240 px long and represents 20 cm.
	PullLineLengthPx  = 240.0
	PullLineLengthCm  = 20.0
	PullProximityPx   = 40.0
	SpeedWarnPxPerSec = 800.0
	SpeedWindow       = 100 * time.Millisecond
	SpeedWarnDuration = 1500 * time.Millisecond
)

const needleHeadY = 150.0

var guideTexts = map[Phase]string{
	PhaseGuidance:     "It's time to remove the epidural catheter. Follow the on-screen instructions for each step of the procedure.",
	PhaseHoldCatheter: "Press and hold the catheter head firmly.",
	PhasePeelDressing: "Peel the dressing tape away from the skin carefully.",
	PhaseWipeBlood:    "Wipe the blood stains with circular motions until the site is clean.",
	PhasePullCatheter: "Pull the catheter out smoothly and steadily.",
	PhaseComplete:     "Procedure complete. Well done.",
}

var phaseCues = map[Phase]string{
	PhaseGuidance:     CueGuideIntro,
	PhaseHoldCatheter: CueHoldCatheter,
	PhasePeelDressing: CuePeelDressing,
	PhaseWipeBlood:    CueWipeBlood,
	PhasePullCatheter: CuePullCatheter,
	PhaseComplete:     CueComplete,
}

func cueForEvent(kind EventKind) string {
	switch kind {
	case EventScream:
		return CuePainScream
	case EventHighResistance:
		return CueHighResistance
	default:
		return CueLowResistance
	}
}

// Config parameterizes a Controller. Zero values fall back to the standard
// 640x480 frame, a time-seeded RNG and the default slog logger.
type Config struct {
	FrameWidth   int
	FrameHeight  int
	UserID       string
	TrainingType string
	Rand         *rand.Rand
	Saver        Saver
	Logger       *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.FrameWidth <= 0 {
		c.FrameWidth = 640
	}
	if c.FrameHeight <= 0 {
		c.FrameHeight = 480
	}
	if c.TrainingType == "" {
		c.TrainingType = "catheter_removal"
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

type pullSample struct {
	t time.Time
	y float64
}

// Controller drives the procedure as a (phase, observation) -> (phase,
// effects) step function. All timing derives from the timestamps passed to
// Start, Feed and Resume, never from the wall clock, so a scripted sequence
// of calls fully determines its behavior.
type Controller struct {
	mu     sync.Mutex
	cfg    Config
	logger *slog.Logger

	anchor  geometry.Point
	needleX float64

	sessionID      string
	phase          Phase
	phaseEnteredAt time.Time
	started        bool
	aborted        bool
	completed      bool

	// hold phase
	holdStart  time.Time
	lastPinch  time.Time
	holdBroken bool

	// dressing phase
	awayFor     time.Duration
	lastOutside time.Time

	// wipe phase
	wipesDone  int
	wipeDoneAt time.Time

	// pull phase
	queue          []PullEvent
	triggered      int
	quizActive     bool
	maxPullPx      float64
	lastPullY      float64
	hasLastPullY   bool
	pullSamples    []pullSample
	speedWarnUntil time.Time
	pullStartedAt  time.Time
	recorder       *SessionRecorder
}

// NewController builds an idle Controller; call Start to begin a session.
func NewController(cfg Config) *Controller {
	cfg = cfg.withDefaults()
	return &Controller{
		cfg:     cfg,
		logger:  cfg.Logger,
		anchor:  geometry.Point{X: float64(cfg.FrameWidth) / 2, Y: float64(cfg.FrameHeight) / 2},
		needleX: float64(cfg.FrameWidth) / 2,
	}
}

// Start begins a fresh session at the guidance phase, discarding any
// previous session state.
func (c *Controller) Start(now time.Time) []Effect {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked()
	c.sessionID = uuid.NewString()
	c.started = true
	c.phase = PhaseGuidance
	c.phaseEnteredAt = now
	c.logger.Info("training session started",
		"session", c.sessionID, "type", c.cfg.TrainingType, "user", c.cfg.UserID)
	return enterEffects(PhaseGuidance)
}

// Abort cancels the session. Subsequent Feed and Resume calls are no-ops
// and no session record is persisted.
func (c *Controller) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || c.aborted || c.phase == PhaseComplete {
		return
	}
	c.aborted = true
	c.logger.Info("training session aborted", "session", c.sessionID, "phase", c.phase.String())
}

// CurrentPhase reports the active phase.
func (c *Controller) CurrentPhase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Queue returns a copy of the pull-event queue, nil before pull-phase entry.
func (c *Controller) Queue() []PullEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queue == nil {
		return nil
	}
	q := make([]PullEvent, len(c.queue))
	copy(q, c.queue)
	return q
}

// Feed advances the procedure with one frame's gesture observations.
func (c *Controller) Feed(snaps []gesture.Snapshot, now time.Time) []Effect {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started || c.aborted || c.phase == PhaseComplete {
		return nil
	}

	switch c.phase {
	case PhaseGuidance:
		if now.Sub(c.phaseEnteredAt) >= GuidanceDuration {
			return c.advanceLocked(PhaseHoldCatheter, now)
		}
	case PhaseHoldCatheter:
		return c.stepHoldLocked(snaps, now)
	case PhasePeelDressing:
		return c.stepPeelLocked(snaps, now)
	case PhaseWipeBlood:
		return c.stepWipeLocked(snaps, now)
	case PhasePullCatheter:
		return c.stepPullLocked(snaps, now)
	}
	return nil
}

// Resume delivers the quiz answer for the pending scripted event. Calls
// with no quiz pending are ignored.
func (c *Controller) Resume(correct bool, now time.Time) []Effect {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started || c.aborted || !c.quizActive {
		return nil
	}
	c.quizActive = false
	c.recorder.MarkResult(correct)
	// stale pinch positions from before the pause must not count as pull
	c.hasLastPullY = false
	c.pullSamples = c.pullSamples[:0]
	c.logger.Info("quiz answered",
		"session", c.sessionID, "correct", correct, "answered", c.triggered)
	return nil
}

func (c *Controller) stepHoldLocked(snaps []gesture.Snapshot, now time.Time) []Effect {
	snap, ok := firstPinched(snaps)
	atAnchor := ok && geometry.Distance(snap.PinchPoint, c.anchor) < HoldAnchorRadius

	if atAnchor {
		if c.holdStart.IsZero() || c.holdBroken {
			// a jitter gap keeps the attempt alive but the continuous
			// hold restarts from the moment the pinch returns
			c.holdStart = now
		}
		c.holdBroken = false
		c.lastPinch = now
		if now.Sub(c.holdStart) >= HoldDuration {
			return c.advanceLocked(PhasePeelDressing, now)
		}
		return nil
	}

	if !c.holdStart.IsZero() {
		if now.Sub(c.lastPinch) >= PinchLossTolerance {
			c.holdStart = time.Time{}
			c.holdBroken = false
		} else {
			c.holdBroken = true
		}
	}
	return nil
}

func (c *Controller) stepPeelLocked(snaps []gesture.Snapshot, now time.Time) []Effect {
	snap, ok := firstHand(snaps)
	if !ok {
		// sensing gap: progress freezes but is not forfeited
		c.lastOutside = time.Time{}
		return nil
	}

	if geometry.Distance(snap.PinchPoint, c.anchor) >= DressingRadius {
		if !c.lastOutside.IsZero() {
			c.awayFor += now.Sub(c.lastOutside)
		}
		c.lastOutside = now
		if c.awayFor >= DressingDuration {
			return c.advanceLocked(PhaseWipeBlood, now)
		}
	} else {
		c.awayFor = 0
		c.lastOutside = time.Time{}
	}
	return nil
}

func (c *Controller) stepWipeLocked(snaps []gesture.Snapshot, now time.Time) []Effect {
	if !c.wipeDoneAt.IsZero() {
		if now.Sub(c.wipeDoneAt) >= WipeAdvanceDelay {
			return c.advanceLocked(PhasePullCatheter, now)
		}
		return nil
	}

	snap, ok := firstHand(snaps)
	if !ok || !snap.Circular.IsCircular || snap.Circular.MotionCount < 1.0 {
		return nil
	}

	marker := c.wipesDone
	c.wipesDone++
	c.logger.Info("stain wiped",
		"session", c.sessionID, "marker", marker, "remaining", WipeCirclesRequired-c.wipesDone)

	effects := []Effect{
		{Kind: EffectMarkerCleaned, Marker: marker},
		{Kind: EffectResetWipeTracking},
	}
	if c.wipesDone >= WipeCirclesRequired {
		c.wipeDoneAt = now
		effects = append(effects, Effect{Kind: EffectAudioCue, Cue: CueSuccess})
	}
	return effects
}

func (c *Controller) stepPullLocked(snaps []gesture.Snapshot, now time.Time) []Effect {
	var effects []Effect

	if !c.quizActive {
		if snap, ok := firstPinched(snaps); ok {
			p := snap.PinchPoint
			marker := geometry.Point{X: c.needleX, Y: needleHeadY + c.maxPullPx}
			if c.hasLastPullY && geometry.Distance(p, marker) < PullProximityPx {
				if delta := p.Y - c.lastPullY; delta > 0 {
					c.maxPullPx = math.Min(c.maxPullPx+delta, PullLineLengthPx)
				}
			}
			c.lastPullY = p.Y
			c.hasLastPullY = true
			effects = append(effects, c.trackPullSpeedLocked(p.Y, now)...)
		} else {
			c.hasLastPullY = false
			c.pullSamples = c.pullSamples[:0]
		}

		if c.triggered < len(c.queue) {
			next := c.queue[c.triggered]
			if c.pullDistanceCmLocked() >= next.TriggerDistanceCm {
				c.triggered++
				c.quizActive = true
				c.recorder.RecordEvent(next.Kind, now.Sub(c.pullStartedAt))
				c.logger.Info("pull event triggered",
					"session", c.sessionID, "kind", string(next.Kind),
					"distance_cm", next.TriggerDistanceCm, "triggered", c.triggered)
				effects = append(effects,
					Effect{Kind: EffectAudioCue, Cue: cueForEvent(next.Kind)},
					Effect{Kind: EffectQuizTrigger, Event: next.Kind},
				)
			}
		}
	}

	if c.triggered == len(c.queue) && c.maxPullPx >= PullLineLengthPx {
		effects = append(effects, c.completeLocked(now)...)
	}
	return effects
}

func (c *Controller) trackPullSpeedLocked(y float64, now time.Time) []Effect {
	c.pullSamples = append(c.pullSamples, pullSample{t: now, y: y})
	cutoff := now.Add(-time.Second)
	drop := 0
	for drop < len(c.pullSamples) && c.pullSamples[drop].t.Before(cutoff) {
		drop++
	}
	if drop > 0 {
		c.pullSamples = append(c.pullSamples[:0], c.pullSamples[drop:]...)
	}

	start := now.Add(-SpeedWindow)
	first := 0
	for first < len(c.pullSamples) && c.pullSamples[first].t.Before(start) {
		first++
	}
	window := c.pullSamples[first:]
	if len(window) < 2 {
		return nil
	}
	dt := window[len(window)-1].t.Sub(window[0].t).Seconds()
	if dt <= 0 {
		return nil
	}
	speed := math.Abs(window[len(window)-1].y-window[0].y) / dt
	if speed <= SpeedWarnPxPerSec {
		return nil
	}

	wasActive := now.Before(c.speedWarnUntil)
	c.speedWarnUntil = now.Add(SpeedWarnDuration)
	if wasActive {
		return nil
	}
	c.logger.Warn("pull speed excessive", "session", c.sessionID, "speed_px_s", speed)
	return []Effect{{Kind: EffectSpeedWarning}}
}

func (c *Controller) completeLocked(now time.Time) []Effect {
	if c.completed {
		return nil
	}
	c.completed = true
	c.phase = PhaseComplete
	c.phaseEnteredAt = now

	rec := c.recorder.Finalize(c.pullDistanceCmLocked(), now)
	c.logger.Info("training complete",
		"session", c.sessionID, "accuracy_pct", rec.AccuracyPct,
		"elapsed", rec.ElapsedTime, "pull_cm", rec.MaxPullDistanceCm)
	if c.cfg.Saver != nil {
		if err := c.cfg.Saver.SaveSession(rec); err != nil {
			c.logger.Error("saving session record", "session", c.sessionID, "err", err)
		}
	}
	return []Effect{
		{Kind: EffectPhaseEntered, Phase: PhaseComplete},
		{Kind: EffectGuideText, Text: guideTexts[PhaseComplete]},
		{Kind: EffectAudioCue, Cue: CueComplete},
		{Kind: EffectSessionComplete, Record: rec},
	}
}

func (c *Controller) advanceLocked(next Phase, now time.Time) []Effect {
	prev := c.phase
	c.phase = next
	c.phaseEnteredAt = now

	if next == PhasePullCatheter {
		c.queue = NewPullEventQueue(c.cfg.Rand)
		c.pullStartedAt = now
		c.recorder = NewSessionRecorder(c.sessionID, c.cfg.UserID, c.cfg.TrainingType, c.queue, now)
	}

	c.logger.Info("phase advanced",
		"session", c.sessionID, "from", prev.String(), "to", next.String())

	var effects []Effect
	if prev == PhaseHoldCatheter || prev == PhasePeelDressing {
		effects = append(effects, Effect{Kind: EffectAudioCue, Cue: CueSuccess})
	}
	return append(effects, enterEffects(next)...)
}

func enterEffects(p Phase) []Effect {
	return []Effect{
		{Kind: EffectPhaseEntered, Phase: p},
		{Kind: EffectGuideText, Text: guideTexts[p]},
		{Kind: EffectAudioCue, Cue: phaseCues[p]},
	}
}

func (c *Controller) resetLocked() {
	c.sessionID = ""
	c.phase = PhaseGuidance
	c.phaseEnteredAt = time.Time{}
	c.started = false
	c.aborted = false
	c.completed = false
	c.holdStart = time.Time{}
	c.lastPinch = time.Time{}
	c.holdBroken = false
	c.awayFor = 0
	c.lastOutside = time.Time{}
	c.wipesDone = 0
	c.wipeDoneAt = time.Time{}
	c.queue = nil
	c.triggered = 0
	c.quizActive = false
	c.maxPullPx = 0
	c.lastPullY = 0
	c.hasLastPullY = false
	c.pullSamples = nil
	c.speedWarnUntil = time.Time{}
	c.pullStartedAt = time.Time{}
	c.recorder = nil
}

func (c *Controller) pullDistanceCmLocked() float64 {
	return c.maxPullPx / PullLineLengthPx * PullLineLengthCm
}

// State is a broadcast-friendly view of the controller.
type State struct {
	SessionID       string  `json:"session_id"`
	Phase           string  `json:"phase"`
	PhaseElapsedSec float64 `json:"phase_elapsed_s"`
	HoldProgress    float64 `json:"hold_progress"`
	PeelProgress    float64 `json:"peel_progress"`
	WipesDone       int     `json:"wipes_done"`
	PullDistanceCm  float64 `json:"pull_distance_cm"`
	EventsTriggered int     `json:"events_triggered"`
	EventsCorrect   int     `json:"events_correct"`
	QuizActive      bool    `json:"quiz_active"`
	SpeedWarning    bool    `json:"speed_warning"`
	Aborted         bool    `json:"aborted"`
}

// State snapshots the controller for broadcasting.
func (c *Controller) State(now time.Time) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		SessionID:       c.sessionID,
		Phase:           c.phase.String(),
		WipesDone:       c.wipesDone,
		PullDistanceCm:  c.pullDistanceCmLocked(),
		EventsTriggered: c.triggered,
		QuizActive:      c.quizActive,
		SpeedWarning:    now.Before(c.speedWarnUntil),
		Aborted:         c.aborted,
	}
	if c.started {
		s.PhaseElapsedSec = now.Sub(c.phaseEnteredAt).Seconds()
	}
	if c.phase == PhaseHoldCatheter && !c.holdStart.IsZero() && !c.holdBroken {
		s.HoldProgress = geometry.Clamp(now.Sub(c.holdStart).Seconds()/HoldDuration.Seconds(), 0, 1)
	}
	if c.phase == PhasePeelDressing {
		s.PeelProgress = geometry.Clamp(c.awayFor.Seconds()/DressingDuration.Seconds(), 0, 1)
	}
	if c.recorder != nil {
		s.EventsCorrect = c.recorder.CorrectCount()
	}
	return s
}

func firstPinched(snaps []gesture.Snapshot) (gesture.Snapshot, bool) {
	for _, s := range snaps {
		if s.Pinch.IsPinched {
			return s, true
		}
	}
	return gesture.Snapshot{}, false
}

func firstHand(snaps []gesture.Snapshot) (gesture.Snapshot, bool) {
	if len(snaps) == 0 {
		return gesture.Snapshot{}, false
	}
	return snaps[0], true
}
