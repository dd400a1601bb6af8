package training

// EffectKind discriminates the side effects a Controller step can emit.
type EffectKind int

const (
	// EffectPhaseEntered announces a phase transition.
	EffectPhaseEntered EffectKind = iota
	// EffectGuideText carries on-screen instruction text.
	EffectGuideText
	// EffectAudioCue asks the cue subsystem to play a named clip.
	EffectAudioCue
	// EffectMarkerCleaned marks one blood stain as wiped; the UI fades it
	// out over WipeMarkerFade.
	EffectMarkerCleaned
	// EffectResetWipeTracking asks the caller to clear the recognizer's
	// circular-motion history so the next wipe starts from scratch.
	EffectResetWipeTracking
	// EffectQuizTrigger opens the quiz overlay for a scripted event.
	EffectQuizTrigger
	// EffectSpeedWarning shows the pulling-too-fast advisory.
	EffectSpeedWarning
	// EffectSessionComplete carries the finalized session record.
	EffectSessionComplete
)

// Effect is one side effect emitted by a Controller step. Only the fields
// relevant to the Kind are populated.
type Effect struct {
	Kind   EffectKind
	Phase  Phase
	Text   string
	Cue    string
	Marker int
	Event  EventKind
	Record *SessionRecord
}

// Cue clip names understood by the audio plugin.
const (
	CueGuideIntro     = "guide_intro"
	CueHoldCatheter   = "hold_catheter"
	CuePeelDressing   = "peel_dressing"
	CueWipeBlood      = "wipe_blood"
	CuePullCatheter   = "pull_catheter"
	CueSuccess        = "success"
	CuePainScream     = "pain_scream"
	CueHighResistance = "high_resistance"
	CueLowResistance  = "low_resistance"
	CueComplete       = "training_complete"
)
