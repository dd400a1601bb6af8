// Package app wires the capture, detection, gesture and training layers
// into the running trainer.
package app

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/medsim/epitrainer/internal/capture"
	"github.com/medsim/epitrainer/internal/detector"
	"github.com/medsim/epitrainer/internal/gesture"
	"github.com/medsim/epitrainer/internal/plugin"
	"github.com/medsim/epitrainer/internal/store"
	"github.com/medsim/epitrainer/internal/training"
)

// Pipeline tuning constants.
const (
	// IdleTimeout is how long without motion before dropping to the idle rate.
	IdleTimeout = 2 * time.Second
	// DetectEvery runs the hand detector on every Nth active frame; the
	// frames in between reuse the last gesture snapshots.
	DetectEvery = 5
)

// Config holds configuration options for the application.
type Config struct {
	Store        *store.Store
	PluginDir    string
	CameraID     int
	MotionThresh float64
	UserID       string
}

// EffectListener receives the effects of each controller step, e.g. for
// broadcasting to connected clients.
type EffectListener func([]training.Effect)

// App orchestrates the camera pipeline, gesture recognition and the
// training procedure.
type App struct {
	config     Config
	camera     capture.Camera
	motion     *capture.MotionDetector
	detector   detector.Detector
	recognizer *gesture.Recognizer
	controller *training.Controller
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor

	mu        sync.RWMutex
	stopCh    chan struct{}
	listener  EffectListener
	snapshots []gesture.Snapshot

	// The pipeline goroutine owns the recognizer; session starts hand it
	// a pending reset instead of touching the recognizer directly.
	resetGestures atomic.Bool
}

// New creates an App with the given configuration.
func New(config Config) *App {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = capture.DefaultMotionThreshold
	}

	var saver training.Saver
	if config.Store != nil {
		saver = config.Store.Sessions()
	}

	a := &App{
		config:     config,
		camera:     capture.NewCamera(config.CameraID),
		motion:     capture.NewMotionDetector(motionThreshold),
		recognizer: gesture.NewRecognizer(),
		controller: training.NewController(training.Config{
			FrameWidth:  capture.DefaultWidth,
			FrameHeight: capture.DefaultHeight,
			UserID:      config.UserID,
			Saver:       saver,
		}),
		pluginMgr:  plugin.NewManager(config.PluginDir),
		pluginExec: plugin.NewExecutor(5 * time.Second),
	}

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera sets the camera implementation to use. Call before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetEffectListener registers the listener invoked with each step's effects.
func (a *App) SetEffectListener(l EffectListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = l
}

// DiscoverPlugins scans the plugin directory for cue plugins.
func (a *App) DiscoverPlugins() error {
	if err := a.pluginMgr.Discover(); err != nil {
		return err
	}
	log.Printf("Discovered %d cue plugins", len(a.pluginMgr.List()))
	return nil
}

// Start opens the camera and begins the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(capture.IdleFPS)

	a.stopCh = make(chan struct{})
	go a.runPipeline(a.stopCh)

	log.Println("Tracking pipeline started")
	return nil
}

// Stop halts the pipeline and releases camera and detector resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	a.motion.Close()
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Tracking pipeline stopped")
}

// StartSession begins a training session. The recognizer reset is deferred
// to the pipeline goroutine, which owns the recognizer's histories.
func (a *App) StartSession() {
	a.resetGestures.Store(true)
	effects := a.controller.Start(time.Now())
	a.handleEffects(effects)
}

// AbortSession cancels the running session without recording it.
func (a *App) AbortSession() {
	a.controller.Abort()
}

// AnswerQuiz delivers the quiz answer for the pending pull event.
func (a *App) AnswerQuiz(correct bool) {
	effects := a.controller.Resume(correct, time.Now())
	a.handleEffects(effects)
}

// Controller returns the phase controller.
func (a *App) Controller() *training.Controller {
	return a.controller
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Snapshots returns the latest gesture snapshots from the pipeline.
func (a *App) Snapshots() []gesture.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshots
}

// PlayCue asks the first plugin declaring the cue to deliver it. Missing
// plugins are not an error; the trainer just runs silent.
func (a *App) PlayCue(cue, phase, text, event string) {
	p, err := a.pluginMgr.ForCue(cue)
	if err != nil {
		return
	}
	go func() {
		resp, err := a.pluginExec.Execute(p, &plugin.Request{
			Cue:   cue,
			Phase: phase,
			Text:  text,
			Event: event,
		})
		if err != nil {
			log.Printf("Cue %s failed: %v", cue, err)
			return
		}
		if !resp.Success {
			log.Printf("Cue %s rejected by plugin: %s", cue, resp.Error)
		}
	}()
}

// handleEffects applies controller effects: cue playback, wipe tracking
// resets, and fan-out to the registered listener.
func (a *App) handleEffects(effects []training.Effect) {
	if len(effects) == 0 {
		return
	}

	phase := a.controller.CurrentPhase().String()
	for _, e := range effects {
		switch e.Kind {
		case training.EffectAudioCue:
			a.PlayCue(e.Cue, phase, "", "")
		case training.EffectQuizTrigger:
			a.PlayCue("quiz_prompt", phase, "", string(e.Event))
		case training.EffectResetWipeTracking:
			// only ever emitted by Feed, so this runs on the pipeline
			// goroutine that owns the recognizer
			a.recognizer.ResetCircular()
		case training.EffectSessionComplete:
			if e.Record != nil {
				log.Printf("Session %s complete: accuracy %.0f%%, %.1f cm pulled",
					e.Record.SessionID, e.Record.AccuracyPct, e.Record.MaxPullDistanceCm)
			}
		}
	}

	a.mu.RLock()
	listener := a.listener
	a.mu.RUnlock()
	if listener != nil {
		listener(effects)
	}
}
