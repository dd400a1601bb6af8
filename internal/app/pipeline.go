package app

import (
	"log"
	"time"

	"github.com/medsim/epitrainer/internal/capture"
)

// runPipeline is the main loop feeding camera frames through motion
// gating, hand detection and the phase controller.
//
// Pipeline logic:
//  1. Start at the idle rate.
//  2. On motion, switch to the active rate.
//  3. Run hand detection on every DetectEvery-th active frame; the
//     frames in between reuse the cached snapshots so the controller
//     still sees time advance.
//  4. Feed the controller and apply its effects.
//  5. After IdleTimeout without motion, drop back to the idle rate.
func (a *App) runPipeline(stopCh chan struct{}) {
	activeMode := false
	lastMotionTime := time.Now()
	frameCount := 0

	frameInterval := time.Second / time.Duration(capture.IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			motionDetected, _ := a.motion.Detect(frame)
			now := time.Now()

			if motionDetected {
				lastMotionTime = now
				if !activeMode {
					activeMode = true
					a.camera.SetFPS(capture.ActiveFPS)
					frameInterval = time.Second / time.Duration(capture.ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode && now.Sub(lastMotionTime) > IdleTimeout {
				activeMode = false
				a.camera.SetFPS(capture.IdleFPS)
				frameInterval = time.Second / time.Duration(capture.IdleFPS)
				ticker.Reset(frameInterval)
				frameCount = 0
				log.Println("Switched to idle mode")
			}

			if !activeMode {
				frame.Close()
				continue
			}

			if a.resetGestures.CompareAndSwap(true, false) {
				a.recognizer.Reset()
			}

			frameCount++
			if frameCount%DetectEvery == 1 || DetectEvery == 1 {
				det := a.Detector()
				poses, err := det.Detect(frame)
				frame.Close()
				if err != nil {
					log.Printf("Error detecting hands: %v", err)
					continue
				}
				snaps := a.recognizer.Process(poses)
				a.mu.Lock()
				a.snapshots = snaps
				a.mu.Unlock()
			} else {
				frame.Close()
			}

			a.mu.RLock()
			snaps := a.snapshots
			a.mu.RUnlock()

			effects := a.controller.Feed(snaps, now)
			a.handleEffects(effects)
		}
	}
}
