// Package tray provides the system tray interface for the trainer.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray is the system tray menu for starting and aborting training sessions.
type Tray struct {
	onStart     func()
	onAbort     func()
	onDashboard func()
	onQuit      func()
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuStart *systray.MenuItem
	menuAbort *systray.MenuItem
	menuPhase *systray.MenuItem
}

// New creates a new Tray instance.
func New() *Tray {
	return &Tray{}
}

// OnStart sets the callback for the start-training menu item.
func (t *Tray) OnStart(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStart = fn
}

// OnAbort sets the callback for the abort-session menu item.
func (t *Tray) OnAbort(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onAbort = fn
}

// OnDashboard sets the callback for the open-dashboard menu item.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback for the quit menu item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("EpiTrainer")
	systray.SetTooltip("Epidural Catheter Removal Trainer")

	t.menuStart = systray.AddMenuItem("Start Training", "Begin a catheter removal session")
	t.menuAbort = systray.AddMenuItem("Abort Session", "Cancel the running session")
	t.menuAbort.Disable()
	systray.AddSeparator()

	t.menuPhase = systray.AddMenuItem("Phase: idle", "Current training phase")
	t.menuPhase.Disable()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the trainer dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit EpiTrainer")

	go func() {
		for {
			select {
			case <-t.menuStart.ClickedCh:
				t.handleStart()
			case <-t.menuAbort.ClickedCh:
				t.handleAbort()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func (t *Tray) handleStart() {
	t.mu.RLock()
	callback := t.onStart
	t.mu.RUnlock()

	t.menuAbort.Enable()
	if callback != nil {
		callback()
	}
}

func (t *Tray) handleAbort() {
	t.mu.RLock()
	callback := t.onAbort
	t.mu.RUnlock()

	t.menuAbort.Disable()
	if callback != nil {
		callback()
	}
}

func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetPhase updates the phase display in the menu.
func (t *Tray) SetPhase(phase string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuPhase == nil {
		return
	}
	if phase == "" {
		t.menuPhase.SetTitle("Phase: idle")
		return
	}
	t.menuPhase.SetTitle("Phase: " + phase)
}

// SessionDone re-enables the start item after a session finishes.
func (t *Tray) SessionDone() {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuAbort != nil {
		t.menuAbort.Disable()
	}
}
