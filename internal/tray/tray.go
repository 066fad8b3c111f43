// Package tray provides a system tray interface for safetycam.
package tray

import (
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/ayusman/safetycam/internal/alarm"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuState     *systray.MenuItem
	menuLastAlert *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback for the dashboard menu item. The item is only
// added when a callback is set before Run.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

// hasDashboard reports whether the dashboard menu item should be shown.
func (t *Tray) hasDashboard() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.onOpen != nil
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("SafetyCam")
	systray.SetTooltip("SafetyCam distress signal monitor")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle circle detection")
	systray.AddSeparator()

	t.menuState = systray.AddMenuItem(stateTitle(alarm.Idle), "Alarm state")
	t.menuState.Disable()
	t.menuLastAlert = systray.AddMenuItem(lastAlertTitle(time.Time{}), "Last fired alert")
	t.menuLastAlert.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	// A nil channel never fires, so the dashboard case is inert without the item.
	var openCh chan struct{}
	if t.hasDashboard() {
		menuOpen := systray.AddMenuItem("Open Dashboard...", "Open the status page in a browser")
		systray.AddSeparator()
		openCh = menuOpen.ClickedCh
	}

	menuQuit := systray.AddMenuItem("Quit", "Quit SafetyCam")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-openCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func stateTitle(state alarm.State) string {
	if state == alarm.Triggered {
		return "Alarm: TRIGGERED"
	}
	return "Alarm: idle"
}

func lastAlertTitle(at time.Time) string {
	if at.IsZero() {
		return "Last alert: none"
	}
	return "Last alert: " + at.Format("Jan 2 15:04:05")
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleOpen handles the dashboard menu item click.
func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetState updates the alarm state line.
func (t *Tray) SetState(state alarm.State) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuState != nil {
		t.menuState.SetTitle(stateTitle(state))
	}
}

// SetLastAlert updates the last alert line.
func (t *Tray) SetLastAlert(ev *alarm.Event) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastAlert == nil {
		return
	}
	var at time.Time
	if ev != nil {
		at = ev.FiredAt
	}
	t.menuLastAlert.SetTitle(lastAlertTitle(at))
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
