package tray

import (
	"testing"
	"time"

	"github.com/ayusman/safetycam/internal/alarm"
)

func TestTitles(t *testing.T) {
	if got := toggleTitle(true); got != "● Enabled" {
		t.Errorf("toggleTitle(true) = %q", got)
	}
	if got := toggleTitle(false); got != "○ Disabled" {
		t.Errorf("toggleTitle(false) = %q", got)
	}
	if got := stateTitle(alarm.Triggered); got != "Alarm: TRIGGERED" {
		t.Errorf("stateTitle(Triggered) = %q", got)
	}
	if got := stateTitle(alarm.Idle); got != "Alarm: idle" {
		t.Errorf("stateTitle(Idle) = %q", got)
	}
	if got := lastAlertTitle(time.Time{}); got != "Last alert: none" {
		t.Errorf("lastAlertTitle(zero) = %q", got)
	}
	at := time.Date(2024, 3, 7, 9, 5, 1, 0, time.UTC)
	if got := lastAlertTitle(at); got != "Last alert: Mar 7 09:05:01" {
		t.Errorf("lastAlertTitle() = %q", got)
	}
}

func TestToggle_WithoutMenu(t *testing.T) {
	tr := New()
	if !tr.IsEnabled() {
		t.Fatal("tray should start enabled")
	}

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] || !got[1] {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
	if !tr.IsEnabled() {
		t.Error("tray should be enabled after two toggles")
	}

	// Menu updates are no-ops before Run
	tr.SetState(alarm.Triggered)
	tr.SetLastAlert(&alarm.Event{FiredAt: time.Now()})
}

func TestOpenCallback(t *testing.T) {
	tr := New()
	if tr.hasDashboard() {
		t.Fatal("dashboard item shown without a callback")
	}
	// Clicking without a callback is a no-op
	tr.handleOpen()

	calls := 0
	tr.OnOpen(func() { calls++ })
	if !tr.hasDashboard() {
		t.Fatal("dashboard item hidden with a callback set")
	}

	tr.handleOpen()

	if calls != 1 {
		t.Errorf("open callback calls = %d, want 1", calls)
	}
}
