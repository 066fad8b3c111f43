// Package alarm implements the edge-triggered alert state machine.
package alarm

import (
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/safetycam/internal/gesture"
)

// State is the alarm state of a tracking session.
type State int

const (
	// Idle means the alarm is armed and will fire on the next circle.
	Idle State = iota
	// Triggered means the alarm has fired and waits for the gesture to stop.
	Triggered
)

// String returns the state name.
func (s State) String() string {
	if s == Triggered {
		return "triggered"
	}
	return "idle"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Default alert contents.
const (
	DefaultTopic   = "safetycam/topic/blinkt"
	DefaultPayload = "red"
	DefaultMessage = "ALERT ALERT ALERT ALARM TRIGGERED Someone needs help urgently. Please do the needful at the earliest"
)

// Sink receives alerts. Calls must not block the caller; delivery failures
// are the sink's to report.
type Sink interface {
	Publish(topic, payload string)
	Announce(message string)
}

// Alert is the fixed content sent to the sink when the alarm fires.
type Alert struct {
	Topic   string `json:"topic"`
	Payload string `json:"payload"`
	Message string `json:"message"`
}

// DefaultAlert returns the standard distress alert.
func DefaultAlert() Alert {
	return Alert{
		Topic:   DefaultTopic,
		Payload: DefaultPayload,
		Message: DefaultMessage,
	}
}

// Event describes one firing of the alarm.
type Event struct {
	ID      string    `json:"id"`
	FiredAt time.Time `json:"fired_at"`
	Alert   Alert     `json:"alert"`
}

// Machine tracks the alarm state across verdicts.
type Machine struct {
	state State
	sink  Sink
	alert Alert
	now   func() time.Time
}

// NewMachine creates a Machine in the Idle state. A nil sink drops alerts.
func NewMachine(sink Sink, alert Alert) *Machine {
	return &Machine{
		state: Idle,
		sink:  sink,
		alert: alert,
		now:   time.Now,
	}
}

// State returns the current alarm state.
func (m *Machine) State() State {
	return m.state
}

// Observe applies one verdict. It returns the fired Event when the verdict
// moves the alarm from Idle to Triggered, and nil otherwise.
func (m *Machine) Observe(v gesture.Verdict) *Event {
	switch v {
	case gesture.Circle:
		if m.state == Triggered {
			return nil
		}
		m.state = Triggered
		return m.fire()
	default:
		// NotCircle and Indeterminate both disarm silently.
		m.state = Idle
		return nil
	}
}

func (m *Machine) fire() *Event {
	ev := &Event{
		ID:      uuid.New().String(),
		FiredAt: m.now(),
		Alert:   m.alert,
	}
	if m.sink != nil {
		m.sink.Publish(m.alert.Topic, m.alert.Payload)
		m.sink.Announce(m.alert.Message)
	}
	return ev
}
