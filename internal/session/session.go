// Package session ties the track buffer, classifier and alarm together for
// one tracked object.
package session

import (
	"github.com/ayusman/safetycam/internal/alarm"
	"github.com/ayusman/safetycam/internal/gesture"
)

// Outcome says whether a sample was classified.
type Outcome int

const (
	// Processed means the classifier ran and produced a verdict.
	Processed Outcome = iota
	// SkippedInsufficientData means there were too few present samples.
	// The alarm state was left untouched.
	SkippedInsufficientData
)

// String returns the outcome name.
func (o Outcome) String() string {
	if o == SkippedInsufficientData {
		return "skipped"
	}
	return "processed"
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result describes what happened to one sample.
type Result struct {
	Sequence      uint64          `json:"sequence"`
	Outcome       Outcome         `json:"outcome"`
	Verdict       gesture.Verdict `json:"verdict"`
	Metrics       gesture.Metrics `json:"metrics"`
	PresentPoints int             `json:"present_points"`
	State         alarm.State     `json:"state"`
	Alert         *alarm.Event    `json:"alert,omitempty"`
}

// Status is a point-in-time view of a session.
type Status struct {
	Last       Result `json:"last"`
	Buffered   int    `json:"buffered"`
	Capacity   int    `json:"capacity"`
	AlertCount int    `json:"alert_count"`
}

// Session owns the sample history and alarm state of one tracked object.
// It is not safe for concurrent use; samples must be fed in order from a
// single goroutine.
type Session struct {
	config     gesture.Config
	buffer     *gesture.TrackBuffer
	classifier *gesture.Classifier
	alarm      *alarm.Machine
	seq        uint64
	alerts     int
	last       Result
}

// New creates a Session. The sink is called when the alarm fires.
func New(config gesture.Config, sink alarm.Sink, alert alarm.Alert) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Session{
		config:     config,
		buffer:     gesture.NewTrackBuffer(config.BufferCapacity),
		classifier: gesture.NewClassifier(config),
		alarm:      alarm.NewMachine(sink, alert),
	}, nil
}

// Process records a sample and runs it through the classifier and alarm.
func (s *Session) Process(sample gesture.Sample) Result {
	s.buffer.Push(sample)
	s.seq++

	a := s.classifier.Classify(s.buffer.Snapshot())
	r := Result{
		Sequence:      s.seq,
		Verdict:       a.Verdict,
		Metrics:       a.Metrics,
		PresentPoints: a.PresentPoints,
	}

	if a.Skipped {
		r.Outcome = SkippedInsufficientData
	} else {
		r.Outcome = Processed
		r.Alert = s.alarm.Observe(a.Verdict)
		if r.Alert != nil {
			s.alerts++
		}
	}

	r.State = s.alarm.State()
	s.last = r
	return r
}

// Snapshot returns the buffered samples, newest first.
func (s *Session) Snapshot() []gesture.Sample {
	return s.buffer.Snapshot()
}

// State returns the alarm state.
func (s *Session) State() alarm.State {
	return s.alarm.State()
}

// Config returns the session settings.
func (s *Session) Config() gesture.Config {
	return s.config
}

// Status returns the last result and buffer occupancy.
func (s *Session) Status() Status {
	return Status{
		Last:       s.last,
		Buffered:   s.buffer.Len(),
		Capacity:   s.buffer.Cap(),
		AlertCount: s.alerts,
	}
}
