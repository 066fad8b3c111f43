package alarm

import "sync"

// Call is one sink invocation captured by RecordingSink.
type Call struct {
	Method string // "publish" or "announce"
	Topic  string
	Body   string
}

// RecordingSink is a Sink that remembers every call, for callers that need
// to assert on what an Alarm emitted.
type RecordingSink struct {
	mu    sync.Mutex
	calls []Call
}

// NewRecordingSink creates an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// Publish records a publish call.
func (r *RecordingSink) Publish(topic, payload string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Method: "publish", Topic: topic, Body: payload})
}

// Announce records an announce call.
func (r *RecordingSink) Announce(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Method: "announce", Body: message})
}

// Calls returns a copy of the recorded calls.
func (r *RecordingSink) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Publishes returns the number of recorded publish calls.
func (r *RecordingSink) Publishes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Method == "publish" {
			n++
		}
	}
	return n
}
