package runner

import "sync"

// EventType names a Notifier callback.
type EventType string

const (
	EventBegin      EventType = "begin"
	EventEnd        EventType = "end"
	EventAssumption EventType = "assumption"
	EventFailure    EventType = "failure"
	EventIgnored    EventType = "ignored"
)

// Event is one recorded notification.
type Event struct {
	Type   EventType
	Node   string
	Err    error
	Reason string
}

// Recorder is a Notifier that keeps every event in order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Begin(node *Description) { r.record(Event{Type: EventBegin, Node: node.Name}) }

func (r *Recorder) End(node *Description) { r.record(Event{Type: EventEnd, Node: node.Name}) }

func (r *Recorder) ReportAssumptionFailure(node *Description, err error) {
	r.record(Event{Type: EventAssumption, Node: node.Name, Err: err})
}

func (r *Recorder) ReportFailure(node *Description, err error) {
	r.record(Event{Type: EventFailure, Node: node.Name, Err: err})
}

func (r *Recorder) Ignored(node *Description, reason string) {
	r.record(Event{Type: EventIgnored, Node: node.Name, Reason: reason})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many events of type t were recorded.
func (r *Recorder) Count(t EventType) int {
	n := 0
	for _, e := range r.Events() {
		if e.Type == t {
			n++
		}
	}
	return n
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
