package input

import "fmt"

// EventKind enumerates the discrete input events the engine consumes.
type EventKind int

const (
	SelectStart EventKind = iota
	SelectEnd
	SqueezeStart
	SqueezeEnd
	Connected
	Disconnected
)

func (k EventKind) String() string {
	switch k {
	case SelectStart:
		return "select-start"
	case SelectEnd:
		return "select-end"
	case SqueezeStart:
		return "squeeze-start"
	case SqueezeEnd:
		return "squeeze-end"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("event-%d", int(k))
	}
}

// Event is one discrete input event tagged with its source.
type Event struct {
	Kind   EventKind
	Source SourceID
}

func (e Event) String() string {
	return e.Source.String() + " " + e.Kind.String()
}

// Queue is an ordered FIFO of events, filled by the host between frames and drained once per
// frame by the engine. Arrival order is preserved.
type Queue struct {
	events []Event
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends e.
func (q *Queue) Push(e Event) {
	q.events = append(q.events, e)
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	return len(q.events)
}

// Drain returns the pending events in arrival order and empties the queue.
// Events pushed by handlers during a drain are delivered on the next drain.
func (q *Queue) Drain() []Event {
	out := q.events
	q.events = nil
	return out
}
