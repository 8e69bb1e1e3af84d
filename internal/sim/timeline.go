package sim

import (
	"container/heap"
	"context"

	"github.com/pkg/errors"
)

var PastEventErr = errors.New("event scheduled in the past")
var NoHandlerErr = errors.New("no handler for event")

type State int

const (
	Idle State = iota
	Running
	Stopping
	Halted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "halted"
	}
}

// Handler processes an event. Returning an error aborts the run.
type Handler func(ctx context.Context, e Event) error

// Timeline dispatches events in time order, one at a time.
// It is not safe for concurrent use.
type Timeline struct {
	now      float64
	seq      int
	eventLog EventLog
	handlers map[Kind]Handler
	state    State
}

func NewTimeline() *Timeline {
	return &Timeline{handlers: make(map[Kind]Handler)}
}

// Now returns the current simulated time.
func (tl *Timeline) Now() float64 {
	return tl.now
}

func (tl *Timeline) State() State {
	return tl.state
}

// Pending returns the number of queued events.
func (tl *Timeline) Pending() int {
	return tl.eventLog.Len()
}

// Handle registers the handler of a kind of events.
func (tl *Timeline) Handle(kind Kind, h Handler) {
	tl.handlers[kind] = h
}

// Schedule enqueues an event delay seconds from now.
func (tl *Timeline) Schedule(delay float64, kind Kind, payload any) error {
	return tl.ScheduleAt(tl.now+delay, kind, payload)
}

// ScheduleAt enqueues an event at an absolute time, not before now.
func (tl *Timeline) ScheduleAt(at float64, kind Kind, payload any) error {
	if at < tl.now {
		return errors.Wrapf(PastEventErr, "%s at %f, now %f", kind, at, tl.now)
	}
	heap.Push(&tl.eventLog, Event{
		time:           at,
		sequenceNumber: tl.seq,
		kind:           kind,
		payload:        payload,
	})
	tl.seq++
	return nil
}

// Stop makes Run return once the current event has been handled.
func (tl *Timeline) Stop() {
	if tl.state == Running {
		tl.state = Stopping
	}
}

// Run dispatches the queued events until Stop is called, the queue is empty,
// a handler fails or ctx is cancelled.
func (tl *Timeline) Run(ctx context.Context) error {
	tl.state = Running
	defer func() { tl.state = Halted }()

	for tl.state == Running && tl.eventLog.Len() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		event := heap.Pop(&tl.eventLog).(Event)
		tl.now = event.time
		h, ok := tl.handlers[event.kind]
		if !ok {
			return errors.Wrapf(NoHandlerErr, "%s", event.kind)
		}
		if err := h(ctx, event); err != nil {
			return errors.Wrapf(err, "%s at %.3f", event.kind, event.time)
		}
	}
	return nil
}
