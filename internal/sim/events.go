package sim

import "fmt"

// Kind tags the events of the timeline.
type Kind int

const (
	Orchestrate Kind = iota
	CreateTask
	TaskArrival
	CheckAllVMs
	LoadLog
	LoadPerVMLog
	PrintProgress
	StopSimulation
)

func (k Kind) String() string {
	switch k {
	case Orchestrate:
		return "orchestrate"
	case CreateTask:
		return "createTask"
	case TaskArrival:
		return "taskArrival"
	case CheckAllVMs:
		return "checkAllVMs"
	case LoadLog:
		return "loadLog"
	case LoadPerVMLog:
		return "loadPerVMLog"
	case PrintProgress:
		return "printProgress"
	case StopSimulation:
		return "stopSimulation"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is an entry of the timeline.
type Event struct {
	// Simulated time at which the event fires.
	time float64
	// Events with equal time are ordered by their sequence number.
	sequenceNumber int
	kind           Kind
	payload        any
	// Maintained by the heap.Interface methods.
	index int
}

func (e Event) Time() float64 { return e.time }
func (e Event) Kind() Kind     { return e.kind }
func (e Event) Payload() any   { return e.payload }

type EventLog []Event

func (el EventLog) Len() int { return len(el) }

func (el EventLog) Less(i, j int) bool {
	if el[i].time == el[j].time {
		return el[i].sequenceNumber < el[j].sequenceNumber
	}
	return el[i].time < el[j].time
}

func (el EventLog) Swap(i, j int) {
	el[i], el[j] = el[j], el[i]
	el[i].index = i
	el[j].index = j
}

func (el *EventLog) Push(x any) {
	n := len(*el)
	item := x.(Event)
	item.index = n
	*el = append(*el, item)
}

func (el *EventLog) Pop() any {
	old := *el
	n := len(old)
	item := old[n-1]
	old[n-1] = Event{} // avoid memory leak
	item.index = -1
	*el = old[0 : n-1]
	return item
}
