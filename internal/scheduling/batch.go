package scheduling

import (
	"github.com/pkg/errors"

	"github.com/grussorusso/offsim/internal/task"
)

// Batch is a group of tasks placed together, sorted by arrival time.
type Batch []*task.Task

// ID returns the arrival time of the last task of the batch.
func (b Batch) ID() float64 {
	if len(b) == 0 {
		return 0
	}
	return b[len(b)-1].Arrival
}

// BatchLimits bound the size of a batch and the time elapsed between its
// first and its last arrival.
type BatchLimits struct {
	Size int
	Span float64
}

func (l BatchLimits) Validate() error {
	if l.Size < 1 {
		return errors.Errorf("invalid batch size: %d", l.Size)
	}
	if l.Span <= 0 {
		return errors.Errorf("invalid batch time span: %f", l.Span)
	}
	return nil
}

// MakeBatches partitions the tasks into batches. Tasks are sorted by arrival
// (ties keep their order). A task joins the current batch while the batch has
// fewer than Size tasks and the accumulated inter-arrival span stays below
// Span; otherwise it opens the next batch.
func MakeBatches(tasks []*task.Task, limits BatchLimits) []Batch {
	if len(tasks) == 0 {
		return nil
	}
	sorted := make([]*task.Task, len(tasks))
	copy(sorted, tasks)
	task.SortByArrival(sorted)

	var batches []Batch
	current := make(Batch, 0, limits.Size)
	span := 0.0
	last := sorted[0].Arrival

	for _, t := range sorted {
		span += t.Arrival - last
		last = t.Arrival
		if len(current) == 0 || (len(current) < limits.Size && span < limits.Span) {
			current = append(current, t)
			continue
		}
		batches = append(batches, current)
		current = Batch{t}
		span = 0
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
