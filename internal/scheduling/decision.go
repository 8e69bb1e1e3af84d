package scheduling

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/grussorusso/offsim/internal/infra"
	"github.com/grussorusso/offsim/internal/task"
)

type Rejection int

const (
	NotRejected Rejection = iota
	RejectedByCapacity
	RejectedBySolver
)

func (r Rejection) String() string {
	switch r {
	case NotRejected:
		return "none"
	case RejectedByCapacity:
		return "capacity"
	case RejectedBySolver:
		return "solver"
	default:
		return fmt.Sprintf("rejection(%d)", int(r))
	}
}

// Assignment is the outcome of the placement of one task.
type Assignment struct {
	VM        *infra.VM
	Tier      infra.Tier
	Rejection Rejection
}

func Assign(vm *infra.VM) Assignment {
	return Assignment{VM: vm, Tier: vm.Tier}
}

func Reject(reason Rejection) Assignment {
	return Assignment{Rejection: reason}
}

func (a Assignment) Assigned() bool {
	return a.VM != nil
}

func (a Assignment) String() string {
	if a.VM == nil {
		return "rejected(" + a.Rejection.String() + ")"
	}
	return a.VM.String()
}

// Decision holds one assignment per task of a batch, in the same order.
type Decision []Assignment

// CreateTask asks the simulation to start a task on its assigned VM, or to
// record its rejection.
type CreateTask struct {
	Task       *task.Task
	Assignment Assignment
	BatchID    float64
}

// TaskCreator enqueues CreateTask requests on the simulation timeline.
type TaskCreator interface {
	CreateTask(delay float64, req *CreateTask) error
}

// Apply emits one CreateTask per task of the batch, with no delay, in batch order.
func Apply(tc TaskCreator, batch Batch, decision Decision) error {
	if len(decision) != len(batch) {
		return errors.Wrapf(DecisionSizeErr, "%d assignments for %d tasks", len(decision), len(batch))
	}
	for i, t := range batch {
		req := &CreateTask{Task: t, Assignment: decision[i], BatchID: batch.ID()}
		if err := tc.CreateTask(0, req); err != nil {
			return errors.Wrapf(err, "could not create task %d", t.ID)
		}
	}
	return nil
}
