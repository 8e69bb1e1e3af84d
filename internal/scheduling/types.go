package scheduling

import (
	"context"

	"github.com/pkg/errors"

	"github.com/grussorusso/offsim/internal/infra"
	"github.com/grussorusso/offsim/internal/network"
	"github.com/grussorusso/offsim/internal/task"
)

var DecisionSizeErr = errors.New("decision does not match the batch")
var EmptyBatchErr = errors.New("empty batch")

// Compute is the view of the compute resources used by placement policies.
type Compute interface {
	// Pool returns the VMs of a tier. For edge and cloud, host < 0 selects every
	// host; for mobile, host is the device id.
	Pool(tier infra.Tier, host int) []*infra.VM
	EdgeHostCount() int
	CPUUtilization(vm *infra.VM, now float64) float64
	RAMUtilization(vm *infra.VM, now float64) float64
	PredictUtilization(t *task.Task, tier infra.Tier) float64
}

// TaskCounter reports the number of tasks ever bound to a VM.
type TaskCounter interface {
	VMTaskCount(vm *infra.VM) int
}

// Network is the view of the network used by placement policies.
type Network interface {
	ServingAP(device int, now float64) int
	WlanClients(ap int) int
	WanClients(ap int) int
	ManClients() int
	Params() network.Params
}

// Optimizer places a whole batch given a capacity snapshot.
type Optimizer interface {
	Solve(ctx context.Context, snapshot *Snapshot, batch Batch) (Decision, error)
}
