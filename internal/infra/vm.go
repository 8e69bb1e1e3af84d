package infra

import (
	"fmt"

	"github.com/grussorusso/offsim/internal/task"
)

// RAMOverheadMB is added to the RAM usage of a VM hosting at least one device.
const RAMOverheadMB = 1300.0

// VM is a compute unit on some tier. VMs are created by the Manager at startup
// and never destroyed.
type VM struct {
	ID         int // unique within the tier
	Tier       Tier
	HostIndex  int // edge/cloud host index, device id for mobile units
	Cores      int
	MIPS       float64
	RAM        float64 // MB
	AP         int     // serving access point, -1 for cloud VMs
	CostInit   float64
	CostPerSec float64

	running []*Execution
}

// Execution is a task running on a VM during [Start, End).
type Execution struct {
	Task  *task.Task
	VM    *VM
	Start float64
	End   float64
	CPU   float64 // %
	RAM   float64 // MB
}

func (vm *VM) String() string {
	return fmt.Sprintf("%s-vm-%d@%d", vm.Tier, vm.ID, vm.HostIndex)
}

// prune drops the executions completed by now.
func (vm *VM) prune(now float64) {
	n := 0
	for _, e := range vm.running {
		if e.End > now {
			vm.running[n] = e
			n++
		}
	}
	for i := n; i < len(vm.running); i++ {
		vm.running[i] = nil
	}
	vm.running = vm.running[:n]
}

// active returns the executions not yet completed at now, including those
// whose input is still being uploaded.
func (vm *VM) active(now float64) []*Execution {
	res := make([]*Execution, 0, len(vm.running))
	for _, e := range vm.running {
		if e.End > now {
			res = append(res, e)
		}
	}
	return res
}

// cpuUtilization is the sum of the utilization of the tasks bound to the VM, capped to 100.
func (vm *VM) cpuUtilization(now float64) float64 {
	u := 0.0
	for _, e := range vm.active(now) {
		u += e.CPU
	}
	if u > 100 {
		return 100
	}
	return u
}

// ramUtilization counts the RAM demand of every distinct device with running
// tasks, plus a fixed overhead when the VM is not empty.
func (vm *VM) ramUtilization(now float64) float64 {
	devices := make(map[int]float64)
	for _, e := range vm.active(now) {
		if e.RAM > devices[e.Task.DeviceID] {
			devices[e.Task.DeviceID] = e.RAM
		}
	}
	ram := 0.0
	for _, r := range devices {
		ram += r
	}
	if ram > 0 {
		ram += RAMOverheadMB
	}
	return ram
}
