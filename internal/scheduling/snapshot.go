package scheduling

import (
	"github.com/pkg/errors"

	"github.com/grussorusso/offsim/internal/infra"
	"github.com/grussorusso/offsim/internal/network"
	"github.com/grussorusso/offsim/internal/task"
)

// VMCapacity is the spare capacity of a VM. Index is the position of the VM
// in the snapshot: edge VMs host by host, then cloud VMs.
type VMCapacity struct {
	Index       int
	VM          *infra.VM
	SpareCPU    float64 // %
	SpareRAM    float64 // MB
	Cores       int
	MIPS        float64
	AP          int
	CostInit    float64
	CostPerSec  float64
	LegacyTasks int
}

// APCapacity is the spare headroom of the access point of an edge host.
type APCapacity struct {
	AP   int
	Wlan float64
	Wan  float64
}

// TaskDemand is the resource demand of a task of the batch.
type TaskDemand struct {
	Index       int
	Task        *task.Task
	AP          int
	EdgeDemand  float64 // %
	CloudDemand float64 // %
	RAM         float64 // MB
	DelayLimit  float64 // s
	Waiting     float64 // s
}

// Snapshot is the state of the infrastructure when a batch is placed.
// Spare values are never negative.
type Snapshot struct {
	Time        float64
	Horizon     float64
	Network     network.Params
	VMs         []VMCapacity
	APs         []APCapacity
	ManCapacity float64
	Tasks       []TaskDemand
}

// VM returns the VM at the given snapshot index.
func (s *Snapshot) VM(index int) (*infra.VM, bool) {
	if index < 0 || index >= len(s.VMs) {
		return nil, false
	}
	return s.VMs[index].VM, true
}

// MeanTransferSize returns the larger of the mean upload and the mean
// download size of the batch.
func MeanTransferSize(batch Batch) float64 {
	if len(batch) == 0 {
		return 0
	}
	var up, down float64
	for _, t := range batch {
		up += float64(t.OutputSize)
		down += float64(t.InputSize)
	}
	up /= float64(len(batch))
	down /= float64(len(batch))
	if up > down {
		return up
	}
	return down
}

// SnapshotBuilder assembles capacity snapshots from the collaborators.
type SnapshotBuilder struct {
	Compute  Compute
	Counter  TaskCounter
	Network  Network
	Profiles task.Profiles
	Horizon  float64
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Build returns a fresh snapshot for the batch at time now.
func (b *SnapshotBuilder) Build(now float64, batch Batch) (*Snapshot, error) {
	if len(batch) == 0 {
		return nil, EmptyBatchErr
	}
	params := b.Network.Params()
	s := &Snapshot{
		Time:    now,
		Horizon: b.Horizon,
		Network: params,
	}

	for i, t := range batch {
		p, err := b.Profiles.Of(t)
		if err != nil {
			return nil, errors.Wrapf(err, "task %d", t.ID)
		}
		s.Tasks = append(s.Tasks, TaskDemand{
			Index:       i,
			Task:        t,
			AP:          b.Network.ServingAP(t.DeviceID, now),
			EdgeDemand:  b.Compute.PredictUtilization(t, infra.EDGE),
			CloudDemand: b.Compute.PredictUtilization(t, infra.CLOUD),
			RAM:         p.RAMDemand,
			DelayLimit:  p.MaxDelay,
			Waiting:     now - t.Arrival,
		})
	}

	seen := make(map[int]bool)
	for h := 0; h < b.Compute.EdgeHostCount(); h++ {
		vms := b.Compute.Pool(infra.EDGE, h)
		if len(vms) == 0 {
			continue
		}
		ap := vms[0].AP
		if !seen[ap] {
			seen[ap] = true
			s.APs = append(s.APs, APCapacity{
				AP:   ap,
				Wlan: clamp(float64(params.WlanMax - b.Network.WlanClients(ap))),
				Wan:  clamp(float64(params.WanMax - b.Network.WanClients(ap))),
			})
		}
		for _, vm := range vms {
			s.VMs = append(s.VMs, b.vmCapacity(len(s.VMs), vm, now))
		}
	}
	for _, vm := range b.Compute.Pool(infra.CLOUD, -1) {
		s.VMs = append(s.VMs, b.vmCapacity(len(s.VMs), vm, now))
	}

	manCapacity := params.ManBandwidth * 1024
	if mean := MeanTransferSize(batch); mean > 0 {
		manCapacity /= mean
	}
	s.ManCapacity = clamp(manCapacity - float64(b.Network.ManClients()))
	return s, nil
}

func (b *SnapshotBuilder) vmCapacity(index int, vm *infra.VM, now float64) VMCapacity {
	legacy := 0
	if b.Counter != nil {
		legacy = b.Counter.VMTaskCount(vm)
	}
	return VMCapacity{
		Index:       index,
		VM:          vm,
		SpareCPU:    clamp(100 - b.Compute.CPUUtilization(vm, now)),
		SpareRAM:    clamp(vm.RAM - b.Compute.RAMUtilization(vm, now)),
		Cores:       vm.Cores,
		MIPS:        vm.MIPS,
		AP:          vm.AP,
		CostInit:    vm.CostInit,
		CostPerSec:  vm.CostPerSec,
		LegacyTasks: legacy,
	}
}
