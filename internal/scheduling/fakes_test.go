package scheduling

import (
	"github.com/grussorusso/offsim/internal/infra"
	"github.com/grussorusso/offsim/internal/network"
	"github.com/grussorusso/offsim/internal/task"
)

// fakeCompute reports fixed utilizations.
type fakeCompute struct {
	edge     [][]*infra.VM
	cloud    []*infra.VM
	mobile   map[int]*infra.VM
	cpu      map[*infra.VM]float64
	ram      map[*infra.VM]float64
	required float64
}

func newFakeCompute(required float64) *fakeCompute {
	return &fakeCompute{
		mobile:   make(map[int]*infra.VM),
		cpu:      make(map[*infra.VM]float64),
		ram:      make(map[*infra.VM]float64),
		required: required,
	}
}

// addEdgeHost adds a host whose VMs have the given spare CPU.
func (c *fakeCompute) addEdgeHost(ap int, spare ...float64) []*infra.VM {
	id := 0
	for _, h := range c.edge {
		id += len(h)
	}
	var vms []*infra.VM
	for i, s := range spare {
		vm := &infra.VM{ID: id + i, Tier: infra.EDGE, HostIndex: len(c.edge), AP: ap, Cores: 2, MIPS: 1000, RAM: 8000}
		c.cpu[vm] = 100 - s
		vms = append(vms, vm)
	}
	c.edge = append(c.edge, vms)
	return vms
}

func (c *fakeCompute) addCloudVM(spare float64) *infra.VM {
	vm := &infra.VM{ID: len(c.cloud), Tier: infra.CLOUD, AP: -1, Cores: 8, MIPS: 10000, RAM: 32000}
	c.cpu[vm] = 100 - spare
	c.cloud = append(c.cloud, vm)
	return vm
}

func (c *fakeCompute) Pool(tier infra.Tier, host int) []*infra.VM {
	switch tier {
	case infra.EDGE:
		if host >= 0 {
			if host < len(c.edge) {
				return c.edge[host]
			}
			return nil
		}
		var all []*infra.VM
		for _, h := range c.edge {
			all = append(all, h...)
		}
		return all
	case infra.CLOUD:
		return c.cloud
	default:
		if vm, ok := c.mobile[host]; ok {
			return []*infra.VM{vm}
		}
		return nil
	}
}

func (c *fakeCompute) EdgeHostCount() int {
	return len(c.edge)
}

func (c *fakeCompute) CPUUtilization(vm *infra.VM, now float64) float64 {
	return c.cpu[vm]
}

func (c *fakeCompute) RAMUtilization(vm *infra.VM, now float64) float64 {
	return c.ram[vm]
}

func (c *fakeCompute) PredictUtilization(t *task.Task, tier infra.Tier) float64 {
	return c.required
}

type fakeNetwork struct {
	params network.Params
	wlan   map[int]int
	wan    map[int]int
	man    int
}

func (n *fakeNetwork) ServingAP(device int, now float64) int {
	return device % 2
}

func (n *fakeNetwork) WlanClients(ap int) int {
	return n.wlan[ap]
}

func (n *fakeNetwork) WanClients(ap int) int {
	return n.wan[ap]
}

func (n *fakeNetwork) ManClients() int {
	return n.man
}

func (n *fakeNetwork) Params() network.Params {
	return n.params
}

type fakeCounter map[*infra.VM]int

func (c fakeCounter) VMTaskCount(vm *infra.VM) int {
	return c[vm]
}

// recorder collects the CreateTask requests emitted by Apply.
type recorder struct {
	delays []float64
	reqs   []*CreateTask
}

func (r *recorder) CreateTask(delay float64, req *CreateTask) error {
	r.delays = append(r.delays, delay)
	r.reqs = append(r.reqs, req)
	return nil
}

func tasksAt(times ...float64) []*task.Task {
	tasks := make([]*task.Task, len(times))
	for i, at := range times {
		tasks[i] = &task.Task{ID: i, DeviceID: i, Arrival: at}
	}
	return tasks
}

func arrivals(b Batch) []float64 {
	res := make([]float64, len(b))
	for i, t := range b {
		res[i] = t.Arrival
	}
	return res
}
