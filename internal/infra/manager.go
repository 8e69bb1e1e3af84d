package infra

import (
	"github.com/pkg/errors"

	"github.com/grussorusso/offsim/internal/config"
	"github.com/grussorusso/offsim/internal/task"
)

var OutOfRAMErr = errors.New("not enough RAM on the VM")
var NoVMsErr = errors.New("host without VMs")

// VMSpec describes a VM in the infrastructure section of the configuration.
type VMSpec struct {
	Cores      int     `mapstructure:"cores"`
	MIPS       float64 `mapstructure:"mips"`
	RAM        float64 `mapstructure:"ram"`
	CostInit   float64 `mapstructure:"cost_init"`
	CostPerSec float64 `mapstructure:"cost_per_sec"`
}

// HostSpec describes an edge or cloud host.
type HostSpec struct {
	AP  int      `mapstructure:"ap"`
	VMs []VMSpec `mapstructure:"vms"`
}

var defaultEdgeVM = VMSpec{Cores: 2, MIPS: 10000, RAM: 16000, CostInit: 0.01, CostPerSec: 0.0001}
var defaultCloudVM = VMSpec{Cores: 8, MIPS: 100000, RAM: 64000, CostInit: 0.1, CostPerSec: 0.001}
var defaultMobileVM = VMSpec{Cores: 1, MIPS: 4000, RAM: 4000}

// Manager owns every VM of the simulated infrastructure.
type Manager struct {
	profiles task.Profiles
	edge     [][]*VM
	cloud    [][]*VM
	mobile   map[int]*VM

	mobileSpec *VMSpec
	expected   int // configured edge VMs
}

// NewManager builds the infrastructure. Edge VMs are numbered host by host,
// as are cloud VMs. A nil mobileSpec disables local execution.
func NewManager(profiles task.Profiles, edgeHosts, cloudHosts []HostSpec, mobileSpec *VMSpec) *Manager {
	m := &Manager{
		profiles:   profiles,
		mobile:     make(map[int]*VM),
		mobileSpec: mobileSpec,
	}

	id := 0
	for h, host := range edgeHosts {
		vms := make([]*VM, 0, len(host.VMs))
		for _, s := range host.VMs {
			vms = append(vms, newVM(id, EDGE, h, host.AP, s))
			id++
		}
		m.edge = append(m.edge, vms)
		m.expected += len(host.VMs)
	}

	id = 0
	for h, host := range cloudHosts {
		vms := make([]*VM, 0, len(host.VMs))
		for _, s := range host.VMs {
			vms = append(vms, newVM(id, CLOUD, h, -1, s))
			id++
		}
		m.cloud = append(m.cloud, vms)
	}

	return m
}

func newVM(id int, tier Tier, host int, ap int, s VMSpec) *VM {
	cores := s.Cores
	if cores < 1 {
		cores = 1
	}
	return &VM{
		ID:         id,
		Tier:       tier,
		HostIndex:  host,
		Cores:      cores,
		MIPS:       s.MIPS,
		RAM:        s.RAM,
		AP:         ap,
		CostInit:   s.CostInit,
		CostPerSec: s.CostPerSec,
	}
}

// LoadManager builds the infrastructure from the configuration. When no edge
// host is configured, one default host is placed next to every access point.
func LoadManager(profiles task.Profiles, accessPoints int) (*Manager, error) {
	var edgeHosts, cloudHosts []HostSpec
	found, err := config.UnmarshalKey(config.EDGE_HOSTS, &edgeHosts)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse edge hosts")
	}
	if !found {
		for ap := 0; ap < accessPoints; ap++ {
			edgeHosts = append(edgeHosts, HostSpec{AP: ap, VMs: []VMSpec{defaultEdgeVM, defaultEdgeVM}})
		}
	}

	found, err = config.UnmarshalKey(config.CLOUD_HOSTS, &cloudHosts)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse cloud hosts")
	}
	if !found {
		cloudHosts = []HostSpec{{AP: -1, VMs: []VMSpec{defaultCloudVM, defaultCloudVM, defaultCloudVM, defaultCloudVM}}}
	}

	mobileSpec := defaultMobileVM
	found, err = config.UnmarshalKey(config.MOBILE_VM, &mobileSpec)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse mobile vm")
	}

	return NewManager(profiles, edgeHosts, cloudHosts, &mobileSpec), nil
}

// Pool returns the VMs of a tier. For EDGE and CLOUD, host < 0 selects every
// host of the tier; for MOBILE, host is the device id.
func (m *Manager) Pool(tier Tier, host int) []*VM {
	switch tier {
	case MOBILE:
		if vm := m.mobileVM(host); vm != nil {
			return []*VM{vm}
		}
		return nil
	case EDGE:
		return flatten(m.edge, host)
	case CLOUD:
		return flatten(m.cloud, host)
	}
	return nil
}

func flatten(hosts [][]*VM, host int) []*VM {
	if host >= 0 {
		if host >= len(hosts) {
			return nil
		}
		return hosts[host]
	}
	var vms []*VM
	for _, h := range hosts {
		vms = append(vms, h...)
	}
	return vms
}

func (m *Manager) mobileVM(device int) *VM {
	if m.mobileSpec == nil || device < 0 {
		return nil
	}
	if vm, ok := m.mobile[device]; ok {
		return vm
	}
	vm := newVM(device, MOBILE, device, -1, *m.mobileSpec)
	m.mobile[device] = vm
	return vm
}

func (m *Manager) EdgeHostCount() int {
	return len(m.edge)
}

// CPUUtilization returns the CPU share taken by the tasks bound to the VM.
// Completed executions are forgotten, so now must not go backwards.
func (m *Manager) CPUUtilization(vm *VM, now float64) float64 {
	vm.prune(now)
	return vm.cpuUtilization(now)
}

func (m *Manager) RAMUtilization(vm *VM, now float64) float64 {
	return vm.ramUtilization(now)
}

// PredictUtilization returns the CPU share the task would take on a VM of the given tier.
// Tasks of unknown type are predicted to saturate the VM.
func (m *Manager) PredictUtilization(t *task.Task, tier Tier) float64 {
	p, err := m.profiles.Of(t)
	if err != nil {
		return 100
	}
	switch tier {
	case MOBILE:
		return p.MobileUtilization
	case EDGE:
		return p.EdgeUtilization
	default:
		return p.CloudUtilization
	}
}

// RAMDemand returns the RAM the device of the task needs on the VM.
func (m *Manager) RAMDemand(t *task.Task) float64 {
	p, err := m.profiles.Of(t)
	if err != nil {
		return 0
	}
	return p.RAMDemand
}

// Submit starts the task on the VM at time start. The execution length only
// depends on the task length and the VM speed.
func (m *Manager) Submit(t *task.Task, vm *VM, start float64) (*Execution, error) {
	ram := m.RAMDemand(t)
	devicePresent := false
	for _, e := range vm.active(start) {
		if e.Task.DeviceID == t.DeviceID {
			devicePresent = true
			break
		}
	}
	if !devicePresent && vm.RAM > 0 {
		used := vm.ramUtilization(start)
		if used == 0 {
			used = RAMOverheadMB
		}
		if used+ram > vm.RAM {
			return nil, errors.Wrapf(OutOfRAMErr, "%s needs %.0f MB, %.0f MB used", vm, ram, used)
		}
	}

	e := &Execution{
		Task:  t,
		VM:    vm,
		Start: start,
		End:   start + ExecutionTime(t, vm),
		CPU:   m.PredictUtilization(t, vm.Tier),
		RAM:   ram,
	}
	vm.running = append(vm.running, e)
	return e, nil
}

// ExecutionTime returns the processing time of the task on the VM.
func ExecutionTime(t *task.Task, vm *VM) float64 {
	if vm.MIPS <= 0 {
		return 0
	}
	cores := t.Cores
	if cores < 1 {
		cores = 1
	}
	if cores > vm.Cores {
		cores = vm.Cores
	}
	return float64(t.Length) / (vm.MIPS * float64(cores))
}

// CheckVMs verifies that every configured edge VM has been created.
func (m *Manager) CheckVMs() error {
	created := 0
	for h, vms := range m.edge {
		if len(vms) == 0 {
			return errors.Wrapf(NoVMsErr, "edge host %d", h)
		}
		created += len(vms)
	}
	if created != m.expected {
		return errors.Errorf("created %d edge VMs out of %d", created, m.expected)
	}
	return nil
}

// AvgUtilization returns the mean CPU and RAM utilization of a tier.
// RAM utilization is a percentage of the VM RAM.
func (m *Manager) AvgUtilization(tier Tier, now float64) (cpu float64, ram float64) {
	vms := m.Pool(tier, -1)
	if tier == MOBILE {
		vms = m.mobileVMs()
	}
	if len(vms) == 0 {
		return 0, 0
	}
	for _, vm := range vms {
		cpu += vm.cpuUtilization(now)
		if vm.RAM > 0 {
			ram += 100 * vm.ramUtilization(now) / vm.RAM
		}
	}
	n := float64(len(vms))
	return cpu / n, ram / n
}

func (m *Manager) mobileVMs() []*VM {
	vms := make([]*VM, 0, len(m.mobile))
	for d := 0; len(vms) < len(m.mobile); d++ {
		if vm, ok := m.mobile[d]; ok {
			vms = append(vms, vm)
		}
	}
	return vms
}
