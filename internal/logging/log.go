package logging

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/grussorusso/offsim/internal/infra"
	"github.com/grussorusso/offsim/internal/task"
)

type Status int

const (
	CREATED Status = iota
	COMPLETED
	REJECTED_DUE_TO_VM_CAPACITY
	REJECTED_BY_SOLVER
	REJECTED_DUE_TO_BANDWIDTH
	ERROR_DUE_TO_RAM_CAPACITY
	ERROR_DUE_TO_DELAY_LIMIT
)

func (s Status) String() string {
	switch s {
	case CREATED:
		return "created"
	case COMPLETED:
		return "completed"
	case REJECTED_DUE_TO_VM_CAPACITY:
		return "rejected_vm_capacity"
	case REJECTED_BY_SOLVER:
		return "rejected_by_solver"
	case REJECTED_DUE_TO_BANDWIDTH:
		return "rejected_bandwidth"
	case ERROR_DUE_TO_RAM_CAPACITY:
		return "error_ram_capacity"
	case ERROR_DUE_TO_DELAY_LIMIT:
		return "error_delay_limit"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// TaskRecord is the history of a single task.
type TaskRecord struct {
	Task          *task.Task
	Status        Status
	Tier          infra.Tier
	VMID          int
	HostIndex     int
	Start         float64 // processing start
	End           float64 // output received by the device
	UploadDelay   float64
	DownloadDelay float64
	Cost          float64
}

// ServiceTime is the time between arrival and the reception of the output.
func (r *TaskRecord) ServiceTime() float64 {
	return r.End - r.Task.Arrival
}

// LoadSample is the average utilization of every tier at a given time.
type LoadSample struct {
	Time      float64
	MobileCPU float64
	EdgeCPU   float64
	CloudCPU  float64
	MobileRAM float64
	EdgeRAM   float64
	CloudRAM  float64
}

// VMLoadSample is the utilization of one VM at a given time.
type VMLoadSample struct {
	Time float64
	Tier infra.Tier
	VMID int
	CPU  float64
	RAM  float64
}

type vmKey struct {
	tier infra.Tier
	id   int
}

// Log collects the statistics of a simulation run. It is owned by the
// dispatch loop and must not be shared across goroutines.
type Log struct {
	records map[int]*TaskRecord
	order   []int
	vmTasks map[vmKey]int

	rejectedDueToVMCapacity int
	rejectedBySolver        int

	loads   []LoadSample
	vmLoads []VMLoadSample
}

func NewLog() *Log {
	return &Log{
		records: make(map[int]*TaskRecord),
		vmTasks: make(map[vmKey]int),
	}
}

func (l *Log) record(t *task.Task) *TaskRecord {
	r, ok := l.records[t.ID]
	if !ok {
		r = &TaskRecord{Task: t, Status: CREATED, VMID: -1, HostIndex: -1}
		l.records[t.ID] = r
		l.order = append(l.order, t.ID)
	}
	return r
}

// TaskCreated registers a task that reached the orchestrator.
func (l *Log) TaskCreated(t *task.Task) {
	l.record(t)
}

// TaskRejected records a task that was not executed.
func (l *Log) TaskRejected(t *task.Task, status Status) {
	r := l.record(t)
	r.Status = status
	switch status {
	case REJECTED_DUE_TO_VM_CAPACITY:
		l.rejectedDueToVMCapacity++
	case REJECTED_BY_SOLVER:
		l.rejectedBySolver++
	}
}

// TaskAssigned binds a task to a VM and increments the VM task counter.
func (l *Log) TaskAssigned(t *task.Task, vm *infra.VM) {
	r := l.record(t)
	r.Tier = vm.Tier
	r.VMID = vm.ID
	r.HostIndex = vm.HostIndex
	l.vmTasks[vmKey{vm.Tier, vm.ID}]++
}

// TaskExecuted completes the record of an assigned task. The task fails if
// its service time exceeds maxDelay.
func (l *Log) TaskExecuted(t *task.Task, e *infra.Execution, upload, download float64, maxDelay float64) Status {
	r := l.record(t)
	r.Start = e.Start
	r.End = e.End + download
	r.UploadDelay = upload
	r.DownloadDelay = download
	r.Cost = e.VM.CostInit + e.VM.CostPerSec*(e.End-e.Start)
	if maxDelay > 0 && r.ServiceTime() > maxDelay {
		r.Status = ERROR_DUE_TO_DELAY_LIMIT
	} else {
		r.Status = COMPLETED
	}
	return r.Status
}

// VMTaskCount returns the number of tasks ever assigned to the VM.
func (l *Log) VMTaskCount(vm *infra.VM) int {
	return l.vmTasks[vmKey{vm.Tier, vm.ID}]
}

func (l *Log) RejectedDueToVMCapacity() int {
	return l.rejectedDueToVMCapacity
}

func (l *Log) RejectedBySolver() int {
	return l.rejectedBySolver
}

func (l *Log) AddLoad(s LoadSample) {
	l.loads = append(l.loads, s)
}

func (l *Log) AddVMLoad(s VMLoadSample) {
	l.vmLoads = append(l.vmLoads, s)
}

func (l *Log) Loads() []LoadSample {
	return l.loads
}

func (l *Log) VMLoads() []VMLoadSample {
	return l.vmLoads
}

// Records returns the task records in creation order.
func (l *Log) Records() []*TaskRecord {
	res := make([]*TaskRecord, 0, len(l.order))
	for _, id := range l.order {
		res = append(res, l.records[id])
	}
	return res
}

// Len returns the number of tasks seen so far.
func (l *Log) Len() int {
	return len(l.records)
}

// Record returns the record of a task, nil if the task is unknown.
func (l *Log) Record(taskID int) *TaskRecord {
	return l.records[taskID]
}

type LogStatus struct {
	Tasks                   int
	Completed               int
	Failed                  int
	RejectedDueToVMCapacity int
	RejectedBySolver        int
	RejectedDueToBandwidth  int
	ErrorDueToRAM           int
	ErrorDueToDelay         int
	CompletedPerTier        map[string]int
	AvgServiceTime          float64
	StdServiceTime          float64
	AvgProcessingTime       float64
	AvgNetworkDelay         float64
	TotalCost               float64
	AvgEdgeCPU              float64
	AvgCloudCPU             float64
	AvgMobileCPU            float64
}

// GetLogStatus summarizes the run.
func (l *Log) GetLogStatus() *LogStatus {
	s := &LogStatus{
		Tasks:                   len(l.records),
		RejectedDueToVMCapacity: l.rejectedDueToVMCapacity,
		RejectedBySolver:        l.rejectedBySolver,
		CompletedPerTier:        make(map[string]int),
	}

	var service, processing, network []float64
	for _, r := range l.Records() {
		switch r.Status {
		case COMPLETED:
			s.Completed++
			s.CompletedPerTier[r.Tier.String()]++
			service = append(service, r.ServiceTime())
			processing = append(processing, r.End-r.DownloadDelay-r.Start)
			network = append(network, r.UploadDelay+r.DownloadDelay)
			s.TotalCost += r.Cost
		case REJECTED_DUE_TO_BANDWIDTH:
			s.RejectedDueToBandwidth++
		case ERROR_DUE_TO_RAM_CAPACITY:
			s.ErrorDueToRAM++
		case ERROR_DUE_TO_DELAY_LIMIT:
			s.ErrorDueToDelay++
			s.TotalCost += r.Cost
		}
	}
	s.Failed = s.Tasks - s.Completed

	if len(service) > 0 {
		s.AvgServiceTime, s.StdServiceTime = stat.MeanStdDev(service, nil)
		s.AvgProcessingTime = stat.Mean(processing, nil)
		s.AvgNetworkDelay = stat.Mean(network, nil)
	}
	if len(service) == 1 {
		s.StdServiceTime = 0
	}

	if len(l.loads) > 0 {
		edge := make([]float64, len(l.loads))
		cloud := make([]float64, len(l.loads))
		mobile := make([]float64, len(l.loads))
		for i, ld := range l.loads {
			edge[i], cloud[i], mobile[i] = ld.EdgeCPU, ld.CloudCPU, ld.MobileCPU
		}
		s.AvgEdgeCPU = stat.Mean(edge, nil)
		s.AvgCloudCPU = stat.Mean(cloud, nil)
		s.AvgMobileCPU = stat.Mean(mobile, nil)
	}
	return s
}
