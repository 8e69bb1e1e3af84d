package sim

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/grussorusso/offsim/internal/infra"
	"github.com/grussorusso/offsim/internal/logging"
	"github.com/grussorusso/offsim/internal/metrics"
	"github.com/grussorusso/offsim/internal/network"
	"github.com/grussorusso/offsim/internal/scheduling"
	"github.com/grussorusso/offsim/internal/task"
)

// CheckVMsTime is when the simulation verifies that every edge VM exists.
const CheckVMsTime = 5.0

// Progress is an immutable view of a running simulation.
type Progress struct {
	RunID    string  `json:"run_id"`
	Policy   string  `json:"policy"`
	State    string  `json:"state"`
	Now      float64 `json:"now"`
	Horizon  float64 `json:"horizon"`
	Percent  int     `json:"percent"`
	Tasks    int     `json:"tasks"`
	Rejected int     `json:"rejected"`
}

// Simulation holds every component of a run. It is built once and handed to
// whoever needs it; all its state is owned by the goroutine calling Run.
type Simulation struct {
	ID           string
	Horizon      float64
	LoadInterval float64
	Profiles     task.Profiles
	Tasks        []*task.Task

	Timeline *Timeline
	Infra    *infra.Manager
	Network  *network.Model
	Log      *logging.Log
	Policy   scheduling.Policy

	// Output receives the progress bar.
	Output io.Writer

	progress atomic.Pointer[Progress]
}

// Progress returns the last published progress. Safe for concurrent use.
func (s *Simulation) Progress() *Progress {
	if p := s.progress.Load(); p != nil {
		return p
	}
	return &Progress{RunID: s.ID, State: Idle.String(), Horizon: s.Horizon}
}

func (s *Simulation) publish(percent int) {
	s.progress.Store(&Progress{
		RunID:    s.ID,
		Policy:   s.Policy.Name(),
		State:    s.Timeline.State().String(),
		Now:      s.Timeline.Now(),
		Horizon:  s.Horizon,
		Percent:  percent,
		Tasks:    s.Log.Len(),
		Rejected: s.Log.RejectedBySolver() + s.Log.RejectedDueToVMCapacity(),
	})
}

// CreateTask enqueues the start of a task on the timeline.
func (s *Simulation) CreateTask(delay float64, req *scheduling.CreateTask) error {
	return s.Timeline.Schedule(delay, CreateTask, req)
}

// inlineCreator starts tasks as soon as they are decided, so that the next
// decision sees their load.
type inlineCreator struct {
	s *Simulation
}

func (c inlineCreator) CreateTask(delay float64, req *scheduling.CreateTask) error {
	if delay > 0 {
		return c.s.CreateTask(delay, req)
	}
	return c.s.startTask(c.s.Timeline.Now(), req)
}

func (s *Simulation) registerHandlers() {
	s.Timeline.Handle(TaskArrival, s.handleTaskArrival)
	s.Timeline.Handle(Orchestrate, s.handleOrchestrate)
	s.Timeline.Handle(CreateTask, s.handleCreateTask)
	s.Timeline.Handle(CheckAllVMs, s.handleCheckAllVMs)
	s.Timeline.Handle(LoadLog, s.handleLoadLog)
	s.Timeline.Handle(LoadPerVMLog, s.handleLoadPerVMLog)
	s.Timeline.Handle(PrintProgress, s.handlePrintProgress)
	s.Timeline.Handle(StopSimulation, s.handleStop)
}

// start enqueues the arrivals and the maintenance events.
func (s *Simulation) start() error {
	if s.Timeline == nil {
		s.Timeline = NewTimeline()
	}
	if s.Output == nil {
		s.Output = io.Discard
	}
	s.registerHandlers()

	if bp, ok := s.Policy.(scheduling.BatchPolicy); ok {
		limits := bp.BatchLimits()
		if err := limits.Validate(); err != nil {
			return err
		}
		batches := scheduling.MakeBatches(s.Tasks, limits)
		log.Infof("%d tasks grouped in %d batches", len(s.Tasks), len(batches))
		for _, b := range batches {
			if err := s.Timeline.ScheduleAt(b.ID(), Orchestrate, b); err != nil {
				return err
			}
		}
	} else {
		for _, t := range s.Tasks {
			if err := s.Timeline.ScheduleAt(t.Arrival, TaskArrival, t); err != nil {
				return err
			}
		}
	}

	initial := []struct {
		at   float64
		kind Kind
	}{
		{CheckVMsTime, CheckAllVMs},
		{s.LoadInterval, LoadLog},
		{s.LoadInterval, LoadPerVMLog},
		{s.Horizon / 100, PrintProgress},
		{s.Horizon, StopSimulation},
	}
	for _, e := range initial {
		if e.at <= 0 {
			continue
		}
		if err := s.Timeline.ScheduleAt(e.at, e.kind, nil); err != nil {
			return err
		}
	}
	return nil
}

// Run executes the simulation until the horizon. Any handler error ends the run.
func (s *Simulation) Run(ctx context.Context) error {
	if s.Policy == nil {
		return errors.New("no placement policy")
	}
	if err := s.start(); err != nil {
		return errors.Wrap(err, "could not start the simulation")
	}
	log.WithField("run", s.ID).Infof("Simulation started: %d tasks, horizon %.0fs, policy %s", len(s.Tasks), s.Horizon, s.Policy.Name())
	s.publish(0)

	err := s.Timeline.Run(ctx)
	s.publish(s.Progress().Percent)
	return err
}

func (s *Simulation) logger() *log.Entry {
	return log.WithField("simTime", s.Timeline.Now())
}

func (s *Simulation) handleTaskArrival(ctx context.Context, e Event) error {
	t, ok := e.Payload().(*task.Task)
	if !ok {
		return errors.Errorf("unexpected payload %T", e.Payload())
	}
	now := e.Time()
	s.Network.Advance(now)
	batch := scheduling.Batch{t}
	decision, err := s.Policy.Place(ctx, now, batch)
	if err != nil {
		return err
	}
	return scheduling.Apply(inlineCreator{s}, batch, decision)
}

func (s *Simulation) handleOrchestrate(ctx context.Context, e Event) error {
	batch, ok := e.Payload().(scheduling.Batch)
	if !ok {
		return errors.Errorf("unexpected payload %T", e.Payload())
	}
	now := e.Time()
	s.Network.Advance(now)
	metrics.ObserveBatch(len(batch))
	s.logger().WithField("batch", batch.ID()).Debugf("Placing %d tasks", len(batch))

	decision, err := s.Policy.Place(ctx, now, batch)
	if err != nil {
		return errors.Wrapf(err, "batch %.3f", batch.ID())
	}
	return scheduling.Apply(s, batch, decision)
}

func (s *Simulation) handleCreateTask(_ context.Context, e Event) error {
	req, ok := e.Payload().(*scheduling.CreateTask)
	if !ok {
		return errors.Errorf("unexpected payload %T", e.Payload())
	}
	return s.startTask(e.Time(), req)
}

func rejectionStatus(r scheduling.Rejection) logging.Status {
	if r == scheduling.RejectedBySolver {
		return logging.REJECTED_BY_SOLVER
	}
	return logging.REJECTED_DUE_TO_VM_CAPACITY
}

func (s *Simulation) reject(t *task.Task, status logging.Status) {
	s.Log.TaskRejected(t, status)
	metrics.AddRejected(status.String())
	s.logger().WithField("task", t.ID).Debugf("Task %s", status)
}

// startTask runs a placed task: upload, execution on the VM, download.
func (s *Simulation) startTask(now float64, req *scheduling.CreateTask) error {
	t := req.Task
	s.Log.TaskCreated(t)

	if !req.Assignment.Assigned() {
		s.reject(t, rejectionStatus(req.Assignment.Rejection))
		return nil
	}
	vm := req.Assignment.VM

	var route network.Route
	var upload float64
	offloaded := vm.Tier != infra.MOBILE
	if offloaded {
		ap := s.Network.ServingAP(t.DeviceID, now)
		route = network.Route{
			AP:     ap,
			Remote: vm.Tier == infra.EDGE && vm.AP != ap,
			Cloud:  vm.Tier == infra.CLOUD,
		}
		var err error
		upload, err = s.Network.Offload(t, route, now)
		if errors.Is(err, network.CongestionErr) {
			s.reject(t, logging.REJECTED_DUE_TO_BANDWIDTH)
			return nil
		} else if err != nil {
			return err
		}
	}

	exec, err := s.Infra.Submit(t, vm, now+upload)
	if errors.Is(err, infra.OutOfRAMErr) {
		s.reject(t, logging.ERROR_DUE_TO_RAM_CAPACITY)
		return nil
	} else if err != nil {
		return errors.Wrapf(err, "task %d", t.ID)
	}
	s.Log.TaskAssigned(t, vm)
	metrics.AddAssigned(vm.Tier.String())

	var download float64
	if offloaded {
		download = s.Network.Return(t, route, exec.End)
	}
	maxDelay := 0.0
	if p, err := s.Profiles.Of(t); err == nil {
		maxDelay = p.MaxDelay
	}
	if status := s.Log.TaskExecuted(t, exec, upload, download, maxDelay); status != logging.COMPLETED {
		metrics.AddRejected(status.String())
	}
	return nil
}

func (s *Simulation) handleCheckAllVMs(_ context.Context, _ Event) error {
	if err := s.Infra.CheckVMs(); err != nil {
		return errors.Wrap(err, "VM check failed")
	}
	return nil
}

// reschedule re-enqueues a periodic event until the horizon.
func (s *Simulation) reschedule(now, interval float64, kind Kind) error {
	if now >= s.Horizon || interval <= 0 {
		return nil
	}
	return s.Timeline.Schedule(interval, kind, nil)
}

func (s *Simulation) handleLoadLog(_ context.Context, e Event) error {
	now := e.Time()
	sample := logging.LoadSample{Time: now}
	sample.MobileCPU, sample.MobileRAM = s.Infra.AvgUtilization(infra.MOBILE, now)
	sample.EdgeCPU, sample.EdgeRAM = s.Infra.AvgUtilization(infra.EDGE, now)
	sample.CloudCPU, sample.CloudRAM = s.Infra.AvgUtilization(infra.CLOUD, now)
	s.Log.AddLoad(sample)
	return s.reschedule(now, s.LoadInterval, LoadLog)
}

func (s *Simulation) handleLoadPerVMLog(_ context.Context, e Event) error {
	now := e.Time()
	for _, tier := range []infra.Tier{infra.EDGE, infra.CLOUD} {
		for _, vm := range s.Infra.Pool(tier, -1) {
			s.Log.AddVMLoad(logging.VMLoadSample{
				Time: now,
				Tier: tier,
				VMID: vm.ID,
				CPU:  s.Infra.CPUUtilization(vm, now),
				RAM:  s.Infra.RAMUtilization(vm, now),
			})
		}
	}
	return s.reschedule(now, s.LoadInterval, LoadPerVMLog)
}

func (s *Simulation) handlePrintProgress(_ context.Context, e Event) error {
	now := e.Time()
	percent := int(math.Round(now * 100 / s.Horizon))
	if percent%10 == 0 {
		fmt.Fprintf(s.Output, "%d", percent)
	} else {
		fmt.Fprint(s.Output, ".")
	}
	metrics.SetSimTime(now)
	s.publish(percent)
	return s.reschedule(now, s.Horizon/100, PrintProgress)
}

func (s *Simulation) handleStop(_ context.Context, e Event) error {
	s.Timeline.Stop()
	fmt.Fprintln(s.Output)
	s.publish(100)
	s.logger().Infof("Simulation stopped, %d events discarded", s.Timeline.Pending())
	return nil
}
