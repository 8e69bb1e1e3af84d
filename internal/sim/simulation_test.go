package sim

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grussorusso/offsim/internal/infra"
	"github.com/grussorusso/offsim/internal/logging"
	"github.com/grussorusso/offsim/internal/network"
	"github.com/grussorusso/offsim/internal/scheduling"
	"github.com/grussorusso/offsim/internal/task"
)

func testInfra() *infra.Manager {
	edge := []infra.HostSpec{
		{AP: 0, VMs: []infra.VMSpec{{Cores: 2, MIPS: 10000, RAM: 16000}}},
		{AP: 1, VMs: []infra.VMSpec{{Cores: 2, MIPS: 10000, RAM: 16000}}},
	}
	cloud := []infra.HostSpec{{AP: -1, VMs: []infra.VMSpec{{Cores: 8, MIPS: 100000, RAM: 64000}}}}
	return infra.NewManager(task.DefaultProfiles, edge, cloud, &infra.VMSpec{Cores: 1, MIPS: 4000, RAM: 4000})
}

func testSimulation(policy func(s *Simulation) scheduling.Policy, tasks []*task.Task) *Simulation {
	s := &Simulation{
		ID:           "test",
		Horizon:      100,
		LoadInterval: 10,
		Profiles:     task.DefaultProfiles,
		Tasks:        tasks,
		Timeline:     NewTimeline(),
		Infra:        testInfra(),
		Network:      network.NewModel(2, network.Params{Devices: 4, ManBandwidth: 1300, WlanMax: 100, WanMax: 25}),
		Log:          logging.NewLog(),
		Output:       &bytes.Buffer{},
	}
	s.Policy = policy(s)
	return s
}

func greedy(s *Simulation) scheduling.Policy {
	return &scheduling.GreedyPolicy{
		Compute: s.Infra,
		Network: s.Network,
		Pools:   []scheduling.PoolID{{Tier: infra.EDGE, Host: scheduling.AnyHost}, {Tier: infra.CLOUD, Host: scheduling.AnyHost}},
	}
}

func testTasks(n int, typ int) []*task.Task {
	tasks := make([]*task.Task, n)
	for i := range tasks {
		tasks[i] = &task.Task{ID: i, DeviceID: i % 4, Type: typ, Cores: 1, Length: 1000, InputSize: 10, OutputSize: 10, Arrival: 20}
	}
	return tasks
}

func TestGreedySimulation(t *testing.T) {
	// HEAVY_COMP_APP takes 30% of an edge VM: three tasks per VM fit
	s := testSimulation(greedy, testTasks(8, 2))
	require.NoError(t, s.Run(context.Background()))

	st := s.Log.GetLogStatus()
	assert.Equal(t, 8, st.Tasks)
	assert.Equal(t, 6, st.CompletedPerTier["edge"]+st.ErrorDueToDelay)
	edge := s.Infra.Pool(infra.EDGE, -1)
	assert.Equal(t, 3, s.Log.VMTaskCount(edge[0]))
	assert.Equal(t, 3, s.Log.VMTaskCount(edge[1]))
	assert.Equal(t, 2, s.Log.VMTaskCount(s.Infra.Pool(infra.CLOUD, -1)[0]))
	assert.Equal(t, 0, s.Log.RejectedDueToVMCapacity())
}

func TestGreedySimulationCapacityRejection(t *testing.T) {
	onlyEdge := func(s *Simulation) scheduling.Policy {
		return &scheduling.GreedyPolicy{Compute: s.Infra, Network: s.Network,
			Pools: []scheduling.PoolID{{Tier: infra.EDGE, Host: scheduling.AnyHost}}}
	}
	s := testSimulation(onlyEdge, testTasks(8, 2))
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 2, s.Log.RejectedDueToVMCapacity())
	rejected := 0
	for _, r := range s.Log.Records() {
		if r.Status == logging.REJECTED_DUE_TO_VM_CAPACITY {
			rejected++
			assert.Equal(t, -1, r.VMID)
		}
	}
	assert.Equal(t, 2, rejected)
}

type stubOptimizer struct {
	batches []scheduling.Batch
}

// Solve assigns even positions to the first VM and rejects the others.
func (o *stubOptimizer) Solve(_ context.Context, s *scheduling.Snapshot, b scheduling.Batch) (scheduling.Decision, error) {
	o.batches = append(o.batches, b)
	d := make(scheduling.Decision, len(b))
	for i := range b {
		if i%2 == 0 {
			vm, _ := s.VM(0)
			d[i] = scheduling.Assign(vm)
		} else {
			d[i] = scheduling.Reject(scheduling.RejectedBySolver)
		}
	}
	return d, nil
}

func TestSolverSimulation(t *testing.T) {
	opt := &stubOptimizer{}
	solverPolicy := func(s *Simulation) scheduling.Policy {
		builder := &scheduling.SnapshotBuilder{Compute: s.Infra, Counter: s.Log, Network: s.Network, Profiles: s.Profiles, Horizon: s.Horizon}
		return &scheduling.SolverPolicy{Builder: builder, Optimizer: opt, Limits: scheduling.BatchLimits{Size: 3, Span: 100}}
	}
	tasks := testTasks(5, 1)
	for i, at := range []float64{0, 10, 20, 200, 210} {
		tasks[i].Arrival = at
	}
	s := testSimulation(solverPolicy, tasks)
	s.Horizon = 300
	require.NoError(t, s.Run(context.Background()))

	require.Len(t, opt.batches, 2)
	assert.Len(t, opt.batches[0], 3)
	assert.Len(t, opt.batches[1], 2)

	assert.Equal(t, 2, s.Log.RejectedBySolver())
	assert.Equal(t, logging.REJECTED_BY_SOLVER, s.Log.Record(1).Status)
	assert.Equal(t, logging.REJECTED_BY_SOLVER, s.Log.Record(4).Status)
	// tasks of a batch start when the batch is placed
	assert.GreaterOrEqual(t, s.Log.Record(0).Start, 20.0)
	assert.Equal(t, infra.EDGE, s.Log.Record(0).Tier)
}

func TestCreateTaskWithoutVM(t *testing.T) {
	s := testSimulation(greedy, nil)
	tk := &task.Task{ID: 9, Type: 0}
	require.NoError(t, s.startTask(0, &scheduling.CreateTask{Task: tk, Assignment: scheduling.Reject(scheduling.RejectedBySolver)}))
	require.NoError(t, s.startTask(0, &scheduling.CreateTask{Task: &task.Task{ID: 10}, Assignment: scheduling.Reject(scheduling.RejectedByCapacity)}))

	assert.Equal(t, logging.REJECTED_BY_SOLVER, s.Log.Record(9).Status)
	assert.Equal(t, logging.REJECTED_DUE_TO_VM_CAPACITY, s.Log.Record(10).Status)
	assert.Equal(t, 1, s.Log.RejectedBySolver())
	assert.Equal(t, 1, s.Log.RejectedDueToVMCapacity())
}

func TestPeriodicEventsStopAtHorizon(t *testing.T) {
	s := testSimulation(greedy, nil)
	out := s.Output.(*bytes.Buffer)
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 100.0, s.Timeline.Now())
	// samples at 10, 20, ..., 90; the one at 100 comes after the stop event
	assert.Len(t, s.Log.Loads(), 9)
	assert.Equal(t, 90.0, s.Log.Loads()[8].Time)
	assert.Len(t, s.Log.VMLoads(), 9*3)

	progress := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(progress, "........."), progress)
	assert.Contains(t, progress, "10")
	assert.Contains(t, progress, "90")
	assert.Equal(t, Halted.String(), s.Progress().State)
	assert.Equal(t, 100, s.Progress().Percent)
}

func TestCheckAllVMsFailure(t *testing.T) {
	s := testSimulation(greedy, nil)
	s.Infra = infra.NewManager(task.DefaultProfiles, []infra.HostSpec{{AP: 0}}, nil, nil)
	err := s.Run(context.Background())
	assert.ErrorIs(t, err, infra.NoVMsErr)
}

func TestRunWithoutPolicy(t *testing.T) {
	s := testSimulation(func(*Simulation) scheduling.Policy { return nil }, nil)
	assert.Error(t, s.Run(context.Background()))
}
