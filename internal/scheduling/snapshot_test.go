package scheduling

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grussorusso/offsim/internal/network"
	"github.com/grussorusso/offsim/internal/task"
)

func testBuilder() (*SnapshotBuilder, *fakeCompute, *fakeNetwork, fakeCounter) {
	c := newFakeCompute(25)
	n := &fakeNetwork{
		params: network.Params{Devices: 10, ManBandwidth: 1300, WlanMax: 100, WanMax: 25},
		wlan:   map[int]int{0: 30, 1: 120},
		wan:    map[int]int{0: 5, 1: 40},
		man:    3,
	}
	counter := fakeCounter{}
	b := &SnapshotBuilder{Compute: c, Counter: counter, Network: n, Profiles: task.DefaultProfiles, Horizon: 600}
	return b, c, n, counter
}

func TestSnapshotOrderAndClamping(t *testing.T) {
	b, c, _, counter := testBuilder()
	h0 := c.addEdgeHost(0, 40, 60)
	h1 := c.addEdgeHost(1, 70)
	cloud := c.addCloudVM(95)
	c.cpu[h1[0]] = 130 // overloaded
	c.ram[h0[0]] = 9000
	counter[cloud] = 12

	batch := Batch{
		{ID: 10, DeviceID: 3, Type: 0, InputSize: 100, OutputSize: 400, Arrival: 7},
		{ID: 11, DeviceID: 4, Type: 1, InputSize: 300, OutputSize: 200, Arrival: 9},
	}
	s, err := b.Build(10, batch)
	require.NoError(t, err)

	require.Len(t, s.VMs, 4)
	assert.Same(t, h0[0], s.VMs[0].VM)
	assert.Same(t, h0[1], s.VMs[1].VM)
	assert.Same(t, h1[0], s.VMs[2].VM)
	assert.Same(t, cloud, s.VMs[3].VM)
	for i, row := range s.VMs {
		assert.Equal(t, i, row.Index)
		assert.GreaterOrEqual(t, row.SpareCPU, 0.0)
		assert.GreaterOrEqual(t, row.SpareRAM, 0.0)
	}
	assert.Equal(t, 60.0, s.VMs[1].SpareCPU)
	assert.Equal(t, 0.0, s.VMs[2].SpareCPU)
	assert.Equal(t, 0.0, s.VMs[0].SpareRAM)
	assert.Equal(t, 12, s.VMs[3].LegacyTasks)
	assert.Equal(t, -1, s.VMs[3].AP)

	require.Len(t, s.APs, 2)
	assert.Equal(t, APCapacity{AP: 0, Wlan: 70, Wan: 20}, s.APs[0])
	assert.Equal(t, APCapacity{AP: 1, Wlan: 0, Wan: 0}, s.APs[1])

	// mean size = max(mean upload 300, mean download 200)
	assert.InDelta(t, 1300*1024/300.0-3, s.ManCapacity, 1e-9)

	require.Len(t, s.Tasks, 2)
	assert.Equal(t, 1, s.Tasks[0].AP)
	assert.Equal(t, 0, s.Tasks[1].AP)
	assert.Equal(t, 3.0, s.Tasks[0].Waiting)
	assert.Equal(t, 1.0, s.Tasks[1].Waiting)
	assert.Equal(t, task.DefaultProfiles[1].RAMDemand, s.Tasks[1].RAM)
	assert.Equal(t, task.DefaultProfiles[0].MaxDelay, s.Tasks[0].DelayLimit)
	assert.Equal(t, 25.0, s.Tasks[0].EdgeDemand)

	vm, ok := s.VM(3)
	assert.True(t, ok)
	assert.Same(t, cloud, vm)
	_, ok = s.VM(4)
	assert.False(t, ok)
}

func TestSnapshotErrors(t *testing.T) {
	b, c, _, _ := testBuilder()
	c.addEdgeHost(0, 50)

	_, err := b.Build(0, nil)
	assert.ErrorIs(t, err, EmptyBatchErr)

	_, err = b.Build(0, Batch{{ID: 1, Type: 99}})
	assert.True(t, errors.Is(err, task.UnknownTaskTypeErr))
}

func TestMeanTransferSize(t *testing.T) {
	assert.Equal(t, 0.0, MeanTransferSize(nil))
	assert.Equal(t, 150.0, MeanTransferSize(Batch{{InputSize: 100, OutputSize: 10}, {InputSize: 200, OutputSize: 20}}))
}

type stubOptimizer struct {
	decision Decision
	err      error
	calls    int
	last     *Snapshot
}

func (o *stubOptimizer) Solve(_ context.Context, s *Snapshot, b Batch) (Decision, error) {
	o.calls++
	o.last = s
	return o.decision, o.err
}

func TestSolverPolicy(t *testing.T) {
	b, c, _, _ := testBuilder()
	vms := c.addEdgeHost(0, 80)
	o := &stubOptimizer{decision: Decision{Assign(vms[0]), Reject(RejectedBySolver)}}
	p := &SolverPolicy{Builder: b, Optimizer: o, Limits: BatchLimits{Size: 5, Span: 10}}

	assert.Equal(t, BatchLimits{Size: 5, Span: 10}, p.BatchLimits())
	var _ BatchPolicy = p

	batch := Batch{{ID: 0, Type: 0, Arrival: 1}, {ID: 1, Type: 1, Arrival: 2}}
	d, err := p.Place(context.Background(), 2, batch)
	require.NoError(t, err)
	assert.Equal(t, o.decision, d)
	assert.Equal(t, 1, o.calls)
	assert.Equal(t, 2.0, o.last.Time)

	// the optimizer must answer for every task
	o.decision = Decision{Assign(vms[0])}
	_, err = p.Place(context.Background(), 2, batch)
	assert.ErrorIs(t, err, DecisionSizeErr)

	o.err = errors.New("boom")
	_, err = p.Place(context.Background(), 2, batch)
	assert.EqualError(t, err, "boom")
}

func TestPoliciesImplementInterface(t *testing.T) {
	var _ Policy = &GreedyPolicy{}
	var _ Policy = &SolverPolicy{}
	assert.Equal(t, "greedy", (&GreedyPolicy{}).Name())
	assert.Equal(t, "solver", (&SolverPolicy{}).Name())
}
