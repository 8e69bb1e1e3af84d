package scheduling

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grussorusso/offsim/internal/infra"
	"github.com/grussorusso/offsim/internal/task"
)

func TestChooseVMLeastLoadedFirstSeen(t *testing.T) {
	c := newFakeCompute(20)
	vms := c.addEdgeHost(0, 10, 30, 30, 5)

	vm := ChooseVM(c, &task.Task{}, vms, 0)
	require.NotNil(t, vm)
	assert.Same(t, vms[1], vm)
}

func TestChooseVMNoCapacity(t *testing.T) {
	c := newFakeCompute(50)
	vms := c.addEdgeHost(0, 10, 30, 49)

	assert.Nil(t, ChooseVM(c, &task.Task{}, vms, 0))
	assert.Nil(t, ChooseVM(c, &task.Task{}, nil, 0))
}

func TestChooseVMExactFit(t *testing.T) {
	c := newFakeCompute(30)
	vms := c.addEdgeHost(0, 29, 30)
	assert.Same(t, vms[1], ChooseVM(c, &task.Task{}, vms, 0))
}

func TestParsePool(t *testing.T) {
	tests := []struct {
		in   string
		want PoolID
	}{
		{"edge", PoolID{infra.EDGE, AnyHost}},
		{"cloud", PoolID{infra.CLOUD, AnyHost}},
		{"mobile", PoolID{infra.MOBILE, AnyHost}},
		{"edge:nearest", PoolID{infra.EDGE, NearestHost}},
		{" edge:2 ", PoolID{infra.EDGE, 2}},
	}
	for _, tt := range tests {
		got, err := ParsePool(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []string{"fog", "edge:x", "edge:-3"} {
		_, err := ParsePool(bad)
		assert.Error(t, err, bad)
	}
	assert.Equal(t, "edge:nearest", PoolID{infra.EDGE, NearestHost}.String())
	assert.Equal(t, "edge:1", PoolID{infra.EDGE, 1}.String())
}

func TestGreedyPolicyFallsBackToNextPool(t *testing.T) {
	c := newFakeCompute(40)
	c.addEdgeHost(0, 10, 20)
	cloud := c.addCloudVM(90)

	p := &GreedyPolicy{Compute: c, Network: &fakeNetwork{}, Pools: []PoolID{{infra.EDGE, AnyHost}, {infra.CLOUD, AnyHost}}}
	d, err := p.Place(context.Background(), 5, Batch(tasksAt(5)))
	require.NoError(t, err)
	require.Len(t, d, 1)
	assert.True(t, d[0].Assigned())
	assert.Same(t, cloud, d[0].VM)
	assert.Equal(t, infra.CLOUD, d[0].Tier)
}

func TestGreedyPolicyRejects(t *testing.T) {
	c := newFakeCompute(40)
	c.addEdgeHost(0, 10)

	p := &GreedyPolicy{Compute: c, Network: &fakeNetwork{}, Pools: []PoolID{{infra.EDGE, AnyHost}}}
	a := p.Decide(&task.Task{}, 0)
	assert.False(t, a.Assigned())
	assert.Equal(t, RejectedByCapacity, a.Rejection)

	_, err := p.Place(context.Background(), 0, nil)
	assert.ErrorIs(t, err, EmptyBatchErr)
}

func TestGreedyPolicyNearestHost(t *testing.T) {
	c := newFakeCompute(10)
	c.addEdgeHost(0, 90)
	host1 := c.addEdgeHost(1, 50)

	p := &GreedyPolicy{Compute: c, Network: &fakeNetwork{}, Pools: []PoolID{{infra.EDGE, NearestHost}}}
	// device 3 is served by AP 1
	a := p.Decide(&task.Task{DeviceID: 3}, 0)
	assert.Same(t, host1[0], a.VM)
}

func TestGreedyPolicyMobile(t *testing.T) {
	c := newFakeCompute(10)
	local := &infra.VM{ID: 4, Tier: infra.MOBILE, HostIndex: 4}
	c.mobile[4] = local

	p := &GreedyPolicy{Compute: c, Network: &fakeNetwork{}, Pools: []PoolID{{infra.MOBILE, AnyHost}}}
	assert.Same(t, local, p.Decide(&task.Task{DeviceID: 4}, 0).VM)
	assert.False(t, p.Decide(&task.Task{DeviceID: 5}, 0).Assigned())
}
