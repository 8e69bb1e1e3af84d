package infra

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grussorusso/offsim/internal/task"
)

func testManager() *Manager {
	edge := []HostSpec{
		{AP: 0, VMs: []VMSpec{{Cores: 2, MIPS: 1000, RAM: 4000}, {Cores: 2, MIPS: 1000, RAM: 4000}}},
		{AP: 1, VMs: []VMSpec{{Cores: 1, MIPS: 2000, RAM: 2000}}},
	}
	cloud := []HostSpec{{AP: -1, VMs: []VMSpec{{Cores: 8, MIPS: 10000, RAM: 64000}}}}
	return NewManager(task.DefaultProfiles, edge, cloud, &VMSpec{Cores: 1, MIPS: 500, RAM: 3000})
}

func TestPools(t *testing.T) {
	m := testManager()

	assert.Equal(t, 2, m.EdgeHostCount())
	assert.Len(t, m.Pool(EDGE, -1), 3)
	assert.Len(t, m.Pool(EDGE, 0), 2)
	assert.Len(t, m.Pool(EDGE, 1), 1)
	assert.Empty(t, m.Pool(EDGE, 5))
	assert.Len(t, m.Pool(CLOUD, -1), 1)

	edge := m.Pool(EDGE, -1)
	for i, vm := range edge {
		assert.Equal(t, i, vm.ID)
	}
	assert.Equal(t, 1, edge[2].AP)
	assert.Equal(t, -1, m.Pool(CLOUD, 0)[0].AP)

	local := m.Pool(MOBILE, 7)
	require.Len(t, local, 1)
	assert.Same(t, local[0], m.Pool(MOBILE, 7)[0])
	assert.NoError(t, m.CheckVMs())
}

func TestUtilization(t *testing.T) {
	m := testManager()
	vm := m.Pool(EDGE, 0)[0]

	t1 := &task.Task{ID: 1, DeviceID: 3, Type: 0, Cores: 1, Length: 2000}
	t2 := &task.Task{ID: 2, DeviceID: 3, Type: 0, Cores: 1, Length: 4000}

	e, err := m.Submit(t1, vm, 10)
	require.NoError(t, err)
	assert.InDelta(t, 12.0, e.End, 1e-9)
	_, err = m.Submit(t2, vm, 10)
	require.NoError(t, err)

	edgeUtil := task.DefaultProfiles[0].EdgeUtilization
	assert.InDelta(t, 2*edgeUtil, m.CPUUtilization(vm, 11), 1e-9)
	// one distinct device
	assert.InDelta(t, task.DefaultProfiles[0].RAMDemand+RAMOverheadMB, m.RAMUtilization(vm, 11), 1e-9)

	assert.InDelta(t, edgeUtil, m.CPUUtilization(vm, 13), 1e-9)
	assert.Equal(t, 0.0, m.CPUUtilization(vm, 20))
	assert.Equal(t, 0.0, m.RAMUtilization(vm, 20))
}

func TestSubmitOutOfRAM(t *testing.T) {
	m := testManager()
	vm := m.Pool(EDGE, 1)[0] // 2000 MB

	_, err := m.Submit(&task.Task{ID: 1, DeviceID: 1, Type: 2, Length: 1000}, vm, 0)
	require.NoError(t, err)
	_, err = m.Submit(&task.Task{ID: 2, DeviceID: 2, Type: 2, Length: 1000}, vm, 0)
	assert.True(t, errors.Is(err, OutOfRAMErr))
	// same device does not need more memory
	_, err = m.Submit(&task.Task{ID: 3, DeviceID: 1, Type: 2, Length: 1000}, vm, 0)
	assert.NoError(t, err)
}

func TestPredictUtilization(t *testing.T) {
	m := testManager()
	tk := &task.Task{Type: 1}
	p := task.DefaultProfiles[1]

	assert.Equal(t, p.EdgeUtilization, m.PredictUtilization(tk, EDGE))
	assert.Equal(t, p.CloudUtilization, m.PredictUtilization(tk, CLOUD))
	assert.Equal(t, p.MobileUtilization, m.PredictUtilization(tk, MOBILE))
	assert.Equal(t, 100.0, m.PredictUtilization(&task.Task{Type: 42}, EDGE))
}

func TestExecutionTime(t *testing.T) {
	vm := &VM{Cores: 2, MIPS: 1000}
	assert.InDelta(t, 4.0, ExecutionTime(&task.Task{Length: 4000, Cores: 1}, vm), 1e-9)
	assert.InDelta(t, 2.0, ExecutionTime(&task.Task{Length: 4000, Cores: 4}, vm), 1e-9)
	assert.Equal(t, 0.0, ExecutionTime(&task.Task{Length: 4000}, &VM{}))
}

func TestParseTier(t *testing.T) {
	for _, s := range []string{"mobile", "edge", "cloud"} {
		tier, err := ParseTier(s)
		require.NoError(t, err)
		assert.Equal(t, s, tier.String())
	}
	_, err := ParseTier("fog")
	assert.Error(t, err)
}
