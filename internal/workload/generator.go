package workload

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/grussorusso/offsim/internal/task"
)

// ActivityStart is the earliest time a device becomes active.
const ActivityStart = 10.0

// Generator produces the arrival stream of every device. Each device runs a
// single application and alternates active and idle periods; during active
// periods tasks arrive with exponential inter-arrival times.
type Generator struct {
	Profiles task.Profiles
	Devices  int
	Horizon  float64
	Seed     uint64

	deviceTypes []int
}

// Generate returns the tasks of every device, sorted by arrival time.
// The same seed always produces the same stream.
func (g *Generator) Generate() ([]*task.Task, error) {
	if len(g.Profiles) == 0 {
		return nil, errors.New("no application defined")
	}
	src := rand.NewSource(g.Seed)
	rng := rand.New(src)

	sizes := make([][3]distuv.Exponential, len(g.Profiles))
	for i, p := range g.Profiles {
		sizes[i] = [3]distuv.Exponential{
			exponential(p.AvgUpload, src),
			exponential(p.AvgDownload, src),
			exponential(p.AvgLength, src),
		}
	}

	g.deviceTypes = make([]int, g.Devices)
	tasks := make([]*task.Task, 0)
	for d := 0; d < g.Devices; d++ {
		appType := g.pickApplication(rng.Float64() * 100)
		if appType < 0 {
			log.Warnf("No application selected for device %d", d)
			g.deviceTypes[d] = -1
			continue
		}
		g.deviceTypes[d] = appType
		p := g.Profiles[appType]
		if p.PoissonMean <= 0 || p.ActivePeriod <= 0 {
			return nil, errors.Errorf("application %s: non positive inter-arrival mean or active period", p.Name)
		}
		interArrival := exponential(p.PoissonMean, src)

		activeStart := ActivityStart + rng.Float64()*p.ActivePeriod
		now := activeStart
		for now < g.Horizon {
			interval := interArrival.Rand()
			if interval <= 0 {
				continue
			}
			if now > activeStart+p.ActivePeriod {
				activeStart = activeStart + p.ActivePeriod + p.IdlePeriod
				now = activeStart
				continue
			}
			tasks = append(tasks, &task.Task{
				DeviceID:   d,
				Type:       appType,
				Cores:      p.Cores,
				InputSize:  positive(sizes[appType][0].Rand()),
				OutputSize: positive(sizes[appType][1].Rand()),
				Length:     positive(sizes[appType][2].Rand()),
				Arrival:    now,
			})
			now += interval
		}
	}

	task.SortByArrival(tasks)
	for i, t := range tasks {
		t.ID = i
	}
	return tasks, nil
}

// DeviceType returns the application run by a device, -1 if none.
func (g *Generator) DeviceType(device int) int {
	if device < 0 || device >= len(g.deviceTypes) {
		return -1
	}
	return g.deviceTypes[device]
}

// pickApplication selects an application by cumulative usage percentage.
func (g *Generator) pickApplication(selector float64) int {
	cumulative := 0.0
	for i, p := range g.Profiles {
		cumulative += p.UsagePercentage
		if p.UsagePercentage > 0 && selector <= cumulative {
			return i
		}
	}
	return -1
}

func exponential(mean float64, src rand.Source) distuv.Exponential {
	rate := 1.0
	if mean > 0 {
		rate = 1 / mean
	}
	return distuv.Exponential{Rate: rate, Src: src}
}

func positive(v float64) int64 {
	if v < 1 {
		return 1
	}
	return int64(v)
}
