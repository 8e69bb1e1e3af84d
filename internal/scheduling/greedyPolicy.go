package scheduling

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/grussorusso/offsim/internal/infra"
	"github.com/grussorusso/offsim/internal/task"
)

const (
	AnyHost     = -1
	NearestHost = -2 // edge host attached to the serving AP of the device
)

// PoolID identifies a set of candidate VMs.
type PoolID struct {
	Tier infra.Tier
	Host int
}

func (p PoolID) String() string {
	switch p.Host {
	case AnyHost:
		return p.Tier.String()
	case NearestHost:
		return p.Tier.String() + ":nearest"
	default:
		return fmt.Sprintf("%s:%d", p.Tier, p.Host)
	}
}

// ParsePool parses pool identifiers such as "edge", "cloud", "mobile",
// "edge:nearest" and "edge:2".
func ParsePool(s string) (PoolID, error) {
	name, host, found := strings.Cut(strings.TrimSpace(s), ":")
	tier, err := infra.ParseTier(name)
	if err != nil {
		return PoolID{}, err
	}
	p := PoolID{Tier: tier, Host: AnyHost}
	if !found {
		return p, nil
	}
	if host == "nearest" {
		p.Host = NearestHost
		return p, nil
	}
	p.Host, err = strconv.Atoi(host)
	if err != nil || p.Host < 0 {
		return PoolID{}, errors.Errorf("invalid host in pool %q", s)
	}
	return p, nil
}

// ChooseVM returns the least loaded VM of the pool whose spare CPU can host
// the task, or nil. Ties go to the first VM seen.
func ChooseVM(c Compute, t *task.Task, pool []*infra.VM, now float64) *infra.VM {
	var selected *infra.VM
	best := 0.0
	for _, vm := range pool {
		required := c.PredictUtilization(t, vm.Tier)
		spare := 100 - c.CPUUtilization(vm, now)
		if required <= spare && spare > best {
			selected = vm
			best = spare
		}
	}
	return selected
}

// GreedyPolicy places every task on its own, trying the pools in order.
type GreedyPolicy struct {
	Compute Compute
	Network Network
	Pools   []PoolID
}

func (p *GreedyPolicy) Name() string {
	return "greedy"
}

func (p *GreedyPolicy) candidates(pool PoolID, t *task.Task, now float64) []*infra.VM {
	switch {
	case pool.Tier == infra.MOBILE:
		return p.Compute.Pool(infra.MOBILE, t.DeviceID)
	case pool.Host == NearestHost:
		ap := p.Network.ServingAP(t.DeviceID, now)
		for h := 0; h < p.Compute.EdgeHostCount(); h++ {
			vms := p.Compute.Pool(pool.Tier, h)
			if len(vms) > 0 && vms[0].AP == ap {
				return vms
			}
		}
		return nil
	default:
		return p.Compute.Pool(pool.Tier, pool.Host)
	}
}

// Decide returns the assignment of a single task.
func (p *GreedyPolicy) Decide(t *task.Task, now float64) Assignment {
	for _, pool := range p.Pools {
		if vm := ChooseVM(p.Compute, t, p.candidates(pool, t, now), now); vm != nil {
			return Assign(vm)
		}
	}
	log.WithField("task", t.ID).Debugf("No VM can host the task")
	return Reject(RejectedByCapacity)
}

func (p *GreedyPolicy) Place(_ context.Context, now float64, batch Batch) (Decision, error) {
	if len(batch) == 0 {
		return nil, EmptyBatchErr
	}
	d := make(Decision, len(batch))
	for i, t := range batch {
		d[i] = p.Decide(t, now)
	}
	return d, nil
}
