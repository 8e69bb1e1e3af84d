package sim

import (
	"github.com/lithammer/shortuuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/grussorusso/offsim/internal/config"
	"github.com/grussorusso/offsim/internal/infra"
	"github.com/grussorusso/offsim/internal/logging"
	"github.com/grussorusso/offsim/internal/network"
	"github.com/grussorusso/offsim/internal/scheduling"
	"github.com/grussorusso/offsim/internal/solver"
	"github.com/grussorusso/offsim/internal/task"
	"github.com/grussorusso/offsim/internal/workload"
)

// Load builds a simulation from the configuration.
func Load() (*Simulation, error) {
	horizon := config.GetFloat(config.SIMULATION_TIME, 600)
	if horizon <= 0 {
		return nil, errors.Errorf("invalid simulation time: %f", horizon)
	}
	devices := config.GetInt(config.MOBILE_DEVICES, 100)

	profiles, err := task.LoadProfiles()
	if err != nil {
		return nil, err
	}
	net := network.LoadModel(profiles, devices)
	resources, err := infra.LoadManager(profiles, net.AccessPoints())
	if err != nil {
		return nil, err
	}

	gen := &workload.Generator{
		Profiles: profiles,
		Devices:  devices,
		Horizon:  horizon,
		Seed:     uint64(config.GetInt(config.SEED, 1)),
	}
	tasks, err := gen.Generate()
	if err != nil {
		return nil, errors.Wrap(err, "could not generate the workload")
	}

	s := &Simulation{
		ID:           shortuuid.New(),
		Horizon:      horizon,
		LoadInterval: config.GetFloat(config.VM_LOAD_LOG_INTERVAL, 5),
		Profiles:     profiles,
		Tasks:        tasks,
		Timeline:     NewTimeline(),
		Infra:        resources,
		Network:      net,
		Log:          logging.NewLog(),
	}
	s.Policy, err = createPlacementPolicy(s)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func createPlacementPolicy(s *Simulation) (scheduling.Policy, error) {
	policyConf := config.GetString(config.SCHEDULING_POLICY, "greedy")
	log.Infof("Configured policy: %s", policyConf)

	switch policyConf {
	case "greedy":
		var pools []scheduling.PoolID
		for _, name := range config.GetStringSlice(config.GREEDY_POOLS, []string{"edge", "cloud"}) {
			pool, err := scheduling.ParsePool(name)
			if err != nil {
				return nil, err
			}
			pools = append(pools, pool)
		}
		if len(pools) == 0 {
			return nil, errors.New("no pool configured for the greedy policy")
		}
		return &scheduling.GreedyPolicy{Compute: s.Infra, Network: s.Network, Pools: pools}, nil
	case "solver":
		limits := scheduling.BatchLimits{
			Size: config.GetInt(config.BATCH_SIZE, 10),
			Span: config.GetFloat(config.BATCH_TIMESPAN, 5),
		}
		if err := limits.Validate(); err != nil {
			return nil, err
		}
		runner, err := solver.NewRunner()
		if err != nil {
			return nil, err
		}
		builder := &scheduling.SnapshotBuilder{
			Compute:  s.Infra,
			Counter:  s.Log,
			Network:  s.Network,
			Profiles: s.Profiles,
			Horizon:  s.Horizon,
		}
		return &scheduling.SolverPolicy{Builder: builder, Optimizer: solver.NewBridge(runner), Limits: limits}, nil
	default:
		return nil, errors.Errorf("unknown scheduling policy: %s", policyConf)
	}
}
