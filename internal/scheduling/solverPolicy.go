package scheduling

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// SolverPolicy delegates the placement of whole batches to an Optimizer.
type SolverPolicy struct {
	Builder   *SnapshotBuilder
	Optimizer Optimizer
	Limits    BatchLimits
}

func (p *SolverPolicy) Name() string {
	return "solver"
}

func (p *SolverPolicy) BatchLimits() BatchLimits {
	return p.Limits
}

func (p *SolverPolicy) Place(ctx context.Context, now float64, batch Batch) (Decision, error) {
	snapshot, err := p.Builder.Build(now, batch)
	if err != nil {
		return nil, errors.Wrap(err, "could not build snapshot")
	}
	log.WithField("batch", batch.ID()).Debugf("Solving batch of %d tasks over %d VMs", len(batch), len(snapshot.VMs))

	decision, err := p.Optimizer.Solve(ctx, snapshot, batch)
	if err != nil {
		return nil, err
	}
	if len(decision) != len(batch) {
		return nil, errors.Wrapf(DecisionSizeErr, "%d assignments for %d tasks", len(decision), len(batch))
	}
	return decision, nil
}
