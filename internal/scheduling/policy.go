package scheduling

import (
	"context"
)

// Policy decides where the tasks of a batch run.
type Policy interface {
	Name() string
	Place(ctx context.Context, now float64, batch Batch) (Decision, error)
}

// BatchPolicy is implemented by policies that place tasks in batches
// instead of one at a time.
type BatchPolicy interface {
	Policy
	BatchLimits() BatchLimits
}
