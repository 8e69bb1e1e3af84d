package solver

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/grussorusso/offsim/internal/config"
	"github.com/grussorusso/offsim/internal/metrics"
	"github.com/grussorusso/offsim/internal/scheduling"
)

// Bridge places batches through the external optimizer. The optimizer reads
// its input files from Dir and writes its answer to ResultFile. Runs sharing
// a working directory overwrite each other's files.
type Bridge struct {
	Dir          string
	ResultFile   string
	Prepare      string
	SolveProgram string
	Runner       Runner
}

// NewBridge builds a bridge from the configuration.
func NewBridge(runner Runner) *Bridge {
	return &Bridge{
		Dir:          config.GetString(config.SOLVER_EXCHANGE_DIR, "solver_configs"),
		ResultFile:   config.GetString(config.SOLVER_RESULT_FILE, filepath.Join("solver_solutions", "S2_sol.json")),
		Prepare:      config.GetString(config.SOLVER_PREPARE, filepath.Join("LOTOS", "create_config.py")),
		SolveProgram: config.GetString(config.SOLVER_SOLVE, filepath.Join("LOTOS", "model.py")),
		Runner:       runner,
	}
}

// NewRunner returns the runner selected in the configuration.
func NewRunner() (Runner, error) {
	interpreter := config.GetString(config.SOLVER_INTERPRETER, "python3")
	switch kind := config.GetString(config.SOLVER_RUNNER, "exec"); kind {
	case "exec":
		return &ExecRunner{Interpreter: interpreter, Dir: ".", Output: os.Stdout}, nil
	case "docker":
		return NewDockerRunner(config.GetString(config.SOLVER_IMAGE, "python:3.10"), interpreter, ".")
	default:
		return nil, errors.Errorf("unknown solver runner: %s", kind)
	}
}

// Solve writes the exchange files, runs the prepare and solve programs and
// reads the placement they produced. The caller is blocked until both
// programs exit.
func (b *Bridge) Solve(ctx context.Context, s *scheduling.Snapshot, batch scheduling.Batch) (scheduling.Decision, error) {
	if len(batch) != len(s.Tasks) {
		return nil, errors.Errorf("snapshot has %d tasks, batch %d", len(s.Tasks), len(batch))
	}
	start := time.Now()

	if err := WriteExchange(b.Dir, s); err != nil {
		return nil, err
	}
	if err := os.Remove(b.ResultFile); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "could not remove stale result")
	}
	if err := os.MkdirAll(filepath.Dir(b.ResultFile), 0755); err != nil {
		return nil, errors.Wrap(err, "could not create result dir")
	}

	devices := strconv.Itoa(s.Network.Devices)
	for _, program := range []string{b.Prepare, b.SolveProgram} {
		if err := b.Runner.Run(ctx, program, devices); err != nil {
			return nil, err
		}
	}

	decision, err := ReadResult(b.ResultFile, s)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.ObserveSolver(elapsed.Seconds())
	log.WithFields(log.Fields{"batch": batch.ID(), "tasks": len(batch)}).Debugf("Optimizer answered in %v", elapsed)
	return decision, nil
}
