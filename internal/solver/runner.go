package solver

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ProgramFailedErr = errors.New("optimizer program failed")

// Runner runs an optimizer program to completion.
type Runner interface {
	Run(ctx context.Context, program string, args ...string) error
}

// ExecRunner runs the programs as local processes through an interpreter.
type ExecRunner struct {
	Interpreter string
	Dir         string
	Output      io.Writer
}

// Run waits for the program to exit. Cancelling ctx kills it; there is no timeout.
func (r *ExecRunner) Run(ctx context.Context, program string, args ...string) error {
	argv := append([]string{program}, args...)
	cmd := exec.CommandContext(ctx, r.Interpreter, argv...)
	cmd.Dir = r.Dir
	out := r.Output
	if out == nil {
		out = os.Stdout
	}
	cmd.Stdout = out
	cmd.Stderr = out

	log.Debugf("Running %s %v", r.Interpreter, argv)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return errors.Wrapf(ProgramFailedErr, "%s exited with code %d", program, exitErr.ExitCode())
		}
		return errors.Wrapf(err, "could not run %s", program)
	}
	return nil
}
