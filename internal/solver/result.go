package solver

import (
	"math"
	"os"
	"strconv"

	"github.com/buger/jsonparser"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/grussorusso/offsim/internal/scheduling"
)

var MalformedResultErr = errors.New("malformed optimizer result")
var UnknownVMErr = errors.New("optimizer chose an unknown VM")

// parseIndex accepts both "3" and 3 (or 3.0).
func parseIndex(value []byte, dataType jsonparser.ValueType) (int, error) {
	switch dataType {
	case jsonparser.String, jsonparser.Number:
		f, err := strconv.ParseFloat(string(value), 64)
		if err != nil || f != math.Trunc(f) || f < 0 {
			return 0, errors.Wrapf(MalformedResultErr, "invalid index %q", value)
		}
		return int(f), nil
	default:
		return 0, errors.Wrapf(MalformedResultErr, "invalid index type %s", dataType)
	}
}

// ParseResult maps the solution of the optimizer onto the snapshot. Tasks
// missing from the solution are rejected by the solver; indices outside the
// batch are ignored.
func ParseResult(data []byte, s *scheduling.Snapshot) (scheduling.Decision, error) {
	solution, dataType, _, err := jsonparser.Get(data, "solution")
	if err != nil {
		return nil, errors.Wrap(MalformedResultErr, err.Error())
	}
	if dataType != jsonparser.Object {
		return nil, errors.Wrapf(MalformedResultErr, "solution is a %s", dataType)
	}

	decision := make(scheduling.Decision, len(s.Tasks))
	for i := range decision {
		decision[i] = scheduling.Reject(scheduling.RejectedBySolver)
	}

	err = jsonparser.ObjectEach(solution, func(key []byte, value []byte, dataType jsonparser.ValueType, offset int) error {
		taskIndex, err := parseIndex(key, jsonparser.String)
		if err != nil {
			return err
		}
		if taskIndex >= len(decision) {
			log.Warnf("Ignoring optimizer answer for task %d, batch has %d tasks", taskIndex, len(decision))
			return nil
		}
		vmIndex, err := parseIndex(value, dataType)
		if err != nil {
			return err
		}
		vm, ok := s.VM(vmIndex)
		if !ok {
			return errors.Wrapf(UnknownVMErr, "task %d -> vm %d", taskIndex, vmIndex)
		}
		decision[taskIndex] = scheduling.Assign(vm)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decision, nil
}

// ReadResult reads and parses the result file.
func ReadResult(path string, s *scheduling.Snapshot) (scheduling.Decision, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read optimizer result")
	}
	return ParseResult(data, s)
}
