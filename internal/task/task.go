package task

import (
	"fmt"
	"sort"
)

// Task is a compute task generated by a mobile device.
// Tasks are created by the workload generator and never mutated afterwards.
type Task struct {
	ID         int
	DeviceID   int
	Type       int   // index in the applications table
	Cores      int   // declared parallelism
	Length     int64 // MI
	InputSize  int64 // KB
	OutputSize int64 // KB
	Arrival    float64
}

func (t *Task) String() string {
	return fmt.Sprintf("T-%d[dev=%d type=%d t=%.3f]", t.ID, t.DeviceID, t.Type, t.Arrival)
}

// SortByArrival sorts tasks by arrival time. Ties keep their original relative order.
func SortByArrival(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Arrival < tasks[j].Arrival
	})
}
