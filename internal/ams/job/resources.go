package job

import (
	"fmt"

	"github.com/ams-hpc/amsflow/pkg/errors"
)

// Resources describes the node/task/core/gpu allocation of a single job.
// It is a value type: construct it once, never mutate it afterwards. Each
// job owns its Resources exclusively.
type Resources struct {
	Nodes        int  `json:"nodes" yaml:"nodes"`
	TasksPerNode int  `json:"tasks_per_node" yaml:"tasks_per_node"`
	CoresPerTask int  `json:"cores_per_task" yaml:"cores_per_task"`
	Exclusive    bool `json:"exclusive" yaml:"exclusive"`
	GPUsPerTask  int  `json:"gpus_per_task" yaml:"gpus_per_task"`
}

// NewResources returns a Resources with the default shape: one core per
// task, exclusive allocation, no GPUs.
func NewResources(nodes, tasksPerNode int) Resources {
	return Resources{
		Nodes:        nodes,
		TasksPerNode: tasksPerNode,
		CoresPerTask: 1,
		Exclusive:    true,
		GPUsPerTask:  0,
	}
}

// TotalTasks is the implied task count used when lowering to a jobspec.
func (r Resources) TotalTasks() int {
	return r.Nodes * r.TasksPerNode
}

// Validate checks the allocation counts.
func (r Resources) Validate() error {
	if r.Nodes < 1 {
		return errors.WrapResourceError("", fmt.Errorf("%w: nodes must be positive, got %d", errors.ErrInvalidResourceSpec, r.Nodes))
	}
	if r.TasksPerNode < 1 {
		return errors.WrapResourceError("", fmt.Errorf("%w: tasks per node must be positive, got %d", errors.ErrInvalidResourceSpec, r.TasksPerNode))
	}
	if r.CoresPerTask < 1 {
		return errors.WrapResourceError("", fmt.Errorf("%w: cores per task must be positive, got %d", errors.ErrInvalidResourceSpec, r.CoresPerTask))
	}
	if r.GPUsPerTask < 0 {
		return errors.WrapResourceError("", fmt.Errorf("%w: gpus per task cannot be negative, got %d", errors.ErrInvalidResourceSpec, r.GPUsPerTask))
	}
	return nil
}
