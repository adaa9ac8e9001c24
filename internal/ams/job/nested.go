package job

import (
	"os"

	"github.com/ams-hpc/amsflow/internal/ams/flux"
)

// NestedInstanceParams shape the placeholder allocation that reserves a
// sub-partition of a root allocation.
type NestedInstanceParams struct {
	NumNodes     int
	CoresPerNode int
	GPUsPerNode  int

	// Duration is the sleep argument holding the partition open,
	// defaulting to "inf".
	Duration string

	Stdout  string
	Stderr  string
	Environ map[string]string
}

// NestedInstanceJobspec builds the jobspec of a partition holder: a nested
// instance running an indefinite sleep. The partition is exclusive so the
// parent allocation cannot schedule competing jobs onto the same resources,
// trading utilization for isolation.
func NestedInstanceJobspec(p NestedInstanceParams) (*flux.Jobspec, error) {
	duration := p.Duration
	if duration == "" {
		duration = "inf"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	spec := &flux.Jobspec{
		Command:      []string{"sleep", duration},
		NumTasks:     p.NumNodes,
		NumNodes:     p.NumNodes,
		CoresPerTask: p.CoresPerNode,
		GPUsPerTask:  p.GPUsPerNode,
		Exclusive:    true,
		Stdout:       p.Stdout,
		Stderr:       p.Stderr,
		Environment:  make(map[string]string, len(p.Environ)),
		Cwd:          cwd,
		Nested:       true,
	}
	for k, v := range p.Environ {
		spec.Environment[k] = v
	}

	return spec, nil
}

// EchoJobspec builds a minimal one-task diagnostic job printing a message.
func EchoJobspec(message string) *flux.Jobspec {
	return &flux.Jobspec{
		Command:      []string{"echo", message},
		NumTasks:     1,
		NumNodes:     1,
		CoresPerTask: 1,
		GPUsPerTask:  0,
		Exclusive:    true,
		Environment:  map[string]string{},
	}
}
