// Package flux holds the submission-spec value handed to the external Flux
// scheduler. The scheduler itself is an external collaborator; this package
// only models the request it accepts.
package flux

// Jobspec describes one schedulable allocation request: a command vector plus
// the resource shape, stdio redirection and environment it runs with.
type Jobspec struct {
	Command      []string          `json:"command"`
	NumTasks     int               `json:"num_tasks"`
	NumNodes     int               `json:"num_nodes"`
	CoresPerTask int               `json:"cores_per_task"`
	GPUsPerTask  int               `json:"gpus_per_task"`
	Exclusive    bool              `json:"exclusive"`
	Stdout       string            `json:"stdout"`
	Stderr       string            `json:"stderr"`
	Environment  map[string]string `json:"environment"`
	Cwd          string            `json:"cwd"`

	// ShellOptions carries per-job shell attributes such as mpi=spectrum or
	// gpu-affinity=per-task.
	ShellOptions map[string]string `json:"shell_options,omitempty"`

	// Nested marks a jobspec built with the nest command, used to reserve a
	// sub-partition of an existing allocation.
	Nested bool `json:"nested,omitempty"`
}

// SetShellOption records a shell attribute on the jobspec.
func (j *Jobspec) SetShellOption(key, value string) {
	if j.ShellOptions == nil {
		j.ShellOptions = make(map[string]string)
	}
	j.ShellOptions[key] = value
}
