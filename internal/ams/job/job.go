// Package job models the typed job descriptions of the AMS workflow: the
// physics (domain) job, the ML training and sub-selection jobs, the data
// staging jobs and the orchestrator job. A description knows how to render
// its command vector and how to lower itself to a flux.Jobspec; it never
// talks to the scheduler itself.
package job

import (
	"encoding/json"
	"os"

	"github.com/ams-hpc/amsflow/internal/ams/flux"
	"github.com/ams-hpc/amsflow/internal/ams/rmq"
	"github.com/ams-hpc/amsflow/internal/ams/store"
	"github.com/ams-hpc/amsflow/pkg/errors"
)

// Default stdio targets used when a job does not redirect explicitly.
const (
	DefaultStdout = "ams_test.out"
	DefaultStderr = "ams_test.err"
)

// Environment variables injected into domain jobs at deploy time.
const (
	EnvAMSObjects  = "AMS_OBJECTS"
	EnvAMSLogLevel = "AMS_LOG_LEVEL"
)

// ModelStore is the slice of the AMS data store the job layer consumes.
// The store is borrowed for the duration of one PrecedeDeploy call and is
// never owned by a job.
type ModelStore interface {
	// RootPath returns the store root directory on the shared filesystem.
	RootPath() string
	// CandidatePath returns the directory holding candidate data files.
	CandidatePath() string
	// Search returns the model records registered for a domain. version
	// accepts "latest" to select the newest registered model.
	Search(domain, entry, version string) ([]store.ModelRecord, error)
	// MkdirTmp creates (idempotently) and returns the store scratch
	// directory used for deploy-time artifacts.
	MkdirTmp() (string, error)
	// UniqueArtifactPath returns a fresh unique filename under dir.
	UniqueArtifactPath(dir, ext string) string
}

// Description is the capability surface shared by every job variant. The
// external driver builds descriptions from a workflow manifest, calls
// PrecedeDeploy once against the live store and broker state, and hands the
// resulting jobspec to the scheduler.
type Description interface {
	GenerateCommand() []string
	ToJobspec() (*flux.Jobspec, error)
	PrecedeDeploy(st ModelStore, rmqCfg *rmq.Config) error
}

// Job is the base job description shared by all variants.
type Job struct {
	Name        string            `json:"name"`
	Executable  string            `json:"executable"`
	Environment map[string]string `json:"environment,omitempty"`
	Resources   *Resources        `json:"resources,omitempty"`
	Stdout      string            `json:"stdout,omitempty"`
	Stderr      string            `json:"stderr,omitempty"`
	CLIArgs     []string          `json:"cli_args,omitempty"`
	CLIKwargs   []Flag            `json:"cli_kwargs,omitempty"`
	IsMPI       bool              `json:"is_mpi,omitempty"`
	AMSLog      bool              `json:"ams_log,omitempty"`
}

// Params collects the constructor arguments of a base Job. The environment
// is always supplied explicitly by the caller; the job layer never reads
// the process environment on its own.
type Params struct {
	Name        string
	Executable  string
	Environment map[string]string
	Resources   *Resources
	Stdout      string
	Stderr      string
	CLIArgs     []string
	CLIKwargs   []Flag
	IsMPI       bool
	AMSLog      bool
}

// New validates the parameters and builds a base job description. Slices
// and maps are copied so the job owns its own state.
func New(p Params) (*Job, error) {
	if err := validateFlags(p.CLIKwargs); err != nil {
		return nil, err
	}
	if p.Resources != nil {
		if err := p.Resources.Validate(); err != nil {
			return nil, errors.WrapResourceError(p.Name, err)
		}
	}

	j := &Job{
		Name:       p.Name,
		Executable: p.Executable,
		Stdout:     p.Stdout,
		Stderr:     p.Stderr,
		IsMPI:      p.IsMPI,
		AMSLog:     p.AMSLog,
	}
	if p.Resources != nil {
		res := *p.Resources
		j.Resources = &res
	}
	if p.Environment != nil {
		j.Environment = make(map[string]string, len(p.Environment))
		for k, v := range p.Environment {
			j.Environment[k] = v
		}
	}
	j.CLIArgs = append(j.CLIArgs, p.CLIArgs...)
	j.CLIKwargs = append(j.CLIKwargs, p.CLIKwargs...)

	return j, nil
}

// FromJSON decodes a serialized job description and re-validates it. The
// round trip through ToJSON/FromJSON is lossless for all scalar fields.
func FromJSON(data []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, errors.NewConfigError("job", "", err)
	}
	if err := validateFlags(j.CLIKwargs); err != nil {
		return nil, err
	}
	return &j, nil
}

// ToJSON serializes the job description for manifest round-tripping.
func (j *Job) ToJSON() ([]byte, error) {
	return json.Marshal(j)
}

// GenerateCommand renders the job's command vector. Pure, no side effects.
func (j *Job) GenerateCommand() []string {
	return BuildCommand(j.Executable, j.CLIArgs, j.CLIKwargs)
}

// ToJobspec lowers the description to the scheduler's submission spec. It
// fails when the job carries no resource specification. The working
// directory is captured at call time.
func (j *Job) ToJobspec() (*flux.Jobspec, error) {
	if j.Resources == nil {
		return nil, errors.NewMissingResourcesError(j.Name)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.WrapJobError(j.Name, "resolve cwd", err)
	}

	spec := &flux.Jobspec{
		Command:      j.GenerateCommand(),
		NumTasks:     j.Resources.TotalTasks(),
		NumNodes:     j.Resources.Nodes,
		CoresPerTask: j.Resources.CoresPerTask,
		GPUsPerTask:  j.Resources.GPUsPerTask,
		Exclusive:    j.Resources.Exclusive,
		Stdout:       j.Stdout,
		Stderr:       j.Stderr,
		Environment:  make(map[string]string, len(j.Environment)),
		Cwd:          cwd,
	}
	for k, v := range j.Environment {
		spec.Environment[k] = v
	}

	if spec.Stdout == "" {
		spec.Stdout = DefaultStdout
	}
	if spec.Stderr == "" {
		spec.Stderr = DefaultStderr
	}

	if j.IsMPI {
		spec.SetShellOption("mpi", "spectrum")
	}
	spec.SetShellOption("gpu-affinity", "per-task")

	return spec, nil
}

// PrecedeDeploy is called by the submission driver immediately before the
// job is handed to the scheduler. The base description has nothing to do;
// variants override it to mutate their submission environment against the
// live store and broker state. The hook is not idempotent: drivers must
// call it exactly once per submission.
func (j *Job) PrecedeDeploy(st ModelStore, rmqCfg *rmq.Config) error {
	return nil
}

// setEnv writes into the job environment, allocating it on first use.
func (j *Job) setEnv(key, value string) {
	if j.Environment == nil {
		j.Environment = make(map[string]string)
	}
	j.Environment[key] = value
}
