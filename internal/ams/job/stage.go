package job

import (
	"os"

	"github.com/ams-hpc/amsflow/pkg/errors"
)

// The staging pipeline is always driven through the AMSDBStage executable;
// the variants below only differ in the source-specific flags they add.
const stageExecutable = "AMSDBStage"

// Defaults expected verbatim by the staging executable.
const (
	defaultDBType  = "dhdf5"
	defaultPolicy  = "process"
	defaultPattern = "*.h5"
	defaultSrcType = "shdf5"
)

// StageParams are the arguments shared by every staging variant.
type StageParams struct {
	Resources        *Resources
	Dest             string
	PersistentDBPath string
	Store            bool
	DBType           string
	Policy           string
	PruneModulePath  string
	PruneClass       string
	Environment      map[string]string
	Stdout           string
	Stderr           string
	CLIArgs          []string
	CLIKwargs        []Flag
}

// StageJob moves or streams produced samples from the application into the
// persistent store, optionally pruning them through a user supplied pruning
// plugin. Deployment needs no per-submission environment mutation: every
// path travels as a CLI flag.
type StageJob struct {
	Job
}

// validatePruner enforces the pruning invariant before any CLI flags are
// computed: a pruning module must exist on disk and must come with a class
// name.
func validatePruner(modulePath, class string) error {
	if modulePath == "" {
		return nil
	}
	if _, err := os.Stat(modulePath); err != nil {
		return errors.WrapConfigError("stage job", "prune_module_path", errors.ErrPruneModuleMissing)
	}
	if class == "" {
		return errors.WrapConfigError("stage job", "prune_class", errors.ErrMissingPruneClass)
	}
	return nil
}

// newStageJob assembles the flag set common to all staging variants.
func newStageJob(p StageParams) (*StageJob, error) {
	if err := validatePruner(p.PruneModulePath, p.PruneClass); err != nil {
		return nil, err
	}

	args := append([]string(nil), p.CLIArgs...)
	if p.Store {
		args = append(args, "--store")
	} else {
		args = append(args, "--no-store")
	}

	dbType := p.DBType
	if dbType == "" {
		dbType = defaultDBType
	}
	policy := p.Policy
	if policy == "" {
		policy = defaultPolicy
	}

	kwargs := append([]Flag(nil), p.CLIKwargs...)
	kwargs = setFlag(kwargs, "--dest", p.Dest)
	kwargs = setFlag(kwargs, "--persistent-db-path", p.PersistentDBPath)
	kwargs = setFlag(kwargs, "--db-type", dbType)
	kwargs = setFlag(kwargs, "--policy", policy)

	if p.PruneModulePath != "" {
		kwargs = setFlag(kwargs, "--load", p.PruneModulePath)
		kwargs = setFlag(kwargs, "--class", p.PruneClass)
	}

	base, err := New(Params{
		Name:        "AMSStageJob",
		Executable:  stageExecutable,
		Environment: p.Environment,
		Resources:   p.Resources,
		Stdout:      p.Stdout,
		Stderr:      p.Stderr,
		CLIArgs:     args,
		CLIKwargs:   kwargs,
	})
	if err != nil {
		return nil, err
	}
	return &StageJob{Job: *base}, nil
}

// FSStageParams configure a staging job that reads produced samples from
// the filesystem.
type FSStageParams struct {
	StageParams
	Src     string
	SrcType string
	Pattern string
}

// FSStageJob reads samples matching a pattern from a source directory.
type FSStageJob struct {
	StageJob
}

// NewFSStageJob builds a filesystem-sourced staging job.
func NewFSStageJob(p FSStageParams) (*FSStageJob, error) {
	srcType := p.SrcType
	if srcType == "" {
		srcType = defaultSrcType
	}
	pattern := p.Pattern
	if pattern == "" {
		pattern = defaultPattern
	}

	kwargs := append([]Flag(nil), p.CLIKwargs...)
	kwargs = setFlag(kwargs, "--src", p.Src)
	kwargs = setFlag(kwargs, "--src-type", srcType)
	kwargs = setFlag(kwargs, "--pattern", pattern)
	kwargs = setFlag(kwargs, "--mechanism", "fs")
	p.CLIKwargs = kwargs

	base, err := newStageJob(p.StageParams)
	if err != nil {
		return nil, err
	}
	return &FSStageJob{StageJob: *base}, nil
}

// NetworkStageParams configure a staging job consuming samples from the
// message broker.
type NetworkStageParams struct {
	StageParams
	Creds        string
	UpdateModels bool
}

// NetworkStageJob is the consumer side of the broker transport: it drains
// produced samples off the queue into the store.
type NetworkStageJob struct {
	StageJob
}

// NewNetworkStageJob builds a broker-sourced staging job.
func NewNetworkStageJob(p NetworkStageParams) (*NetworkStageJob, error) {
	if p.UpdateModels {
		p.CLIArgs = append(append([]string(nil), p.CLIArgs...), "--update-rmq-models")
	}

	kwargs := append([]Flag(nil), p.CLIKwargs...)
	kwargs = setFlag(kwargs, "--creds", p.Creds)
	kwargs = setFlag(kwargs, "--mechanism", "network")
	p.CLIKwargs = kwargs

	base, err := newStageJob(p.StageParams)
	if err != nil {
		return nil, err
	}
	return &NetworkStageJob{StageJob: *base}, nil
}

// FSTempStageParams configure the staging job that drains a temporary
// staging directory into the persistent store.
type FSTempStageParams struct {
	StoreDir        string
	SrcDir          string
	DestDir         string
	Resources       *Resources
	Environment     map[string]string
	Stdout          string
	Stderr          string
	PruneModulePath string
	PruneClass      string
	CLIArgs         []string
	CLIKwargs       []Flag
}

// FSTempStageJob copies samples from a per-run staging directory into the
// persistent store, always storing.
type FSTempStageJob struct {
	Job
}

// NewFSTempStageJob builds a filesystem-to-persistent staging job.
func NewFSTempStageJob(p FSTempStageParams) (*FSTempStageJob, error) {
	if err := validatePruner(p.PruneModulePath, p.PruneClass); err != nil {
		return nil, err
	}

	args := append(append([]string(nil), p.CLIArgs...), "--store")

	kwargs := append([]Flag(nil), p.CLIKwargs...)
	kwargs = setFlag(kwargs, "--dest", p.DestDir)
	kwargs = setFlag(kwargs, "--src", p.SrcDir)
	kwargs = setFlag(kwargs, "--pattern", defaultPattern)
	kwargs = setFlag(kwargs, "--db-type", defaultDBType)
	kwargs = setFlag(kwargs, "--mechanism", "fs")
	kwargs = setFlag(kwargs, "--policy", defaultPolicy)
	kwargs = setFlag(kwargs, "--persistent-db-path", p.StoreDir)

	if p.PruneModulePath != "" {
		kwargs = setFlag(kwargs, "--load", p.PruneModulePath)
		kwargs = setFlag(kwargs, "--class", p.PruneClass)
	}

	base, err := New(Params{
		Name:        "AMSStage",
		Executable:  stageExecutable,
		Environment: p.Environment,
		Resources:   p.Resources,
		Stdout:      p.Stdout,
		Stderr:      p.Stderr,
		CLIArgs:     args,
		CLIKwargs:   kwargs,
	})
	if err != nil {
		return nil, err
	}
	return &FSTempStageJob{Job: *base}, nil
}

// ResourcesFromDomainJob derives the staging allocation that shadows a
// domain job: same node count, one five-core task per node, non-exclusive,
// GPUs carried over.
func ResourcesFromDomainJob(domain *DomainJob) (*Resources, error) {
	if domain.Resources == nil {
		return nil, errors.NewMissingResourcesError(domain.Name)
	}
	return &Resources{
		Nodes:        domain.Resources.Nodes,
		TasksPerNode: 1,
		CoresPerTask: 5,
		Exclusive:    false,
		GPUsPerTask:  domain.Resources.GPUsPerTask,
	}, nil
}
