// Package manifest parses the YAML workflow description the driver feeds
// into the job factories.
package manifest

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ams-hpc/amsflow/pkg/errors"
)

// Staging mechanisms accepted by the stage entry.
const (
	MechanismFS      = "fs"
	MechanismNetwork = "network"
)

// Workflow is the root of a workflow manifest.
type Workflow struct {
	Name      string     `yaml:"name"`
	Domain    DomainSpec `yaml:"domain"`
	Train     []MLSpec   `yaml:"train"`
	SubSelect []MLSpec   `yaml:"sub_select"`
	Stage     *StageSpec `yaml:"stage"`
}

// CLISpec describes the command line of one manifest entry. Kwargs values
// may be any YAML scalar; they are stringified before reaching a job.
type CLISpec struct {
	Executable string         `yaml:"executable"`
	Args       []string       `yaml:"cli_args"`
	Kwargs     map[string]any `yaml:"cli_kwargs"`
	Stdout     string         `yaml:"stdout"`
	Stderr     string         `yaml:"stderr"`
}

// StringKwargs stringifies the kwarg values, rejecting non-scalars, and
// returns them in deterministic (sorted) flag order.
func (c *CLISpec) StringKwargs() ([]string, map[string]string, error) {
	out := make(map[string]string, len(c.Kwargs))
	flags := make([]string, 0, len(c.Kwargs))
	for flag, value := range c.Kwargs {
		switch value.(type) {
		case string, int, int64, float64, bool, nil:
			out[flag] = fmt.Sprintf("%v", value)
		default:
			return nil, nil, errors.NewConfigError("manifest", flag, fmt.Errorf("kwarg value must be a scalar, got %T", value))
		}
		flags = append(flags, flag)
	}
	sort.Strings(flags)
	return flags, out, nil
}

// ResourcesSpec mirrors job.Resources with optional fields so omitted
// values keep their defaults (one core per task, exclusive, no GPUs).
type ResourcesSpec struct {
	Nodes        int   `yaml:"nodes"`
	TasksPerNode int   `yaml:"tasks_per_node"`
	CoresPerTask *int  `yaml:"cores_per_task"`
	Exclusive    *bool `yaml:"exclusive"`
	GPUsPerTask  *int  `yaml:"gpus_per_task"`
}

// DomainSpec describes the physics job of the workflow.
type DomainSpec struct {
	Name        string        `yaml:"name"`
	DomainNames []string      `yaml:"domain_names"`
	StageDir    string        `yaml:"stage_dir"`
	AMSLog      bool          `yaml:"ams_log"`
	IsMPI       bool          `yaml:"is_mpi"`
	CLI         CLISpec       `yaml:"cli"`
	Resources   ResourcesSpec `yaml:"resources"`
}

// MLSpec describes one training or sub-selection job.
type MLSpec struct {
	Name       string        `yaml:"name"`
	DomainName string        `yaml:"domain_name"`
	AMSLog     bool          `yaml:"ams_log"`
	CLI        CLISpec       `yaml:"cli"`
	Resources  ResourcesSpec `yaml:"resources"`
}

// StageSpec describes the staging job moving produced samples into the
// persistent store.
type StageSpec struct {
	Mechanism        string        `yaml:"mechanism"`
	Dest             string        `yaml:"dest"`
	PersistentDBPath string        `yaml:"persistent_db_path"`
	Store            *bool         `yaml:"store"`
	DBType           string        `yaml:"db_type"`
	Policy           string        `yaml:"policy"`
	PruneModulePath  string        `yaml:"prune_module_path"`
	PruneClass       string        `yaml:"prune_class"`
	Resources        ResourcesSpec `yaml:"resources"`

	// Filesystem source
	Src     string `yaml:"src"`
	SrcType string `yaml:"src_type"`
	Pattern string `yaml:"pattern"`

	// Broker source
	Creds        string `yaml:"creds"`
	UpdateModels bool   `yaml:"update_rmq_models"`
}

// StoreEnabled reports the store flag, defaulting to true when omitted.
func (s *StageSpec) StoreEnabled() bool {
	if s.Store == nil {
		return true
	}
	return *s.Store
}

// Load reads and validates a workflow manifest.
func Load(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("manifest", "path", err)
	}

	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, errors.NewConfigError("manifest", "", err)
	}

	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return &wf, nil
}

// Validate checks the structural invariants of the manifest.
func (w *Workflow) Validate() error {
	if w.Domain.CLI.Executable == "" {
		return errors.NewConfigError("manifest", "domain.cli.executable", fmt.Errorf("executable is required"))
	}
	if len(w.Domain.DomainNames) == 0 {
		return errors.NewConfigError("manifest", "domain.domain_names", fmt.Errorf("at least one domain name is required"))
	}
	if err := w.Domain.Resources.validate("domain"); err != nil {
		return err
	}

	for i, ml := range w.Train {
		if err := ml.validate(fmt.Sprintf("train[%d]", i)); err != nil {
			return err
		}
	}
	for i, ml := range w.SubSelect {
		if err := ml.validate(fmt.Sprintf("sub_select[%d]", i)); err != nil {
			return err
		}
	}

	if w.Stage != nil {
		return w.Stage.validate()
	}
	return nil
}

func (m *MLSpec) validate(where string) error {
	if m.DomainName == "" {
		return errors.NewConfigError("manifest", where+".domain_name", fmt.Errorf("domain name is required"))
	}
	if m.CLI.Executable == "" {
		return errors.NewConfigError("manifest", where+".cli.executable", fmt.Errorf("executable is required"))
	}
	return m.Resources.validate(where)
}

func (s *StageSpec) validate() error {
	switch s.Mechanism {
	case MechanismFS:
		if s.Src == "" {
			return errors.NewConfigError("manifest", "stage.src", fmt.Errorf("filesystem staging requires a source directory"))
		}
	case MechanismNetwork:
		if s.Creds == "" {
			return errors.NewConfigError("manifest", "stage.creds", fmt.Errorf("network staging requires a credentials file"))
		}
	default:
		return errors.NewConfigError("manifest", "stage.mechanism", fmt.Errorf("unknown mechanism %q", s.Mechanism))
	}
	if s.Dest == "" {
		return errors.NewConfigError("manifest", "stage.dest", fmt.Errorf("destination is required"))
	}
	if s.PersistentDBPath == "" {
		return errors.NewConfigError("manifest", "stage.persistent_db_path", fmt.Errorf("persistent store path is required"))
	}
	return s.Resources.validate("stage")
}

func (r *ResourcesSpec) validate(where string) error {
	if r.Nodes < 1 {
		return errors.NewConfigError("manifest", where+".resources.nodes", fmt.Errorf("nodes must be positive, got %d", r.Nodes))
	}
	if r.TasksPerNode < 1 {
		return errors.NewConfigError("manifest", where+".resources.tasks_per_node", fmt.Errorf("tasks per node must be positive, got %d", r.TasksPerNode))
	}
	return nil
}
