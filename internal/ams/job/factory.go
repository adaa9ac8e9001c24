package job

import (
	"fmt"

	"github.com/ams-hpc/amsflow/internal/ams/manifest"
	"github.com/ams-hpc/amsflow/pkg/errors"
)

// resourcesFromSpec applies the manifest defaults: one core per task,
// exclusive allocation, no GPUs.
func resourcesFromSpec(spec manifest.ResourcesSpec) *Resources {
	res := NewResources(spec.Nodes, spec.TasksPerNode)
	if spec.CoresPerTask != nil {
		res.CoresPerTask = *spec.CoresPerTask
	}
	if spec.Exclusive != nil {
		res.Exclusive = *spec.Exclusive
	}
	if spec.GPUsPerTask != nil {
		res.GPUsPerTask = *spec.GPUsPerTask
	}
	return &res
}

// kwargsFromSpec stringifies and orders the manifest kwargs.
func kwargsFromSpec(cli manifest.CLISpec) ([]Flag, error) {
	flags, values, err := cli.StringKwargs()
	if err != nil {
		return nil, err
	}
	kwargs := make([]Flag, 0, len(flags))
	for _, flag := range flags {
		kwargs = append(kwargs, Flag{Flag: flag, Value: values[flag]})
	}
	return kwargs, nil
}

// NewDomainJobFromManifest builds the physics job from its manifest entry.
// The base environment comes from the driver: the job layer never reads the
// process environment itself.
func NewDomainJobFromManifest(spec manifest.DomainSpec, stageDir string, baseEnv map[string]string) (*DomainJob, error) {
	kwargs, err := kwargsFromSpec(spec.CLI)
	if err != nil {
		return nil, err
	}

	if stageDir == "" {
		stageDir = spec.StageDir
	}

	return NewDomainJob(DomainParams{
		Params: Params{
			Name:        spec.Name,
			Executable:  spec.CLI.Executable,
			Environment: baseEnv,
			Resources:   resourcesFromSpec(spec.Resources),
			Stdout:      spec.CLI.Stdout,
			Stderr:      spec.CLI.Stderr,
			CLIArgs:     spec.CLI.Args,
			CLIKwargs:   kwargs,
			IsMPI:       spec.IsMPI,
			AMSLog:      spec.AMSLog,
		},
		DomainNames: spec.DomainNames,
		StageDir:    stageDir,
	})
}

// mlParamsFromSpec builds the shared ML job parameters of a manifest entry.
func mlParamsFromSpec(spec manifest.MLSpec) (Params, error) {
	kwargs, err := kwargsFromSpec(spec.CLI)
	if err != nil {
		return Params{}, err
	}
	return Params{
		Name:       spec.Name,
		Executable: spec.CLI.Executable,
		Resources:  resourcesFromSpec(spec.Resources),
		Stdout:     spec.CLI.Stdout,
		Stderr:     spec.CLI.Stderr,
		CLIArgs:    spec.CLI.Args,
		CLIKwargs:  kwargs,
		AMSLog:     spec.AMSLog,
	}, nil
}

// NewMLTrainJobFromManifest builds a training job from its manifest entry,
// substituting store-derived paths into the command line.
func NewMLTrainJobFromManifest(st ModelStore, spec manifest.MLSpec) (*MLTrainJob, error) {
	p, err := mlParamsFromSpec(spec)
	if err != nil {
		return nil, err
	}
	return NewMLTrainJob(st, spec.DomainName, p)
}

// NewSubSelectJobFromManifest builds a sub-selection job from its manifest
// entry.
func NewSubSelectJobFromManifest(st ModelStore, spec manifest.MLSpec) (*SubSelectJob, error) {
	p, err := mlParamsFromSpec(spec)
	if err != nil {
		return nil, err
	}
	return NewSubSelectJob(st, spec.DomainName, p)
}

// NewStageJobFromManifest dispatches on the staging mechanism and builds
// the matching variant.
func NewStageJobFromManifest(spec manifest.StageSpec, environ map[string]string) (Description, error) {
	base := StageParams{
		Resources:        resourcesFromSpec(spec.Resources),
		Dest:             spec.Dest,
		PersistentDBPath: spec.PersistentDBPath,
		Store:            spec.StoreEnabled(),
		DBType:           spec.DBType,
		Policy:           spec.Policy,
		PruneModulePath:  spec.PruneModulePath,
		PruneClass:       spec.PruneClass,
		Environment:      environ,
	}

	switch spec.Mechanism {
	case manifest.MechanismFS:
		return NewFSStageJob(FSStageParams{
			StageParams: base,
			Src:         spec.Src,
			SrcType:     spec.SrcType,
			Pattern:     spec.Pattern,
		})
	case manifest.MechanismNetwork:
		return NewNetworkStageJob(NetworkStageParams{
			StageParams:  base,
			Creds:        spec.Creds,
			UpdateModels: spec.UpdateModels,
		})
	default:
		return nil, errors.NewConfigError("stage job", "mechanism", fmt.Errorf("unknown mechanism %q", spec.Mechanism))
	}
}
