package job

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ams-hpc/amsflow/internal/ams/rmq"
	"github.com/ams-hpc/amsflow/pkg/errors"
)

// DomainJob represents the physics executable linked against AMSlib. At
// deploy time it materializes the AMS-Objects artifact describing the
// database and the latest surrogate model per physical domain, and points
// the job environment at it.
type DomainJob struct {
	Job

	// DomainNames are the physical domains the executable computes; each
	// one is resolved to its latest registered model.
	DomainNames []string `json:"domain_names"`

	// StageDir, when set, redirects AMSlib data gathering to a staging
	// directory instead of the store's candidate path.
	StageDir string `json:"stage_dir,omitempty"`

	artifactPath string
}

// DomainParams are the constructor arguments of a DomainJob.
type DomainParams struct {
	Params
	DomainNames []string
	StageDir    string
}

// NewDomainJob validates and builds a domain job description.
func NewDomainJob(p DomainParams) (*DomainJob, error) {
	base, err := New(p.Params)
	if err != nil {
		return nil, err
	}
	if len(p.DomainNames) == 0 {
		return nil, errors.NewConfigError("domain job", "domain_names", fmt.Errorf("at least one domain name is required"))
	}
	return &DomainJob{
		Job:         *base,
		DomainNames: append([]string(nil), p.DomainNames...),
		StageDir:    p.StageDir,
	}, nil
}

// ArtifactPath returns the path of the AMS-Objects file written by the last
// PrecedeDeploy call, empty before the first call.
func (d *DomainJob) ArtifactPath() string {
	return d.artifactPath
}

// modelEntry is one ml_models record of the AMS-Objects artifact.
type modelEntry struct {
	UQType      string  `json:"uq_type"`
	ModelPath   string  `json:"model_path"`
	UQAggregate string  `json:"uq_aggregate"`
	Threshold   float64 `json:"threshold"`
	DBLabel     string  `json:"db_label"`
}

// amsObjects is the artifact consumed by AMSlib through AMS_OBJECTS.
type amsObjects struct {
	DB           map[string]any        `json:"db"`
	MLModels     map[string]modelEntry `json:"ml_models"`
	DomainModels map[string]string     `json:"domain_models"`
}

// dbSection describes where AMSlib writes gathered data: a filesystem path
// when no broker is configured, the broker connection otherwise.
func (d *DomainJob) dbSection(st ModelStore, rmqCfg *rmq.Config) map[string]any {
	if rmqCfg != nil {
		return map[string]any{
			"rmq_config":       rmqCfg.ToDict(true),
			"dbType":           "rmq",
			"update_surrogate": false,
		}
	}
	if d.StageDir != "" {
		return map[string]any{"fs_path": d.StageDir, "dbType": "hdf5"}
	}
	return map[string]any{"fs_path": st.CandidatePath(), "dbType": "hdf5"}
}

// generateAMSObjects resolves the latest model of every domain. A domain
// without a registered model gets a "random" UQ placeholder with an empty
// model path and threshold 1, signaling AMSlib to treat everything as
// uncertain and gather data.
func (d *DomainJob) generateAMSObjects(st ModelStore, rmqCfg *rmq.Config) (*amsObjects, error) {
	obj := &amsObjects{
		DB:           d.dbSection(st, rmqCfg),
		MLModels:     make(map[string]modelEntry, len(d.DomainNames)),
		DomainModels: make(map[string]string, len(d.DomainNames)),
	}

	for i, name := range d.DomainNames {
		models, err := st.Search(name, "models", "latest")
		if err != nil {
			return nil, errors.NewModelLookupError(name, err)
		}

		var entry modelEntry
		if len(models) == 0 {
			entry = modelEntry{
				UQType:      "random",
				ModelPath:   "",
				UQAggregate: "mean",
				Threshold:   1,
				DBLabel:     name,
			}
		} else {
			model := models[0]
			entry = modelEntry{
				UQType:      model.UQType,
				ModelPath:   model.File,
				UQAggregate: "mean",
				Threshold:   model.Threshold,
				DBLabel:     name,
			}
		}

		key := fmt.Sprintf("model_%d", i)
		obj.MLModels[key] = entry
		obj.DomainModels[name] = key
	}

	return obj, nil
}

// PrecedeDeploy writes the AMS-Objects artifact to a unique file under the
// store scratch directory and injects its path into the job environment.
// The submitted job must be able to reach that path, which holds as long as
// the scratch directory lives under the shared store root. Every call
// writes a fresh artifact: calling twice leaks the first file.
func (d *DomainJob) PrecedeDeploy(st ModelStore, rmqCfg *rmq.Config) error {
	obj, err := d.generateAMSObjects(st, rmqCfg)
	if err != nil {
		return err
	}

	tmpDir, err := st.MkdirTmp()
	if err != nil {
		return errors.WrapStoreError("", "mkdir tmp", err)
	}

	path := st.UniqueArtifactPath(tmpDir, ".json")
	data, err := json.Marshal(obj)
	if err != nil {
		return errors.NewArtifactWriteError(path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewArtifactWriteError(path, err)
	}

	d.artifactPath = path
	d.setEnv(EnvAMSObjects, path)
	if d.AMSLog {
		d.setEnv(EnvAMSLogLevel, "debug")
	}

	return nil
}
