package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ams-hpc/amsflow/internal/ams/flux"
	"github.com/ams-hpc/amsflow/internal/ams/job"
	"github.com/ams-hpc/amsflow/internal/ams/manifest"
	"github.com/ams-hpc/amsflow/internal/ams/rmq"
	"github.com/ams-hpc/amsflow/internal/ams/store"
	"github.com/ams-hpc/amsflow/pkg/logger"
)

func newRenderCmd() *cobra.Command {
	var (
		storeRoot string
		rmqPath   string
		stageDir  string
	)

	cmd := &cobra.Command{
		Use:   "render <manifest>",
		Short: "Run the pre-deployment hooks against a live store and print the submission specs",
		Long: "render builds every job description of the manifest, runs PrecedeDeploy " +
			"once per job against the given store (and broker configuration, when " +
			"supplied) and prints the resulting Flux submission specs as JSON.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if storeRoot == "" {
				return fmt.Errorf("--store is required")
			}
			return runRender(args[0], storeRoot, rmqPath, stageDir)
		},
	}

	addStoreFlag(cmd.Flags(), &storeRoot, "Store root directory (required)")
	cmd.Flags().StringVar(&rmqPath, "rmq", "", "Broker credentials file; switches the domain job database to the broker")
	cmd.Flags().StringVar(&stageDir, "stage-dir", "", "Staging directory overriding the manifest stage_dir")

	return cmd
}

func runRender(manifestPath, storeRoot, rmqPath, stageDir string) error {
	log := logger.WithField("command", "render")

	wf, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}

	st, err := store.Open(storeRoot, log)
	if err != nil {
		return err
	}

	var rmqCfg *rmq.Config
	if rmqPath != "" {
		rmqCfg, err = rmq.LoadConfig(rmqPath)
		if err != nil {
			return err
		}
		log.Info("broker configuration loaded", "host", rmqCfg.Host, "uri", rmqCfg.URI())
	}

	env := environMap(os.Environ())

	var jobs []job.Description

	domainJob, err := job.NewDomainJobFromManifest(wf.Domain, stageDir, env)
	if err != nil {
		return err
	}
	jobs = append(jobs, domainJob)

	for _, ml := range wf.Train {
		trainJob, err := job.NewMLTrainJobFromManifest(st, ml)
		if err != nil {
			return err
		}
		jobs = append(jobs, trainJob)
	}
	for _, ml := range wf.SubSelect {
		selectJob, err := job.NewSubSelectJobFromManifest(st, ml)
		if err != nil {
			return err
		}
		jobs = append(jobs, selectJob)
	}
	if wf.Stage != nil {
		stageJob, err := job.NewStageJobFromManifest(*wf.Stage, env)
		if err != nil {
			return err
		}
		jobs = append(jobs, stageJob)
	}

	// Exactly one PrecedeDeploy call per job before lowering: the hook is
	// not idempotent.
	specs := make([]*flux.Jobspec, 0, len(jobs))
	for _, j := range jobs {
		if err := j.PrecedeDeploy(st, rmqCfg); err != nil {
			return err
		}
		spec, err := j.ToJobspec()
		if err != nil {
			return err
		}
		specs = append(specs, spec)
	}

	log.Info("jobs rendered", "count", len(specs), "artifact", domainJob.ArtifactPath())

	out, err := json.MarshalIndent(specs, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
