package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ams-hpc/amsflow/internal/ams/job"
	"github.com/ams-hpc/amsflow/internal/ams/manifest"
	"github.com/ams-hpc/amsflow/internal/ams/store"
	"github.com/ams-hpc/amsflow/pkg/logger"
)

// addStoreFlag registers the shared --store flag on a command flag set.
func addStoreFlag(flags *pflag.FlagSet, target *string, usage string) {
	flags.StringVar(target, "store", "", usage)
}

func newValidateCmd() *cobra.Command {
	var storeRoot string

	cmd := &cobra.Command{
		Use:   "validate <manifest>",
		Short: "Validate a workflow manifest and print the generated command lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0], storeRoot)
		},
	}

	addStoreFlag(cmd.Flags(), &storeRoot,
		"Store root directory; when set, ML jobs are constructed and their templates resolved")

	return cmd
}

func runValidate(manifestPath, storeRoot string) error {
	log := logger.WithField("command", "validate")

	wf, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	log.Info("manifest loaded", "name", wf.Name, "path", manifestPath)

	domainJob, err := job.NewDomainJobFromManifest(wf.Domain, "", nil)
	if err != nil {
		return err
	}
	fmt.Printf("domain: %s\n", strings.Join(domainJob.GenerateCommand(), " "))

	if wf.Stage != nil {
		stageJob, err := job.NewStageJobFromManifest(*wf.Stage, nil)
		if err != nil {
			return err
		}
		fmt.Printf("stage: %s\n", strings.Join(stageJob.GenerateCommand(), " "))
	}

	// Template substitution needs a live store root; without one the ML
	// entries are checked structurally only.
	if storeRoot == "" {
		if len(wf.Train) > 0 || len(wf.SubSelect) > 0 {
			log.Warn("no --store given, skipping ML command rendering",
				"train", len(wf.Train), "sub_select", len(wf.SubSelect))
		}
		return nil
	}

	st, err := store.Open(storeRoot, logger.WithField("command", "validate"))
	if err != nil {
		return err
	}

	for _, ml := range wf.Train {
		trainJob, err := job.NewMLTrainJobFromManifest(st, ml)
		if err != nil {
			return err
		}
		fmt.Printf("train[%s]: %s\n", trainJob.Domain, strings.Join(trainJob.GenerateCommand(), " "))
	}
	for _, ml := range wf.SubSelect {
		selectJob, err := job.NewSubSelectJobFromManifest(st, ml)
		if err != nil {
			return err
		}
		fmt.Printf("sub_select[%s]: %s\n", selectJob.Domain, strings.Join(selectJob.GenerateCommand(), " "))
	}

	log.Info("manifest is valid")
	return nil
}
