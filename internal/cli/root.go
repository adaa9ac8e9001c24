// Package cli implements the amsflow command line: tooling to validate a
// workflow manifest and to render its job descriptions into scheduler
// submission specs.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ams-hpc/amsflow/pkg/logger"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "amsflow",
	Short: "AMS workflow job description tooling",
	Long: "amsflow builds and inspects the job descriptions of an AMS workflow: " +
		"the physics (domain) job, ML training and sub-selection jobs, and the " +
		"data staging jobs, lowered to Flux submission specs.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger.SetLevel(level)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log verbosity (debug, info, warn, error)")

	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newRenderCmd())
}

// environMap converts the process environment into the explicit map the
// job layer expects. This is the only place process-wide state is read.
func environMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				env[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return env
}
