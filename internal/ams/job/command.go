package job

import (
	"fmt"

	"github.com/ams-hpc/amsflow/pkg/errors"
)

// Flag is a single keyed command line argument. Kwargs are carried as an
// ordered slice of flags because the generated command must be stable;
// flag names are unique within one job.
type Flag struct {
	Flag  string `json:"flag" yaml:"flag"`
	Value string `json:"value" yaml:"value"`
}

// BuildCommand assembles an ordered command vector from an executable, its
// keyed arguments and its positional arguments:
//
//	[executable, flag1, value1, flag2, value2, ..., pos1, pos2, ...]
//
// This is a pure formatting function with no side effects.
func BuildCommand(executable string, args []string, kwargs []Flag) []string {
	command := make([]string, 0, 1+2*len(kwargs)+len(args))
	command = append(command, executable)
	for _, kw := range kwargs {
		command = append(command, kw.Flag, kw.Value)
	}
	command = append(command, args...)
	return command
}

// validateFlags rejects duplicate flag names at construction time.
func validateFlags(kwargs []Flag) error {
	seen := make(map[string]struct{}, len(kwargs))
	for _, kw := range kwargs {
		if _, ok := seen[kw.Flag]; ok {
			return errors.WrapConfigError("cli", kw.Flag, fmt.Errorf("%w: %s", errors.ErrDuplicateFlag, kw.Flag))
		}
		seen[kw.Flag] = struct{}{}
	}
	return nil
}

// setFlag replaces the value of an existing flag or appends a new one,
// preserving the order of flags already present.
func setFlag(kwargs []Flag, flag, value string) []Flag {
	for i := range kwargs {
		if kwargs[i].Flag == flag {
			kwargs[i].Value = value
			return kwargs
		}
	}
	return append(kwargs, Flag{Flag: flag, Value: value})
}
