package job

import (
	"fmt"
	"strings"

	"github.com/ams-hpc/amsflow/pkg/errors"
)

// FormattingContext is the closed set of substitution keys available to
// command line templates. Currently the store exposes only its root path.
func FormattingContext(st ModelStore) map[string]string {
	return map[string]string{"AMS_STORE_PATH": st.RootPath()}
}

// formatTemplate substitutes {KEY} placeholders with values from ctx.
// Doubled braces escape a literal brace. Referencing a key outside the
// context is a configuration error, raised at construction and never left
// unresolved in the command line.
func formatTemplate(s string, ctx map[string]string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("unterminated placeholder in %q", s)
			}
			key := s[i+1 : i+1+end]
			value, ok := ctx[key]
			if !ok {
				return "", fmt.Errorf("%w: %s", errors.ErrUnknownTemplateKey, key)
			}
			b.WriteString(value)
			i += end + 1
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("unmatched '}' in %q", s)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}

// formatCLI applies template substitution to every positional argument and
// every flag value of a command line.
func formatCLI(args []string, kwargs []Flag, ctx map[string]string) ([]string, []Flag, error) {
	outArgs := make([]string, len(args))
	for i, a := range args {
		formatted, err := formatTemplate(a, ctx)
		if err != nil {
			return nil, nil, errors.WrapConfigError("cli", fmt.Sprintf("cli_args[%d]", i), err)
		}
		outArgs[i] = formatted
	}

	outKwargs := make([]Flag, len(kwargs))
	for i, kw := range kwargs {
		formatted, err := formatTemplate(kw.Value, ctx)
		if err != nil {
			return nil, nil, errors.WrapConfigError("cli", kw.Flag, err)
		}
		outKwargs[i] = Flag{Flag: kw.Flag, Value: formatted}
	}

	return outArgs, outKwargs, nil
}

// MLJob is the shared shape of model training and data sub-selection jobs.
// Each one is associated with the single domain it works on. All store
// path substitution happens at construction; the deploy hook stays the
// base no-op.
type MLJob struct {
	Job

	Domain string `json:"domain"`
}

// newMLJob builds the shared ML job state, substituting store-derived
// paths into the command line.
func newMLJob(st ModelStore, domain string, p Params) (*MLJob, error) {
	ctx := FormattingContext(st)
	args, kwargs, err := formatCLI(p.CLIArgs, p.CLIKwargs, ctx)
	if err != nil {
		return nil, err
	}
	p.CLIArgs = args
	p.CLIKwargs = kwargs

	base, err := New(p)
	if err != nil {
		return nil, err
	}
	return &MLJob{Job: *base, Domain: domain}, nil
}

// MLTrainJob trains the surrogate model of one domain.
type MLTrainJob struct {
	MLJob
}

// NewMLTrainJob builds a training job description.
func NewMLTrainJob(st ModelStore, domain string, p Params) (*MLTrainJob, error) {
	ml, err := newMLJob(st, domain, p)
	if err != nil {
		return nil, err
	}
	return &MLTrainJob{MLJob: *ml}, nil
}

// SubSelectJob prunes the gathered candidate data of one domain before
// training.
type SubSelectJob struct {
	MLJob
}

// NewSubSelectJob builds a sub-selection job description.
func NewSubSelectJob(st ModelStore, domain string, p Params) (*SubSelectJob, error) {
	ml, err := newMLJob(st, domain, p)
	if err != nil {
		return nil, err
	}
	return &SubSelectJob{MLJob: *ml}, nil
}
