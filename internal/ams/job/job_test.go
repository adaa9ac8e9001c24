package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ams-hpc/amsflow/pkg/errors"
)

func TestNew_CopiesState(t *testing.T) {
	env := map[string]string{"PATH": "/usr/bin"}
	res := NewResources(1, 1)
	args := []string{"a"}

	j, err := New(Params{
		Name:        "physics",
		Executable:  "run",
		Environment: env,
		Resources:   &res,
		CLIArgs:     args,
	})
	require.NoError(t, err)

	// mutating the inputs must not leak into the job
	env["PATH"] = "/tmp"
	args[0] = "b"
	res.Nodes = 99

	assert.Equal(t, "/usr/bin", j.Environment["PATH"])
	assert.Equal(t, []string{"a"}, j.CLIArgs)
	assert.Equal(t, 1, j.Resources.Nodes)
}

func TestNew_RejectsDuplicateFlags(t *testing.T) {
	_, err := New(Params{
		Name:       "physics",
		Executable: "run",
		CLIKwargs:  []Flag{{Flag: "--x", Value: "1"}, {Flag: "--x", Value: "2"}},
	})
	assert.True(t, errors.IsConfigError(err))
}

func TestNew_RejectsInvalidResources(t *testing.T) {
	res := Resources{Nodes: 0, TasksPerNode: 1, CoresPerTask: 1}
	_, err := New(Params{Name: "physics", Executable: "run", Resources: &res})
	assert.True(t, errors.IsResourceError(err))
}

func TestToJobspec_MissingResources(t *testing.T) {
	j, err := New(Params{Name: "physics", Executable: "run"})
	require.NoError(t, err)

	_, err = j.ToJobspec()
	assert.True(t, errors.IsResourceError(err))
	assert.ErrorIs(t, err, errors.ErrMissingResources)
}

func TestToJobspec_Shape(t *testing.T) {
	res := Resources{Nodes: 2, TasksPerNode: 3, CoresPerTask: 4, Exclusive: true, GPUsPerTask: 1}
	j, err := New(Params{
		Name:        "physics",
		Executable:  "run",
		Environment: map[string]string{"K": "v"},
		Resources:   &res,
		CLIArgs:     []string{"a"},
		CLIKwargs:   []Flag{{Flag: "--x", Value: "1"}},
	})
	require.NoError(t, err)

	spec, err := j.ToJobspec()
	require.NoError(t, err)

	assert.Equal(t, []string{"run", "--x", "1", "a"}, spec.Command)
	assert.Equal(t, 6, spec.NumTasks)
	assert.Equal(t, 2, spec.NumNodes)
	assert.Equal(t, 4, spec.CoresPerTask)
	assert.Equal(t, 1, spec.GPUsPerTask)
	assert.True(t, spec.Exclusive)
	assert.Equal(t, map[string]string{"K": "v"}, spec.Environment)
	assert.NotEmpty(t, spec.Cwd)
	assert.Equal(t, "per-task", spec.ShellOptions["gpu-affinity"])
}

func TestToJobspec_StdioDefaults(t *testing.T) {
	res := NewResources(1, 1)
	j, err := New(Params{Name: "physics", Executable: "run", Resources: &res})
	require.NoError(t, err)

	spec, err := j.ToJobspec()
	require.NoError(t, err)
	assert.Equal(t, DefaultStdout, spec.Stdout)
	assert.Equal(t, DefaultStderr, spec.Stderr)

	j.Stdout = "physics.out"
	j.Stderr = "physics.err"
	spec, err = j.ToJobspec()
	require.NoError(t, err)
	assert.Equal(t, "physics.out", spec.Stdout)
	assert.Equal(t, "physics.err", spec.Stderr)
}

func TestToJobspec_MPIOption(t *testing.T) {
	res := NewResources(1, 1)

	mpi, err := New(Params{Name: "physics", Executable: "run", Resources: &res, IsMPI: true})
	require.NoError(t, err)
	spec, err := mpi.ToJobspec()
	require.NoError(t, err)
	assert.Equal(t, "spectrum", spec.ShellOptions["mpi"])

	serial, err := New(Params{Name: "physics", Executable: "run", Resources: &res})
	require.NoError(t, err)
	spec, err = serial.ToJobspec()
	require.NoError(t, err)
	_, ok := spec.ShellOptions["mpi"]
	assert.False(t, ok)
}

func TestToJobspec_EnvironmentCopied(t *testing.T) {
	res := NewResources(1, 1)
	j, err := New(Params{
		Name:        "physics",
		Executable:  "run",
		Environment: map[string]string{"K": "v"},
		Resources:   &res,
	})
	require.NoError(t, err)

	spec, err := j.ToJobspec()
	require.NoError(t, err)

	spec.Environment["K"] = "mutated"
	assert.Equal(t, "v", j.Environment["K"])
}

func TestJob_JSONRoundTrip(t *testing.T) {
	res := Resources{Nodes: 2, TasksPerNode: 3, CoresPerTask: 4, Exclusive: false, GPUsPerTask: 1}
	j, err := New(Params{
		Name:        "physics",
		Executable:  "run",
		Environment: map[string]string{"K": "v"},
		Resources:   &res,
		Stdout:      "physics.out",
		Stderr:      "physics.err",
		CLIArgs:     []string{"a", "b"},
		CLIKwargs:   []Flag{{Flag: "--x", Value: "1"}},
		IsMPI:       true,
		AMSLog:      true,
	})
	require.NoError(t, err)

	data, err := j.ToJSON()
	require.NoError(t, err)

	decoded, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, j, decoded)
}

func TestFromJSON_RejectsDuplicateFlags(t *testing.T) {
	data := []byte(`{"name":"x","executable":"run","cli_kwargs":[{"flag":"--x","value":"1"},{"flag":"--x","value":"2"}]}`)
	_, err := FromJSON(data)
	assert.True(t, errors.IsConfigError(err))
}
