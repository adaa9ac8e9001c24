package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrchestratorJob(t *testing.T) {
	orch, err := NewOrchestratorJob("local:///run/flux", "/etc/ams/rmq.yaml",
		map[string]string{"PATH": "/usr/bin"})
	require.NoError(t, err)

	assert.Equal(t, "AMSOrchestrator", orch.Name)
	assert.Equal(t, "AMSOrchestrator", orch.Executable)
	assert.Equal(t, "AMSOrchestrator-log.out", orch.Stdout)
	assert.Equal(t, "AMSOrchestrator-log.err", orch.Stderr)
	assert.Equal(t, "/usr/bin", orch.Environment["PATH"])

	require.NotNil(t, orch.Resources)
	assert.Equal(t, 1, orch.Resources.Nodes)
	assert.Equal(t, 1, orch.Resources.TasksPerNode)
	assert.Equal(t, 1, orch.Resources.CoresPerTask)
	assert.False(t, orch.Resources.Exclusive)
	assert.Equal(t, 0, orch.Resources.GPUsPerTask)

	assert.Equal(t, []string{
		"AMSOrchestrator",
		"--ml-uri", "local:///run/flux",
		"--ams-rmq-config", "/etc/ams/rmq.yaml",
	}, orch.GenerateCommand())
}

func TestNestedInstanceJobspec(t *testing.T) {
	spec, err := NestedInstanceJobspec(NestedInstanceParams{
		NumNodes:     2,
		CoresPerNode: 36,
		GPUsPerNode:  4,
		Environ:      map[string]string{"FLUX_URI": "local:///run/flux"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"sleep", "inf"}, spec.Command)
	assert.Equal(t, 2, spec.NumNodes)
	assert.Equal(t, 2, spec.NumTasks)
	assert.Equal(t, 36, spec.CoresPerTask)
	assert.Equal(t, 4, spec.GPUsPerTask)
	assert.True(t, spec.Exclusive)
	assert.True(t, spec.Nested)
	assert.NotEmpty(t, spec.Cwd)
	assert.Equal(t, "local:///run/flux", spec.Environment["FLUX_URI"])
}

func TestNestedInstanceJobspec_CustomDuration(t *testing.T) {
	spec, err := NestedInstanceJobspec(NestedInstanceParams{
		NumNodes:     1,
		CoresPerNode: 1,
		Duration:     "3600",
		Stdout:       "partition.out",
		Stderr:       "partition.err",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"sleep", "3600"}, spec.Command)
	assert.Equal(t, "partition.out", spec.Stdout)
	assert.Equal(t, "partition.err", spec.Stderr)
}

func TestEchoJobspec(t *testing.T) {
	spec := EchoJobspec("hello")

	assert.Equal(t, []string{"echo", "hello"}, spec.Command)
	assert.Equal(t, 1, spec.NumTasks)
	assert.Equal(t, 1, spec.NumNodes)
	assert.Equal(t, 1, spec.CoresPerTask)
	assert.Equal(t, 0, spec.GPUsPerTask)
	assert.True(t, spec.Exclusive)
}
