package job

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResources_Defaults(t *testing.T) {
	res := NewResources(2, 4)

	assert.Equal(t, 2, res.Nodes)
	assert.Equal(t, 4, res.TasksPerNode)
	assert.Equal(t, 1, res.CoresPerTask)
	assert.True(t, res.Exclusive)
	assert.Equal(t, 0, res.GPUsPerTask)
}

func TestResources_TotalTasks(t *testing.T) {
	res := NewResources(2, 3)
	assert.Equal(t, 6, res.TotalTasks())
}

func TestResources_Validate(t *testing.T) {
	tests := []struct {
		name      string
		resources Resources
		wantErr   bool
	}{
		{
			name:      "valid",
			resources: Resources{Nodes: 1, TasksPerNode: 1, CoresPerTask: 1},
			wantErr:   false,
		},
		{
			name:      "valid with gpus",
			resources: Resources{Nodes: 4, TasksPerNode: 8, CoresPerTask: 2, GPUsPerTask: 1},
			wantErr:   false,
		},
		{
			name:      "zero nodes",
			resources: Resources{Nodes: 0, TasksPerNode: 1, CoresPerTask: 1},
			wantErr:   true,
		},
		{
			name:      "zero tasks per node",
			resources: Resources{Nodes: 1, TasksPerNode: 0, CoresPerTask: 1},
			wantErr:   true,
		},
		{
			name:      "zero cores per task",
			resources: Resources{Nodes: 1, TasksPerNode: 1, CoresPerTask: 0},
			wantErr:   true,
		},
		{
			name:      "negative gpus",
			resources: Resources{Nodes: 1, TasksPerNode: 1, CoresPerTask: 1, GPUsPerTask: -1},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.resources.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResources_JSONRoundTrip(t *testing.T) {
	tests := []Resources{
		{Nodes: 1, TasksPerNode: 1, CoresPerTask: 1, Exclusive: true},
		{Nodes: 2, TasksPerNode: 3, CoresPerTask: 4, Exclusive: false, GPUsPerTask: 2},
		{Nodes: 16, TasksPerNode: 32, CoresPerTask: 1, Exclusive: true, GPUsPerTask: 0},
	}

	for _, res := range tests {
		data, err := json.Marshal(res)
		require.NoError(t, err)

		var decoded Resources
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, res, decoded)
	}
}
