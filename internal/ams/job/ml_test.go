package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ams-hpc/amsflow/pkg/errors"
)

func TestFormatTemplate(t *testing.T) {
	ctx := map[string]string{"AMS_STORE_PATH": "/gpfs/ams"}

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "train.py", want: "train.py"},
		{name: "substitution", in: "{AMS_STORE_PATH}/models", want: "/gpfs/ams/models"},
		{name: "escaped braces", in: "a{{b}}c", want: "a{b}c"},
		{name: "unknown key", in: "{NOT_A_KEY}", wantErr: true},
		{name: "unterminated", in: "{AMS_STORE_PATH", wantErr: true},
		{name: "stray close", in: "a}b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatTemplate(tt.in, ctx)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewMLTrainJob_SubstitutesStorePaths(t *testing.T) {
	st := newFakeStore(t)
	res := NewResources(1, 1)

	trainJob, err := NewMLTrainJob(st, "ideal-gas", Params{
		Name:       "train-ideal-gas",
		Executable: "AMSTrain",
		Resources:  &res,
		CLIArgs:    []string{"{AMS_STORE_PATH}/data"},
		CLIKwargs:  []Flag{{Flag: "--model-dir", Value: "{AMS_STORE_PATH}/models"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "ideal-gas", trainJob.Domain)
	assert.Equal(t, []string{
		"AMSTrain",
		"--model-dir", st.RootPath() + "/models",
		st.RootPath() + "/data",
	}, trainJob.GenerateCommand())
}

func TestNewMLTrainJob_UnknownKeyFailsConstruction(t *testing.T) {
	st := newFakeStore(t)
	res := NewResources(1, 1)

	_, err := NewMLTrainJob(st, "ideal-gas", Params{
		Name:       "train-ideal-gas",
		Executable: "AMSTrain",
		Resources:  &res,
		CLIKwargs:  []Flag{{Flag: "--model-dir", Value: "{AMS_MODEL_PATH}"}},
	})
	assert.True(t, errors.IsConfigError(err))
	assert.ErrorIs(t, err, errors.ErrUnknownTemplateKey)
}

func TestNewSubSelectJob(t *testing.T) {
	st := newFakeStore(t)
	res := NewResources(1, 1)

	selectJob, err := NewSubSelectJob(st, "turbulence", Params{
		Name:       "select-turbulence",
		Executable: "AMSSubSelect",
		Resources:  &res,
		CLIArgs:    []string{"{AMS_STORE_PATH}"},
	})
	require.NoError(t, err)
	assert.Equal(t, "turbulence", selectJob.Domain)
	assert.Equal(t, []string{"AMSSubSelect", st.RootPath()}, selectJob.GenerateCommand())
}

func TestMLJob_PrecedeDeployIsNoOp(t *testing.T) {
	st := newFakeStore(t)
	res := NewResources(1, 1)

	trainJob, err := NewMLTrainJob(st, "ideal-gas", Params{
		Name:       "train-ideal-gas",
		Executable: "AMSTrain",
		Resources:  &res,
	})
	require.NoError(t, err)

	require.NoError(t, trainJob.PrecedeDeploy(st, nil))
	assert.Empty(t, trainJob.Environment)
}
