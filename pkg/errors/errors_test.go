package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("manifest", "domain_names", fmt.Errorf("empty"))

	assert.True(t, IsConfigError(err))
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "manifest.domain_names")

	noField := WrapConfigError("rmq", "", fmt.Errorf("bad yaml"))
	assert.Equal(t, "config rmq: bad yaml", noField.Error())
}

func TestResourceError(t *testing.T) {
	err := NewMissingResourcesError("physics")

	assert.True(t, IsResourceError(err))
	assert.True(t, errors.Is(err, ErrMissingResources))

	job, ok := GetJob(err)
	assert.True(t, ok)
	assert.Equal(t, "physics", job)
}

func TestStoreError(t *testing.T) {
	err := NewModelLookupError("ideal-gas", fmt.Errorf("index corrupted"))

	assert.True(t, IsStoreError(err))
	assert.True(t, errors.Is(err, ErrModelLookup))

	domain, ok := GetDomain(err)
	assert.True(t, ok)
	assert.Equal(t, "ideal-gas", domain)
}

func TestJobError(t *testing.T) {
	inner := fmt.Errorf("cwd gone")
	err := WrapJobError("physics", "resolve cwd", inner)

	assert.True(t, IsJobError(err))
	assert.Equal(t, inner, errors.Unwrap(err))

	job, ok := GetJob(err)
	assert.True(t, ok)
	assert.Equal(t, "physics", job)
}

func TestWrappersReturnNilOnNil(t *testing.T) {
	assert.Nil(t, WrapConfigError("a", "b", nil))
	assert.Nil(t, WrapResourceError("a", nil))
	assert.Nil(t, WrapStoreError("a", "b", nil))
	assert.Nil(t, WrapJobError("a", "b", nil))
}

func TestClassificationIsExclusive(t *testing.T) {
	cfgErr := NewConfigError("manifest", "", fmt.Errorf("bad"))
	assert.False(t, IsResourceError(cfgErr))
	assert.False(t, IsStoreError(cfgErr))

	resErr := NewMissingResourcesError("physics")
	assert.False(t, IsConfigError(resErr))
	assert.False(t, IsStoreError(resErr))
}
