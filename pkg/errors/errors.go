// Package errors provides standardized error handling for the AMS workflow
// layer. It implements structured error types with proper wrapping and
// classification following Go 1.20+ error handling practices.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// Configuration errors, raised at construction time and never deferred
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrUnknownTemplateKey = errors.New("unknown template key")
	ErrMissingPruneClass  = errors.New("pruning module requires a pruning class")
	ErrPruneModuleMissing = errors.New("pruning module path does not exist")
	ErrDuplicateFlag      = errors.New("duplicate command line flag")

	// Resource errors
	ErrMissingResources    = errors.New("job has no resource specification")
	ErrInvalidResourceSpec = errors.New("invalid resource specification")

	// Store errors
	ErrModelLookup   = errors.New("model lookup failed")
	ErrStoreIndex    = errors.New("store index operation failed")
	ErrArtifactWrite = errors.New("artifact write failed")
)

// ConfigError represents an invalid job or workflow configuration.
type ConfigError struct {
	Component string
	Field     string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config %s.%s: %v", e.Component, e.Field, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Component, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ResourceError represents a missing or invalid resource specification.
type ResourceError struct {
	Job string
	Err error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resources for job %s: %v", e.Job, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// StoreError represents a data store failure surfaced during deployment.
type StoreError struct {
	Domain    string
	Operation string
	Err       error
}

func (e *StoreError) Error() string {
	if e.Domain != "" {
		return fmt.Sprintf("store %s: domain %s: %v", e.Operation, e.Domain, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Operation, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// JobError represents an error related to a specific job description.
type JobError struct {
	Job       string
	Operation string
	Err       error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %s: operation %s: %v", e.Job, e.Operation, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// Error wrapping constructors
func WrapConfigError(component, field string, err error) error {
	if err == nil {
		return nil
	}
	return &ConfigError{Component: component, Field: field, Err: err}
}

func WrapResourceError(job string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{Job: job, Err: err}
}

func WrapStoreError(domain, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Domain: domain, Operation: operation, Err: err}
}

func WrapJobError(job, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &JobError{Job: job, Operation: operation, Err: err}
}

// Error classification functions
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func IsResourceError(err error) bool {
	var re *ResourceError
	return errors.As(err, &re)
}

func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

func IsJobError(err error) bool {
	var je *JobError
	return errors.As(err, &je)
}

// Error extraction helpers
func GetDomain(err error) (string, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Domain, true
	}
	return "", false
}

func GetJob(err error) (string, bool) {
	var je *JobError
	if errors.As(err, &je) {
		return je.Job, true
	}
	var re *ResourceError
	if errors.As(err, &re) {
		return re.Job, true
	}
	return "", false
}

// Convenience functions for common error patterns
func NewConfigError(component, field string, err error) error {
	return WrapConfigError(component, field, fmt.Errorf("%w: %v", ErrInvalidConfig, err))
}

func NewMissingResourcesError(job string) error {
	return WrapResourceError(job, ErrMissingResources)
}

func NewModelLookupError(domain string, err error) error {
	return WrapStoreError(domain, "search", fmt.Errorf("%w: %v", ErrModelLookup, err))
}

func NewArtifactWriteError(path string, err error) error {
	return WrapStoreError("", "write "+path, fmt.Errorf("%w: %v", ErrArtifactWrite, err))
}
