// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"maps"
	"os"
	"strconv"
	"strings"
)

// Environment variables injected into every step.
const (
	// EnvPipelineName names the pipeline the step belongs to.
	EnvPipelineName = "TASKPIPE_PIPELINE"
	// EnvStepIndex is the 1-based position of the step.
	EnvStepIndex = "TASKPIPE_STEP"
	// EnvStepCount is the total number of steps in the pipeline.
	EnvStepCount = "TASKPIPE_STEPS"
)

type (
	// EnvBuilder builds the environment for step execution.
	// It applies a precedence hierarchy (higher number wins):
	//
	//  1. Host environment (step vars filtered out)
	//  2. Pipefile-level env_file
	//  3. Pipefile-level env
	//  4. Pipeline-level env_file
	//  5. Pipeline-level env
	//  6. Step metadata vars and ExtraEnv
	//  7. --env-file flag files
	//  8. --env flag values - HIGHEST priority
	EnvBuilder interface {
		Build(ctx *ExecContext) (map[string]string, error)
	}

	// DefaultEnvBuilder implements the standard precedence for environment
	// building.
	DefaultEnvBuilder struct {
		// Environ returns the host environment as "KEY=VALUE" strings.
		// When nil, os.Environ() is used.
		Environ func() []string
	}

	// MockEnvBuilder is a test helper that returns a fixed environment map.
	MockEnvBuilder struct {
		// Env is the environment map to return from Build.
		Env map[string]string
		// Err is the error to return from Build (if non-nil).
		Err error
	}
)

// NewDefaultEnvBuilder creates a new DefaultEnvBuilder.
func NewDefaultEnvBuilder() *DefaultEnvBuilder {
	return &DefaultEnvBuilder{}
}

// Build constructs the environment map following the precedence hierarchy.
func (b *DefaultEnvBuilder) Build(ctx *ExecContext) (map[string]string, error) {
	environ := os.Environ
	if b.Environ != nil {
		environ = b.Environ
	}

	// 1. Host environment, minus the step vars taskpipe injects
	env := make(map[string]string)
	for _, e := range FilterStepEnvVars(environ()) {
		key, value, found := strings.Cut(e, "=")
		if !found {
			continue
		}
		env[key] = value
	}

	baseDir := "."
	if ctx.Pipefile != nil {
		baseDir = ctx.Pipefile.Dir()
	}

	// 2. Pipefile-level env_file
	if ctx.Pipefile != nil && ctx.Pipefile.EnvFile != "" {
		if err := LoadEnvFile(env, ctx.Pipefile.EnvFile, baseDir); err != nil {
			return nil, err
		}
	}

	// 3. Pipefile-level env
	if ctx.Pipefile != nil {
		maps.Copy(env, ctx.Pipefile.Env)
	}

	// 4. Pipeline-level env_file
	if ctx.Pipeline != nil && ctx.Pipeline.EnvFile != "" {
		if err := LoadEnvFile(env, ctx.Pipeline.EnvFile, baseDir); err != nil {
			return nil, err
		}
	}

	// 5. Pipeline-level env
	if ctx.Pipeline != nil {
		maps.Copy(env, ctx.Pipeline.Env)
	}

	// 6. Step metadata and extra env from context
	if ctx.Pipeline != nil {
		env[EnvPipelineName] = ctx.Pipeline.Name
	}
	if ctx.StepIndex > 0 {
		env[EnvStepIndex] = strconv.Itoa(ctx.StepIndex)
		env[EnvStepCount] = strconv.Itoa(ctx.StepCount)
	}
	maps.Copy(env, ctx.ExtraEnv)

	// 7. --env-file flag files, relative to where taskpipe was invoked
	cwd := ctx.Cwd
	for _, path := range ctx.EnvFiles {
		if err := LoadEnvFileFromCwd(env, path, cwd); err != nil {
			return nil, err
		}
	}

	// 8. --env flag values (highest priority)
	maps.Copy(env, ctx.EnvVars)

	return env, nil
}

// Build returns the mock environment or error.
func (m *MockEnvBuilder) Build(_ *ExecContext) (map[string]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Env == nil {
		return make(map[string]string), nil
	}
	// Return a copy to prevent mutations
	result := make(map[string]string, len(m.Env))
	maps.Copy(result, m.Env)
	return result, nil
}
