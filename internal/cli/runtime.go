package cli

import (
	"errors"

	"github.com/roach88/graphreplay/internal/config"
	"github.com/roach88/graphreplay/internal/engine"
	"github.com/roach88/graphreplay/internal/forensics"
	"github.com/roach88/graphreplay/internal/logging"
)

// loadConfig reads --config and applies flag overrides. The result is not
// validated; callers pick Validate or ValidateExecution.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	if o.ConfigPath == "" {
		return nil, WrapExitError(ExitCommandError, "invalid flags", errors.New("--config is required"))
	}
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.CycleTimeout > 0 {
		cfg.CycleTimeout = o.CycleTimeout
	}
	return cfg, nil
}

// execution is the executor and linker shared by run and replay modes.
type execution struct {
	executor *engine.Executor
	linker   *forensics.Linker
}

// buildExecution wires the runner, executor and forensics linker from cfg.
func (o *RootOptions) buildExecution(cfg *config.Config) (*execution, error) {
	logger := logging.New("executor")

	runner := o.Runner
	if runner == nil {
		r, err := engine.NewExecRunner(cfg.CycleTimeout, engine.SystemClock{})
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid config", err)
		}
		logger.Debug("spawning conformance binary", "tool", cfg.Tool, "cycle_timeout", r.Timeout())
		runner = r
	}

	executor, err := engine.NewExecutor(runner, cfg.Tool, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}

	var schema *forensics.Schema
	if cfg.LogSchemaPath != "" {
		schema, err = forensics.LoadSchema(cfg.LogSchemaPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load structured-log schema", err)
		}
	}

	return &execution{
		executor: executor,
		linker:   forensics.NewLinker(cfg.StructuredLogPath, schema, logging.New("forensics")),
	}, nil
}

func configError(err error) error {
	return WrapExitError(ExitCommandError, "invalid config", err)
}
