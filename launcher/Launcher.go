// Package launcher implements the bootstrap-and-launch sequence: make sure
// an embeddable Python runtime exists next to the executable, refresh its
// dependencies, and start the application entry point detached.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"lukasolson.net/pylauncher/common"
	"lukasolson.net/pylauncher/gpuenv"
	"lukasolson.net/pylauncher/pythonPreparer"
)

// RuntimeSource restores a provisioned runtime without going to the
// network. bundle.Embedded implements it.
type RuntimeSource interface {
	Restore(ctx context.Context, runtimeDir string) error
}

type Launcher struct {
	Layout   Layout
	Preparer *pythonPreparer.Preparer
	Runner   common.CommandRunner
	Starter  ProcessStarter
	Logger   *log.Logger

	// Bundle, when set, replaces the runtime and get-pip downloads.
	Bundle RuntimeSource

	// ChildEnv are KEY=VALUE pairs added to the application's environment.
	ChildEnv []string
	// BaseEnv is the environment the child inherits; nil means os.Environ().
	BaseEnv []string
	// ProbeGPU, when set, contributes CUDA/cuDNN directories to the child.
	ProbeGPU func() gpuenv.Result

	// Strict aborts the run at the first failed step.
	Strict bool
}

// skipped marks a step that was not attempted. warn controls whether it is
// logged as a warning.
type skipped struct {
	reason string
	warn   bool
}

func (s *skipped) Error() string { return s.reason }

func skip(reason string) error     { return &skipped{reason: reason} }
func skipWarn(reason string) error { return &skipped{reason: reason, warn: true} }

// Run executes one launcher pass. Without Strict, failed steps are recorded
// in the report and the sequence goes on; only a failed launch is returned
// as an error. The launched process is never waited on.
func (l *Launcher) Run(ctx context.Context) (*Report, error) {
	if l.Logger == nil {
		l.Logger = common.DiscardLogger()
	}

	state := l.Layout.State()
	report := &Report{State: state.String()}

	l.Logger.Info("Starting", "state", state, "base", l.Layout.BaseDir)

	var err error
	if state == NeedsBootstrap {
		err = l.bootstrap(ctx, report)
	}
	if err == nil {
		err = l.refreshAndLaunch(ctx, report)
	}

	report.finish()
	return report, err
}

func (l *Launcher) step(report *Report, name string, fn func() error) error {
	err := fn()

	var s *skipped
	switch {
	case err == nil:
		report.add(name, StatusOK, "")
		l.Logger.Debug("Step done", "step", name)
	case errors.As(err, &s):
		report.add(name, StatusSkipped, s.reason)
		if s.warn {
			l.Logger.Warn(s.reason, "step", name)
		} else {
			l.Logger.Info(s.reason, "step", name)
		}
	default:
		report.add(name, StatusError, err.Error())
		l.Logger.Error("Step failed", "step", name, "err", err)
		if l.Strict {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (l *Launcher) bootstrap(ctx context.Context, report *Report) error {
	l.Logger.Info("Runtime not found, bootstrapping", "path", l.Layout.RuntimeDir)
	p := l.Preparer

	if err := l.step(report, StepCreateRuntimeDir, p.CreateRuntimeDir); err != nil {
		return err
	}

	if l.Bundle != nil {
		if err := l.step(report, StepRestoreBundle, func() error {
			return l.Bundle.Restore(ctx, l.Layout.RuntimeDir)
		}); err != nil {
			return err
		}
	} else {
		var archive string
		if err := l.step(report, StepDownloadRuntime, func() (err error) {
			archive, err = p.DownloadRuntime(ctx)
			return err
		}); err != nil {
			return err
		}
		if err := l.step(report, StepExtractRuntime, func() error {
			return p.ExtractRuntime(ctx, archive)
		}); err != nil {
			return err
		}
	}

	if err := l.step(report, StepCreateManifest, func() error {
		created, err := EnsureManifest(l.Layout.Manifest)
		if err != nil {
			return err
		}
		if !created {
			return skip("Requirements manifest already present")
		}
		l.Logger.Info("Created empty requirements manifest", "path", l.Layout.Manifest)
		return nil
	}); err != nil {
		return err
	}

	if err := l.step(report, StepPatchPth, func() error {
		_, err := p.PatchPthFiles()
		return err
	}); err != nil {
		return err
	}

	if l.Bundle != nil {
		// A bundle carries a runtime that already has pip.
		l.step(report, StepDownloadGetPip, func() error { return skip("Runtime restored from bundle") })
		l.step(report, StepInstallPip, func() error { return skip("Runtime restored from bundle") })
		return nil
	}

	if err := l.step(report, StepDownloadGetPip, func() error {
		return p.DownloadGetPip(ctx)
	}); err != nil {
		return err
	}
	return l.step(report, StepInstallPip, func() error {
		return p.InstallPip(ctx, nil)
	})
}

func (l *Launcher) refreshAndLaunch(ctx context.Context, report *Report) error {
	python := l.Layout.ConsolePython

	if err := l.step(report, StepUpgradePip, func() error {
		return l.Runner.Run(ctx, python, []string{"-m", "pip", "install", "--upgrade", "pip"}, nil)
	}); err != nil {
		return err
	}

	if err := l.step(report, StepInstallRequirements, func() error {
		return l.installRequirements(ctx, python)
	}); err != nil {
		return err
	}

	return l.launch(report)
}

func (l *Launcher) installRequirements(ctx context.Context, python string) error {
	if !common.IsFile(l.Layout.Manifest) {
		return skipWarn(fmt.Sprintf("Requirements manifest %s not found, skipping dependency install", l.Layout.Manifest))
	}

	manifest, err := ReadManifest(l.Layout.Manifest)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	if manifest.Empty() {
		return skip("Requirements manifest lists no packages")
	}

	l.Logger.Info("Installing requirements", "packages", len(manifest.Packages), "manifest", manifest.Path)
	return l.Runner.Run(ctx, python, []string{"-m", "pip", "install", "-r", manifest.Path}, nil)
}

func (l *Launcher) launch(report *Report) error {
	interpreter, err := l.Layout.Interpreter()
	if err != nil {
		report.add(StepLaunch, StatusError, err.Error())
		return err
	}

	env, err := l.childEnvironment()
	if err != nil {
		report.add(StepLaunch, StatusError, err.Error())
		return err
	}

	pid, err := l.Starter.Start(interpreter, []string{l.Layout.EntryPoint}, l.Layout.BaseDir, env)
	if err != nil {
		report.add(StepLaunch, StatusError, err.Error())
		return fmt.Errorf("launching %s: %w", l.Layout.EntryPoint, err)
	}

	report.add(StepLaunch, StatusOK, "")
	report.Interpreter = interpreter
	report.PID = pid
	l.Logger.Info("Launched", "entry", l.Layout.EntryPoint, "interpreter", interpreter, "pid", pid)
	return nil
}

func (l *Launcher) childEnvironment() ([]string, error) {
	base := l.BaseEnv
	if base == nil {
		base = os.Environ()
	}
	env := NewEnvironment(base)

	pairs, err := ParseAssignments(l.ChildEnv)
	if err != nil {
		return nil, err
	}
	for _, kv := range pairs {
		env.Set(kv[0], kv[1])
	}

	if l.ProbeGPU != nil {
		result := l.ProbeGPU()
		if result.CUDA != nil {
			env.SetDefault("CUDA_PATH", parentDir(result.CUDA.Bin))
			l.Logger.Info("Found CUDA toolkit", "version", result.CUDA.Version, "bin", result.CUDA.Bin)
		}
		if result.CUDNN != nil {
			env.SetDefault("CUDNN_PATH", parentDir(result.CUDNN.Bin))
			l.Logger.Info("Found cuDNN", "version", result.CUDNN.Version, "bin", result.CUDNN.Bin)
		}
		env.PrependPath(result.Bins()...)
	}

	return env.Environ(), nil
}

func parentDir(path string) string {
	return filepath.Dir(path)
}
