// Package pythonPreparer provisions an embeddable CPython distribution into
// a runtime directory: download, extract, enable site imports and install
// pip. Each stage is a separate method so callers can record its outcome.
package pythonPreparer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"lukasolson.net/pylauncher/common"
)

type Preparer struct {
	RuntimeDir    string
	ConsolePython string

	PythonDownloadURL string
	GetPipURL         string
	PthPattern        string

	// TempDir receives the downloaded archive; empty means os.TempDir().
	TempDir string

	Fetcher common.Fetcher
	Runner  common.CommandRunner
	Logger  *log.Logger
}

// NewPreparer wires a Preparer from the launcher settings.
func NewPreparer(settings *common.Settings, runtimeDir, consolePython string, fetcher common.Fetcher, runner common.CommandRunner, logger *log.Logger) *Preparer {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	return &Preparer{
		RuntimeDir:        runtimeDir,
		ConsolePython:     consolePython,
		PythonDownloadURL: settings.Python.DownloadURL,
		GetPipURL:         settings.Pip.GetPipURL,
		PthPattern:        settings.Runtime.PthPattern,
		Fetcher:           fetcher,
		Runner:            runner,
		Logger:            logger,
	}
}

func (p *Preparer) CreateRuntimeDir() error {
	if err := os.MkdirAll(p.RuntimeDir, os.ModePerm); err != nil {
		return fmt.Errorf("creating runtime directory: %w", err)
	}
	p.Logger.Info("Created runtime directory", "path", p.RuntimeDir)
	return nil
}

// DownloadRuntime fetches the interpreter archive into a temporary file and
// returns its path. The caller owns the file.
func (p *Preparer) DownloadRuntime(ctx context.Context) (string, error) {
	tmp, err := os.CreateTemp(p.TempDir, "python-embed-*.zip")
	if err != nil {
		return "", fmt.Errorf("creating temporary archive: %w", err)
	}
	archivePath := tmp.Name()
	tmp.Close()

	p.Logger.Info("Downloading Python runtime", "url", p.PythonDownloadURL)
	if _, err := p.Fetcher.Fetch(ctx, p.PythonDownloadURL, archivePath); err != nil {
		os.Remove(archivePath)
		return "", fmt.Errorf("downloading Python runtime: %w", err)
	}
	return archivePath, nil
}

// ExtractRuntime unpacks archivePath into the runtime directory and removes
// the archive afterwards.
func (p *Preparer) ExtractRuntime(ctx context.Context, archivePath string) error {
	if archivePath == "" {
		return errors.New("no runtime archive to extract")
	}
	defer os.Remove(archivePath)

	n, err := common.ExtractZip(ctx, archivePath, p.RuntimeDir)
	if err != nil {
		return fmt.Errorf("extracting Python runtime: %w", err)
	}
	p.Logger.Info("Extracted Python runtime", "files", n, "path", p.RuntimeDir)
	return nil
}

// PatchPthFiles enables `import site` in every path-configuration file of
// the runtime. It returns the files it changed.
func (p *Preparer) PatchPthFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(p.RuntimeDir, p.PthPattern))
	if err != nil {
		return nil, fmt.Errorf("matching %s: %w", p.PthPattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no %s file in %s", p.PthPattern, p.RuntimeDir)
	}

	var patched []string
	var errs []error
	for _, path := range matches {
		changed, err := EnableSiteImport(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("patching %s: %w", filepath.Base(path), err))
			continue
		}
		if changed {
			patched = append(patched, path)
			p.Logger.Info("Enabled site import", "file", filepath.Base(path))
		} else {
			p.Logger.Debug("Site import already enabled", "file", filepath.Base(path))
		}
	}
	return patched, errors.Join(errs...)
}

func (p *Preparer) DownloadGetPip(ctx context.Context) error {
	p.Logger.Info("Downloading get-pip", "url", p.GetPipURL)
	if _, err := p.Fetcher.Fetch(ctx, p.GetPipURL, common.GetPipName(p.RuntimeDir)); err != nil {
		return fmt.Errorf("downloading get-pip: %w", err)
	}
	return nil
}

// InstallPip runs get-pip.py with the runtime's console interpreter.
func (p *Preparer) InstallPip(ctx context.Context, env []string) error {
	getPip := common.GetPipName(p.RuntimeDir)
	if !common.IsFile(getPip) {
		return fmt.Errorf("%s is missing", getPip)
	}

	p.Logger.Info("Installing pip")
	if err := p.Runner.Run(ctx, p.ConsolePython, []string{getPip, "--no-warn-script-location"}, env); err != nil {
		return fmt.Errorf("running get-pip: %w", err)
	}
	return nil
}
