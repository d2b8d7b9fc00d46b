package launcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"lukasolson.net/pylauncher/common"
)

// ErrNoInterpreter is returned when neither interpreter variant exists in
// the runtime directory.
var ErrNoInterpreter = errors.New("no Python interpreter in runtime directory")

// State is derived from the filesystem: the runtime directory either
// exists or it does not.
type State int

const (
	NeedsBootstrap State = iota
	Ready
)

func (s State) String() string {
	switch s {
	case NeedsBootstrap:
		return "needs-bootstrap"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Layout holds every path the launcher touches.
type Layout struct {
	BaseDir        string
	RuntimeDir     string
	WindowedPython string
	ConsolePython  string
	Manifest       string
	EntryPoint     string
}

func NewLayout(baseDir string, settings *common.Settings) Layout {
	runtimeDir := filepath.Join(baseDir, settings.Runtime.Dir, settings.Runtime.Platform)
	return Layout{
		BaseDir:        baseDir,
		RuntimeDir:     runtimeDir,
		WindowedPython: filepath.Join(runtimeDir, settings.Runtime.WindowedPython),
		ConsolePython:  filepath.Join(runtimeDir, settings.Runtime.ConsolePython),
		Manifest:       filepath.Join(baseDir, settings.App.Requirements),
		EntryPoint:     filepath.Join(baseDir, settings.App.EntryPoint),
	}
}

// ExecutableDir returns the directory of the running executable with
// symlinks resolved.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

func (l Layout) State() State {
	if common.IsDir(l.RuntimeDir) {
		return Ready
	}
	return NeedsBootstrap
}

// Interpreter picks the executable used to start the entry point: the
// windowed variant when present, otherwise the console one.
func (l Layout) Interpreter() (string, error) {
	if common.IsFile(l.WindowedPython) {
		return l.WindowedPython, nil
	}
	if common.IsFile(l.ConsolePython) {
		return l.ConsolePython, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoInterpreter, l.RuntimeDir)
}
