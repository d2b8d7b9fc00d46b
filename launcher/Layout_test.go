package launcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lukasolson.net/pylauncher/common"
)

func TestNewLayout(t *testing.T) {
	base := t.TempDir()
	l := NewLayout(base, common.DefaultSettings())

	runtimeDir := filepath.Join(base, "runtime", "windows-amd64")
	assert.Equal(t, runtimeDir, l.RuntimeDir)
	assert.Equal(t, filepath.Join(runtimeDir, "pythonw.exe"), l.WindowedPython)
	assert.Equal(t, filepath.Join(runtimeDir, "python.exe"), l.ConsolePython)
	assert.Equal(t, filepath.Join(base, "requirements.txt"), l.Manifest)
	assert.Equal(t, filepath.Join(base, "main.py"), l.EntryPoint)
}

func TestLayoutState(t *testing.T) {
	l := NewLayout(t.TempDir(), common.DefaultSettings())
	assert.Equal(t, NeedsBootstrap, l.State())
	assert.Equal(t, "needs-bootstrap", l.State().String())

	require.NoError(t, os.MkdirAll(l.RuntimeDir, 0o755))
	assert.Equal(t, Ready, l.State())
	assert.Equal(t, "ready", l.State().String())
}

func TestLayoutStateIgnoresFileAtRuntimePath(t *testing.T) {
	l := NewLayout(t.TempDir(), common.DefaultSettings())
	writeFile(t, l.RuntimeDir, "not a directory")
	assert.Equal(t, NeedsBootstrap, l.State())
}

func TestLayoutInterpreter(t *testing.T) {
	l := NewLayout(t.TempDir(), common.DefaultSettings())

	_, err := l.Interpreter()
	require.ErrorIs(t, err, ErrNoInterpreter)

	writeFile(t, l.ConsolePython, "console")
	got, err := l.Interpreter()
	require.NoError(t, err)
	assert.Equal(t, l.ConsolePython, got)

	writeFile(t, l.WindowedPython, "windowed")
	got, err = l.Interpreter()
	require.NoError(t, err)
	assert.Equal(t, l.WindowedPython, got)
}

func TestReportStatus(t *testing.T) {
	r := &Report{}
	r.add(StepUpgradePip, StatusOK, "")
	r.add(StepInstallRequirements, StatusSkipped, "empty")
	r.finish()
	assert.Equal(t, StatusOK, r.Status)
	assert.Empty(t, r.Failed())

	r.add(StepLaunch, StatusError, "boom")
	r.finish()
	assert.Equal(t, StatusError, r.Status)

	s, ok := r.Step(StepInstallRequirements)
	require.True(t, ok)
	assert.Equal(t, "empty", s.Error)
	_, ok = r.Step(StepPatchPth)
	assert.False(t, ok)
}
