package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, RuntimeFolderName, s.Runtime.Dir)
	assert.Equal(t, DefaultPlatform, s.Runtime.Platform)
	assert.Equal(t, PythonDownloadURL, s.Python.DownloadURL)
	assert.Equal(t, GetPipDownloadURL, s.Pip.GetPipURL)
	assert.Equal(t, EntryPointFilename, s.App.EntryPoint)
	assert.Equal(t, RequirementsFilename, s.App.Requirements)
	assert.Equal(t, []string{"TF_CPP_MIN_LOG_LEVEL=3"}, s.Launch.Env)
	assert.Zero(t, s.Download.Retries)
	assert.Zero(t, s.Download.Timeout)
	assert.True(t, s.GPU.Probe)
	assert.NotEmpty(t, s.GPU.CUDARoots)
	assert.False(t, s.Strict)
}

func TestLoadSettingsWithoutFile(t *testing.T) {
	s, err := LoadSettings(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings().Runtime, s.Runtime)
}

func TestLoadSettingsFromBaseDir(t *testing.T) {
	dir := t.TempDir()
	config := `{
  "runtime": {"platform": "windows-arm64"},
  "download": {"retries": 3, "timeout": "90s"},
  "launch": {"env": ["TF_CPP_MIN_LOG_LEVEL=2", "PYTHONUTF8=1"]},
  "strict": true
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFilename), []byte(config), 0o644))

	s, err := LoadSettings(dir, "")
	require.NoError(t, err)

	assert.Equal(t, "windows-arm64", s.Runtime.Platform)
	assert.Equal(t, RuntimeFolderName, s.Runtime.Dir)
	assert.Equal(t, 3, s.Download.Retries)
	assert.Equal(t, 90*time.Second, s.Download.Timeout)
	assert.Equal(t, []string{"TF_CPP_MIN_LOG_LEVEL=2", "PYTHONUTF8=1"}, s.Launch.Env)
	assert.True(t, s.Strict)
}

func TestLoadSettingsEnvironmentOverrides(t *testing.T) {
	t.Setenv("LAUNCHER_DOWNLOAD_RETRIES", "5")
	t.Setenv("LAUNCHER_APP_ENTRY_POINT", "app.py")

	s, err := LoadSettings(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, 5, s.Download.Retries)
	assert.Equal(t, "app.py", s.App.EntryPoint)
}

func TestLoadSettingsExplicitPathMustExist(t *testing.T) {
	_, err := LoadSettings("", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestWriteDefaultSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFilename)

	require.NoError(t, WriteDefaultSettings(path))
	assert.FileExists(t, path)

	s, err := LoadSettings(dir, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings().Python, s.Python)

	err = WriteDefaultSettings(path)
	require.ErrorIs(t, err, ErrConfigExists)
}
