package common

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings is the launcher configuration. Every key has a default, so a
// launcher without a config file behaves like the plain batch bootstrapper.
type Settings struct {
	Runtime  RuntimeSettings  `mapstructure:"runtime"`
	Python   PythonSettings   `mapstructure:"python"`
	Pip      PipSettings      `mapstructure:"pip"`
	App      AppSettings      `mapstructure:"app"`
	Launch   LaunchSettings   `mapstructure:"launch"`
	Download DownloadSettings `mapstructure:"download"`
	GPU      GPUSettings      `mapstructure:"gpu"`
	Log      LogSettings      `mapstructure:"log"`

	// Strict turns every failed step into a fatal error.
	Strict bool `mapstructure:"strict"`
}

type RuntimeSettings struct {
	Dir            string `mapstructure:"dir"`
	Platform       string `mapstructure:"platform"`
	PthPattern     string `mapstructure:"pth_pattern"`
	WindowedPython string `mapstructure:"windowed_python"`
	ConsolePython  string `mapstructure:"console_python"`
}

type PythonSettings struct {
	DownloadURL string `mapstructure:"download_url"`
}

type PipSettings struct {
	GetPipURL string `mapstructure:"get_pip_url"`
}

type AppSettings struct {
	EntryPoint   string `mapstructure:"entry_point"`
	Requirements string `mapstructure:"requirements"`
}

type LaunchSettings struct {
	// Env holds KEY=VALUE pairs added to the launched application's
	// environment. A list is used because viper lower-cases map keys.
	Env []string `mapstructure:"env"`
}

type DownloadSettings struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

type GPUSettings struct {
	Probe      bool     `mapstructure:"probe"`
	CUDARoots  []string `mapstructure:"cuda_roots"`
	CUDNNRoots []string `mapstructure:"cudnn_roots"`
}

type LogSettings struct {
	Level string `mapstructure:"level"`
}

// ErrConfigExists is returned by WriteDefaultSettings when the target file
// is already present.
var ErrConfigExists = errors.New("config file already exists")

func setDefaults(v *viper.Viper) {
	v.SetDefault("runtime.dir", RuntimeFolderName)
	v.SetDefault("runtime.platform", DefaultPlatform)
	v.SetDefault("runtime.pth_pattern", PthPattern)
	v.SetDefault("runtime.windowed_python", WindowedPythonFilename)
	v.SetDefault("runtime.console_python", ConsolePythonFilename)

	v.SetDefault("python.download_url", PythonDownloadURL)
	v.SetDefault("pip.get_pip_url", GetPipDownloadURL)

	v.SetDefault("app.entry_point", EntryPointFilename)
	v.SetDefault("app.requirements", RequirementsFilename)

	v.SetDefault("launch.env", []string{"TF_CPP_MIN_LOG_LEVEL=3"})

	v.SetDefault("download.timeout", time.Duration(0))
	v.SetDefault("download.retries", 0)

	v.SetDefault("gpu.probe", true)
	v.SetDefault("gpu.cuda_roots", []string{
		`C:\Program Files\NVIDIA GPU Computing Toolkit\CUDA`,
		`C:\CUDA`,
		`C:\Program Files (x86)\NVIDIA GPU Computing Toolkit\CUDA`,
	})
	v.SetDefault("gpu.cudnn_roots", []string{
		`C:\Program Files\NVIDIA\CUDNN`,
		`C:\CUDNN`,
		`C:\Program Files (x86)\NVIDIA\CUDNN`,
		`C:\tools\cuda`,
	})

	v.SetDefault("log.level", "info")
	v.SetDefault("strict", false)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadSettings reads the configuration. An explicit path must exist; without
// one, launcher.json in baseDir is used when present. LAUNCHER_* environment
// variables override both (e.g. LAUNCHER_DOWNLOAD_RETRIES).
func LoadSettings(baseDir, path string) (*Settings, error) {
	v := newViper()

	switch {
	case path != "":
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	case baseDir != "" && DoesPathExist(filepath.Join(baseDir, ConfigFilename)):
		local := filepath.Join(baseDir, ConfigFilename)
		v.SetConfigFile(local)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", local, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &settings, nil
}

// DefaultSettings returns the built-in configuration without consulting
// files or the environment.
func DefaultSettings() *Settings {
	v := viper.New()
	setDefaults(v)

	var settings Settings
	// Defaults are static; a decode failure here is a programming error.
	if err := v.Unmarshal(&settings); err != nil {
		panic(err)
	}
	return &settings
}

// WriteDefaultSettings saves the defaults as JSON so they can be edited.
func WriteDefaultSettings(path string) error {
	if DoesPathExist(path) {
		return fmt.Errorf("%s: %w", path, ErrConfigExists)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("json")

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}
