package launcher

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"lukasolson.net/pylauncher/common"
	"lukasolson.net/pylauncher/pythonPreparer"
)

const embeddedPth = "python311.zip\n.\n\n# Uncomment to run site.main() automatically\n#import site\n"

type runCall struct {
	command string
	args    []string
}

type fakeRunner struct {
	calls []runCall
	// failOn fails any call whose joined args contain the key.
	failOn map[string]error
}

func (r *fakeRunner) Run(_ context.Context, command string, args []string, _ []string) error {
	r.calls = append(r.calls, runCall{command: command, args: args})
	joined := strings.Join(args, " ")
	for needle, err := range r.failOn {
		if strings.Contains(joined, needle) {
			return err
		}
	}
	return nil
}

type fakeFetcher struct {
	files   map[string][]byte
	fetched []string
	err     error
}

func (f *fakeFetcher) Fetch(_ context.Context, url, dest string) (int64, error) {
	f.fetched = append(f.fetched, url)
	if f.err != nil {
		return 0, f.err
	}
	data, ok := f.files[url]
	if !ok {
		return 0, fmt.Errorf("GET %s: 404", url)
	}
	return int64(len(data)), os.WriteFile(dest, data, 0o644)
}

type fakeStarter struct {
	command string
	args    []string
	dir     string
	env     []string
	calls   int
	err     error
}

func (s *fakeStarter) Start(command string, args []string, dir string, env []string) (int, error) {
	s.calls++
	s.command, s.args, s.dir, s.env = command, args, dir, env
	if s.err != nil {
		return 0, s.err
	}
	return 4242, nil
}

type fakeBundle struct {
	restored string
	err      error
}

func (b *fakeBundle) Restore(_ context.Context, runtimeDir string) error {
	b.restored = runtimeDir
	if b.err != nil {
		return b.err
	}
	for name, contents := range map[string]string{
		"python.exe":      "console",
		"pythonw.exe":     "windowed",
		"python311._pth":  embeddedPth + "import site\n",
		"Lib/pip/init.py": "",
	} {
		path := filepath.Join(runtimeDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func runtimeZip(t *testing.T, withWindowed bool) []byte {
	t.Helper()

	files := map[string]string{
		"python.exe":     "console",
		"python311.dll":  "dll",
		"python311.zip":  "stdlib",
		"python311._pth": embeddedPth,
	}
	if withWindowed {
		files["pythonw.exe"] = "windowed"
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, contents := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func onlineFetcher(t *testing.T) *fakeFetcher {
	return &fakeFetcher{files: map[string][]byte{
		common.PythonDownloadURL: runtimeZip(t, true),
		common.GetPipDownloadURL: []byte("# get-pip"),
	}}
}

func newTestLauncher(t *testing.T, base string, fetcher common.Fetcher, runner *fakeRunner, starter *fakeStarter) *Launcher {
	t.Helper()

	settings := common.DefaultSettings()
	layout := NewLayout(base, settings)

	preparer := pythonPreparer.NewPreparer(settings, layout.RuntimeDir, layout.ConsolePython, fetcher, runner, nil)
	preparer.TempDir = t.TempDir()

	return &Launcher{
		Layout:   layout,
		Preparer: preparer,
		Runner:   runner,
		Starter:  starter,
		ChildEnv: settings.Launch.Env,
		BaseEnv:  []string{"PATH=" + filepath.FromSlash("/usr/bin"), "HOME=/home/app"},
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func argsOf(calls []runCall) []string {
	var out []string
	for _, c := range calls {
		out = append(out, strings.Join(c.args, " "))
	}
	return out
}

var errBoom = errors.New("boom")
