package common

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), RequirementsFilename)

	created, err := CreateEmptyFile(path)
	require.NoError(t, err)
	assert.True(t, created)

	require.NoError(t, os.WriteFile(path, []byte("requests\n"), 0o644))

	created, err = CreateEmptyFile(path)
	require.NoError(t, err)
	assert.False(t, created)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "requests\n", string(data))
}

func TestReplaceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "python311._pth")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	require.NoError(t, ReplaceFile(path, []byte("new")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReplaceFileKeepsPathReadable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("the original is removed before the rename on windows")
	}

	path := filepath.Join(t.TempDir(), "python311._pth")
	require.NoError(t, os.WriteFile(path, []byte("python311.zip\n"), 0o644))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	var readErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if _, err := os.ReadFile(path); err != nil {
				readErr = err
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		require.NoError(t, ReplaceFile(path, []byte("python311.zip\nimport site\n")))
	}
	close(stop)
	wg.Wait()

	assert.NoError(t, readErr)
}

func TestPathPredicates(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.True(t, IsDir(dir))
	assert.False(t, IsFile(dir))
	assert.True(t, IsFile(file))
	assert.False(t, IsDir(file))
	assert.False(t, DoesPathExist(filepath.Join(dir, "missing")))

	require.NoError(t, RemoveIfExists(file))
	require.NoError(t, RemoveIfExists(file))
	assert.False(t, DoesPathExist(file))
}
