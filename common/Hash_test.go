package common

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// md5 of "runtime"
const runtimeMd5 = "b4a619251c5c397f26d05c9b0e7bf97a"

func TestHashReadSeekerRestoresPosition(t *testing.T) {
	r := strings.NewReader("xxruntime")
	_, err := r.Seek(2, io.SeekStart)
	require.NoError(t, err)

	sum, err := HashReadSeeker(r)
	require.NoError(t, err)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "runtime", string(rest))

	fileSum, err := Md5SumFile(writeTemp(t, "runtime"))
	require.NoError(t, err)
	assert.Equal(t, sum, fileSum)
	assert.Equal(t, runtimeMd5, sum)
}

func TestMd5SumFileMissing(t *testing.T) {
	_, err := Md5SumFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}
