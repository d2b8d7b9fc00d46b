package launcher

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentKeepsOrder(t *testing.T) {
	env := NewEnvironment([]string{"A=1", "=C:=C:\\", "B=2", "broken"})
	env.Set("C", "3")
	env.Set("A", "4")

	assert.Equal(t, []string{"A=4", "B=2", "C=3"}, env.Environ())
}

func TestEnvironmentSetDefault(t *testing.T) {
	env := NewEnvironment([]string{"CUDA_PATH=/opt/cuda"})
	env.SetDefault("CUDA_PATH", "/other")
	env.SetDefault("CUDNN_PATH", "/opt/cudnn")

	v, _ := env.Lookup("CUDA_PATH")
	assert.Equal(t, "/opt/cuda", v)
	v, ok := env.Lookup("CUDNN_PATH")
	assert.True(t, ok)
	assert.Equal(t, "/opt/cudnn", v)
}

func TestEnvironmentPrependPath(t *testing.T) {
	sep := string(os.PathListSeparator)
	env := NewEnvironment([]string{"PATH=/usr/bin" + sep + "/bin"})

	env.PrependPath("/cuda/bin", "/bin", "", "/cudnn/bin", "/cuda/bin")

	path, _ := env.Lookup("PATH")
	assert.Equal(t, strings.Join([]string{"/cuda/bin", "/cudnn/bin", "/usr/bin", "/bin"}, sep), path)
}

func TestEnvironmentPrependPathWithoutPath(t *testing.T) {
	env := NewEnvironment(nil)
	env.PrependPath("/cuda/bin")

	path, ok := env.Lookup("PATH")
	require.True(t, ok)
	assert.Equal(t, "/cuda/bin", path)
}

func TestParseAssignments(t *testing.T) {
	pairs, err := ParseAssignments([]string{"TF_CPP_MIN_LOG_LEVEL=3", "EMPTY=", " SPACED =x=y"})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{
		{"TF_CPP_MIN_LOG_LEVEL", "3"},
		{"EMPTY", ""},
		{"SPACED", "x=y"},
	}, pairs)

	_, err = ParseAssignments([]string{"=3"})
	require.Error(t, err)
	_, err = ParseAssignments([]string{"NOEQUALS"})
	require.Error(t, err)
}
