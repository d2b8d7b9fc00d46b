package pythonPreparer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasSiteImport(t *testing.T) {
	assert.False(t, HasSiteImport([]byte("python311.zip\n.\n#import site\n")))
	assert.False(t, HasSiteImport([]byte("import sitecustomize\n")))
	assert.True(t, HasSiteImport([]byte("python311.zip\r\n.\r\nimport site\r\n")))
	assert.True(t, HasSiteImport([]byte("  import site  ")))
	assert.True(t, HasSiteImport([]byte("python311.zip\nimport site  # enabled\n")))
	assert.True(t, HasSiteImport([]byte("import site#\r\n")))
	assert.False(t, HasSiteImport([]byte("# import site  # disabled\n")))
}

func TestEnableSiteImport(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		want     string
		changed  bool
	}{
		{
			name:     "commented directive",
			contents: "python311.zip\n.\n\n#import site\n",
			want:     "python311.zip\n.\n\n#import site\nimport site\n",
			changed:  true,
		},
		{
			name:     "no trailing newline",
			contents: "python311.zip\n.",
			want:     "python311.zip\n.\nimport site\n",
			changed:  true,
		},
		{
			name:     "crlf",
			contents: "python311.zip\r\n.\r\n",
			want:     "python311.zip\r\n.\r\nimport site\r\n",
			changed:  true,
		},
		{
			name:     "enabled with comment",
			contents: "python311.zip\n.\nimport site  # enabled\n",
			want:     "python311.zip\n.\nimport site  # enabled\n",
			changed:  false,
		},
		{
			name:     "already enabled",
			contents: "python311.zip\n.\nimport site\n",
			want:     "python311.zip\n.\nimport site\n",
			changed:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "python311._pth")
			require.NoError(t, os.WriteFile(path, []byte(tt.contents), 0o644))

			changed, err := EnableSiteImport(path)
			require.NoError(t, err)
			assert.Equal(t, tt.changed, changed)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestEnableSiteImportIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "python311._pth")
	require.NoError(t, os.WriteFile(path, []byte("python311.zip\n.\n#import site\n"), 0o644))

	for i := 0; i < 3; i++ {
		_, err := EnableSiteImport(path)
		require.NoError(t, err)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\nimport site"))
}

func TestEnableSiteImportMissingFile(t *testing.T) {
	_, err := EnableSiteImport(filepath.Join(t.TempDir(), "python311._pth"))
	require.Error(t, err)
}
