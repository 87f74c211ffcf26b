package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/asb/internal/config"
)

func defaultFilter() Filter {
	cfg := config.Default()
	cfg.ApplyDefaults()
	return NewFilter(cfg)
}

func TestFindResourceFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"values/colors.xml",
		"values/strings.xml",
		"values-night/colors.xml",
		"drawable/icon.png",
		"drawable/.hidden.png",
		"drawable/Thumbs.db",
		"drawable/backup.png~",
		"layout/main.xml",
		"layout-land/main.xml",
		".git/config",
		"CVS/Entries",
		"raw/nested/deep.txt",
		"README.md",
	} {
		writeFile(t, filepath.Join(dir, filepath.FromSlash(name)), "x")
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "default filter",
			filter: defaultFilter(),
			want: []string{
				"drawable/icon.png",
				"values-night/colors.xml",
				"values/colors.xml",
			},
		},
		{
			name:   "empty filter",
			filter: Filter{},
			want: []string{
				"drawable/icon.png",
				"layout-land/main.xml",
				"layout/main.xml",
				"values-night/colors.xml",
				"values/colors.xml",
				"values/strings.xml",
			},
		},
		{
			name:   "custom filter",
			filter: Filter{ExcludeDirPrefixes: []string{"values"}, ExcludeFiles: []string{"icon.png"}},
			want: []string{
				"layout-land/main.xml",
				"layout/main.xml",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := FindResourceFiles(dir, tt.filter)
			require.NoError(t, err)

			want := make([]string, len(tt.want))
			for i, name := range tt.want {
				want[i] = filepath.Join(dir, filepath.FromSlash(name))
			}
			assert.Equal(t, want, files)
		})
	}
}

func TestFindResourceFiles_MissingDir(t *testing.T) {
	_, err := FindResourceFiles(filepath.Join(t.TempDir(), "missing"), Filter{})
	assert.Error(t, err)
}

func TestFilter_Excludes(t *testing.T) {
	f := Filter{ExcludeDirPrefixes: []string{"layout"}, ExcludeFiles: []string{"styles.xml"}}

	assert.True(t, f.Excludes("layout", "main.xml"))
	assert.True(t, f.Excludes("layout-sw600dp", "main.xml"))
	assert.True(t, f.Excludes("values", "styles.xml"))
	assert.False(t, f.Excludes("values", "colors.xml"))
	assert.False(t, f.Excludes("drawable", "layout.xml"))
}

func TestWriteManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen", "AndroidManifest.xml")
	require.NoError(t, WriteManifest(path, "com.example.skin"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<manifest package=\"com.example.skin\" />\n", string(data))
}

func TestHasAdaptiveIcon(t *testing.T) {
	plain := t.TempDir()
	writeFile(t, filepath.Join(plain, "mipmap-hdpi", "ic_launcher.png"), "png")
	writeFile(t, filepath.Join(plain, "drawable", "bg.xml"), "<adaptive-icon/>")

	adaptive := t.TempDir()
	writeFile(t, filepath.Join(adaptive, "mipmap-anydpi-v26", "ic_launcher.xml"), `<?xml version="1.0"?><adaptive-icon/>`)

	assert.False(t, HasAdaptiveIcon([]string{plain}))
	assert.False(t, HasAdaptiveIcon([]string{filepath.Join(plain, "missing")}))
	assert.True(t, HasAdaptiveIcon([]string{plain, adaptive}))
}
