package graph

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/asb/internal/codes"
	"github.com/Norgate-AV/asb/internal/config"
)

func cfg(pkg, res string, additional ...string) config.BuildConfig {
	return config.BuildConfig{
		PackageName:            pkg,
		ResourceDir:            res,
		AdditionalResourceDirs: additional,
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name            string
		configs         []config.BuildConfig
		opts            []Option
		wantIndependent []int
		wantGroups      [][]int
	}{
		{
			name:            "empty",
			configs:         nil,
			wantIndependent: nil,
			wantGroups:      nil,
		},
		{
			name:            "single",
			configs:         []config.BuildConfig{cfg("a", "a/res", "shared/res")},
			wantIndependent: []int{0},
		},
		{
			name: "all independent",
			configs: []config.BuildConfig{
				cfg("a", "a/res"),
				cfg("b", "b/res"),
				cfg("c", "c/res", "common/res"),
			},
			wantIndependent: []int{0, 1, 2},
		},
		{
			name: "chain declared in reverse",
			configs: []config.BuildConfig{
				cfg("c", "c/res", "b/res"),
				cfg("b", "b/res", "a/res"),
				cfg("a", "a/res"),
			},
			wantGroups: [][]int{{2, 1, 0}},
		},
		{
			name: "chain with an independent config",
			configs: []config.BuildConfig{
				cfg("a", "a/res"),
				cfg("x", "x/res"),
				cfg("b", "b/res", "a/res"),
				cfg("c", "c/res", "b/res"),
			},
			wantIndependent: []int{1},
			wantGroups:      [][]int{{0, 2, 3}},
		},
		{
			name: "two chains form one group by default",
			configs: []config.BuildConfig{
				cfg("a", "a/res"),
				cfg("c", "c/res"),
				cfg("b", "b/res", "a/res"),
				cfg("d", "d/res", "c/res"),
			},
			wantGroups: [][]int{{0, 1, 2, 3}},
		},
		{
			name: "two chains split into components",
			configs: []config.BuildConfig{
				cfg("a", "a/res"),
				cfg("c", "c/res"),
				cfg("b", "b/res", "a/res"),
				cfg("d", "d/res", "c/res"),
			},
			opts:       []Option{WithComponentGroups()},
			wantGroups: [][]int{{0, 2}, {1, 3}},
		},
		{
			name: "diamond",
			configs: []config.BuildConfig{
				cfg("top", "top/res", "left/res", "right/res"),
				cfg("left", "left/res", "base/res"),
				cfg("right", "right/res", "base/res"),
				cfg("base", "base/res"),
			},
			wantGroups: [][]int{{3, 1, 2, 0}},
		},
		{
			name: "own main directory listed as additional is not a dependency",
			configs: []config.BuildConfig{
				cfg("a", "a/res", "a/res"),
				cfg("b", "b/res"),
			},
			wantIndependent: []int{0, 1},
		},
		{
			name: "path spellings normalize to one directory",
			configs: []config.BuildConfig{
				cfg("a", "./a/res/"),
				cfg("b", "b/res", `a\res`),
			},
			wantGroups: [][]int{{0, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			independent, groups, err := Resolve(tt.configs, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIndependent, independent)
			assert.Equal(t, tt.wantGroups, groups)
		})
	}
}

func TestResolve_ProvidersPrecedeDependents(t *testing.T) {
	configs := []config.BuildConfig{
		cfg("e", "e/res", "d/res", "a/res"),
		cfg("d", "d/res", "c/res"),
		cfg("a", "a/res"),
		cfg("c", "c/res", "b/res"),
		cfg("b", "b/res", "a/res"),
	}

	_, groups, err := Resolve(configs)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	position := make(map[int]int)
	for i, idx := range groups[0] {
		position[idx] = i
	}

	for _, e := range Edges(configs) {
		assert.Less(t, position[e.DependsOn], position[e.Dependent], "%d must build before %d", e.DependsOn, e.Dependent)
	}
}

func TestResolve_IsDeterministic(t *testing.T) {
	configs := []config.BuildConfig{
		cfg("a", "a/res"),
		cfg("b", "b/res", "a/res"),
		cfg("c", "c/res", "a/res"),
		cfg("d", "d/res"),
	}

	wantIndependent, wantGroups, err := Resolve(configs)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		independent, groups, err := Resolve(configs)
		require.NoError(t, err)
		assert.Equal(t, wantIndependent, independent)
		assert.Equal(t, wantGroups, groups)
	}
}

func TestResolve_Cycle(t *testing.T) {
	configs := []config.BuildConfig{
		cfg("free", "free/res"),
		cfg("a", "a/res", "b/res"),
		cfg("b", "b/res", "a/res"),
	}

	independent, groups, err := Resolve(configs)
	require.Error(t, err)
	assert.Nil(t, independent)
	assert.Nil(t, groups)

	assert.True(t, codes.Is(err, codes.Cycle))
	assert.Equal(t, codes.ExitConfigError, codes.ExitCode(err))

	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []int{1, 2}, cycle.Remaining)
	assert.Equal(t, []string{"a", "b"}, cycle.Names)
	assert.Contains(t, err.Error(), "1 (a), 2 (b)")
}

func TestEdges(t *testing.T) {
	configs := []config.BuildConfig{
		cfg("b", "b/res", "a/res", "a/res", "missing/res"),
		cfg("a", "a/res"),
		cfg("a2", "a/res"),
	}

	assert.Equal(t, []Edge{
		{Dependent: 0, DependsOn: 1},
		{Dependent: 0, DependsOn: 2},
	}, Edges(configs))
}

func TestEdges_ExistingDirectories(t *testing.T) {
	root := t.TempDir()
	main := filepath.Join(root, "app", "res")
	require.NoError(t, os.MkdirAll(main, 0o755))

	// A symlinked spelling of the same directory is still the same directory
	link := filepath.Join(root, "link")
	require.NoError(t, os.Symlink(filepath.Join(root, "app"), link))

	configs := []config.BuildConfig{
		cfg("app", main),
		cfg("skin", filepath.Join(root, "skin", "res"), filepath.Join(link, "res")),
	}

	assert.Equal(t, []Edge{{Dependent: 1, DependsOn: 0}}, Edges(configs))
}
