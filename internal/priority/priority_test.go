package priority

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriorityOrdering(t *testing.T) {
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			assert.True(t, Library(i).Less(Main()), "Library(%d) < Main", i)
			assert.True(t, Main().Less(Additional(j)), "Main < Additional(%d)", j)
			assert.True(t, Library(i).Less(Additional(j)), "Library(%d) < Additional(%d)", i, j)
		}
		assert.True(t, Library(i).Less(Library(i+1)))
		assert.True(t, Additional(i).Less(Additional(i+1)))
	}

	// The tiers hold even at the top of the index range
	assert.True(t, Library(tierSize-1).Less(Main()))
	assert.Equal(t, 0, Main().Compare(Main()))
	assert.Equal(t, 1, Additional(0).Compare(Library(3)))
}

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "Library(2)", Library(2).String())
	assert.Equal(t, "Main", Main().String())
	assert.Equal(t, "Additional(0)", Additional(0).String())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		sets         []Set
		wantBase     []string
		wantOverlays [][]string
	}{
		{
			name:         "main only",
			sets:         []Set{{Priority: Main(), Artifacts: []string{"m1", "m2"}}},
			wantBase:     []string{"m1", "m2"},
			wantOverlays: nil,
		},
		{
			name: "main with additional overlays",
			sets: []Set{
				{Priority: Additional(1), Artifacts: []string{"a1"}},
				{Priority: Main(), Artifacts: []string{"m"}},
				{Priority: Additional(0), Artifacts: []string{"a0"}},
			},
			wantBase:     []string{"m"},
			wantOverlays: [][]string{{"a0"}, {"a1"}},
		},
		{
			name: "libraries become the base and main is an overlay",
			sets: []Set{
				{Priority: Main(), Artifacts: []string{"m"}},
				{Priority: Library(1), Artifacts: []string{"l1"}},
				{Priority: Additional(0), Artifacts: []string{"a0"}},
				{Priority: Library(0), Artifacts: []string{"l0"}},
			},
			wantBase:     []string{"l0", "l1"},
			wantOverlays: [][]string{{"m"}, {"a0"}},
		},
		{
			name: "additional only",
			sets: []Set{
				{Priority: Additional(0), Artifacts: []string{"a0"}},
			},
			wantBase:     nil,
			wantOverlays: [][]string{{"a0"}},
		},
		{
			name:         "empty",
			sets:         nil,
			wantBase:     nil,
			wantOverlays: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, overlays := Classify(tt.sets)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantOverlays, overlays)
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	sets := []Set{
		{Priority: Additional(0), Artifacts: []string{"a0"}},
		{Priority: Library(0), Artifacts: []string{"l0"}},
		{Priority: Main(), Artifacts: []string{"m"}},
	}

	base1, overlays1 := Classify(sets)

	// Feeding the already-sorted order back in yields the same partition
	sorted := []Set{sets[1], sets[2], sets[0]}
	base2, overlays2 := Classify(sorted)

	assert.Equal(t, base1, base2)
	assert.Equal(t, overlays1, overlays2)

	// The input slice is not reordered
	assert.Equal(t, "a0", sets[0].Artifacts[0])
}
