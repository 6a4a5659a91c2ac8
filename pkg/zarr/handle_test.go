package zarr

import (
	"context"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/zarrfs/pkg/store/memory"
)

func TestHandlePathNormalization(t *testing.T) {
	st := memory.NewMemoryStore()

	assert.Equal(t, "", NewHandle(st, "/").Path())
	assert.Equal(t, "", NewHandle(st, "").Path())
	assert.Equal(t, "a/b", NewHandle(st, "/a/b/").Path())
	assert.Equal(t, "a/b", NewHandle(st, "a//b").Path())
	assert.Equal(t, "b", NewHandle(st, "a/../b").Path())

	h := NewHandle(st, "lab")
	assert.Equal(t, "lab/raw", h.Child("raw").Path())
	assert.Equal(t, "raw", h.Child("raw").Name())
}

func TestHandleExistsCreate(t *testing.T) {
	st := memory.NewMemoryStore()
	ctx := context.Background()
	h := NewHandle(st, "lab/raw")

	exists, err := h.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, h.Create(ctx))

	exists, err = h.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRelativePath(t *testing.T) {
	st := memory.NewMemoryStore()

	cases := []struct {
		ancestor string
		other    string
		want     string
	}{
		{"", "a/b", "a/b"},
		{"a", "a/b", "b"},
		{"a", "a/b/c", "b/c"},
		{"a/b", "a/b", "."},
		{"a/b", "a", ".."},
		{"a/b", "c/d", "../../c/d"},
		{"a/b/c", "a/x", "../../x"},
	}

	for _, tc := range cases {
		got := RelativePath(NewHandle(st, tc.ancestor), NewHandle(st, tc.other))
		assert.Equal(t, tc.want, got, "%q -> %q", tc.ancestor, tc.other)
	}
}

// Resolving the relative form against the ancestor must reconstruct the
// target path.
func TestRelativePathResolves(t *testing.T) {
	st := memory.NewMemoryStore()

	pairs := [][2]string{
		{"", "a"},
		{"a", "a/b/c"},
		{"a/b", "a/b/c/d"},
		{"a/b", "x"},
		{"lab/raw", "lab/processed/v2"},
	}

	for _, p := range pairs {
		ancestor, target := NewHandle(st, p[0]), NewHandle(st, p[1])
		rel := RelativePath(ancestor, target)
		resolved := cleanNodePath(path.Join(ancestor.Path(), rel))
		assert.Equal(t, target.Path(), resolved, "%q -> %q via %q", p[0], p[1], rel)
	}
}
