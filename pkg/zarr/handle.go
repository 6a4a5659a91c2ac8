package zarr

import (
	"context"
	"path"
	"strings"

	"github.com/marmos91/zarrfs/pkg/store"
)

// Handle addresses a node (container file root, group or dataset) within
// a store, independent of whether the node currently exists.
//
// A Handle is a lightweight value: it owns no storage resources and is
// cheap to copy. All I/O goes through the underlying store.
type Handle struct {
	store store.Store
	path  string
}

// NewHandle creates a handle for the node at the given slash-separated
// path. The empty path (or "/") addresses the store root.
func NewHandle(s store.Store, nodePath string) Handle {
	return Handle{store: s, path: cleanNodePath(nodePath)}
}

// cleanNodePath normalizes a node path to a rootless slash form:
// no leading or trailing slash, "." collapsed, "" for the root.
func cleanNodePath(p string) string {
	p = path.Clean("/" + strings.Trim(p, "/"))
	return strings.TrimPrefix(p, "/")
}

// Path returns the normalized node path. The root is "".
func (h Handle) Path() string { return h.path }

// Name returns the last path component, or "" for the root.
func (h Handle) Name() string {
	if h.path == "" {
		return ""
	}
	return path.Base(h.path)
}

// Child returns a handle for a named child node.
func (h Handle) Child(name string) Handle {
	if h.path == "" {
		return Handle{store: h.store, path: cleanNodePath(name)}
	}
	return Handle{store: h.store, path: h.path + "/" + cleanNodePath(name)}
}

// Exists reports whether the node is present in the store.
func (h Handle) Exists(ctx context.Context) (bool, error) {
	exists, err := h.store.NodeExists(ctx, h.path)
	if err != nil {
		return false, newStorageFailure(h.path, err)
	}
	return exists, nil
}

// Create materializes the node. Creating an existing node succeeds;
// media-level rejections surface as StorageFailure.
func (h Handle) Create(ctx context.Context) error {
	if err := h.store.CreateNode(ctx, h.path); err != nil {
		return newStorageFailure(h.path, err)
	}
	return nil
}

// key returns the store key of a named record under this node.
func (h Handle) key(name string) string {
	if h.path == "" {
		return name
	}
	return h.path + "/" + name
}

// RelativePath computes other's path expressed relative to ancestor's
// path, using ordinary hierarchical path semantics. It is pure: no I/O
// is performed and neither node needs to exist.
//
// When other is not nested under ancestor the result climbs with ".."
// components (filepath.Rel-style), so resolving the result against
// ancestor always reconstructs other. Two equal paths yield ".".
func RelativePath(ancestor, other Handle) string {
	return relativePath(ancestor.path, other.path)
}

func relativePath(base, target string) string {
	if base == target {
		return "."
	}

	baseParts := splitNodePath(base)
	targetParts := splitNodePath(target)

	common := 0
	for common < len(baseParts) && common < len(targetParts) &&
		baseParts[common] == targetParts[common] {
		common++
	}

	var parts []string
	for range baseParts[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, targetParts[common:]...)
	return strings.Join(parts, "/")
}

func splitNodePath(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
