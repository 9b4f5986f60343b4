// Package docpath mutates nested JSON-style documents (map/slice/scalar
// composition) at a segmented path, creating intermediate mappings as needed.
package docpath

import "errors"

// ErrEmptyPath is returned when a path has no segments.
var ErrEmptyPath = errors.New("docpath: path must not be empty")

// Set returns a document equal to doc with the subtree at path replaced by
// value. Intermediate segments that are absent, null, or not mappings are
// overwritten with fresh mappings; the final segment is assigned verbatim,
// replacing (not merging with) any previous content.
//
// Mappings along the path are copied before mutation, so doc and every
// container it references remain unchanged. A nil doc starts from an empty
// document.
func Set(doc map[string]any, path []string, value any) (map[string]any, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}

	root := cloneMap(doc)
	cur := root
	for _, seg := range path[:len(path)-1] {
		child, ok := cur[seg].(map[string]any)
		if !ok || child == nil {
			// A scalar or sequence in the way is discarded.
			child = make(map[string]any)
		} else {
			child = cloneMap(child)
		}
		cur[seg] = child
		cur = child
	}
	cur[path[len(path)-1]] = value
	return root, nil
}

// Get walks doc along path and reports the value found there, if any.
func Get(doc map[string]any, path []string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	cur := doc
	for _, seg := range path[:len(path)-1] {
		child, ok := cur[seg].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = child
	}
	v, ok := cur[path[len(path)-1]]
	return v, ok
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
