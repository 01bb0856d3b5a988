// Package document implements typed pointer access over the JSON-shaped
// property/constraint documents exchanged during negotiation, along with
// the flatten/expand transform between dotted-path and nested form.
//
// Properties travel the wire as a flat map keyed by dotted paths
// (e.g. "golem.srv.comp.expiration"); negotiator components read them as
// a nested JSON tree addressed by RFC-6901-style pointers
// (e.g. "/golem/srv/comp/expiration"). Expand and Flatten are exact
// inverses for well-formed documents: Expand(Flatten(x)) == x.
package document

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/negotiator/engine/internal/core"
)

// Document is a typed view over a nested JSON-shaped property tree.
type Document struct {
	root any
}

// New wraps an already-nested tree (e.g. decoded from JSON) as a Document.
func New(root any) *Document {
	if root == nil {
		root = map[string]any{}
	}
	return &Document{root: root}
}

// NewFromFlat builds a Document by expanding a flat, dotted-key map.
func NewFromFlat(flat map[string]any) *Document {
	return New(Expand(flat))
}

// Root returns the underlying nested tree.
func (d *Document) Root() any {
	return d.root
}

// Flatten collapses the document back to a dotted-key flat map.
func (d *Document) Flatten() map[string]any {
	return Flatten(d.root)
}

// Clone returns a Document over a deep copy of the underlying tree, so
// mutations through Set never alias a caller's original map.
func (d *Document) Clone() *Document {
	return New(deepCopy(d.root))
}

// Expand turns a flat, dotted-key map into a nested tree of
// map[string]any. Non-object leaf values (scalars, arrays) are never
// recursed into further.
func Expand(flat map[string]any) any {
	root := map[string]any{}
	// Sort keys so that insertion order is deterministic; this doesn't
	// change the resulting tree, only test reproducibility.
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		segments := strings.Split(key, ".")
		cur := root
		for i, seg := range segments {
			if i == len(segments)-1 {
				cur[seg] = flat[key]
				continue
			}
			next, ok := cur[seg].(map[string]any)
			if !ok {
				next = map[string]any{}
				cur[seg] = next
			}
			cur = next
		}
	}
	return root
}

// Flatten turns a nested tree back into a flat, dotted-key map. Maps are
// recursed into; any other value (including arrays) becomes a leaf.
func Flatten(nested any) map[string]any {
	flat := map[string]any{}
	flattenInto(nested, "", flat)
	return flat
}

func flattenInto(node any, prefix string, out map[string]any) {
	m, ok := node.(map[string]any)
	if !ok {
		if prefix != "" {
			out[prefix] = node
		}
		return
	}
	if len(m) == 0 {
		if prefix != "" {
			out[prefix] = map[string]any{}
		}
		return
	}
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		flattenInto(v, key, out)
	}
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = deepCopy(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = deepCopy(vv)
		}
		return out
	default:
		return v
	}
}

// splitPointer parses an RFC-6901-ish pointer ("/a/b/c") into segments.
// An empty or "/" pointer returns no segments (points at the root).
func splitPointer(pointer string) []string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return nil
	}
	segments := strings.Split(pointer, "/")
	for i, s := range segments {
		s = strings.ReplaceAll(s, "~1", "/")
		s = strings.ReplaceAll(s, "~0", "~")
		segments[i] = s
	}
	return segments
}

// Pointer resolves a JSON-pointer-style path against the nested tree,
// returning the raw value and whether it was present.
func (d *Document) Pointer(pointer string) (any, bool) {
	segments := splitPointer(pointer)
	var cur any = d.root
	for _, seg := range segments {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Set writes a value at a pointer, creating intermediate objects as
// needed. It does not support indexing into arrays.
func (d *Document) Set(pointer string, value any) error {
	segments := splitPointer(pointer)
	if len(segments) == 0 {
		d.root = value
		return nil
	}
	root, ok := d.root.(map[string]any)
	if !ok {
		root = map[string]any{}
		d.root = root
	}
	cur := root
	for i, seg := range segments {
		if i == len(segments)-1 {
			cur[seg] = value
			return nil
		}
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	return nil
}

// String reads a string value at a pointer.
func (d *Document) String(pointer string) (string, error) {
	v, ok := d.Pointer(pointer)
	if !ok {
		return "", fmt.Errorf("document: %q: %w", pointer, core.ErrMissingPointer)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("document: value at %q is %T, not string", pointer, v)
	}
	return s, nil
}

// Int64 reads a numeric value at a pointer and coerces it to int64.
func (d *Document) Int64(pointer string) (int64, error) {
	v, ok := d.Pointer(pointer)
	if !ok {
		return 0, fmt.Errorf("document: %q: %w", pointer, core.ErrMissingPointer)
	}
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("document: value at %q is not an integer: %w", pointer, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("document: value at %q is %T, not numeric", pointer, v)
	}
}

// Float64 reads a numeric value at a pointer and coerces it to float64.
func (d *Document) Float64(pointer string) (float64, error) {
	v, ok := d.Pointer(pointer)
	if !ok {
		return 0, fmt.Errorf("document: %q: %w", pointer, core.ErrMissingPointer)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("document: value at %q is not a number: %w", pointer, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("document: value at %q is %T, not numeric", pointer, v)
	}
}

// Bool reads a boolean value at a pointer.
func (d *Document) Bool(pointer string) (bool, error) {
	v, ok := d.Pointer(pointer)
	if !ok {
		return false, fmt.Errorf("document: %q: %w", pointer, core.ErrMissingPointer)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("document: value at %q is %T, not bool", pointer, v)
	}
	return b, nil
}
