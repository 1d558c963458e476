// Package sanitise implements the tweet JSON field-retention engine: an
// allow-list tree built from dotted field paths, and a sanitiser that prunes
// every field outside the tree before normalising the tweet's display text.
package sanitise

import (
	"sort"
	"strings"
)

const indent = "  "

// Tree is a nested allow-list of JSON object fields. Each key names a field
// to retain at that nesting level. A nil value is a leaf: the field's entire
// subtree is kept unmodified, however deep. A non-nil value restricts the
// field's object value to the listed descendants.
//
// A Tree is built once and never mutated afterwards, so it may be shared
// read-only across concurrent Sanitise calls. Rebuilding (e.g. from a
// live-edited keep file) must replace the whole Tree, not modify it.
type Tree map[string]Tree

// Build converts a flat list of dotted field paths into an allow-list Tree.
// Paths sharing a prefix merge into one node ("a.b" and "a.c" both
// contribute to "a"); repeated paths are idempotent; the result does not
// depend on input order. Leading and trailing whitespace on each path is
// trimmed before use.
//
// Malformed paths with empty segments (e.g. a trailing dot) are tolerated
// rather than rejected: they produce an empty-string key that matches
// nothing in real documents. Known edge case, deliberately not guarded.
func Build(paths []string) Tree {
	tree := Tree{}
	for _, path := range paths {
		tree.insert(strings.TrimSpace(path))
	}
	return tree
}

func (t Tree) insert(path string) {
	head, tail, nested := strings.Cut(path, ".")
	if !nested {
		// A bare segment keeps the whole subtree. That subsumes any
		// narrower entries already merged under the same head, so the
		// node collapses to a leaf either way the paths arrive.
		t[head] = nil
		return
	}
	sub, exists := t[head]
	if exists && sub == nil {
		return
	}
	if sub == nil {
		sub = Tree{}
		t[head] = sub
	}
	sub.insert(tail)
}

// String renders the tree as an indented outline, one "- name" line per
// field, two spaces per nesting level, keys sorted. Used for --print-fields
// and debug logging.
func (t Tree) String() string {
	var b strings.Builder
	t.write(&b, 0)
	return b.String()
}

func (t Tree) write(b *strings.Builder, depth int) {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for i := 0; i < depth; i++ {
			b.WriteString(indent)
		}
		b.WriteString("- ")
		b.WriteString(k)
		b.WriteByte('\n')
		if sub := t[k]; sub != nil {
			sub.write(b, depth+1)
		}
	}
}
