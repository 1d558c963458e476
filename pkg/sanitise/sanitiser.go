package sanitise

import (
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/tweetwash/tweetwash/pkg/domain"
)

// Sanitiser prunes tweet JSON documents against an allow-list Tree and
// normalises the display text. It holds no mutable state: one Sanitiser is
// safe for concurrent use on independent documents.
type Sanitiser struct {
	tree Tree
}

// New returns a Sanitiser enforcing the given allow-list tree.
func New(tree Tree) *Sanitiser {
	return &Sanitiser{tree: tree}
}

// NewFromPaths builds the tree from dotted paths and returns a Sanitiser.
func NewFromPaths(paths []string) *Sanitiser {
	return New(Build(paths))
}

// Sanitise parses one JSON document, removes every object field not present
// in the allow-list tree at the corresponding nesting level, applies the
// extended-tweet text normalisation rules, and re-serialises the result.
//
// The returned string is ALWAYS valid JSON text. When the input cannot be
// parsed as a JSON object, it is an error object ({"error": ..,
// "stacktrace": ..}) and err carries the parse failure so callers can count
// or log it; err never means the output is unusable, and a bad document
// must never abort a batch. Key order in the output is unspecified.
//
// The input string is not modified and no I/O is performed.
func (s *Sanitiser) Sanitise(doc string) (string, error) {
	var root map[string]any
	if err := json.Unmarshal([]byte(doc), &root); err != nil {
		perr := fmt.Errorf("%w: %v", domain.ErrParseFailed, err)
		return errorObject(perr), perr
	}
	if root == nil {
		// "null" decodes into a nil map without an error, but a tweet
		// document must be a JSON object like any other input.
		perr := fmt.Errorf("%w: document is null, not an object", domain.ErrParseFailed)
		return errorObject(perr), perr
	}

	prune(root, s.tree)
	normaliseText(root)

	out, err := json.Marshal(root)
	if err != nil {
		// Unreachable for a tree produced by Unmarshal, but the
		// always-valid-JSON contract holds regardless.
		return errorObject(err), err
	}
	return string(out), nil
}

// prune removes every key of obj that is absent from the tree, then recurses
// into the keys whose allow-list entry restricts descendants. Recursion only
// follows JSON objects: when a restricted entry's value is an array or a
// scalar the value is kept verbatim. Arrays are never pruned element-wise;
// that mirrors the historical behaviour and is a compatibility contract,
// not an oversight to fix. Leaf entries (nil sub-tree) keep the whole
// subtree unmodified.
func prune(obj map[string]any, tree Tree) {
	for key := range obj {
		if _, ok := tree[key]; !ok {
			delete(obj, key)
		}
	}
	for key, sub := range tree {
		if sub == nil {
			continue
		}
		if child, ok := obj[key].(map[string]any); ok {
			prune(child, sub)
		}
	}
}

// normaliseText surfaces the best available tweet text under the root "text"
// key. Twitter carries long-form text under different keys depending on
// whether the tweet is original, truncated-legacy, or a retweet; callers
// always look at "text".
//
// The four steps run in this exact order, each independently conditional,
// and later steps overwrite earlier ones. The order is a compatibility
// contract; do not reorder it for perceived correctness.
func normaliseText(root map[string]any) {
	if v, ok := root["full_text"]; ok {
		root["text"] = deepCopy(v)
	}
	if truncated, _ := root["truncated"].(bool); truncated {
		if v, ok := lookup(root, "extended_tweet", "full_text"); ok {
			root["text"] = deepCopy(v)
		}
	}
	if v, ok := lookup(root, "retweeted_status", "full_text"); ok {
		root["text"] = deepCopy(v)
	}
	if v, ok := lookup(root, "retweeted_status", "extended_tweet", "full_text"); ok {
		root["text"] = deepCopy(v)
	}
}

// deepCopy clones a decoded JSON value so the copied "text" never aliases
// its source. Aliasing would let a later prune of one key mutate the other.
func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}

// lookup walks a fixed segment path through nested JSON objects. A missing
// key or a non-object along the way is "precondition not met", not an error.
func lookup(root map[string]any, path ...string) (any, bool) {
	var cur any = root
	for _, seg := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// errorObject renders a parse failure as the stable error-object shape.
// Marshalling (rather than string concatenation) keeps the output valid
// JSON whatever the failure message contains.
func errorObject(err error) string {
	resp := domain.ErrorResponse{
		Error:      err.Error(),
		Stacktrace: string(debug.Stack()),
	}
	out, merr := json.Marshal(resp)
	if merr != nil {
		return `{"error":"failed to encode error object","stacktrace":""}`
	}
	return string(out)
}
