package sanitise

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Property: for any allow-list containing "id" as a leaf and any document
// containing "id", the sanitised output retains "id" with its value
// unchanged.
func TestSanitiseRetainsIDProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		extraPaths := rapid.SliceOfN(fieldPathGen(), 0, 5).Draw(t, "extra_paths")
		doc := jsonObjectGen(2).Draw(t, "doc")
		id := rapid.Int32().Draw(t, "id")
		doc["id"] = id

		raw, err := json.Marshal(doc)
		require.NoError(t, err)

		s := NewFromPaths(append(extraPaths, "id"))
		out, err := s.Sanitise(string(raw))
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.EqualValues(t, id, got["id"])
	})
}

// Property: pruning is idempotent. Sanitising an already-sanitised document
// with the same allow-list yields a structurally equal document.
func TestSanitiseIdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		paths := rapid.SliceOfN(fieldPathGen(), 1, 8).Draw(t, "paths")
		doc := jsonObjectGen(3).Draw(t, "doc")

		raw, err := json.Marshal(doc)
		require.NoError(t, err)

		s := NewFromPaths(paths)
		once, err := s.Sanitise(string(raw))
		require.NoError(t, err)
		twice, err := s.Sanitise(once)
		require.NoError(t, err)

		var a, b map[string]any
		require.NoError(t, json.Unmarshal([]byte(once), &a))
		require.NoError(t, json.Unmarshal([]byte(twice), &b))
		assert.Equal(t, a, b)
	})
}

// Property: Build is order-independent. Any permutation of the same path
// list produces an equal tree.
func TestBuildOrderIndependenceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		paths := rapid.SliceOfN(fieldPathGen(), 1, 10).Draw(t, "paths")
		shuffled := rapid.Permutation(paths).Draw(t, "shuffled")

		assert.Equal(t, Build(paths), Build(shuffled))
	})
}

// fieldPathGen draws dotted field paths over a small segment alphabet so
// that generated paths collide and exercise prefix merging.
func fieldPathGen() *rapid.Generator[string] {
	segment := rapid.SampledFrom([]string{
		"id", "user", "screen_name", "entities", "media", "text",
		"full_text", "extended_tweet", "retweeted_status", "place",
	})
	return rapid.Custom(func(t *rapid.T) string {
		n := rapid.IntRange(1, 3).Draw(t, "segments")
		path := segment.Draw(t, "seg0")
		for i := 1; i < n; i++ {
			path += "." + segment.Draw(t, "seg")
		}
		return path
	})
}

// jsonObjectGen draws arbitrary JSON objects with keys overlapping the
// fieldPathGen alphabet, nested up to the given depth.
func jsonObjectGen(depth int) *rapid.Generator[map[string]any] {
	return rapid.Custom(func(t *rapid.T) map[string]any {
		key := rapid.SampledFrom([]string{
			"id", "user", "screen_name", "entities", "media", "text",
			"full_text", "extended_tweet", "retweeted_status", "lang",
		})
		obj := map[string]any{}
		n := rapid.IntRange(0, 5).Draw(t, "fields")
		for i := 0; i < n; i++ {
			obj[key.Draw(t, "key")] = jsonValueGen(depth).Draw(t, "value")
		}
		return obj
	})
}

func jsonValueGen(depth int) *rapid.Generator[any] {
	return rapid.Custom(func(t *rapid.T) any {
		kind := rapid.IntRange(0, 5).Draw(t, "kind")
		switch kind {
		case 0:
			return rapid.String().Draw(t, "string")
		case 1:
			return rapid.Float64Range(-1e9, 1e9).Draw(t, "number")
		case 2:
			return rapid.Bool().Draw(t, "bool")
		case 3:
			return nil
		case 4:
			if depth <= 0 {
				return rapid.String().Draw(t, "string")
			}
			n := rapid.IntRange(0, 3).Draw(t, "len")
			arr := make([]any, n)
			for i := range arr {
				arr[i] = jsonValueGen(depth - 1).Draw(t, "elem")
			}
			return arr
		default:
			if depth <= 0 {
				return rapid.String().Draw(t, "string")
			}
			return map[string]any(jsonObjectGen(depth - 1).Draw(t, "obj"))
		}
	})
}
