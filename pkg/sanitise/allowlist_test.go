package sanitise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_LeafEntries(t *testing.T) {
	tree := Build([]string{"id", "created_at"})

	require.Len(t, tree, 2)
	sub, ok := tree["id"]
	require.True(t, ok)
	assert.Nil(t, sub, "bare path should produce a leaf")
}

func TestBuild_MergesSharedPrefix(t *testing.T) {
	tree := Build([]string{"a.b", "a.c"})

	require.Len(t, tree, 1)
	sub := tree["a"]
	require.NotNil(t, sub, "shared prefix must merge, not overwrite")
	assert.Contains(t, sub, "b")
	assert.Contains(t, sub, "c")
}

func TestBuild_DeepPaths(t *testing.T) {
	tree := Build([]string{"retweeted_status.extended_tweet.full_text"})

	sub := tree["retweeted_status"]
	require.NotNil(t, sub)
	sub = sub["extended_tweet"]
	require.NotNil(t, sub)
	leaf, ok := sub["full_text"]
	require.True(t, ok)
	assert.Nil(t, leaf)
}

func TestBuild_RepeatedPathsIdempotent(t *testing.T) {
	once := Build([]string{"user.screen_name"})
	twice := Build([]string{"user.screen_name", "user.screen_name"})

	assert.Equal(t, once, twice)
}

func TestBuild_LeafAbsorbsNarrowerEntries(t *testing.T) {
	// "user" keeps the whole subtree, which subsumes "user.screen_name".
	// The result must not depend on which order the paths arrive in.
	a := Build([]string{"user", "user.screen_name"})
	b := Build([]string{"user.screen_name", "user"})

	assert.Equal(t, a, b)
	sub, ok := a["user"]
	require.True(t, ok)
	assert.Nil(t, sub)
}

func TestBuild_TrimsWhitespace(t *testing.T) {
	tree := Build([]string{"  id  ", "\tuser.screen_name\n"})

	assert.Contains(t, tree, "id")
	assert.Contains(t, tree, "user")
}

func TestBuild_TrailingDotTolerated(t *testing.T) {
	// Documented edge case: a trailing dot yields an empty segment that
	// matches nothing, but it must not panic or be rejected.
	tree := Build([]string{"entities."})

	sub := tree["entities"]
	require.NotNil(t, sub)
	assert.Contains(t, sub, "")
}

func TestTreeString_IndentedOutline(t *testing.T) {
	tree := Build([]string{"user.screen_name", "id", "entities.media"})

	want := "- entities\n" +
		"  - media\n" +
		"- id\n" +
		"- user\n" +
		"  - screen_name\n"
	assert.Equal(t, want, tree.String())
}
