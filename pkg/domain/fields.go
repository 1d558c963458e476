package domain

import (
	"strings"
	"unicode"
)

// MediaPath is the allow-list entry removed by the exclude-media toggle.
const MediaPath = "entities.media"

// DefaultFields is the built-in keep list applied when no keep list is
// supplied via flags or configuration. Dots imply nesting: keeping
// "user.screen_name" keeps only screen_name inside the user object.
var DefaultFields = []string{
	"id", "id_str", "created_at", "text", "full_text",
	"extended_tweet.full_text", "user.screen_name",
	"coordinates", "place", "entities.media",
}

// ParseFieldList flattens the contents of a keep file into individual field
// paths. Entries may be separated by commas, whitespace, or newlines; text
// after '#' on a line is a comment and is discarded; blank entries are
// dropped and surrounding whitespace is trimmed.
func ParseFieldList(text string) []string {
	var fields []string
	for _, line := range strings.Split(text, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		entries := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
		fields = append(fields, entries...)
	}
	return fields
}

// ParseCommaList splits a comma-separated flag value into field paths,
// trimming whitespace and dropping empty entries.
func ParseCommaList(value string) []string {
	var fields []string
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			fields = append(fields, entry)
		}
	}
	return fields
}

// ExcludeMedia returns paths with the entities.media entry removed,
// regardless of which source the list came from.
func ExcludeMedia(paths []string) []string {
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != MediaPath {
			kept = append(kept, p)
		}
	}
	return kept
}
