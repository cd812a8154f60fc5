// Package tags parses the comma-separated tag fields typed by users.
package tags

import (
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Parse splits a comma-separated field into trimmed, non-empty tags.
// Order and duplicates are preserved. A field with no tags yields nil so callers
// can omit the field rather than send an empty list.
func Parse(field string) []string {
	var tags []string
	for _, tag := range strings.Split(field, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// EncodeField serializes tags for a multipart form field.
// It returns false when there is nothing to send.
func EncodeField(tags []string) (string, bool, error) {
	if len(tags) == 0 {
		return "", false, nil
	}
	bytes, err := json.Marshal(tags)
	if err != nil {
		return "", false, errors.Wrap(err, "marshaling tags")
	}
	return string(bytes), true, nil
}

// Format renders tags as "#a #b".
func Format(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	formatted := make([]string, len(tags))
	for i, tag := range tags {
		formatted[i] = "#" + tag
	}
	return strings.Join(formatted, " ")
}
