package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	undatedPart = "undated"
	unknownPart = "unknown"
)

// FilenameKey builds the "{date}_{owner}_{id}" base name shared by a photo's
// JSON files and its media file. Spaces become underscores and anything other
// than ASCII letters, digits, "-" and "_" is dropped, so the same inputs always
// give the same key. The key ends in the photo ID, so distinct photos never
// share one.
func FilenameKey(takenDate, owner, photoID string) string {
	date := sanitize(takenDate)
	if date == "" {
		date = undatedPart
	}
	name := sanitize(owner)
	if name == "" {
		name = unknownPart
	}
	return fmt.Sprintf("%s_%s_%s", date, name, sanitize(photoID))
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExtensionFor picks the media file extension, preferring the content type and
// falling back to the extension of the source URL.
func ExtensionFor(contentType, sourceURL string) string {
	if m := mimetype.Lookup(contentType); m != nil && m.Extension() != "" {
		return m.Extension()
	}

	if u, err := url.Parse(sourceURL); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); ext != "" {
			return ext
		}
	}

	return ".bin"
}
