package storage

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// photoIDPattern matches the "_<id>.<ext>" suffix every media file ends with
var photoIDPattern = regexp.MustCompile(`_(\d+)\.[A-Za-z0-9]+$`)

// IDSet is a set of Flickr photo IDs
type IDSet map[string]struct{}

// Has reports whether id is in the set
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id into the set
func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}

// ExtractID returns the photo ID encoded in a media filename
func ExtractID(name string) (string, bool) {
	// Hidden files are in-flight writes
	if strings.HasPrefix(name, ".") {
		return "", false
	}
	m := photoIDPattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ScanExistingIDs lists dir and returns the IDs of already downloaded media.
// Directories and files that don't match the naming pattern are ignored. A
// missing directory yields an empty set.
func ScanExistingIDs(dir string) (IDSet, error) {
	media, err := ListMedia(dir)
	if err != nil {
		return nil, err
	}

	ids := make(IDSet, len(media))
	for id := range media {
		ids.Add(id)
	}
	return ids, nil
}

// ListMedia maps photo IDs to the media filenames found in dir
func ListMedia(dir string) (map[string]string, error) {
	media := make(map[string]string)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return media, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, ok := ExtractID(entry.Name()); ok {
			media[id] = entry.Name()
		}
	}

	return media, nil
}
