package archiver

import (
	"sort"
	"time"

	"flickrdl/pkg/flickr"
)

// ItemError records a per-photo failure that did not stop the run
type ItemError struct {
	PhotoID string
	Part    string
	Err     error
}

// Summary describes what a run did
type Summary struct {
	Kind     flickr.Kind
	Username string

	Pages           int
	Listed          int
	AlreadyArchived int
	Duplicates      int
	New             int

	MetadataFiles   int
	MediaDownloaded int
	MediaSkipped    int
	BytesDownloaded int64
	IndexEntries    int

	Errors []ItemError

	Started  time.Time
	Finished time.Time
}

func newSummary(kind flickr.Kind, started time.Time) *Summary {
	return &Summary{Kind: kind, Started: started}
}

func (s *Summary) addError(photoID, part string, err error) {
	s.Errors = append(s.Errors, ItemError{PhotoID: photoID, Part: part, Err: err})
}

// Failed returns how many distinct photos had at least one error
func (s *Summary) Failed() int {
	ids := make(map[string]struct{})
	for _, e := range s.Errors {
		if e.PhotoID != "" {
			ids[e.PhotoID] = struct{}{}
		}
	}
	return len(ids)
}

// FailuresByPart counts errors per part ("info", "sizes", "exif", "media", ...)
func (s *Summary) FailuresByPart() map[string]int {
	counts := make(map[string]int)
	for _, e := range s.Errors {
		counts[e.Part]++
	}
	return counts
}

// FailedParts returns the part names with errors in sorted order
func (s *Summary) FailedParts() []string {
	counts := s.FailuresByPart()
	parts := make([]string, 0, len(counts))
	for part := range counts {
		parts = append(parts, part)
	}
	sort.Strings(parts)
	return parts
}

// Duration returns how long the run took
func (s *Summary) Duration() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}
