package archiver

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"flickrdl/pkg/flickr"
)

func TestSummaryFailures(t *testing.T) {
	s := newSummary(flickr.KindPhotos, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	s.addError("1", "exif", stderrors.New("permission denied"))
	s.addError("1", "media", stderrors.New("bad content type"))
	s.addError("2", "exif", stderrors.New("permission denied"))
	s.addError("", "index", stderrors.New("disk full"))

	assert.Equal(t, 2, s.Failed())
	assert.Equal(t, map[string]int{"exif": 2, "media": 1, "index": 1}, s.FailuresByPart())
	assert.Equal(t, []string{"exif", "index", "media"}, s.FailedParts())
}

func TestSummaryDuration(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newSummary(flickr.KindFavorites, start)
	assert.Zero(t, s.Duration())

	s.Finished = start.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, s.Duration())
}
