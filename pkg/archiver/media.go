package archiver

import (
	"bytes"
	"context"
	"fmt"

	"flickrdl/pkg/errors"
	"flickrdl/pkg/flickr"
	"flickrdl/pkg/logger"
	"flickrdl/pkg/metadata"
	"flickrdl/pkg/storage"
)

// SelectSize picks the size to download. Videos always use Site MP4. Photos
// use Original when an original format is known, otherwise the first label
// of flickr.SizeLadder that is available.
func SelectSize(r *metadata.PhotoRecord) (flickr.Size, bool) {
	sizes := &flickr.Sizes{Size: r.Sizes}

	if r.IsVideo() {
		return sizes.Lookup(flickr.SizeSiteMP4)
	}

	if r.OriginalFormat != "" {
		if size, ok := sizes.Lookup(flickr.SizeOriginal); ok {
			return size, true
		}
	}

	for _, label := range flickr.SizeLadder {
		if size, ok := sizes.Lookup(label); ok {
			return size, true
		}
	}
	return flickr.Size{}, false
}

// fetchMedia downloads the selected size to photos/<key><ext> and returns
// the number of bytes written. Skipped items return 0 and no error.
func (a *Archiver) fetchMedia(ctx context.Context, key string, r *metadata.PhotoRecord) (int64, error) {
	if a.opts.SkipMedia {
		a.summary.MediaSkipped++
		return 0, nil
	}
	if r.IsVideo() && a.opts.SkipVideos {
		a.logger.DebugWithFields("Skipping video", map[string]interface{}{"photo_id": r.ID})
		a.summary.MediaSkipped++
		return 0, nil
	}

	size, ok := SelectSize(r)
	if !ok || size.Source == "" {
		a.logger.WarnWithFields("No downloadable size", map[string]interface{}{
			"photo_id": r.ID,
			"sizes":    len(r.Sizes),
		})
		a.summary.MediaSkipped++
		return 0, nil
	}

	if err := a.pacer.Wait(ctx); err != nil {
		return 0, err
	}

	blob, err := a.fetcher.Get(ctx, size.Source)
	if err != nil {
		log := a.logger.WithField("error_type", string(errors.TypeOf(err)))
		logger.LogDownload(log, r.ID, size.Label, 0, err)
		return 0, fmt.Errorf("failed to download %s: %w", size.Label, err)
	}

	ext := storage.ExtensionFor(blob.ContentType, size.Source)
	if _, err := a.storage.SavePhoto(bytes.NewReader(blob.Data), key, ext); err != nil {
		logger.LogDownload(a.logger, r.ID, size.Label, 0, err)
		return 0, err
	}

	n := int64(len(blob.Data))
	a.summary.MediaDownloaded++
	a.summary.BytesDownloaded += n
	logger.LogDownload(a.logger, r.ID, size.Label, n, nil)
	return n, nil
}
