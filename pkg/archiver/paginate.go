package archiver

import (
	"context"

	"flickrdl/pkg/errors"
	"flickrdl/pkg/flickr"
	"flickrdl/pkg/logger"
	"flickrdl/pkg/storage"
)

// paginate walks the listing and returns the photos that are neither on disk
// nor already collected, in listing order. Any page error ends the run.
func (a *Archiver) paginate(ctx context.Context, userID string, existing storage.IDSet) ([]flickr.ListingPhoto, error) {
	var (
		photos []flickr.ListingPhoto
		seen   = storage.IDSet{}
		pages  int
	)

	for page := 1; ; page++ {
		if err := a.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		listing, err := a.provider.ListPage(ctx, a.opts.Kind, userID, page, a.opts.PerPage)
		if err != nil {
			a.logger.WithError(err).WithField("page", page).Error("Failed to fetch listing page")
			return nil, errors.Page("failed to fetch %s page %d: %w", a.opts.Kind, page, err)
		}

		pages = int(listing.Pages)
		if pages < page {
			pages = page
		}
		a.summary.Pages = page
		a.progress.ScanningPage(page, pages)

		if len(listing.Photos) == 0 {
			break
		}

		fresh := 0
		for _, p := range listing.Photos {
			a.summary.Listed++
			switch {
			case existing.Has(p.ID):
				a.summary.AlreadyArchived++
			case seen.Has(p.ID):
				a.summary.Duplicates++
			default:
				seen.Add(p.ID)
				photos = append(photos, p)
				fresh++
			}
		}

		logger.LogPage(a.logger, string(a.opts.Kind), page, pages, len(listing.Photos), fresh)

		if !listing.HasMore(page) {
			break
		}
	}

	return photos, nil
}
