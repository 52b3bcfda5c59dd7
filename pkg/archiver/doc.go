// Package archiver runs one archive pass over a Flickr listing.
//
// A run is strictly sequential:
//   - the output tree for the listing kind is created and the photos already
//     on disk are identified from their filenames
//   - the listing is walked page by page, keeping only photos not seen before
//   - info, sizes and exif are fetched for each new photo; a failed call leaves
//     that part empty and the run carries on
//   - the fetched JSON is written to data/, the best available size to photos/
//   - index.html is regenerated from everything in data/
//
// Usage:
//
//	a, err := archiver.NewFromConfig(cfg, flickr.KindFavorites, creds, log)
//	if err != nil {
//	    return err
//	}
//	summary, err := a.Run(ctx)
//
// Remote calls are separated by the configured request delay. Setup and
// listing failures end the run; per-photo failures are collected in the
// returned Summary.
package archiver
