// Package storage manages the on-disk archive of one listing.
//
// The storage package handles:
//   - Creating the <base>/<kind>/{data,photos} tree
//   - Deriving the set of already downloaded photo IDs from media filenames
//   - Building deterministic "{date}_{owner}_{id}" filename keys
//   - Saving media and metadata with atomic writes
//
// No state is kept between runs. Which photos exist is always recomputed
// from the filenames in the photos directory, so deleting a media file makes
// the next run fetch that photo again.
//
// Usage:
//
//	manager, err := storage.NewManager(".", "favorites", storage.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//
//	if !manager.Existing().Has(photoID) {
//	    key := storage.FilenameKey(taken, owner, photoID)
//	    path, err := manager.SavePhoto(r, key, storage.ExtensionFor(ct, src))
//	}
package storage
