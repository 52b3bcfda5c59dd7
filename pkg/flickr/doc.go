// Package flickr is a small client for the parts of the Flickr REST API the
// archiver needs.
//
// It includes:
//   - A Client that signs requests with OAuth 1.0a and decodes JSON replies
//   - Models for listings, photo info, sizes and EXIF
//   - A MediaFetcher that downloads files and enforces a content-type allow-list
//   - An Authorizer for the out-of-band OAuth flow
//
// Every per-photo call returns the decoded value together with the raw JSON
// object so callers can persist exactly what Flickr sent.
//
// Example usage:
//
//	client := flickr.NewClient(creds, 30*time.Second, log)
//
//	user, err := client.Login(ctx)
//	if err != nil {
//	    return err
//	}
//
//	listing, err := client.ListPage(ctx, flickr.KindFavorites, user.ID, 1, 100)
//	for _, p := range listing.Photos {
//	    info, raw, err := client.GetInfo(ctx, p.ID)
//	    // ...
//	}
package flickr
