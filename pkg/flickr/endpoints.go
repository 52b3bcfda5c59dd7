package flickr

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"flickrdl/pkg/config"
)

const (
	// DefaultEndpoint is the Flickr REST endpoint
	DefaultEndpoint = "https://api.flickr.com/services/rest"

	// ListingExtras are requested with every listing page so a photo can be
	// named even when its info call later fails
	ListingExtras = "date_taken,owner_name,original_format,media"
)

// API method names
const (
	MethodTestLogin      = "flickr.test.login"
	MethodFavoritesList  = "flickr.favorites.getList"
	MethodPeoplePhotos   = "flickr.people.getPhotos"
	MethodPeoplePhotosOf = "flickr.people.getPhotosOf"
	MethodPhotosGetInfo  = "flickr.photos.getInfo"
	MethodPhotosGetSizes = "flickr.photos.getSizes"
	MethodPhotosGetExif  = "flickr.photos.getExif"
)

// Media values
const (
	MediaPhoto = "photo"
	MediaVideo = "video"
)

// Size labels
const (
	SizeOriginal  = "Original"
	SizeSiteMP4   = "Site MP4"
	SizeLarge2048 = "Large 2048"
	SizeLarge1600 = "Large 1600"
	SizeLarge     = "Large"
	SizeMedium800 = "Medium 800"
	SizeMedium640 = "Medium 640"
	SizeMedium    = "Medium"
	SizeSmall320  = "Small 320"
	SizeSmall     = "Small"
	SizeThumbnail = "Thumbnail"
)

// SizeLadder is the fallback order for photos without an original
var SizeLadder = []string{
	SizeLarge2048,
	SizeLarge1600,
	SizeLarge,
	SizeMedium800,
	SizeMedium640,
	SizeMedium,
	SizeSmall320,
	SizeSmall,
	SizeThumbnail,
}

// Kind selects which listing is archived
type Kind string

const (
	KindFavorites Kind = "favorites"
	KindPhotos    Kind = "photos"
	KindPhotosOf  Kind = "photosof"
)

// Kinds lists every archivable listing
var Kinds = []Kind{KindFavorites, KindPhotos, KindPhotosOf}

// ParseKind maps an action name onto a Kind. "photosofme" is accepted as an
// alias for photosof.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "favorites", "favourites":
		return KindFavorites, nil
	case "photos":
		return KindPhotos, nil
	case "photosof", "photosofme":
		return KindPhotosOf, nil
	default:
		return "", fmt.Errorf("unknown listing %q", s)
	}
}

// Method returns the API method that lists this kind
func (k Kind) Method() string {
	switch k {
	case KindPhotos:
		return MethodPeoplePhotos
	case KindPhotosOf:
		return MethodPeoplePhotosOf
	default:
		return MethodFavoritesList
	}
}

// ClampPerPage keeps a page size within what the API accepts
func ClampPerPage(perPage int) int {
	if perPage <= 0 {
		return config.DefaultPerPage
	}
	if perPage > config.MaxPerPage {
		return config.MaxPerPage
	}
	return perPage
}

// listingArgs builds the query arguments for one listing page
func listingArgs(userID string, page, perPage int) url.Values {
	args := url.Values{}
	if userID != "" {
		args.Set("user_id", userID)
	}
	args.Set("page", strconv.Itoa(page))
	args.Set("per_page", strconv.Itoa(ClampPerPage(perPage)))
	args.Set("extras", ListingExtras)
	return args
}

// photoArgs builds the query arguments for a per-photo call
func photoArgs(photoID string) url.Values {
	args := url.Values{}
	args.Set("photo_id", photoID)
	return args
}
