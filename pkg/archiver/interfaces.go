package archiver

import (
	"context"
	"encoding/json"

	"flickrdl/pkg/flickr"
)

// MetadataProvider defines the Flickr API operations the archiver needs
type MetadataProvider interface {
	Login(ctx context.Context) (*flickr.User, error)
	ListPage(ctx context.Context, kind flickr.Kind, userID string, page, perPage int) (*flickr.Listing, error)
	GetInfo(ctx context.Context, photoID string) (*flickr.PhotoInfo, json.RawMessage, error)
	GetSizes(ctx context.Context, photoID string) (*flickr.Sizes, json.RawMessage, error)
	GetExif(ctx context.Context, photoID string) (*flickr.Exif, json.RawMessage, error)
}

// BlobFetcher downloads media files
type BlobFetcher interface {
	Get(ctx context.Context, url string) (*flickr.Blob, error)
}

// Progress receives run progress for display
type Progress interface {
	ScanningPage(page, pages int)
	SetTotal(total int)
	StartPhoto(photoID string)
	CompletePhoto(photoID string, size int64)
	FailPhoto(photoID string, err error)
	Complete()
}

type nopProgress struct{}

func (nopProgress) ScanningPage(page, pages int)             {}
func (nopProgress) SetTotal(total int)                       {}
func (nopProgress) StartPhoto(photoID string)                {}
func (nopProgress) CompletePhoto(photoID string, size int64) {}
func (nopProgress) FailPhoto(photoID string, err error)      {}
func (nopProgress) Complete()                                {}
