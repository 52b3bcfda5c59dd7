package metadata

import (
	"encoding/json"
	"time"

	"flickrdl/pkg/flickr"
	"flickrdl/pkg/storage"
)

// Part names one of the per-photo metadata calls
type Part string

const (
	PartInfo  Part = "info"
	PartSizes Part = "sizes"
	PartExif  Part = "exif"
)

// Parts lists every part in the order they are fetched and written
var Parts = []Part{PartInfo, PartSizes, PartExif}

// PhotoRecord is the normalised view of a photo used for naming, media
// selection and the index. Absent values are left empty.
type PhotoRecord struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	TakenDate       string            `json:"taken_date"`
	OwnerName       string            `json:"owner_name"`
	MediaKind       string            `json:"media"`
	OriginalFormat  string            `json:"original_format,omitempty"`
	DescriptionHTML string            `json:"description_html,omitempty"`
	URLs            []flickr.PhotoURL `json:"urls,omitempty"`
	Sizes           []flickr.Size     `json:"sizes,omitempty"`
}

// IsVideo reports whether the record describes a video
func (r *PhotoRecord) IsVideo() bool {
	return r.MediaKind == flickr.MediaVideo
}

// PageURL returns the photo's page on flickr.com, if known
func (r *PhotoRecord) PageURL() string {
	return flickr.PhotoPage(r.URLs)
}

// Key returns the filename key for the record
func (r *PhotoRecord) Key() string {
	return storage.FilenameKey(r.TakenDate, r.OwnerName, r.ID)
}

// NewPhotoRecord builds a record from getInfo output, adding sizes when known
func NewPhotoRecord(info *flickr.PhotoInfo, sizes *flickr.Sizes) *PhotoRecord {
	r := &PhotoRecord{
		ID:              info.ID,
		Title:           info.Title.Content,
		TakenDate:       info.Dates.Taken,
		OwnerName:       info.Owner.Name(),
		MediaKind:       mediaOrPhoto(info.Media),
		OriginalFormat:  info.OriginalFormat,
		DescriptionHTML: info.Description.Content,
		URLs:            info.URLs.URL,
	}
	if sizes != nil {
		r.Sizes = sizes.Size
	}
	return r
}

// RecordFromSummary builds a record from a listing entry. Used when getInfo
// failed so the photo can still be named and downloaded.
func RecordFromSummary(p flickr.ListingPhoto, sizes *flickr.Sizes) *PhotoRecord {
	r := &PhotoRecord{
		ID:             p.ID,
		Title:          p.Title,
		TakenDate:      p.DateTaken,
		OwnerName:      p.OwnerName,
		MediaKind:      mediaOrPhoto(p.Media),
		OriginalFormat: p.OriginalFormat,
	}
	if p.Owner != "" {
		r.URLs = []flickr.PhotoURL{{
			Type:    flickr.URLTypePhotoPage,
			Content: "https://www.flickr.com/photos/" + p.Owner + "/" + p.ID + "/",
		}}
	}
	if sizes != nil {
		r.Sizes = sizes.Size
	}
	return r
}

func mediaOrPhoto(media string) string {
	if media == "" {
		return flickr.MediaPhoto
	}
	return media
}

// Bundle is everything fetched for one photo. A nil part means the call for
// that part failed; it is skipped when writing.
type Bundle struct {
	Summary   flickr.ListingPhoto
	FetchTime time.Time

	Info  *flickr.PhotoInfo
	Sizes *flickr.Sizes
	Exif  *flickr.Exif

	InfoRaw  json.RawMessage
	SizesRaw json.RawMessage
	ExifRaw  json.RawMessage
}

// NewBundle starts a bundle for a listing entry
func NewBundle(summary flickr.ListingPhoto, fetchTime time.Time) *Bundle {
	return &Bundle{Summary: summary, FetchTime: fetchTime.UTC()}
}

// Record returns the normalised record, built from info when available and
// from the listing entry otherwise.
func (b *Bundle) Record() *PhotoRecord {
	if b.Info != nil {
		return NewPhotoRecord(b.Info, b.Sizes)
	}
	return RecordFromSummary(b.Summary, b.Sizes)
}

// Raw returns the raw JSON for part, or nil if it was not fetched
func (b *Bundle) Raw(part Part) json.RawMessage {
	switch part {
	case PartInfo:
		return b.InfoRaw
	case PartSizes:
		return b.SizesRaw
	case PartExif:
		return b.ExifRaw
	default:
		return nil
	}
}

// Missing lists the parts that failed to fetch
func (b *Bundle) Missing() []Part {
	var missing []Part
	for _, part := range Parts {
		if b.Raw(part) == nil {
			missing = append(missing, part)
		}
	}
	return missing
}
