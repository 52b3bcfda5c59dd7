package flickr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexInt decodes integers that Flickr sometimes sends as strings or booleans
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	switch string(data) {
	case "true":
		*f = 1
		return nil
	case "false":
		*f = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid integer %q: %w", s, err)
		}
		*f = FlexInt(n)
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// Content is Flickr's wrapper for text values
type Content struct {
	Content string `json:"_content"`
}

// status is the part of every response that says whether the call worked
type status struct {
	Stat    string `json:"stat"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// User is the authenticated account returned by flickr.test.login
type User struct {
	ID       string  `json:"id"`
	Username Content `json:"username"`
}

// ListingPhoto is one entry of a paginated listing, including the requested extras
type ListingPhoto struct {
	ID             string `json:"id"`
	Owner          string `json:"owner"`
	OwnerName      string `json:"ownername"`
	Title          string `json:"title"`
	DateTaken      string `json:"datetaken"`
	OriginalFormat string `json:"originalformat,omitempty"`
	Media          string `json:"media"`
}

// Listing is one page of a favorites, photos or photos-of listing.
// flickr.people.getPhotosOf reports has_next_page instead of pages and total.
type Listing struct {
	Page        FlexInt        `json:"page"`
	Pages       FlexInt        `json:"pages"`
	PerPage     FlexInt        `json:"perpage"`
	Total       FlexInt        `json:"total"`
	HasNextPage FlexInt        `json:"has_next_page"`
	Photos      []ListingPhoto `json:"photo"`
}

// HasMore reports whether a page follows page
func (l *Listing) HasMore(page int) bool {
	return int(l.Pages) > page || l.HasNextPage == 1
}

// Owner identifies the account a photo belongs to
type Owner struct {
	NSID     string `json:"nsid"`
	Username string `json:"username"`
	RealName string `json:"realname"`
}

// Name returns the real name, or the username when no real name is set
func (o Owner) Name() string {
	if o.RealName != "" {
		return o.RealName
	}
	return o.Username
}

// URLTypePhotoPage marks the photo's page among its urls
const URLTypePhotoPage = "photopage"

// PhotoURL is one entry of a photo's urls list
type PhotoURL struct {
	Type    string `json:"type"`
	Content string `json:"_content"`
}

// PhotoInfo is the photo object returned by flickr.photos.getInfo
type PhotoInfo struct {
	ID             string  `json:"id"`
	Secret         string  `json:"secret"`
	Server         string  `json:"server"`
	OriginalFormat string  `json:"originalformat,omitempty"`
	Media          string  `json:"media"`
	Owner          Owner   `json:"owner"`
	Title          Content `json:"title"`
	Description    Content `json:"description"`
	Dates          struct {
		Taken  string `json:"taken"`
		Posted string `json:"posted"`
	} `json:"dates"`
	URLs struct {
		URL []PhotoURL `json:"url"`
	} `json:"urls"`
}

// PageURL returns the photo's page on flickr.com, if listed
func (p *PhotoInfo) PageURL() string {
	return PhotoPage(p.URLs.URL)
}

// PhotoPage returns the "photopage" entry of urls
func PhotoPage(urls []PhotoURL) string {
	for _, u := range urls {
		if u.Type == URLTypePhotoPage {
			return u.Content
		}
	}
	return ""
}

// IsVideo reports whether the item is a video
func (p *PhotoInfo) IsVideo() bool {
	return p.Media == MediaVideo
}

// Size is one rendition of a photo
type Size struct {
	Label  string  `json:"label"`
	Width  FlexInt `json:"width"`
	Height FlexInt `json:"height"`
	Source string  `json:"source"`
	URL    string  `json:"url"`
	Media  string  `json:"media"`
}

// Sizes is the sizes object returned by flickr.photos.getSizes
type Sizes struct {
	CanDownload FlexInt `json:"candownload"`
	Size        []Size  `json:"size"`
}

// Lookup finds the size with the given label
func (s *Sizes) Lookup(label string) (Size, bool) {
	if s == nil {
		return Size{}, false
	}
	for _, size := range s.Size {
		if size.Label == label {
			return size, true
		}
	}
	return Size{}, false
}

// ExifTag is a single EXIF entry
type ExifTag struct {
	TagSpace string   `json:"tagspace"`
	Tag      string   `json:"tag"`
	Label    string   `json:"label"`
	Raw      Content  `json:"raw"`
	Clean    *Content `json:"clean,omitempty"`
}

// Exif is the photo object returned by flickr.photos.getExif
type Exif struct {
	ID     string    `json:"id"`
	Camera string    `json:"camera"`
	Tags   []ExifTag `json:"exif"`
}
