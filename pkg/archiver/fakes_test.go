package archiver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"flickrdl/pkg/flickr"
)

// fakePhoto describes one photo served by fakeProvider
type fakePhoto struct {
	ID             string
	Owner          string
	OwnerName      string
	Title          string
	Taken          string
	Media          string
	OriginalFormat string
	Sizes          []flickr.Size
}

func (p fakePhoto) listing() flickr.ListingPhoto {
	return flickr.ListingPhoto{
		ID:             p.ID,
		Owner:          p.Owner,
		OwnerName:      p.OwnerName,
		Title:          p.Title,
		DateTaken:      p.Taken,
		OriginalFormat: p.OriginalFormat,
		Media:          p.Media,
	}
}

func (p fakePhoto) infoJSON() json.RawMessage {
	media := p.Media
	if media == "" {
		media = flickr.MediaPhoto
	}
	return mustJSON(map[string]interface{}{
		"id":             p.ID,
		"media":          media,
		"originalformat": p.OriginalFormat,
		"owner":          map[string]string{"nsid": p.Owner, "username": p.OwnerName},
		"title":          map[string]string{"_content": p.Title},
		"description":    map[string]string{"_content": "<b>" + p.Title + "</b>"},
		"dates":          map[string]string{"taken": p.Taken},
		"urls": map[string]interface{}{
			"url": []map[string]string{{
				"type":     "photopage",
				"_content": fmt.Sprintf("https://www.flickr.com/photos/%s/%s/", p.Owner, p.ID),
			}},
		},
	})
}

func (p fakePhoto) sizesJSON() json.RawMessage {
	return mustJSON(flickr.Sizes{CanDownload: 1, Size: p.Sizes})
}

func (p fakePhoto) exifJSON() json.RawMessage {
	return mustJSON(map[string]interface{}{
		"id":     p.ID,
		"camera": "Fujifilm X100V",
		"exif": []map[string]interface{}{
			{"tagspace": "EXIF", "tag": "FNumber", "label": "Aperture", "raw": map[string]string{"_content": "2.0"}},
		},
	})
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// fakeProvider serves a fixed listing split into pages of pageSize
type fakeProvider struct {
	mu sync.Mutex

	user     flickr.User
	loginErr error
	pageSize int
	photos   []fakePhoto
	pageErr  map[int]error
	partErr  map[string]error

	// nextPageOnly answers like flickr.people.getPhotosOf: has_next_page
	// and no pages count
	nextPageOnly bool

	calls   []string
	userIDs []string
}

func newFakeProvider(photos ...fakePhoto) *fakeProvider {
	return &fakeProvider{
		user:     flickr.User{ID: "99@N00", Username: flickr.Content{Content: "archivist"}},
		pageSize: 2,
		photos:   photos,
		pageErr:  map[int]error{},
		partErr:  map[string]error{},
	}
}

func (f *fakeProvider) failPart(photoID, part string, err error) {
	f.partErr[photoID+"/"+part] = err
}

func (f *fakeProvider) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeProvider) callsWithPrefix(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeProvider) find(photoID string) (fakePhoto, bool) {
	for _, p := range f.photos {
		if p.ID == photoID {
			return p, true
		}
	}
	return fakePhoto{}, false
}

func (f *fakeProvider) Login(ctx context.Context) (*flickr.User, error) {
	f.record("login")
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	user := f.user
	return &user, nil
}

func (f *fakeProvider) ListPage(ctx context.Context, kind flickr.Kind, userID string, page, perPage int) (*flickr.Listing, error) {
	f.record(fmt.Sprintf("list:%s:%d", kind, page))
	f.mu.Lock()
	f.userIDs = append(f.userIDs, userID)
	f.mu.Unlock()

	if err := f.pageErr[page]; err != nil {
		return nil, err
	}

	pages := (len(f.photos) + f.pageSize - 1) / f.pageSize
	listing := &flickr.Listing{
		Page:    flickr.FlexInt(page),
		Pages:   flickr.FlexInt(pages),
		PerPage: flickr.FlexInt(f.pageSize),
		Total:   flickr.FlexInt(len(f.photos)),
	}

	start := (page - 1) * f.pageSize
	end := start + f.pageSize
	if end > len(f.photos) {
		end = len(f.photos)
	}
	for i := start; i < end; i++ {
		listing.Photos = append(listing.Photos, f.photos[i].listing())
	}

	if f.nextPageOnly {
		listing.Pages = 0
		listing.Total = 0
		if end < len(f.photos) {
			listing.HasNextPage = 1
		}
	}
	return listing, nil
}

func (f *fakeProvider) GetInfo(ctx context.Context, photoID string) (*flickr.PhotoInfo, json.RawMessage, error) {
	f.record("info:" + photoID)
	if err := f.partErr[photoID+"/info"]; err != nil {
		return nil, nil, err
	}
	p, ok := f.find(photoID)
	if !ok {
		return nil, nil, fmt.Errorf("photo %s not found", photoID)
	}
	raw := p.infoJSON()
	var info flickr.PhotoInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, nil, err
	}
	return &info, raw, nil
}

func (f *fakeProvider) GetSizes(ctx context.Context, photoID string) (*flickr.Sizes, json.RawMessage, error) {
	f.record("sizes:" + photoID)
	if err := f.partErr[photoID+"/sizes"]; err != nil {
		return nil, nil, err
	}
	p, ok := f.find(photoID)
	if !ok {
		return nil, nil, fmt.Errorf("photo %s not found", photoID)
	}
	raw := p.sizesJSON()
	var sizes flickr.Sizes
	if err := json.Unmarshal(raw, &sizes); err != nil {
		return nil, nil, err
	}
	return &sizes, raw, nil
}

func (f *fakeProvider) GetExif(ctx context.Context, photoID string) (*flickr.Exif, json.RawMessage, error) {
	f.record("exif:" + photoID)
	if err := f.partErr[photoID+"/exif"]; err != nil {
		return nil, nil, err
	}
	p, ok := f.find(photoID)
	if !ok {
		return nil, nil, fmt.Errorf("photo %s not found", photoID)
	}
	raw := p.exifJSON()
	var exif flickr.Exif
	if err := json.Unmarshal(raw, &exif); err != nil {
		return nil, nil, err
	}
	return &exif, raw, nil
}

// fakeFetcher serves blobs by URL. Unknown URLs return a JPEG.
type fakeFetcher struct {
	mu    sync.Mutex
	blobs map[string]*flickr.Blob
	errs  map[string]error
	urls  []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{blobs: map[string]*flickr.Blob{}, errs: map[string]error{}}
}

func (f *fakeFetcher) Get(ctx context.Context, url string) (*flickr.Blob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)

	if err := f.errs[url]; err != nil {
		return nil, err
	}
	if blob, ok := f.blobs[url]; ok {
		return blob, nil
	}
	return &flickr.Blob{Data: []byte("jpeg:" + url), ContentType: "image/jpeg"}, nil
}

func (f *fakeFetcher) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

// recordingProgress counts progress callbacks
type recordingProgress struct {
	pages     []int
	total     int
	started   []string
	completed []string
	failed    []string
	done      bool
}

func (p *recordingProgress) ScanningPage(page, pages int)             { p.pages = append(p.pages, page) }
func (p *recordingProgress) SetTotal(total int)                       { p.total = total }
func (p *recordingProgress) StartPhoto(photoID string)                { p.started = append(p.started, photoID) }
func (p *recordingProgress) CompletePhoto(photoID string, size int64) { p.completed = append(p.completed, photoID) }
func (p *recordingProgress) FailPhoto(photoID string, err error)      { p.failed = append(p.failed, photoID) }
func (p *recordingProgress) Complete()                                { p.done = true }

func sourceURL(id, label string) string {
	return fmt.Sprintf("https://live.staticflickr.com/65535/%s_%s.jpg", id, strings.ReplaceAll(strings.ToLower(label), " ", ""))
}

func photoSizes(id string, labels ...string) []flickr.Size {
	sizes := make([]flickr.Size, 0, len(labels))
	for _, label := range labels {
		sizes = append(sizes, flickr.Size{Label: label, Width: 100, Height: 100, Source: sourceURL(id, label)})
	}
	return sizes
}
