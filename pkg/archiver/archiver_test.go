package archiver

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flickrdl/pkg/config"
	"flickrdl/pkg/errors"
	"flickrdl/pkg/flickr"
	"flickrdl/pkg/logger"
	"flickrdl/pkg/metadata"
	"flickrdl/pkg/storage"
)

func samplePhotos() []fakePhoto {
	return []fakePhoto{
		{
			ID: "101", Owner: "11@N01", OwnerName: "Ann Smith", Title: "Harbour",
			Taken: "2021-05-04 10:11:12", OriginalFormat: "jpg",
			Sizes: photoSizes("101", flickr.SizeOriginal, flickr.SizeLarge, flickr.SizeThumbnail),
		},
		{
			ID: "102", Owner: "12@N01", OwnerName: "bob", Title: "Fog",
			Taken: "2020-01-02 03:04:05",
			Sizes: photoSizes("102", flickr.SizeMedium640, flickr.SizeLarge1600),
		},
		{
			ID: "103", Owner: "13@N01", OwnerName: "Cy", Title: "Waves", Media: flickr.MediaVideo,
			Taken: "2019-07-08 09:10:11",
			Sizes: append(photoSizes("103", flickr.SizeLarge), flickr.Size{
				Label: flickr.SizeSiteMP4, Source: "https://www.flickr.com/photos/cy/103/play/site/abc/", Media: "video",
			}),
		},
	}
}

func newTestArchiver(t *testing.T, base string, provider *fakeProvider, fetcher *fakeFetcher) (*Archiver, *logger.TestLogger) {
	t.Helper()
	log := logger.NewTestLogger()
	opts := Options{
		Kind:    flickr.KindFavorites,
		BaseDir: base,
		PerPage: 2,
		Storage: storage.DefaultOptions(),
	}
	return New(provider, fetcher, nil, opts, log), log
}

func kindDir(base string) string {
	return filepath.Join(base, string(flickr.KindFavorites))
}

func TestRunArchivesNewPhotos(t *testing.T) {
	base := t.TempDir()
	provider := newFakeProvider(samplePhotos()...)
	fetcher := newFakeFetcher()
	fetcher.blobs["https://www.flickr.com/photos/cy/103/play/site/abc/"] = &flickr.Blob{
		Data: []byte("mp4 data"), ContentType: "video/mp4",
	}

	a, _ := newTestArchiver(t, base, provider, fetcher)
	progress := &recordingProgress{}
	a.SetProgress(progress)

	summary, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "archivist", summary.Username)
	assert.Equal(t, 2, summary.Pages)
	assert.Equal(t, 3, summary.Listed)
	assert.Equal(t, 3, summary.New)
	assert.Equal(t, 9, summary.MetadataFiles)
	assert.Equal(t, 3, summary.MediaDownloaded)
	assert.Equal(t, 3, summary.IndexEntries)
	assert.Empty(t, summary.Errors)
	assert.False(t, summary.Finished.Before(summary.Started))

	dataDir := filepath.Join(kindDir(base), "data")
	for _, name := range []string{
		"2021-05-04_101112_Ann_Smith_101_info.json",
		"2021-05-04_101112_Ann_Smith_101_sizes.json",
		"2021-05-04_101112_Ann_Smith_101_exif.json",
		"2020-01-02_030405_bob_102_info.json",
		"2019-07-08_091011_Cy_103_exif.json",
	} {
		assert.FileExists(t, filepath.Join(dataDir, name))
	}

	info, err := os.ReadFile(filepath.Join(dataDir, "2020-01-02_030405_bob_102_info.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(info), "{\n  \""), string(info))
	assert.Contains(t, string(info), "\n  \"id\": \"102\",")
	assert.True(t, strings.HasSuffix(string(info), "}\n"))

	photosDir := filepath.Join(kindDir(base), "photos")
	assert.FileExists(t, filepath.Join(photosDir, "2021-05-04_101112_Ann_Smith_101.jpg"))
	assert.FileExists(t, filepath.Join(photosDir, "2020-01-02_030405_bob_102.jpg"))
	assert.FileExists(t, filepath.Join(photosDir, "2019-07-08_091011_Cy_103.mp4"))

	assert.ElementsMatch(t, []string{
		sourceURL("101", flickr.SizeOriginal),
		sourceURL("102", flickr.SizeLarge1600),
		"https://www.flickr.com/photos/cy/103/play/site/abc/",
	}, fetcher.fetched())

	html, err := os.ReadFile(filepath.Join(kindDir(base), "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Harbour")
	assert.Contains(t, string(html), "photos/2020-01-02_030405_bob_102.jpg")

	assert.Equal(t, []int{1, 2}, progress.pages)
	assert.Equal(t, 3, progress.total)
	assert.Equal(t, []string{"101", "102", "103"}, progress.completed)
	assert.True(t, progress.done)
}

func TestRunUsesAuthenticatedUserByDefault(t *testing.T) {
	provider := newFakeProvider(samplePhotos()[:1]...)
	a, _ := newTestArchiver(t, t.TempDir(), provider, newFakeFetcher())

	_, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"99@N00"}, provider.userIDs)
}

func TestRunUsesConfiguredAccount(t *testing.T) {
	provider := newFakeProvider(samplePhotos()[:1]...)
	a, _ := newTestArchiver(t, t.TempDir(), provider, newFakeFetcher())
	a.opts.Account = "55@N05"

	_, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"55@N05"}, provider.userIDs)
}

func TestRunPartialMetadataFailureWritesOtherParts(t *testing.T) {
	base := t.TempDir()
	provider := newFakeProvider(samplePhotos()[:2]...)
	provider.failPart("101", "exif", &errors.APIError{Method: flickr.MethodPhotosGetExif, Code: 2, Message: "Permission denied"})

	a, log := newTestArchiver(t, base, provider, newFakeFetcher())
	summary, err := a.Run(context.Background())
	require.NoError(t, err)

	dataDir := filepath.Join(kindDir(base), "data")
	assert.FileExists(t, filepath.Join(dataDir, "2021-05-04_101112_Ann_Smith_101_info.json"))
	assert.FileExists(t, filepath.Join(dataDir, "2021-05-04_101112_Ann_Smith_101_sizes.json"))
	assert.NoFileExists(t, filepath.Join(dataDir, "2021-05-04_101112_Ann_Smith_101_exif.json"))
	assert.FileExists(t, filepath.Join(kindDir(base), "photos", "2021-05-04_101112_Ann_Smith_101.jpg"))

	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "101", summary.Errors[0].PhotoID)
	assert.Equal(t, "exif", summary.Errors[0].Part)
	assert.Equal(t, 1, summary.Failed())
	assert.Equal(t, 2, summary.MediaDownloaded)

	logged := log.GetMessagesByLevel("ERROR")
	require.Len(t, logged, 1)
	assert.Equal(t, "Couldn't fetch photo exif", logged[0].Message)
	assert.Equal(t, "101", logged[0].Fields["photo_id"])
}

func TestRunInfoFailureFallsBackToListingEntry(t *testing.T) {
	base := t.TempDir()
	provider := newFakeProvider(samplePhotos()[:2]...)
	provider.failPart("102", "info", stderrors.New("timeout"))

	a, _ := newTestArchiver(t, base, provider, newFakeFetcher())
	summary, err := a.Run(context.Background())
	require.NoError(t, err)

	dataDir := filepath.Join(kindDir(base), "data")
	assert.NoFileExists(t, filepath.Join(dataDir, "2020-01-02_030405_bob_102_info.json"))
	assert.FileExists(t, filepath.Join(dataDir, "2020-01-02_030405_bob_102_sizes.json"))
	assert.FileExists(t, filepath.Join(kindDir(base), "photos", "2020-01-02_030405_bob_102.jpg"))

	assert.Equal(t, map[string]int{"info": 1}, summary.FailuresByPart())
	assert.Equal(t, 1, summary.IndexEntries)
}

func TestRunSkipsAlreadyArchivedPhotos(t *testing.T) {
	base := t.TempDir()

	first, _ := newTestArchiver(t, base, newFakeProvider(samplePhotos()...), newFakeFetcher())
	_, err := first.Run(context.Background())
	require.NoError(t, err)

	provider := newFakeProvider(samplePhotos()...)
	fetcher := newFakeFetcher()
	second, _ := newTestArchiver(t, base, provider, fetcher)
	summary, err := second.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.New)
	assert.Equal(t, 3, summary.AlreadyArchived)
	assert.Empty(t, provider.callsWithPrefix("info:"))
	assert.Empty(t, provider.callsWithPrefix("sizes:"))
	assert.Empty(t, provider.callsWithPrefix("exif:"))
	assert.Empty(t, fetcher.fetched())
	assert.Equal(t, 3, summary.IndexEntries)
}

func TestRunFetchesOnlyPhotosWithoutMedia(t *testing.T) {
	base := t.TempDir()
	photosDir := filepath.Join(kindDir(base), "photos")
	require.NoError(t, os.MkdirAll(photosDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(photosDir, "2021-05-04_101112_Ann_Smith_101.jpg"), []byte("x"), 0644))

	provider := newFakeProvider(samplePhotos()...)
	a, _ := newTestArchiver(t, base, provider, newFakeFetcher())
	summary, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.AlreadyArchived)
	assert.Equal(t, 2, summary.New)
	assert.Equal(t, []string{"info:102", "info:103"}, provider.callsWithPrefix("info:"))
}

func TestRunSkipsDuplicateListingEntries(t *testing.T) {
	photos := samplePhotos()
	provider := newFakeProvider(photos[0], photos[1], photos[0])

	a, _ := newTestArchiver(t, t.TempDir(), provider, newFakeFetcher())
	summary, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Listed)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Equal(t, 2, summary.New)
	assert.Equal(t, []string{"info:101", "info:102"}, provider.callsWithPrefix("info:"))
}

func TestRunStopsOnEmptyPage(t *testing.T) {
	provider := newFakeProvider()
	a, _ := newTestArchiver(t, t.TempDir(), provider, newFakeFetcher())

	summary, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Pages)
	assert.Equal(t, 0, summary.New)
	assert.Equal(t, []string{"list:favorites:1"}, provider.callsWithPrefix("list:"))
}

func TestRunFollowsHasNextPage(t *testing.T) {
	provider := newFakeProvider(samplePhotos()...)
	provider.nextPageOnly = true

	a, _ := newTestArchiver(t, t.TempDir(), provider, newFakeFetcher())
	a.opts.Kind = flickr.KindPhotosOf
	summary, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"list:photosof:1", "list:photosof:2"}, provider.callsWithPrefix("list:"))
	assert.Equal(t, 2, summary.Pages)
	assert.Equal(t, 3, summary.Listed)
	assert.Equal(t, 3, summary.New)
}

func TestRunPageErrorAbortsRun(t *testing.T) {
	provider := newFakeProvider(samplePhotos()...)
	provider.pageErr[2] = stderrors.New("connection reset")

	a, _ := newTestArchiver(t, t.TempDir(), provider, newFakeFetcher())
	summary, err := a.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, errors.TierPage, errors.TierOf(err))
	assert.Contains(t, err.Error(), "page 2")
	assert.Empty(t, provider.callsWithPrefix("info:"))
	assert.Equal(t, 1, summary.Pages)
}

func TestRunLoginFailureIsFatal(t *testing.T) {
	provider := newFakeProvider(samplePhotos()...)
	provider.loginErr = &errors.Error{Type: errors.ErrorTypeAuth, Message: "invalid token"}

	a, _ := newTestArchiver(t, t.TempDir(), provider, newFakeFetcher())
	_, err := a.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, errors.TierFatal, errors.TierOf(err))
	assert.Equal(t, errors.ErrorTypeAuth, errors.TypeOf(err))
	assert.Empty(t, provider.callsWithPrefix("list:"))
}

func TestRunFailIfExists(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(kindDir(base), 0755))

	provider := newFakeProvider(samplePhotos()...)
	a, _ := newTestArchiver(t, base, provider, newFakeFetcher())
	a.opts.Storage.FailIfExists = true

	_, err := a.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.TierFatal, errors.TierOf(err))
	assert.Empty(t, provider.calls)
}

func TestRunMediaFailureIsItemLevel(t *testing.T) {
	base := t.TempDir()
	provider := newFakeProvider(samplePhotos()[:2]...)
	fetcher := newFakeFetcher()
	fetcher.errs[sourceURL("101", flickr.SizeOriginal)] = &errors.Error{
		Type: errors.ErrorTypeContentType, Message: "unexpected content type text/html",
	}

	a, _ := newTestArchiver(t, base, provider, fetcher)
	progress := &recordingProgress{}
	a.SetProgress(progress)

	summary, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.MediaDownloaded)
	assert.Equal(t, map[string]int{"media": 1}, summary.FailuresByPart())
	assert.Equal(t, []string{"101"}, progress.failed)
	assert.Equal(t, []string{"102"}, progress.completed)
	assert.FileExists(t, filepath.Join(kindDir(base), "data", "2021-05-04_101112_Ann_Smith_101_info.json"))
	assert.NoFileExists(t, filepath.Join(kindDir(base), "photos", "2021-05-04_101112_Ann_Smith_101.jpg"))
}

func TestRunSkipFlags(t *testing.T) {
	t.Run("skip videos", func(t *testing.T) {
		fetcher := newFakeFetcher()
		a, _ := newTestArchiver(t, t.TempDir(), newFakeProvider(samplePhotos()...), fetcher)
		a.opts.SkipVideos = true

		summary, err := a.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, summary.MediaDownloaded)
		assert.Equal(t, 1, summary.MediaSkipped)
		assert.Len(t, fetcher.fetched(), 2)
	})

	t.Run("skip media", func(t *testing.T) {
		base := t.TempDir()
		fetcher := newFakeFetcher()
		a, _ := newTestArchiver(t, base, newFakeProvider(samplePhotos()...), fetcher)
		a.opts.SkipMedia = true

		summary, err := a.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, summary.MediaDownloaded)
		assert.Equal(t, 3, summary.MediaSkipped)
		assert.Equal(t, 9, summary.MetadataFiles)
		assert.Empty(t, fetcher.fetched())
	})

	t.Run("skip index", func(t *testing.T) {
		base := t.TempDir()
		a, _ := newTestArchiver(t, base, newFakeProvider(samplePhotos()...), newFakeFetcher())
		a.opts.SkipIndex = true

		_, err := a.Run(context.Background())
		require.NoError(t, err)
		assert.NoFileExists(t, filepath.Join(kindDir(base), "index.html"))
	})
}

func TestRunNoDownloadableSize(t *testing.T) {
	photo := samplePhotos()[0]
	photo.Sizes = nil

	fetcher := newFakeFetcher()
	a, log := newTestArchiver(t, t.TempDir(), newFakeProvider(photo), fetcher)

	summary, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MediaSkipped)
	assert.Empty(t, fetcher.fetched())
	assert.True(t, log.HasMessage("No downloadable size"))
}

func TestRunCancelledContext(t *testing.T) {
	provider := newFakeProvider(samplePhotos()...)
	a, _ := newTestArchiver(t, t.TempDir(), provider, newFakeFetcher())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, provider.calls)
}

func TestSelectSize(t *testing.T) {
	tests := []struct {
		name      string
		media     string
		original  string
		labels    []string
		wantLabel string
		wantOK    bool
	}{
		{name: "original when format known", original: "jpg", labels: []string{flickr.SizeLarge, flickr.SizeOriginal}, wantLabel: flickr.SizeOriginal, wantOK: true},
		{name: "ladder when original missing", original: "png", labels: []string{flickr.SizeMedium, flickr.SizeLarge1600}, wantLabel: flickr.SizeLarge1600, wantOK: true},
		{name: "ladder ignores original without format", labels: []string{flickr.SizeOriginal, flickr.SizeLarge}, wantLabel: flickr.SizeLarge, wantOK: true},
		{name: "first rung wins", labels: []string{flickr.SizeThumbnail, flickr.SizeLarge2048, flickr.SizeLarge}, wantLabel: flickr.SizeLarge2048, wantOK: true},
		{name: "thumbnail as last resort", labels: []string{"Square", flickr.SizeThumbnail}, wantLabel: flickr.SizeThumbnail, wantOK: true},
		{name: "video uses site mp4", media: flickr.MediaVideo, labels: []string{flickr.SizeLarge, flickr.SizeSiteMP4}, wantLabel: flickr.SizeSiteMP4, wantOK: true},
		{name: "video without mp4", media: flickr.MediaVideo, labels: []string{flickr.SizeLarge}},
		{name: "no sizes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			media := tt.media
			if media == "" {
				media = flickr.MediaPhoto
			}
			r := &metadata.PhotoRecord{
				ID:             "1",
				MediaKind:      media,
				OriginalFormat: tt.original,
				Sizes:          photoSizes("1", tt.labels...),
			}

			got, ok := SelectSize(r)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantLabel, got.Label)
		})
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.BaseDirectory = "/archive"
	cfg.Output.FailIfExists = true
	cfg.Flickr.PerPage = 900
	cfg.Download.SkipVideos = true

	opts, err := OptionsFromConfig(cfg, flickr.KindPhotosOf)
	require.NoError(t, err)
	assert.Equal(t, flickr.KindPhotosOf, opts.Kind)
	assert.Equal(t, "/archive", opts.BaseDir)
	assert.Equal(t, config.MaxPerPage, opts.PerPage)
	assert.True(t, opts.Storage.FailIfExists)
	assert.Equal(t, os.FileMode(0755), opts.Storage.DirPerm)
	assert.Equal(t, os.FileMode(0644), opts.Storage.FilePerm)
	assert.True(t, opts.SkipVideos)

	cfg.Output.FilePermissions = "rw-r--r--"
	_, err = OptionsFromConfig(cfg, flickr.KindPhotos)
	require.Error(t, err)
	assert.Equal(t, errors.TierFatal, errors.TierOf(err))
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RateLimit.RequestDelay = 250 * time.Millisecond

	a, err := NewFromConfig(cfg, flickr.KindFavorites, flickr.Credentials{APIKey: "k", APISecret: "s"}, logger.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &flickr.Client{}, a.provider)
	assert.IsType(t, &flickr.MediaFetcher{}, a.fetcher)
}
