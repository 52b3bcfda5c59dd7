package archiver

import (
	"context"
	"fmt"
	"time"

	"flickrdl/pkg/config"
	"flickrdl/pkg/errors"
	"flickrdl/pkg/flickr"
	"flickrdl/pkg/index"
	"flickrdl/pkg/logger"
	"flickrdl/pkg/metadata"
	"flickrdl/pkg/ratelimit"
	"flickrdl/pkg/storage"
)

// Options controls a single run
type Options struct {
	Kind    flickr.Kind
	BaseDir string
	// Account is the NSID whose listing is archived. Empty means the
	// authenticated user.
	Account string
	PerPage int
	Storage storage.Options

	SkipMedia  bool
	SkipVideos bool
	SkipIndex  bool
}

// OptionsFromConfig derives run options for kind from cfg
func OptionsFromConfig(cfg *config.Config, kind flickr.Kind) (Options, error) {
	dirPerm, err := config.ParsePermissions(cfg.Output.DirPermissions)
	if err != nil {
		return Options{}, errors.Fatal("invalid directory permissions: %w", err)
	}
	filePerm, err := config.ParsePermissions(cfg.Output.FilePermissions)
	if err != nil {
		return Options{}, errors.Fatal("invalid file permissions: %w", err)
	}

	return Options{
		Kind:    kind,
		BaseDir: cfg.Output.BaseDirectory,
		Account: cfg.Flickr.Account,
		PerPage: cfg.EffectivePerPage(),
		Storage: storage.Options{
			FailIfExists: cfg.Output.FailIfExists,
			DirPerm:      dirPerm,
			FilePerm:     filePerm,
		},
		SkipMedia:  cfg.Download.SkipMedia,
		SkipVideos: cfg.Download.SkipVideos,
		SkipIndex:  cfg.Output.SkipIndex,
	}, nil
}

// Archiver orchestrates the archive of one Flickr listing
type Archiver struct {
	provider MetadataProvider
	fetcher  BlobFetcher
	pacer    ratelimit.Limiter
	opts     Options
	logger   logger.Logger
	progress Progress
	now      func() time.Time

	storage *storage.Manager
	writer  *metadata.Writer
	summary *Summary
}

// New creates an Archiver. A nil pacer means no delay between calls.
func New(provider MetadataProvider, fetcher BlobFetcher, pacer ratelimit.Limiter, opts Options, log logger.Logger) *Archiver {
	if pacer == nil {
		pacer = ratelimit.NewPacer(0)
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Archiver{
		provider: provider,
		fetcher:  fetcher,
		pacer:    pacer,
		opts:     opts,
		logger:   log.WithField("kind", string(opts.Kind)),
		progress: nopProgress{},
		now:      time.Now,
	}
}

// NewFromConfig wires an Archiver to the Flickr API using cfg and the
// user's OAuth credentials
func NewFromConfig(cfg *config.Config, kind flickr.Kind, creds flickr.Credentials, log logger.Logger) (*Archiver, error) {
	opts, err := OptionsFromConfig(cfg, kind)
	if err != nil {
		return nil, err
	}

	client := flickr.NewClient(creds, cfg.Download.Timeout, log)
	client.SetEndpoint(cfg.Flickr.Endpoint)
	fetcher := flickr.NewMediaFetcher(cfg.Download.Timeout, cfg.Download.AllowedContentTypes, log)

	return New(client, fetcher, ratelimit.NewPacer(cfg.RateLimit.RequestDelay), opts, log), nil
}

// SetProgress sets the progress display for the run
func (a *Archiver) SetProgress(p Progress) {
	if p == nil {
		p = nopProgress{}
	}
	a.progress = p
}

// Run archives every photo of the listing that is not on disk yet. The
// returned Summary is valid even when err is not nil.
func (a *Archiver) Run(ctx context.Context) (*Summary, error) {
	a.summary = newSummary(a.opts.Kind, a.now())
	defer func() { a.summary.Finished = a.now() }()

	mgr, err := storage.NewManager(a.opts.BaseDir, string(a.opts.Kind), a.opts.Storage)
	if err != nil {
		a.logger.WithError(err).WithField("base_dir", a.opts.BaseDir).Error("Failed to prepare output directory")
		if errors.TierOf(err) == errors.TierFatal {
			return a.summary, err
		}
		return a.summary, errors.Fatal("failed to prepare output directory: %w", err)
	}
	a.storage = mgr
	a.writer = metadata.NewWriter(mgr.DataDir(), mgr)

	existing := mgr.Existing()
	a.logger.InfoWithFields("Scanned existing media", map[string]interface{}{
		"dir":      mgr.PhotosDir(),
		"existing": mgr.GetDownloadedCount(),
	})

	user, err := a.login(ctx)
	if err != nil {
		return a.summary, err
	}
	a.summary.Username = user.Username.Content

	userID := a.opts.Account
	if userID == "" {
		userID = user.ID
	}

	photos, err := a.paginate(ctx, userID, existing)
	if err != nil {
		return a.summary, err
	}
	a.summary.New = len(photos)

	a.logger.InfoWithFields("Starting photo archive", map[string]interface{}{
		"user":     a.summary.Username,
		"new":      len(photos),
		"existing": a.summary.AlreadyArchived,
	})
	a.progress.SetTotal(len(photos))

	for _, p := range photos {
		if err := a.processPhoto(ctx, p); err != nil {
			return a.summary, err
		}
	}

	if !a.opts.SkipIndex {
		a.writeIndex()
	}

	a.progress.Complete()
	a.logger.InfoWithFields("Archive finished", map[string]interface{}{
		"new":         a.summary.New,
		"media":       a.summary.MediaDownloaded,
		"errors":      len(a.summary.Errors),
		"index_items": a.summary.IndexEntries,
	})
	return a.summary, nil
}

// login resolves the authenticated user. Any failure is fatal.
func (a *Archiver) login(ctx context.Context) (*flickr.User, error) {
	if err := a.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	user, err := a.provider.Login(ctx)
	if err != nil {
		a.logger.WithError(err).Error("Can't fetch Flickr user data")
		return nil, errors.Fatal("can't fetch Flickr user data: %w", err)
	}

	a.logger.InfoWithFields("Authenticated", map[string]interface{}{
		"nsid":     user.ID,
		"username": user.Username.Content,
	})
	return user, nil
}

// processPhoto fetches, writes and downloads one photo. Only context
// cancellation is returned as an error; everything else is recorded.
func (a *Archiver) processPhoto(ctx context.Context, p flickr.ListingPhoto) error {
	a.progress.StartPhoto(p.ID)

	bundle, err := a.fetchMetadata(ctx, p)
	if err != nil {
		return err
	}

	if missing := bundle.Missing(); len(missing) > 0 {
		a.logger.WarnWithFields("Photo metadata incomplete", map[string]interface{}{
			"photo_id": p.ID,
			"missing":  missing,
		})
	}

	record := bundle.Record()
	key := record.Key()

	written, err := a.writer.Write(key, bundle)
	a.summary.MetadataFiles += len(written)
	if err != nil {
		a.logger.WithError(err).WithField("photo_id", p.ID).Error("Failed to write metadata")
		a.summary.addError(p.ID, "write", err)
	}

	size, err := a.fetchMedia(ctx, key, record)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		a.summary.addError(p.ID, "media", err)
		a.progress.FailPhoto(p.ID, err)
		return nil
	}

	a.progress.CompletePhoto(p.ID, size)
	return nil
}

// fetchMetadata runs the three per-photo calls. A failed call leaves its
// part nil.
func (a *Archiver) fetchMetadata(ctx context.Context, p flickr.ListingPhoto) (*metadata.Bundle, error) {
	b := metadata.NewBundle(p, a.now())

	for _, part := range metadata.Parts {
		if err := a.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		var err error
		switch part {
		case metadata.PartInfo:
			b.Info, b.InfoRaw, err = a.provider.GetInfo(ctx, p.ID)
		case metadata.PartSizes:
			b.Sizes, b.SizesRaw, err = a.provider.GetSizes(ctx, p.ID)
		case metadata.PartExif:
			b.Exif, b.ExifRaw, err = a.provider.GetExif(ctx, p.ID)
		}

		log := a.logger
		if err != nil {
			log = log.WithField("error_type", string(errors.TypeOf(err)))
		}
		logger.LogPhotoPart(log, p.ID, string(part), err)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			a.summary.addError(p.ID, string(part), err)
		}
	}

	return b, nil
}

// writeIndex regenerates index.html from the data directory
func (a *Archiver) writeIndex() {
	page, errs := index.Build(string(a.opts.Kind), a.storage.DataDir(), a.storage.PhotosDir())
	for _, err := range errs {
		a.logger.WithError(err).Warn("Skipping unreadable metadata in index")
	}

	if err := index.Write(a.storage.IndexPath(), a.storage, page); err != nil {
		a.logger.WithError(err).Error("Failed to write index")
		a.summary.addError("", "index", fmt.Errorf("failed to write index: %w", err))
		return
	}

	a.summary.IndexEntries = len(page.Entries)
	a.logger.DebugWithFields("Index written", map[string]interface{}{
		"path":    a.storage.IndexPath(),
		"entries": len(page.Entries),
	})
}
