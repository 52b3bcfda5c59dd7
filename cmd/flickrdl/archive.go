package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"flickrdl/pkg/archiver"
	"flickrdl/pkg/auth"
	"flickrdl/pkg/config"
	"flickrdl/pkg/errors"
	"flickrdl/pkg/flickr"
	"flickrdl/pkg/logger"
	"flickrdl/pkg/ui"
)

var tokenUser string

func newArchiveCmd(kind flickr.Kind, short string, aliases ...string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     string(kind),
		Aliases: aliases,
		Short:   short,
		Long: fmt.Sprintf(`%s

Output goes to <output>/%s/:
  data/         <date>_<owner>_<id>_{info,sizes,exif}.json
  photos/       <date>_<owner>_<id>.<ext>
  index.html    every archived photo, newest first

Photos whose media file already exists are skipped.`, short, kind),
		Example: fmt.Sprintf(`  # Archive into the current directory
  flickrdl %[1]s

  # Archive into ./archive with a one second pause between requests
  flickrdl %[1]s --output ./archive --request-delay 1s

  # Metadata only
  flickrdl %[1]s --skip-media`, kind),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchive(cmd, kind)
		},
	}

	cmd.Flags().StringP("output", "o", "", "base output directory")
	cmd.Flags().StringP("account", "a", "", "NSID whose listing to archive (default: the authorised user)")
	cmd.Flags().Int("per-page", config.DefaultPerPage, fmt.Sprintf("listing page size (max %d)", config.MaxPerPage))
	cmd.Flags().Bool("fail-if-exists", false, "abort if the output directory for this listing already exists")
	cmd.Flags().Duration("request-delay", 500*time.Millisecond, "pause between API requests")
	cmd.Flags().Bool("skip-videos", false, "don't download videos")
	cmd.Flags().Bool("skip-media", false, "save metadata only")
	cmd.Flags().Bool("skip-index", false, "don't regenerate index.html")
	cmd.Flags().StringVarP(&tokenUser, "user", "u", "", "stored Flickr token to use (default: most recent)")

	return cmd
}

func init() {
	rootCmd.AddCommand(
		newArchiveCmd(flickr.KindFavorites, "Archive the photos you marked as favorite", "favourites"),
		newArchiveCmd(flickr.KindPhotos, "Archive the photos you uploaded"),
		newArchiveCmd(flickr.KindPhotosOf, "Archive the photos you are tagged in", "photosofme"),
	)
}

func runArchive(cmd *cobra.Command, kind flickr.Kind) error {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return reported(errors.Fatal("%w", err))
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("flickrdl starting")

	token, err := loadToken()
	if err != nil {
		log.WithError(err).Error("No Flickr authorisation found")
		ui.PrintError("No Flickr authorisation found", "run 'flickrdl authorize' first")
		return reported(errors.Fatal("missing OAuth token: %w", err))
	}
	ui.PrintInfo("Account", token.Username)
	ui.PrintInfo("Listing", string(kind))
	ui.PrintInfo("Output", cfg.Output.BaseDirectory)

	a, err := archiver.NewFromConfig(cfg, kind, token.Credentials(cfg.Flickr.APIKey, cfg.Flickr.APISecret), log)
	if err != nil {
		return err
	}
	progress := ui.NewProgressDisplay(string(kind), cfg.Logging.Level == "debug")
	a.SetProgress(progress)
	notifier := ui.NewNotifier(notify)

	summary, err := a.Run(cmd.Context())
	if err != nil {
		log.WithError(err).WithField("tier", errors.TierOf(err).String()).Error("Archive failed")
		ui.PrintError("ARCHIVE FAILED", err.Error())
		notifier.SendError("flickrdl", fmt.Sprintf("Archiving %s failed: %v", kind, err))
		return reported(err)
	}

	printSummary(summary)
	notifier.SendSuccess("flickrdl", fmt.Sprintf("Archived %d new %s", summary.New, kind))
	return nil
}

// loadToken returns the token named by --user, or the default one
func loadToken() (*auth.Token, error) {
	manager, err := auth.NewManager()
	if err != nil {
		return nil, err
	}
	if tokenUser != "" {
		return manager.Retrieve(tokenUser)
	}
	return manager.RetrieveDefault()
}

func printSummary(s *archiver.Summary) {
	ui.PrintInfo("Listed", humanize.Comma(int64(s.Listed)))
	ui.PrintInfo("Already archived", humanize.Comma(int64(s.AlreadyArchived)))
	ui.PrintInfo("New", humanize.Comma(int64(s.New)))
	ui.PrintInfo("Media downloaded", fmt.Sprintf("%s (%s)", humanize.Comma(int64(s.MediaDownloaded)), humanize.Bytes(uint64(s.BytesDownloaded))))
	if s.Duplicates > 0 {
		ui.PrintInfo("Duplicate listing entries", strconv.Itoa(s.Duplicates))
	}
	if s.MediaSkipped > 0 {
		ui.PrintInfo("Media skipped", strconv.Itoa(s.MediaSkipped))
	}
	if s.IndexEntries > 0 {
		ui.PrintInfo("Index entries", humanize.Comma(int64(s.IndexEntries)))
	}

	if failed := s.Failed(); failed > 0 {
		ui.PrintWarning("Photos with failures", failed)
		failures := s.FailuresByPart()
		for _, part := range s.FailedParts() {
			ui.PrintWarning(fmt.Sprintf("Failed %s", part), failures[part])
		}
	}

	ui.PrintSuccess(fmt.Sprintf("[%s ARCHIVED IN %s]", s.Kind, s.Duration().Round(time.Second)))
}
