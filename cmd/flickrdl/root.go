package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"flickrdl/pkg/config"
	"flickrdl/pkg/logger"
	"flickrdl/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	apiKey     string
	apiSecret  string
	quiet      bool
	notify     bool
)

var errMissingAction = errors.New("missing action: expected one of authorize, favorites, photos, photosof, photosofme")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flickrdl",
	Short: "Archive your Flickr favorites and photos locally",
	Long: `flickrdl archives the photos you favorited, uploaded or are tagged in on Flickr.

For every photo it saves the getInfo, getSizes and getExif responses as JSON,
downloads the best available size and regenerates an index.html listing.
Photos whose media is already on disk are skipped, so runs are incremental.

Start with 'flickrdl authorize' to grant read access to your account.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuietMode(true)
		}

		if cmd.Name() != "version" && cmd.Name() != "help" && !isConfigCommand(cmd) {
			ui.PrintLogo()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = cmd.Help()
		return errMissingAction
	},
}

// Execute runs the root command and exits non-zero on any error
func Execute() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// run executes args and reports the error once. Usage mistakes also print
// the usage of the command they were made on.
func run(ctx context.Context, args []string) error {
	rootCmd.SetArgs(args)
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return nil
	}

	if isUsageError(err) {
		_ = cmd.Usage()
	}
	var shown shownError
	if !errors.As(err, &shown) {
		ui.PrintError("Error", err.Error())
	}
	return err
}

// shownError marks an error the command already printed
type shownError struct{ error }

func (e shownError) Unwrap() error { return e.error }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return shownError{err}
}

// usageError wraps flag parsing errors
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func isUsageError(err error) bool {
	var ue usageError
	return errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command")
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: ./.flickrdl.yaml or ~/.config/flickrdl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Flickr API key")
	rootCmd.PersistentFlags().StringVar(&apiSecret, "api-secret", "", "Flickr API secret")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&notify, "notify", false, "send a desktop notification when a run ends")

	rootCmd.SetVersionTemplate(`flickrdl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})
}

func isConfigCommand(cmd *cobra.Command) bool {
	return cmd.Parent() != nil && cmd.Parent().Name() == "config"
}

// changedFlags collects the flags set on the command line, keyed by name,
// in the form config.MergeCommandLineFlags expects
func changedFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	fs := cmd.Flags()

	for _, name := range []string{"api-key", "api-secret", "account", "output", "log-level"} {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			flags[name] = v
		}
	}
	for _, name := range []string{"fail-if-exists", "skip-videos", "skip-media", "skip-index"} {
		if fs.Changed(name) {
			v, _ := fs.GetBool(name)
			flags[name] = v
		}
	}
	if fs.Changed("per-page") {
		v, _ := fs.GetInt("per-page")
		flags["per-page"] = v
	}
	if fs.Changed("request-delay") {
		v, _ := fs.GetDuration("request-delay")
		flags["request-delay"] = v
	}

	return flags
}

// loadConfig resolves the configuration for cmd and initialises logging.
// validate runs the full validation; otherwise only the values are resolved.
func loadConfig(cmd *cobra.Command, validate bool) (*config.Config, error) {
	load := config.Resolve
	if validate {
		load = config.Load
	}

	cfg, err := load(configFile, changedFlags(cmd))
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialise logging: %w", err)
	}
	return cfg, nil
}
