package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"flickrdl/pkg/config"
	"flickrdl/pkg/ui"
)

const exampleConfig = `# flickrdl configuration
#
# Every value can also be set through FLICKRDL_* environment variables,
# e.g. FLICKRDL_API_KEY, FLICKRDL_OUTPUT_DIR, FLICKRDL_REQUEST_DELAY.

flickr:
  # Application key pair from https://www.flickr.com/services/apps/create/
  api_key: ""
  api_secret: ""

  # Listing page size, at most 500
  per_page: 100

  # REST endpoint override, mostly useful for testing
  # endpoint: "https://api.flickr.com/services/rest"

  # NSID whose listing is archived. Leave empty for the authorised user.
  account: ""

output:
  # Listings are written to <base_directory>/<favorites|photos|photosof>/
  base_directory: "."

  # Abort when the listing directory already exists
  fail_if_exists: false

  dir_permissions: "0755"
  file_permissions: "0644"

  # Don't regenerate index.html after a run
  skip_index: false

download:
  timeout: 60s

  # Media responses with any other Content-Type are rejected
  allowed_content_types:
    - image/jpeg
    - image/png
    - image/gif
    - image/webp
    - image/tiff
    - video/mp4
    - video/quicktime

  skip_videos: false
  skip_media: false

rate_limit:
  # Pause between API and media requests
  request_delay: 500ms

logging:
  # debug, info, warn, error
  level: "info"

  # Optional log file; console output is kept
  file: ""

  # Write JSON lines instead of console output
  json: false
`

// configCmd groups the configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage flickrdl configuration files.

Configuration is resolved from, in order of priority:
  - Command line flags
  - Environment variables (FLICKRDL_*)
  - .env and ~/.flickrdl.env
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with every available option.

The file is written to .flickrdl.yaml unless --config names another path.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Long:  `Show the configuration after merging every source. The API key and secret are masked.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".flickrdl.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		return reported(fmt.Errorf("%s already exists", configPath))
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		return reported(err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Add your Flickr API key and secret")
	fmt.Fprintln(out, "2. Run 'flickrdl config validate' to check the configuration")
	fmt.Fprintln(out, "3. Run 'flickrdl authorize', then 'flickrdl favorites'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(configFile, changedFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return reported(err)
	}

	display := *cfg
	display.Flickr.APIKey = mask(display.Flickr.APIKey)
	display.Flickr.APISecret = mask(display.Flickr.APISecret)

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(data))

	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none found)"
	}
	fmt.Fprintf(out, "\n# configuration file: %s\n", source)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, changedFlags(cmd))
	if err != nil {
		ui.PrintError("Configuration has errors", err.Error())
		return reported(err)
	}

	ui.PrintSuccess("Configuration is valid")
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Fprintf(out, "  Page size: %d\n", cfg.EffectivePerPage())
	fmt.Fprintf(out, "  Request delay: %s\n", cfg.RateLimit.RequestDelay)
	fmt.Fprintf(out, "  Download timeout: %s\n", cfg.Download.Timeout)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "***"
	}
}
