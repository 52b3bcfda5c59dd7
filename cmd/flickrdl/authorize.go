package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"flickrdl/pkg/auth"
	"flickrdl/pkg/errors"
	"flickrdl/pkg/flickr"
	"flickrdl/pkg/logger"
	"flickrdl/pkg/ui"
)

// authorizeCmd runs the OAuth flow and stores the access token
var authorizeCmd = &cobra.Command{
	Use:     "authorize",
	Aliases: []string{"authorise"},
	Short:   "Grant flickrdl read access to your Flickr account",
	Long: `Run the Flickr OAuth 1.0a flow and store the resulting access token.

You will be given a URL to open in your browser. After approving read access,
Flickr shows a verification code that you paste back here. The token is
stored in the system keychain when available and in an encrypted file otherwise.

If a stored token still works, nothing is changed.`,
	Args: cobra.NoArgs,
	RunE: runAuthorize,
}

func init() {
	authorizeCmd.Flags().Bool("force", false, "authorise again even if a working token is stored")
	rootCmd.AddCommand(authorizeCmd)
}

func runAuthorize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return reported(errors.Fatal("%w", err))
	}
	if cfg.Flickr.APIKey == "" || cfg.Flickr.APISecret == "" {
		ui.PrintError("Missing Flickr API key", "set flickr.api_key and flickr.api_secret or FLICKRDL_API_KEY and FLICKRDL_API_SECRET")
		return reported(errors.Fatal("flickr API key and secret are required"))
	}
	log := logger.GetLogger()

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialise credential manager", err.Error())
		return reported(err)
	}

	force, _ := cmd.Flags().GetBool("force")
	if token, err := manager.RetrieveDefault(); err == nil && !force {
		client := flickr.NewClient(token.Credentials(cfg.Flickr.APIKey, cfg.Flickr.APISecret), cfg.Download.Timeout, log)
		client.SetEndpoint(cfg.Flickr.Endpoint)

		user, err := client.Login(cmd.Context())
		if err == nil {
			ui.PrintSuccess(fmt.Sprintf("Already authorised as %s (%s)", user.Username.Content, user.ID))
			return nil
		}
		log.WithError(err).WithField("username", token.Username).Warn("Stored token rejected")
		ui.PrintWarning("Stored token no longer works, authorising again")
	}

	authorizer := flickr.NewAuthorizer(cfg.Flickr.APIKey, cfg.Flickr.APISecret)
	authURL, err := authorizer.Begin()
	if err != nil {
		ui.PrintError("Failed to start authorisation", err.Error())
		return reported(errors.Fatal("%w", err))
	}

	auth.ShowAuthorizeGuide(cmd.OutOrStdout(), authURL)

	fmt.Fprint(cmd.OutOrStdout(), "Verification code: ")
	code, err := readSecret()
	if err != nil {
		ui.PrintError("Failed to read verification code", err.Error())
		return reported(err)
	}

	access, err := authorizer.Complete(auth.NormalizeVerifier(code))
	if err != nil {
		ui.PrintError("Authorisation failed", err.Error())
		return reported(errors.Fatal("%w", err))
	}

	token := auth.TokenFromAccess(access)
	if err := manager.Store(token); err != nil {
		ui.PrintError("Failed to store token", err.Error())
		return reported(err)
	}

	log.WithField("username", token.Username).Info("Authorised")
	ui.PrintSuccess(fmt.Sprintf("Authorised as %s (%s)", token.Username, token.NSID))
	fmt.Fprintln(cmd.OutOrStdout(), "\nNext: flickrdl favorites | photos | photosof")
	return nil
}

// readSecret reads a line from stdin without echo when attached to a terminal
func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
