package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flickrdl/pkg/auth"
	"flickrdl/pkg/ui"
)

// authCmd groups the stored token commands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored Flickr tokens",
	Long: `Manage the OAuth tokens created by 'flickrdl authorize'.

Tokens are looked up in this order:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - FLICKRDL_OAUTH_TOKEN and FLICKRDL_OAUTH_SECRET`,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List stored tokens",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove a stored token",
	Long: `Remove a stored token. Without a username the only stored token is
removed; use --all to remove every token.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthLogout,
}

func init() {
	authLogoutCmd.Flags().Bool("all", false, "remove every stored token")

	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialise credential manager", err.Error())
		return reported(err)
	}

	tokens, err := manager.List()
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		ui.PrintInfo("No stored tokens", "run 'flickrdl authorize' to add one")
		return nil
	}

	ui.PrintHighlight("Stored tokens")
	out := cmd.OutOrStdout()
	for i, token := range tokens {
		sanitized := auth.SanitizeToken(token)
		fmt.Fprintf(out, "%d. Username: %s\n", i+1, sanitized.Username)
		if sanitized.NSID != "" {
			fmt.Fprintf(out, "   NSID: %s\n", sanitized.NSID)
		}
		fmt.Fprintf(out, "   Token: %s\n", sanitized.OAuthToken)
		fmt.Fprintf(out, "   Last Modified: %s\n\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialise credential manager", err.Error())
		return reported(err)
	}

	if all, _ := cmd.Flags().GetBool("all"); all {
		if err := manager.DeleteAll(); err != nil {
			ui.PrintError("Failed to remove tokens", err.Error())
			return reported(err)
		}
		ui.PrintSuccess("All tokens removed")
		return nil
	}

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		tokens, err := manager.List()
		if err != nil {
			return err
		}
		switch len(tokens) {
		case 0:
			ui.PrintInfo("No stored tokens", "nothing to remove")
			return nil
		case 1:
			username = tokens[0].Username
		default:
			return fmt.Errorf("%d tokens stored: name one or pass --all", len(tokens))
		}
	}

	if err := manager.Delete(username); err != nil {
		ui.PrintError("Failed to remove token", err.Error())
		return reported(err)
	}
	ui.PrintSuccess("Token removed: " + username)
	return nil
}
