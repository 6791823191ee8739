package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"draftvault/internal/auth"
)

var (
	loginClientID     string
	loginClientSecret string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to Google Drive",
	Long: `Sign in with a Google OAuth client. The client id and secret are
stored in the local database on first use and can be omitted afterwards.
Visit the printed URL, grant access, and paste the authorization code.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if loginClientID != "" {
			if err := st.SetConfigValue(ctx, auth.ClientIDKey, loginClientID); err != nil {
				return err
			}
		}
		if loginClientSecret != "" {
			if err := st.SetConfigValue(ctx, auth.APIKeyKey, loginClientSecret); err != nil {
				return err
			}
		}

		// Rebuild so freshly stored credentials take effect.
		a, err := auth.NewGoogle(ctx, st, "urn:ietf:wg:oauth:2.0:oob", logger)
		if err != nil {
			return err
		}

		fmt.Println("Open this URL in a browser and grant access:")
		fmt.Println()
		fmt.Println("  " + a.AuthURL("state-token"))
		fmt.Println()
		fmt.Print("Authorization code: ")

		reader := bufio.NewReader(cmd.InOrStdin())
		code, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read authorization code: %w", err)
		}
		if err := a.Exchange(ctx, strings.TrimSpace(code)); err != nil {
			return err
		}

		if email, err := a.Email(ctx); err == nil && email != "" {
			fmt.Printf("Signed in as %s\n", email)
		} else {
			fmt.Println("Signed in.")
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and discard stored tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authn.SignOut(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginClientID, "client-id", "", "Google OAuth client id")
	loginCmd.Flags().StringVar(&loginClientSecret, "client-secret", "", "Google OAuth client secret")
	rootCmd.AddCommand(loginCmd, logoutCmd)
}
