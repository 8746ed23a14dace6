package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var loginPassword string

// loginCmd represents the login command.
var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Authenticate and store the session",
	Long: `Authenticate against the backend and store the session token locally.

The password is read from --password or the BBOOKS_PASSWORD environment
variable.

Example:
  bbooks login admin --password secret`,
	Args: cobra.ExactArgs(1),
	Run:  runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password (defaults to BBOOKS_PASSWORD)")
}

func runLogin(cmd *cobra.Command, args []string) {
	username := args[0]
	password := loginPassword
	if password == "" {
		password = os.Getenv("BBOOKS_PASSWORD")
	}
	if password == "" {
		exitOnError(fmt.Errorf("no password given"), "missing credentials")
	}

	cfg := loadConfig("api.url")
	store := openSettings(cfg)
	defer store.Close()

	client := newClient(cfg, store)
	resp, err := client.Login(context.Background(), username, password)
	exitOnError(err, "login failed")

	err = store.SetSession(resp.AccessToken, resp.Username, resp.User.ID)
	exitOnError(err, "failed to store session")

	slog.Info("logged in", "username", resp.Username, "user_id", resp.User.ID)
	fmt.Printf("Logged in as %s\n", resp.Username)
}
