// Package cmd provides CLI commands for bbooks.
package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shweproperty/buildingbooks/pkg/api"
	"github.com/shweproperty/buildingbooks/pkg/config"
	"github.com/shweproperty/buildingbooks/pkg/controller"
	"github.com/shweproperty/buildingbooks/pkg/history"
	"github.com/shweproperty/buildingbooks/pkg/settings"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bbooks",
	Short: "Property accounting invoice management",
	Long: `bbooks is a CLI client for the building accounting backend.

It manages the invoice workflow for a building: listing invoices with
derived balances and payment statuses, applying credits and discounts,
recording payments (each previewed before commit), and printing invoice
statements.

Example:
  bbooks login admin
  bbooks invoices --start 2026-08-01 --end 2026-08-31
  bbooks pay 42 --account 3 --amount 150000
  bbooks print 42`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(buildingsCmd)
	rootCmd.AddCommand(invoicesCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(applyCreditCmd)
	rootCmd.AddCommand(applyDiscountCmd)
	rootCmd.AddCommand(payCmd)
	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(historyCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "" // Will use default .env loading
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}

// loadConfig loads and validates the base configuration.
func loadConfig(required ...string) *config.Config {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")
	exitOnError(cfg.Validate(required...), "invalid configuration")
	return cfg
}

// openSettings opens the durable settings store under the data directory.
func openSettings(cfg *config.Config) *settings.Store {
	store, err := settings.Open(cfg.SettingsPath())
	exitOnError(err, "failed to open settings store")
	return store
}

// newClient builds an API client, restoring the stored login session.
func newClient(cfg *config.Config, store *settings.Store) *api.Client {
	client := api.NewClient(api.ClientConfig{
		BaseURL:    cfg.API.URL,
		BuildingID: cfg.API.BuildingID,
	})
	if token, _, userID, ok := store.Session(); ok {
		client.SetAccessToken(token)
		client.SetUserID(userID)
	}
	return client
}

// appContext bundles the wiring every invoice command needs.
type appContext struct {
	cfg        *config.Config
	store      *settings.Store
	client     *api.Client
	controller *controller.Controller

	histConn *history.Connection
}

// newAppContext wires config, settings, client, posting history, and the
// screen controller. Call close when done.
func newAppContext() *appContext {
	cfg := loadConfig("api.url", "api.buildingId", "local.dataDir")
	store := openSettings(cfg)
	client := newClient(cfg, store)

	var recorder *history.Recorder
	conn, err := history.Open(cfg.HistoryPath())
	if err != nil {
		// History is a secondary concern; run without it.
		slog.Warn("posting history unavailable", "error", err)
	} else {
		recorder = history.NewRecorder(conn)
	}

	ctrl := controller.New(controller.Config{
		Backend:    client,
		Settings:   store,
		Recorder:   recorder,
		BuildingID: cfg.API.BuildingID,
	})

	return &appContext{
		cfg:        cfg,
		store:      store,
		client:     client,
		controller: ctrl,
		histConn:   conn,
	}
}

func (a *appContext) close() {
	if a.histConn != nil {
		_ = a.histConn.Close()
	}
	_ = a.store.Close()
}

// confirm prompts on stdin unless the command was run with --yes.
func confirm(assumeYes bool, prompt string) bool {
	if assumeYes {
		return true
	}
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
