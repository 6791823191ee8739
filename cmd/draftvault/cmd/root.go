// Package cmd implements the draftvault command line interface.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"draftvault/internal/auth"
	"draftvault/internal/cloud"
	"draftvault/internal/config"
	"draftvault/internal/manager"
	"draftvault/internal/object/googledrive"
	"draftvault/internal/service"
	"draftvault/internal/store"
)

var (
	cfgFile    string
	recreateDB bool

	settings  config.Settings
	logger    *slog.Logger
	logCloser io.Closer
	st        *store.Store
	authn     *auth.GoogleAuthenticator
	mgr       *manager.Manager
	chapters  *service.ChapterService
	ideas     *service.IdeaService
)

var rootCmd = &cobra.Command{
	Use:   "draftvault",
	Short: "Local-first book writing store with cloud sync",
	Long: `draftvault keeps books, chapters and idea lists in a local SQLite
store and mirrors them to a folder in Google Drive. Every operation works
offline; sync happens explicitly through export, import, push and pull, or
opportunistically after edits when auto sync is on.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		return setup(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		teardown()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default "+config.SettingsPath()+")")
	rootCmd.PersistentFlags().BoolVar(&recreateDB, "recreate-db", false, "destructively recreate the local store when its schema is corrupted")
}

func setup(ctx context.Context) error {
	_ = godotenv.Load()

	var err error
	settings, err = config.Load(cfgFile)
	if err != nil {
		return err
	}
	logger, logCloser = config.SetupLogger(settings)

	st, err = store.Open(settings.DatabasePath(), logger, store.Options{RecreateOnCorruption: recreateDB})
	if err != nil {
		return err
	}

	authn, err = auth.NewGoogle(ctx, st, "urn:ietf:wg:oauth:2.0:oob", logger)
	if err != nil {
		return err
	}

	var cloudClient *cloud.Client
	if settings.SyncEnabled {
		drive, err := googledrive.New(ctx, authn.HTTPClient(ctx))
		if err != nil {
			return err
		}
		cloudClient = cloud.New(drive, settings.AppFolderName, logger)
	}

	mgr = manager.New(st, cloudClient, authn, settings, logger)
	chapters = service.NewChapterService(st, logger, mgr.TriggerAutoSync)
	ideas = service.NewIdeaService(st, logger, mgr.TriggerAutoSync)
	return nil
}

func teardown() {
	if st != nil {
		if err := st.Close(); err != nil && logger != nil {
			logger.Warn("closing store", "error", err)
		}
		st = nil
	}
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
}
