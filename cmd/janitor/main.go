package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmenanno/media-janitor/internal/api"
	"github.com/mmenanno/media-janitor/internal/config"
	"github.com/mmenanno/media-janitor/internal/database"
	"github.com/mmenanno/media-janitor/internal/logging"
)

// Version is set at build time
var Version = "dev"

// app carries what every command needs once the root pre-run has loaded it
type app struct {
	configPath string
	cfg        *config.Config
	db         *database.DB
	client     *api.Client

	out io.Writer
	in  io.Reader
}

func main() {
	a := &app{out: os.Stdout, in: os.Stdin}

	// Ensure database is closed even on panic
	defer func() {
		if r := recover(); r != nil {
			a.close()
			panic(r) // Re-panic after cleanup
		}
	}()

	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "janitor",
		Short: "Media Janitor - Review and clean up flagged media",
		Long: `Media Janitor lists content and requests that the server flagged as old,
large, missing languages or stuck, and lets you protect, exempt, hide or
delete them. Actions are journaled locally.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.out)
	rootCmd.SetIn(a.in)

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "/appdata/config/janitor.yaml", "Path to configuration file")

	issuesCmd := &cobra.Command{
		Use:   "issues",
		Short: "List flagged content and requests",
		Args:  cobra.NoArgs,
		RunE:  a.runIssues,
	}
	issuesCmd.Flags().StringP("filter", "f", "all", "Issue filter (all, old, large, language, request)")
	issuesCmd.Flags().IntP("page", "p", 1, "Page number")

	protectCmd := whitelistActionCmd(a, "protect <id>", "Protect content from cleanup")
	frenchCmd := whitelistActionCmd(a, "french-only <id>", "Mark content as French-only")
	exemptCmd := whitelistActionCmd(a, "exempt <id>", "Exempt content from language checks")
	hideCmd := whitelistActionCmd(a, "hide <request-id>", "Hide a stuck request")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete content or a request",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runDelete,
	}
	deleteCmd.Flags().Bool("keep-arr", false, "Do not delete from Radarr/Sonarr")
	deleteCmd.Flags().Bool("keep-requests", false, "Do not delete the Jellyseerr request")
	deleteCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	addItemFlags(deleteCmd)

	whitelistCmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Whitelist management",
	}
	whitelistListCmd := &cobra.Command{
		Use:   "list [kind]",
		Short: "List whitelist entries",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runWhitelistList,
	}
	whitelistRemoveCmd := &cobra.Command{
		Use:   "remove <kind> <entry-id>",
		Short: "Remove a whitelist entry",
		Args:  cobra.ExactArgs(2),
		RunE:  a.runWhitelistRemove,
	}
	whitelistCmd.AddCommand(whitelistListCmd, whitelistRemoveCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled actions",
		Args:  cobra.NoArgs,
		RunE:  a.runHistory,
	}
	historyCmd.Flags().String("kind", "", "Only show one action kind")
	historyCmd.Flags().String("item", "", "Only show actions on one item id")
	historyCmd.Flags().String("outcome", "", "Only show one outcome")
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum rows")
	historyCmd.Flags().Int("prune", 0, "Delete entries older than this many days first")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the page state server",
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	configValidateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE:  a.runConfigValidate,
	}
	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE:  a.runConfigShow,
	}
	configCmd.AddCommand(configValidateCmd, configShowCmd)

	rootCmd.AddCommand(issuesCmd, protectCmd, frenchCmd, exemptCmd, hideCmd, deleteCmd, whitelistCmd, historyCmd, serveCmd, configCmd)
	return rootCmd
}

func whitelistActionCmd(a *app, use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE:  a.runWhitelistAction,
	}
	cmd.Flags().StringP("duration", "d", "permanent", "Duration (permanent, 1week, 1month, 3months, 6months, 1year, custom)")
	cmd.Flags().String("date", "", "Expiration date for a custom duration (YYYY-MM-DD)")
	addItemFlags(cmd)
	return cmd
}

// addItemFlags narrows the list an item id is looked up in
func addItemFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("filter", "f", "all", "Issue filter used to find the item")
}

// open loads config, logging, the journal and the API client
func (a *app) open() error {
	var err error
	a.cfg, err = config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logging.Init(logging.Config{Level: a.cfg.Log.Level, Format: a.cfg.Log.Format})
	log := logging.Component("cli")

	// Auto-generate config file if it doesn't exist
	if _, err := os.Stat(a.configPath); os.IsNotExist(err) {
		log.Info().Str("path", a.configPath).Msg("config file not found, creating default")
		if err := a.cfg.Save(a.configPath); err != nil {
			log.Warn().Err(err).Msg("failed to save default config")
		}
	}

	a.db, err = database.NewWithConfig(a.cfg.DatabasePath, database.DBConfig{
		MaxOpenConns:    a.cfg.DBMaxOpenConns,
		MaxIdleConns:    a.cfg.DBMaxIdleConns,
		ConnMaxLifetime: a.cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	a.client = api.NewClient(api.Options{
		BaseURL:           a.cfg.Server.URL,
		Token:             a.cfg.Server.Token,
		Timeout:           a.cfg.APITimeout,
		RequestsPerSecond: a.cfg.RequestsPerSecond,
		Burst:             a.cfg.BurstSize,
	})
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
