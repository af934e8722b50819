// Package cli defines the kiosk command tree. Running kiosk with no
// subcommand starts the TUI; the subcommands cover headless use on
// terminals without a camera operator present.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/returnloop/kiosk/internal/api"
	"github.com/returnloop/kiosk/internal/app"
	"github.com/returnloop/kiosk/internal/config"
	"github.com/returnloop/kiosk/internal/session"
)

// Version information (set by build flags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "kiosk",
	Short: "Terminal client for the product returns service",
	Long: `kiosk - Terminal client for the product returns service

Scan a product barcode with the attached camera, attach photo or video
evidence, and submit the return request for review. Staff accounts get an
admin dashboard with search, statistics, and status updates.

Run without a subcommand to start the interactive interface.`,
	RunE:         runTUI,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "override config path (default ~/.config/kiosk/config.toml)")
	rootCmd.Flags().Int("poll", 0, "dashboard refresh interval in seconds")
}

func runTUI(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	poll, _ := cmd.Flags().GetInt("poll")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{ConfigPath: configPath}
	if poll > 0 {
		opts.PollEvery = poll
	}
	return app.Run(ctx, opts)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kiosk %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// env bundles the pieces every headless subcommand needs.
type env struct {
	cfg      config.Config
	log      *slog.Logger
	tokens   *session.SQLiteStore
	client   *api.Client
	closeLog func()
}

func newEnv(cmd *cobra.Command) (*env, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, closeLog := app.OpenLogger(cfg)

	tokens, err := session.NewSQLiteStore(cfg.SessionDBPath())
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("open session store: %w", err)
	}

	client, err := api.NewClient(cfg.APIBase, tokens, logger)
	if err != nil {
		tokens.Close()
		closeLog()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	return &env{cfg: cfg, log: logger, tokens: tokens, client: client, closeLog: closeLog}, nil
}

func (e *env) Close() {
	e.tokens.Close()
	e.closeLog()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
