package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pfrederiksen/guild-tracker/internal/config"
	"github.com/pfrederiksen/guild-tracker/internal/logger"
	"github.com/pfrederiksen/guild-tracker/internal/notifier"
	"github.com/pfrederiksen/guild-tracker/internal/scraper"
	"github.com/pfrederiksen/guild-tracker/internal/storage"
	"github.com/pfrederiksen/guild-tracker/internal/tracker"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	ExitSuccess    = 0
	ExitError      = 1
	ExitSaveFailed = 2
)

// options holds the raw flag values of one command invocation
type options struct {
	configPath string
	format     string
	verbose    bool
	logLevel   string
	dryRun     bool

	sourceURL       string
	stateFile       string
	webhookURL      string
	webhookUsername string
	timeout         time.Duration
	userAgent       string
	lang            string

	sortOrder string
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "guild-tracker",
		Short: "Report guild joins, leaves and transfers from a game roster page",
		Long: `A CLI tool that scrapes a game server's player roster, compares each
player's guild with the last known state and reports joins, leaves and
transfers to a Discord webhook. Players missing from the page are left
untouched. The first run only records a baseline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrack(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	pf.StringVar(&opts.stateFile, "state-file", storage.DefaultPath, "Path to the persisted roster state (env: GUILD_TRACKER_STATE_FILE)")
	pf.StringVar(&opts.format, "format", "text", "Output format: text or json")
	pf.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging (same as --log-level debug)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error (env: GUILD_TRACKER_LOG_LEVEL)")

	f := cmd.Flags()
	f.StringVar(&opts.sourceURL, "url", scraper.RosterURL, "Roster page URL (env: GUILD_TRACKER_URL)")
	f.StringVar(&opts.webhookURL, "webhook-url", "", "Discord webhook URL (env: DISCORD_WEBHOOK_URL)")
	f.StringVar(&opts.webhookUsername, "webhook-username", "", "Display name for webhook posts")
	f.DurationVar(&opts.timeout, "timeout", scraper.Timeout, "Timeout for each network request")
	f.StringVar(&opts.userAgent, "user-agent", scraper.UserAgent, "User-Agent header for the roster request")
	f.StringVar(&opts.lang, "lang", "en", "Message language: en or de")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Print the webhook post instead of sending it")

	cmd.AddCommand(newStateCmd(opts))

	return cmd
}

// applyFlags overrides configuration values with flags the user set explicitly
func applyFlags(fs *pflag.FlagSet, cfg *config.Config, opts *options) {
	overrides := map[string]func(){
		"url":              func() { cfg.SourceURL = opts.sourceURL },
		"state-file":       func() { cfg.StateFile = opts.stateFile },
		"webhook-url":      func() { cfg.WebhookURL = opts.webhookURL },
		"webhook-username": func() { cfg.WebhookUsername = opts.webhookUsername },
		"timeout":          func() { cfg.Timeout = opts.timeout },
		"user-agent":       func() { cfg.UserAgent = opts.userAgent },
		"lang":             func() { cfg.Language = opts.lang },
		"log-level":        func() { cfg.LogLevel = opts.logLevel },
	}
	for name, apply := range overrides {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			apply()
		}
	}
}

// resolveConfig builds and validates the configuration for a command
func resolveConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	applyFlags(cmd.Flags(), &cfg, opts)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func parseFormat(raw string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(raw))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", raw)
	}
	return format, nil
}

func newLogger(cmd *cobra.Command, cfg config.Config, verbose bool) *logger.Logger {
	level := cfg.Level()
	if verbose {
		level = logger.LevelDebug
	}
	return logger.New(level, cmd.ErrOrStderr())
}

// runTrack is the main command logic
func runTrack(cmd *cobra.Command, opts *options) error {
	format, err := parseFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	log := newLogger(cmd, cfg, opts.verbose)
	defer func() { _ = log.Sync() }()

	store, err := storage.New(cfg.StateFile)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	roster := scraper.New(cfg.ScraperOptions())

	log.Debug("Starting run", logger.Fields{
		"url":        roster.URL(),
		"state_file": store.Path(),
		"timeout":    cfg.Timeout.String(),
		"language":   cfg.Language,
	})

	var n notifier.Notifier
	switch {
	case opts.dryRun:
		n = notifier.NewDryRunNotifier(cmd.OutOrStdout())
	case cfg.NotificationsEnabled():
		discord, err := notifier.NewDiscordNotifier(cfg.WebhookURL, cfg.WebhookUsername, cfg.Timeout)
		if err != nil {
			return fmt.Errorf("initializing notifier: %w", err)
		}
		n = discord
	default:
		log.Warn("No webhook configured, changes will only be logged", logger.Fields{"env": "DISCORD_WEBHOOK_URL"}, nil)
	}

	t := tracker.New(
		roster,
		store,
		n,
		tracker.WithLanguage(cfg.Lang()),
		tracker.WithLogger(log),
		tracker.WithMetrics(logger.NewMetrics()),
	)

	result, err := t.Run(cmd.Context())
	if err != nil {
		return err
	}

	if err := WriteOutput(cmd.OutOrStdout(), newOutputResult(result), format, opts.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// ExitCode maps a command error to the process exit status
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var saveErr *storage.SaveError
	if errors.As(err, &saveErr) {
		return ExitSaveFailed
	}
	return ExitError
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitCode(err))
	}
}
