package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"galleryscraper/pkg/config"
	"galleryscraper/pkg/logger"
	"galleryscraper/pkg/scraper"
	"galleryscraper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// rootOptions holds the values of the root command's flags
type rootOptions struct {
	configFile     string
	threads        int
	logLevel       string
	logFile        string
	skipDuplicates bool
	quiet          bool
	progress       bool
	notify         bool
	timeout        time.Duration
	retries        int
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	return newRootCommand(&rootOptions{})
}

// newRootCommand builds the command tree with its flags bound to opts
func newRootCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "galleryscraper URL [DIR]",
		Short: "Download the image gallery of a web page",
		Long: `galleryscraper fetches a single web page, works out which of its images
form the gallery, follows each one to its full-size source and saves it
into DIR (default: the current directory).

Navigation icons, logos, avatars and ads are left out. Images that link to
a detail page are resolved to the largest image on that page.`,
		Example: `  # Save a gallery into the current directory
  galleryscraper https://example.com/holiday

  # Eight workers, keep files that already exist
  galleryscraper https://example.com/holiday ./holiday --threads 8 -s

  # Progress bar only, debug log written to a file
  galleryscraper https://example.com/holiday ./holiday -p --log-file scrape.log`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape(cmd, opts, args)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default is ./.galleryscraper.yaml)")

	flags := cmd.Flags()
	flags.IntVar(&opts.threads, "threads", 4, "number of parallel download workers")
	flags.StringVarP(&opts.logLevel, "log-level", "V", "INFO", "log level (INFO, DEBUG, WARNING)")
	flags.StringVar(&opts.logFile, "log-file", "", "also write logs to this file")
	flags.BoolVarP(&opts.skipDuplicates, "skip-duplicates", "s", false, "leave files that already exist untouched")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress console output except errors")
	flags.BoolVarP(&opts.progress, "progress", "p", false, "show a progress bar instead of per-image log lines")
	flags.BoolVar(&opts.notify, "notify", false, "send a desktop notification when finished")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-request HTTP timeout")
	flags.IntVar(&opts.retries, "retries", 5, "retries for failed requests")

	cmd.SetVersionTemplate(`galleryscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.AddCommand(newConfigCmd(opts))

	return cmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

// changedFlags collects only the flags the user set, so that config file
// and environment values are not overridden by flag defaults
func (o *rootOptions) changedFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	f := cmd.Flags()

	if f.Changed("threads") {
		flags["threads"] = o.threads
	}
	if f.Changed("log-level") {
		flags["log-level"] = strings.ToLower(o.logLevel)
	} else if o.progress {
		flags["log-level"] = "warn"
	}
	if f.Changed("log-file") {
		flags["log-file"] = o.logFile
	}
	if f.Changed("skip-duplicates") {
		flags["skip-duplicates"] = o.skipDuplicates
	}
	if f.Changed("quiet") {
		flags["quiet"] = o.quiet
	}
	if f.Changed("timeout") {
		flags["timeout"] = o.timeout
	}
	if f.Changed("retries") {
		flags["retries"] = o.retries
	}

	return flags
}

func runScrape(cmd *cobra.Command, opts *rootOptions, args []string) error {
	flags := opts.changedFlags(cmd)
	flags["url"] = args[0]
	if len(args) > 1 {
		flags["output-dir"] = args[1]
	}

	cfg, err := config.Load(opts.configFile, flags)
	if err != nil {
		return err
	}

	ui.SetQuietMode(cfg.Logging.Quiet)

	runID, err := logger.Initialize(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.InfoWithFields("galleryscraper starting", map[string]interface{}{
		"version": version,
		"url":     cfg.Scrape.URL,
		"dir":     cfg.Scrape.OutputDir,
		"threads": cfg.Scrape.Threads,
	})

	ui.PrintBanner(version)
	ui.PrintInfo("Page", cfg.Scrape.URL)
	ui.PrintInfo("Output", cfg.Scrape.OutputDir)
	ui.PrintInfo("Run", runID)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := scraper.New(cfg, log)
	if opts.progress && !cfg.Logging.Quiet {
		s.SetReporter(ui.NewProgressDisplay("gallery", false))
	}

	summary, err := s.Run(ctx)
	if summary != nil {
		stats := summary.Stats()
		ui.PrintSummary(stats)
		if opts.notify {
			if nerr := ui.NewNotifier().NotifyFinished(stats); nerr != nil {
				log.WithError(nerr).Debug("Desktop notification failed")
			}
		}
	}
	if err != nil {
		log.WithError(err).Error("Scrape failed")
		return err
	}

	log.Info("Scrape completed")
	return nil
}
