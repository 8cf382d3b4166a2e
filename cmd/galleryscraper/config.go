package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"galleryscraper/pkg/config"
	"galleryscraper/pkg/ui"
)

const defaultConfigPath = ".galleryscraper.yaml"

const exampleConfig = `# galleryscraper configuration file
#
# Every option can also be set through environment variables prefixed with
# GALLERYSCRAPER_, for example GALLERYSCRAPER_THREADS or GALLERYSCRAPER_DENYLIST.
# Command line flags take precedence over both.

scrape:
  # Where images are saved (the DIR argument overrides this)
  output_dir: "."

  # Parallel download workers
  # Range: 1-64
  threads: 4

  # Leave files that already exist untouched instead of overwriting them
  skip_duplicates: false

http:
  # Per-request timeout
  timeout: 30s

  # Browser-like user agent sent with every request
  user_agent: ""

  # Retries for network errors, 429 and 5xx responses
  max_retries: 5

  # Base delay between retries
  retry_delay: 2s

classifier:
  # Smallest group of similar images that counts as a gallery
  min_group_size: 2

  # Images with known dimensions below this area (px²) are ignored
  min_area: 2500

  # Images whose id or class contains one of these tokens are never downloaded
  denylist:
    - icon
    - logo
    - avatar
    - thumbnail-nav
    - ad
    - sprite
    - banner
    - emoji
    - spinner
    - pixel

logging:
  # Log level: debug, info, warning, error
  level: "info"

  # Also write logs to this file (optional)
  file: ""

  # Suppress console output except errors
  quiet: false
`

// newConfigCmd builds the config command and its subcommands
func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
		Long: `Manage galleryscraper configuration files.

Configuration is loaded from, in order of priority:
  - Command line flags
  - Environment variables (GALLERYSCRAPER_*)
  - .env files
  - Configuration file
  - Default values`,
	}

	initCmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Create an example configuration file",
		Long: `Create an example configuration file with all available options.

The file is written to PATH, the --config path, or ./.galleryscraper.yaml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configFile
			if len(args) > 0 {
				path = args[0]
			}
			return runConfigInit(cmd, path)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd, opts.configFile)
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long: `Validate the configuration for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Output and log directory accessibility`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigValidate(cmd, opts.configFile)
		},
	}

	configCmd.AddCommand(initCmd, showCmd, validateCmd)
	return configCmd
}

func runConfigInit(cmd *cobra.Command, path string) error {
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := os.WriteFile(path, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Adjust the thresholds and denylist if needed")
	fmt.Fprintf(out, "2. Run 'galleryscraper config validate -c %s'\n", path)
	fmt.Fprintf(out, "3. Start downloading with 'galleryscraper -c %s URL [DIR]'\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, path string) error {
	cfg, err := config.Resolve(path, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(out)
	fmt.Fprint(out, string(data))

	fmt.Fprintln(out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(out, "1. Command line flags")
	fmt.Fprintln(out, "2. Environment variables (GALLERYSCRAPER_*)")
	if path != "" {
		fmt.Fprintf(out, "3. Configuration file: %s\n", path)
	} else {
		fmt.Fprintln(out, "3. Configuration file: (searched default locations)")
	}
	fmt.Fprintln(out, "4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, path string) error {
	cfg, err := config.Resolve(path, nil)
	if err != nil {
		return err
	}

	var problems []string
	if err := cfg.ValidateSettings(); err != nil {
		problems = append(problems, strings.Split(err.Error(), "\n")...)
	}
	if cfg.Scrape.OutputDir != "" {
		if err := os.MkdirAll(cfg.Scrape.OutputDir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create output directory: %v", err))
		}
	}

	out := cmd.OutOrStdout()
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(out, "  - %s\n", p)
		}
		return fmt.Errorf("configuration has %d error(s)", len(problems))
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  Output directory: %s\n", cfg.Scrape.OutputDir)
	fmt.Fprintf(out, "  Threads: %d\n", cfg.Scrape.Threads)
	fmt.Fprintf(out, "  Timeout: %s\n", cfg.HTTP.Timeout)
	fmt.Fprintf(out, "  Max retries: %d\n", cfg.HTTP.MaxRetries)
	fmt.Fprintf(out, "  Min group size: %d\n", cfg.Classifier.MinGroupSize)
	fmt.Fprintf(out, "  Min area: %d\n", cfg.Classifier.MinArea)
	fmt.Fprintf(out, "  Denylist: %s\n", strings.Join(cfg.Classifier.Denylist, ", "))
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}
