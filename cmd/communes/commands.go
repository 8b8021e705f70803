package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"communes/internal/config"
	"communes/internal/formatter"
	"communes/internal/logger"
	"communes/internal/storage"
	"communes/internal/writer"
	"communes/pkg/checksum"
)

// defaultConfigPath is read when no --config flag is given and it exists.
const defaultConfigPath = "configs/communes.yaml"

type runOptions struct {
	configFile string
	url        string
	baseURL    string
	output     string
	format     string
	archive    string
	logLevel   string
	preview    bool
}

func newRootCommand(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "communes",
		Short: "Historical communes of Haute-Corse extractor",
		Long: `communes reads the list of former communes of Haute-Corse, follows every
merged commune to its own page to collect its INSEE code and coordinates,
and writes one record per commune to a CSV or XLSX file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetOut(out)
	root.SetVersionTemplate("communes {{.Version}}\n")

	root.AddCommand(
		newRunCommand(out),
		newPreviewCommand(out),
		newVerifyCommand(out),
		newVersionCommand(out),
	)

	return root
}

func newRunCommand(out io.Writer) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Extract the records and write the output file",
		Args:  cobra.NoArgs,
		Example: `  communes run
  communes run --config configs/communes.yaml
  communes run --output communes.xlsx --format xlsx
  communes run --archive runs.db --preview`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadRunConfig(&opts, cmd.Flags(), out)
			if err != nil {
				return err
			}

			log := logger.NewLogger(cfg.Crawler.Logging.Level)

			_, err = runExtraction(cmd.Context(), cfg, log, out)

			return err
		},
	}

	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().StringVar(&opts.url, "url", "", "Index page URL (overrides config)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Base URL for commune links (overrides config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file path (overrides config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: csv or xlsx (overrides config)")
	cmd.Flags().StringVar(&opts.archive, "archive", "", "SQLite archive path (overrides config)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "Print the records as a table after writing")

	return cmd
}

func newPreviewCommand(out io.Writer) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print a CSV output file as a table sorted by name",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			records, err := writer.ReadCSVFile(input)
			if err != nil {
				return err
			}

			formatter.SortByName(records)

			fmt.Fprint(out, formatter.FormatRecords(records))
			fmt.Fprintf(out, "\n%d records\n", len(records))

			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", config.DefaultOutputPath, "CSV file to preview")

	return cmd
}

func newVerifyCommand(out io.Writer) *cobra.Command {
	var archivePath, runID, input string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check an output file against the checksum archived for a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(archivePath); err != nil {
				return fmt.Errorf("archive not found: %w", err)
			}

			archive, err := storage.Open(cmd.Context(), archivePath)
			if err != nil {
				return err
			}
			defer archive.Close()

			run, err := archive.GetRun(cmd.Context(), runID)
			if err != nil {
				return err
			}

			path := input
			if path == "" {
				path = run.OutputPath
			}

			fmt.Fprintf(out, "🔍 Verifying %s against run %s\n", path, run.ID)

			if err := checksum.Verify(path, run.Checksum); err != nil {
				return err
			}

			fmt.Fprintf(out, "✅ Checksum matches: %s\n", run.Checksum)

			return nil
		},
	}

	cmd.Flags().StringVar(&archivePath, "archive", "", "SQLite archive path")
	cmd.Flags().StringVar(&runID, "run", "", "Run id to verify against")
	cmd.Flags().StringVarP(&input, "input", "i", "", "File to verify (default: the run's output path)")

	_ = cmd.MarkFlagRequired("archive")
	_ = cmd.MarkFlagRequired("run")

	return cmd
}

func newVersionCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(out, "communes %s\n", version)
		},
	}
}

// loadRunConfig loads the config file (explicit, then default, then built-in
// defaults) and applies the flags that were set on the command line.
func loadRunConfig(opts *runOptions, flags *pflag.FlagSet, out io.Writer) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	switch {
	case opts.configFile != "":
		fmt.Fprintf(out, "⚙️  Loading configuration from: %s\n", opts.configFile)

		cfg, err = config.LoadConfig(opts.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	default:
		if _, statErr := os.Stat(defaultConfigPath); statErr == nil {
			fmt.Fprintf(out, "⚙️  Loading default configuration: %s\n", defaultConfigPath)

			cfg, err = config.LoadConfig(defaultConfigPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load default config: %w", err)
			}
		} else {
			cfg = config.DefaultConfig()
		}
	}

	applyFlagOverrides(cfg, opts, flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	fmt.Fprintf(out, "✅ Configuration: %s\n", cfg)

	return cfg, nil
}

func applyFlagOverrides(cfg *config.Config, opts *runOptions, flags *pflag.FlagSet) {
	if flags.Changed("url") {
		cfg.Crawler.Source.URL = opts.url
	}

	if flags.Changed("base-url") {
		cfg.Crawler.Source.BaseURL = opts.baseURL
	}

	if flags.Changed("output") {
		cfg.Crawler.Output.Path = opts.output
	}

	if flags.Changed("format") {
		cfg.Crawler.Output.Format = opts.format
	}

	if flags.Changed("archive") {
		cfg.Crawler.Output.ArchivePath = opts.archive
	}

	if flags.Changed("log-level") {
		cfg.Crawler.Logging.Level = opts.logLevel
	}

	if flags.Changed("preview") {
		cfg.Crawler.Output.Preview = opts.preview
	}
}
