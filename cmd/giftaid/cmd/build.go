package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"giftaid-schedule-builder/cmd/giftaid/config"
	"giftaid-schedule-builder/internal/pipeline"
	"giftaid-schedule-builder/internal/writer"
	"giftaid-schedule-builder/pkg/errors"
	"giftaid-schedule-builder/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the build command
var (
	transactionsFile string
	declarationsFile string
	outputsDir       string
	outputFormat     string
	maxPages         int
	showProgress     bool
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a gift aid schedule from transactions and declarations",
	Long: `Build reads a bank transaction export and a donor declaration register,
matches transactions to declarations by statement reference, and writes a
date-stamped output directory containing the HMRC schedule, an audit log, a
manual-handling list for ambiguous matches, and copies of both input files.

Examples:
  # Conventional file layout (transactions.csv and declarations.csv in cwd)
  giftaid build

  # Explicit input files and a csv schedule
  giftaid build --transactions bank_export.csv --declarations register.csv --output=csv

  # Allow a second schedule page instead of deferring overflow
  giftaid build --max-pages 2`,

	PreRunE: validateBuildFlags,
	RunE:    runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&transactionsFile, "transactions", "t", "transactions.csv", "path to the bank transaction export CSV")
	buildCmd.Flags().StringVarP(&declarationsFile, "declarations", "d", "declarations.csv", "path to the donor declaration register CSV")
	buildCmd.Flags().StringVar(&outputsDir, "outputs-dir", "outputs", "directory run output folders are created in")
	buildCmd.Flags().StringVarP(&outputFormat, "output", "o", "xlsx", "schedule format: xlsx or csv")
	buildCmd.Flags().IntVar(&maxPages, "max-pages", 1, "maximum schedule pages per run; overflow is deferred to the next run")
	buildCmd.Flags().BoolVar(&showProgress, "progress", true, "show progress on the terminal")

	viper.BindPFlag("transactions", buildCmd.Flags().Lookup("transactions"))
	viper.BindPFlag("declarations", buildCmd.Flags().Lookup("declarations"))
	viper.BindPFlag("outputs-dir", buildCmd.Flags().Lookup("outputs-dir"))
	viper.BindPFlag("output", buildCmd.Flags().Lookup("output"))
	viper.BindPFlag("max-pages", buildCmd.Flags().Lookup("max-pages"))
	viper.BindPFlag("progress", buildCmd.Flags().Lookup("progress"))
}

func validateBuildFlags(cmd *cobra.Command, args []string) error {
	// Values may be overridden from config file or GIFTAID_* environment
	transactionsFile = viper.GetString("transactions")
	declarationsFile = viper.GetString("declarations")
	outputsDir = viper.GetString("outputs-dir")
	outputFormat = viper.GetString("output")
	maxPages = viper.GetInt("max-pages")
	showProgress = viper.GetBool("progress")

	format := writer.Format(strings.ToLower(outputFormat))
	if format != writer.FormatXLSX && format != writer.FormatCSV {
		return errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"output",
			outputFormat,
			nil,
		).WithSuggestion("Use --output=xlsx if you use Excel or LibreOffice, or --output=csv for a plain-text schedule")
	}
	outputFormat = string(format)

	if maxPages < 1 {
		return errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"max-pages",
			maxPages,
			nil,
		).WithSuggestion("max-pages must be at least 1")
	}

	for _, path := range []string{transactionsFile, declarationsFile} {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return errors.FileError(errors.CodeFileNotFound, path, err).
					WithSuggestion("Check the --transactions and --declarations paths")
			}
			return errors.FileError(errors.CodeFilePermission, path, err)
		}
	}

	return nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	// Errors are rendered by our handler; keep cobra from repeating them
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := configureLogging(); err != nil {
		return err
	}

	status := logger.NewStatusPrinter(os.Stdout, showProgress && !verbose)

	pipelineConfig := config.CreatePipelineConfig(
		transactionsFile,
		declarationsFile,
		outputsDir,
		writer.Format(outputFormat),
		maxPages,
	)

	summary, err := pipeline.New(pipelineConfig, status).Run(context.Background())
	if err != nil {
		status.Clear()
		handler := NewCLIErrorHandler()
		os.Exit(handler.HandleError(err))
	}

	status.Clear()
	printSummary(summary)
	return nil
}

// configureLogging swaps the global logger for a verbose one when asked.
func configureLogging() error {
	logConfig := logger.DefaultConfig()
	if verbose {
		logConfig = logger.VerboseConfig()
	}

	log, err := logger.NewLogger(logConfig)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "logging", logConfig, err)
	}
	logger.SetGlobalLogger(log)
	return nil
}

// printSummary tells the user what was produced and what to do next.
func printSummary(summary *pipeline.RunSummary) {
	fmt.Printf("Done. Files written to:\n%s\n", summary.RunDirectory)
	fmt.Println("Please find within that folder:")
	items := []string{
		fmt.Sprintf("The completed gift aid schedule (%d donation(s) across %d page(s))", summary.Scheduled, summary.Pages),
		"A list of transactions that may be gift aidable, but require attention (transactions_that_need_manual_handling.txt)",
		"A log, detailing what was done with each row of the transactions file (transactions_log.txt)",
		"Copies of both input files",
	}
	for _, item := range items {
		fmt.Printf("\t- %s\n", item)
	}

	if summary.ManualReview > 0 {
		fmt.Printf("\n%d transaction(s) need manual handling before the schedule can be submitted.\n", summary.ManualReview)
	}
	if summary.Deferred > 0 {
		fmt.Printf("\n%d gift-aidable transaction(s) did not fit in this run's schedule and were deferred. "+
			"Once this claim is submitted, remove the scheduled rows from the transactions file and rerun to pick them up.\n",
			summary.Deferred)
	}

	fmt.Println("\nAfter you've checked that the schedule looks okay, and resolved any transactions" +
		"\nlisted in transactions_that_need_manual_handling.txt, you can upload the schedule" +
		"\nto make a gift aid claim here: https://www.gov.uk/claim-gift-aid-online")
}
