// Package pipeline coordinates a complete schedule run: load both CSV
// inputs, match transactions to declarations, assemble the schedule, and
// write the output directory.
package pipeline

import (
	"context"

	"giftaid-schedule-builder/internal/matcher"
	"giftaid-schedule-builder/internal/models"
	"giftaid-schedule-builder/internal/parsers"
	"giftaid-schedule-builder/internal/scheduler"
	"giftaid-schedule-builder/internal/writer"
	"giftaid-schedule-builder/pkg/logger"

	"github.com/google/uuid"
)

// Config holds everything one run needs.
type Config struct {
	TransactionsPath string
	DeclarationsPath string

	Scheduler *scheduler.Config
	Writer    *writer.Config
}

// DefaultConfig returns the conventional file layout: both inputs in the
// working directory, outputs under ./outputs, a single xlsx schedule page.
func DefaultConfig() *Config {
	return &Config{
		TransactionsPath: "transactions.csv",
		DeclarationsPath: "declarations.csv",
		Scheduler:        scheduler.DefaultConfig(),
		Writer:           writer.DefaultConfig(),
	}
}

// RunSummary reports what a completed run did, for display to the user.
type RunSummary struct {
	RunID        string
	RunDirectory string

	Transactions int
	Declarations int

	Scheduled    int
	Pages        int
	Unmatched    int
	Ineligible   int
	ManualReview int
	Deferred     int
}

// Pipeline executes schedule runs.
type Pipeline struct {
	config *Config
	status *logger.StatusPrinter
	logger logger.Logger
}

// New creates a pipeline. The status printer may be nil when no terminal
// progress is wanted.
func New(config *Config, status *logger.StatusPrinter) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}

	return &Pipeline{
		config: config,
		status: status,
		logger: logger.GetGlobalLogger().WithComponent("pipeline"),
	}
}

// Run executes one complete schedule run and returns its summary. Any error
// aborts the run before artifacts are finalised; validation errors come back
// as an *errors.ErrorSummary covering every bad row.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	runID := uuid.NewString()
	log := p.logger.WithField("run_id", runID)
	log.Info("Starting schedule run")

	p.progress("Reading transactions...")
	transactions, err := p.loadTransactions(ctx)
	if err != nil {
		return nil, err
	}

	p.progress("Reading declarations...")
	declarations, err := p.loadDeclarations(ctx)
	if err != nil {
		return nil, err
	}

	p.progress("Finding gift-aidable transactions...")
	engine := matcher.NewEngine(declarations)
	builder, err := scheduler.NewBuilder(engine, p.config.Scheduler)
	if err != nil {
		return nil, err
	}
	result := builder.Build(transactions)

	p.progress("Writing output files...")
	w, err := writer.New(p.config.Writer)
	if err != nil {
		return nil, err
	}
	runDir, err := w.WriteRun(result, runID, p.config.TransactionsPath, p.config.DeclarationsPath)
	if err != nil {
		return nil, err
	}
	p.progress("")

	summary := &RunSummary{
		RunID:        runID,
		RunDirectory: runDir,
		Transactions: len(transactions),
		Declarations: len(declarations),
		Scheduled:    result.ScheduledRows(),
		Pages:        len(result.Pages),
		Unmatched:    result.Unmatched,
		Ineligible:   result.Ineligible,
		ManualReview: len(result.ManualReview),
		Deferred:     len(result.Deferred),
	}

	log.WithFields(logger.Fields{
		"run_dir":       runDir,
		"scheduled":     summary.Scheduled,
		"manual_review": summary.ManualReview,
		"deferred":      summary.Deferred,
	}).Info("Schedule run completed")

	return summary, nil
}

func (p *Pipeline) loadTransactions(ctx context.Context) ([]*models.Transaction, error) {
	parser, err := parsers.NewTransactionsParser(nil)
	if err != nil {
		return nil, err
	}
	return parser.ParseTransactionsWithContext(ctx, p.config.TransactionsPath)
}

func (p *Pipeline) loadDeclarations(ctx context.Context) ([]*models.Declaration, error) {
	parser, err := parsers.NewDeclarationsParser(nil)
	if err != nil {
		return nil, err
	}
	return parser.ParseDeclarationsWithContext(ctx, p.config.DeclarationsPath)
}

func (p *Pipeline) progress(message string) {
	if p.status != nil {
		p.status.Update(message)
	}
}
