// Package config assembles component configurations from CLI flag values.
package config

import (
	"giftaid-schedule-builder/internal/pipeline"
	"giftaid-schedule-builder/internal/scheduler"
	"giftaid-schedule-builder/internal/writer"
)

// CreateSchedulerConfig builds the scheduler configuration for a run.
func CreateSchedulerConfig(maxPages int) *scheduler.Config {
	cfg := scheduler.DefaultConfig()
	cfg.MaxPages = maxPages
	return cfg
}

// CreateWriterConfig builds the writer configuration for a run.
func CreateWriterConfig(outputsDir string, format writer.Format) *writer.Config {
	return &writer.Config{
		OutputsDir: outputsDir,
		Format:     format,
	}
}

// CreatePipelineConfig assembles the full pipeline configuration.
func CreatePipelineConfig(transactionsPath, declarationsPath, outputsDir string, format writer.Format, maxPages int) *pipeline.Config {
	return &pipeline.Config{
		TransactionsPath: transactionsPath,
		DeclarationsPath: declarationsPath,
		Scheduler:        CreateSchedulerConfig(maxPages),
		Writer:           CreateWriterConfig(outputsDir, format),
	}
}
