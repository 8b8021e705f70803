package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"

	"communes/internal/config"
	"communes/internal/crawler"
	"communes/internal/extractor"
	"communes/internal/formatter"
	"communes/internal/logger"
	"communes/internal/models"
	"communes/internal/reconciler"
	"communes/internal/storage"
	"communes/internal/writer"
	"communes/pkg/checksum"
)

// runReport summarizes a finished extraction.
type runReport struct {
	Run     storage.Run
	Records []models.EntityRecord
}

// runExtraction fetches the index page, reconciles the merger table, writes
// the output file and, when configured, archives the run. Nothing is written
// when the index page does not have the expected layout.
func runExtraction(ctx context.Context, cfg *config.Config, log *logger.Logger, out io.Writer) (*runReport, error) {
	runID := uuid.New().String()
	started := time.Now()
	log = log.With("run_id", runID)

	printHeader(out, cfg)

	fallback := models.Coordinates{
		Latitude:  cfg.Crawler.Region.DefaultLatitude,
		Longitude: cfg.Crawler.Region.DefaultLongitude,
	}

	fetcher := crawler.NewFetcher(&cfg.Crawler.Fetch, log)
	defer fetcher.Log().LogSummary(log)

	resolver, err := crawler.NewResolver(fetcher,
		extractor.New(cfg.Crawler.Region.CodePrefix, fallback),
		cfg.Crawler.Source.GetBaseURL(), fallback)
	if err != nil {
		return nil, err
	}

	result, err := reconciler.New(fetcher, resolver, log).Run(ctx, cfg.Crawler.Source.URL)
	if err != nil {
		return nil, fmt.Errorf("no output written: %w", err)
	}

	records := result.EntityRecords()
	outputPath := cfg.Crawler.Output.Path

	// cancellation after the last row still must not produce a file
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("no output written: %w", err)
	}

	w, err := writer.New(cfg.Crawler.Output.Format)
	if err != nil {
		return nil, err
	}

	if err := w.WriteFile(outputPath, records); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	sum, err := checksum.File(outputPath)
	if err != nil {
		return nil, err
	}

	log.Info(fmt.Sprintf("✅ Saved %d records to: %s", len(records), outputPath), "sha256", sum)

	accepted, skipped, failed := result.Counts()
	report := &runReport{
		Run: storage.Run{
			ID:         runID,
			SourceURL:  cfg.Crawler.Source.URL,
			OutputPath: outputPath,
			Format:     cfg.Crawler.Output.Format,
			Checksum:   sum,
			Accepted:   accepted,
			Skipped:    skipped,
			Failed:     failed,
			StartedAt:  started,
			FinishedAt: time.Now(),
		},
		Records: records,
	}

	if path := cfg.Crawler.Output.ArchivePath; path != "" {
		if err := archiveRun(ctx, path, report.Run, records, result.MergerEvents()); err != nil {
			return nil, err
		}

		log.Info(fmt.Sprintf("💾 Archived run to: %s", path))
	}

	if cfg.Crawler.Output.Preview {
		sorted := slices.Clone(records)
		formatter.SortByName(sorted)
		fmt.Fprint(out, "\n"+formatter.FormatRecords(sorted))
	}

	fmt.Fprintf(out, "\n✨ Extraction complete: %d records, %d accepted, %d skipped, %d failed rows\n",
		len(records), accepted, skipped, failed)

	return report, nil
}

func archiveRun(ctx context.Context, path string, run storage.Run, records []models.EntityRecord, mergers []models.MergerEvent) error {
	archive, err := storage.Open(ctx, path)
	if err != nil {
		return err
	}
	defer archive.Close()

	if err := archive.SaveRun(ctx, run, records, mergers); err != nil {
		return fmt.Errorf("failed to archive run: %w", err)
	}

	return nil
}

func printHeader(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "🕷️  Haute-Corse Communes Extractor")
	fmt.Fprintf(out, "Source: %s\n", cfg.Crawler.Source.URL)
	fmt.Fprintf(out, "Region prefix: %s\n", cfg.Crawler.Region.CodePrefix)
	fmt.Fprintf(out, "Output: %s (%s format)\n", cfg.Crawler.Output.Path, cfg.Crawler.Output.Format)
	fmt.Fprintln(out)
}
