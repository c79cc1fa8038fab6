package importer

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	domain "github.com/mohammadpnp/csv-import/internal/domain/importjob"
)

const maxRawLineLength = 100

type progressJobRepo interface {
	UpdateStage(ctx context.Context, jobID string, stage domain.Stage, details domain.StageDetails) error
	UpdateProgress(ctx context.Context, jobID string, stage domain.Stage, progress domain.Progress, details domain.StageDetails) error
}

// runStats accumulates counters and diagnostics across one job run.
type runStats struct {
	total     int
	processed int
	success   int
	errors    int
	skipped   int
	batches   int

	diagnostics []domain.RowError
}

func (s *runStats) recordRowError(row int, rawLine string, err error) {
	s.errors++
	s.diagnostics = append(s.diagnostics, domain.RowError{
		Row:     row,
		Error:   err.Error(),
		RawLine: truncate(rawLine, maxRawLineLength),
	})
	if len(s.diagnostics) > domain.MaxStoredErrors {
		s.diagnostics = append(s.diagnostics[:0], s.diagnostics[len(s.diagnostics)-domain.MaxStoredErrors:]...)
	}
}

func (s *runStats) recordBatch(result BatchResult) {
	s.batches++
	s.success += result.Written()
	s.skipped += result.Skipped
}

func (s *runStats) progress() domain.Progress {
	return domain.Progress{
		TotalRows:     s.total,
		ProcessedRows: s.processed,
		SuccessCount:  s.success,
		ErrorCount:    s.errors,
	}
}

func (s *runStats) details(message string) domain.StageDetails {
	return domain.StageDetails{
		Message:        message,
		TotalRows:      s.total,
		ProcessedRows:  s.processed,
		SuccessCount:   s.success,
		ErrorCount:     s.errors,
		SkippedCount:   s.skipped,
		BatchesWritten: s.batches,
	}
}

func (s *runStats) rowMessage() string {
	return fmt.Sprintf("Processed %d of %d rows", s.processed, s.total)
}

// progressTracker persists stage transitions and counters. Stage writes and
// checkpoints are unconditional; row ticks are throttled to one per interval.
// The stage never moves backward.
type progressTracker struct {
	repo  progressJobRepo
	jobID string
	stage domain.Stage
	gate  *rate.Sometimes
}

func newProgressTracker(repo progressJobRepo, jobID string, interval time.Duration) *progressTracker {
	gate := &rate.Sometimes{Interval: interval}
	// The first Do always runs; spend it now so ticks wait a full interval.
	gate.Do(func() {})
	return &progressTracker{repo: repo, jobID: jobID, gate: gate}
}

func (t *progressTracker) advance(stage domain.Stage) domain.Stage {
	if t.stage.CanAdvance(stage) {
		t.stage = stage
	}
	return t.stage
}

func (t *progressTracker) Enter(ctx context.Context, stage domain.Stage, details domain.StageDetails) error {
	if err := t.repo.UpdateStage(ctx, t.jobID, t.advance(stage), details); err != nil {
		return fmt.Errorf("update stage %s: %w", stage, err)
	}
	return nil
}

func (t *progressTracker) Checkpoint(ctx context.Context, stage domain.Stage, stats *runStats, message string) error {
	current := t.advance(stage)
	if err := t.repo.UpdateProgress(ctx, t.jobID, current, stats.progress(), stats.details(message)); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

func (t *progressTracker) Tick(ctx context.Context, stats *runStats) error {
	var err error
	t.gate.Do(func() {
		err = t.repo.UpdateProgress(ctx, t.jobID, t.stage, stats.progress(), stats.details(stats.rowMessage()))
	})
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

func (t *progressTracker) Stage() domain.Stage {
	return t.stage
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	n := max
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
