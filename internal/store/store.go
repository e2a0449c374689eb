// Package store persists a local journal of pipeline stage invocations.
package store

import (
	"context"

	"github.com/sells-group/mailbox-cli/internal/model"
)

// RunFilter specifies criteria for listing journaled runs.
type RunFilter struct {
	Stage model.Stage
	Limit int
}

// Store is the run-journal persistence interface.
type Store interface {
	CreateRun(ctx context.Context, stage model.Stage, input, output string) (*model.StageRun, error)
	CompleteRun(ctx context.Context, runID string, total, processed, dropped int) error
	FailRun(ctx context.Context, runID string, cause string) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.StageRun, error)

	Migrate(ctx context.Context) error
	Close() error
}
