package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/mailbox-cli/internal/model"
	"github.com/sells-group/mailbox-cli/internal/store"
)

// openJournal opens the run journal. Journal trouble must never block
// pipeline work, so failures are logged and a nil store is returned;
// the record helpers below are nil-safe.
func openJournal(ctx context.Context) store.Store {
	st, err := store.NewSQLite(cfg.Journal.Path)
	if err != nil {
		zap.L().Warn("run journal unavailable", zap.String("path", cfg.Journal.Path), zap.Error(err))
		return nil
	}
	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("run journal migration failed", zap.Error(err))
		_ = st.Close()
		return nil
	}
	return st
}

func closeJournal(st store.Store) {
	if st != nil {
		_ = st.Close()
	}
}

func journalStart(ctx context.Context, st store.Store, stage model.Stage, input, output string) *model.StageRun {
	if st == nil {
		return nil
	}
	run, err := st.CreateRun(ctx, stage, input, output)
	if err != nil {
		zap.L().Warn("journal run create failed", zap.Error(err))
		return nil
	}
	return run
}

func journalComplete(ctx context.Context, st store.Store, run *model.StageRun, total, processed, dropped int) {
	if st == nil || run == nil {
		return
	}
	if err := st.CompleteRun(ctx, run.ID, total, processed, dropped); err != nil {
		zap.L().Warn("journal run complete failed", zap.Error(err))
	}
}

func journalFail(ctx context.Context, st store.Store, run *model.StageRun, cause error) {
	if st == nil || run == nil {
		return
	}
	if err := st.FailRun(ctx, run.ID, cause.Error()); err != nil {
		zap.L().Warn("journal run fail-mark failed", zap.Error(err))
	}
}
