package history

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"narrasync/internal/services"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// stepClock returns a clock that advances one second per call.
func stepClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestBeginAndFinish(t *testing.T) {
	store := openTestStore(t)
	store.now = stepClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	run, err := store.Begin(ctx, Run{
		SourcePath:   "/videos/lesson01.mp4",
		SubtitlePath: "/subs/lesson01.srt",
		OutputPath:   "/out/lesson01-1a2b3c4d.mp4",
		Voice:        "en-AU-NatashaNeural",
		Speed:        1.2,
	})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if run.ID == "" || run.Status != StatusRunning {
		t.Fatalf("unexpected run %+v", run)
	}

	err = store.Finish(ctx, run.ID, Outcome{
		Cues:           3,
		SpokenSegments: 2,
		SilentSegments: 2,
		Warnings:       []string{"cue 2: synthesis failed", "timing drift 60ms"},
		Drift:          60 * time.Millisecond,
		OutputBytes:    4096,
	})
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != services.StatusSucceeded {
		t.Fatalf("status = %q", got.Status)
	}
	if got.Cues != 3 || got.SpokenSegments != 2 || got.SilentSegments != 2 || got.OutputBytes != 4096 {
		t.Fatalf("unexpected counts %+v", got)
	}
	if len(got.Warnings) != 2 || got.Warnings[1] != "timing drift 60ms" {
		t.Fatalf("warnings = %q", got.Warnings)
	}
	if got.Drift != 60*time.Millisecond {
		t.Fatalf("drift = %s", got.Drift)
	}
	if got.Elapsed() != time.Second {
		t.Fatalf("elapsed = %s", got.Elapsed())
	}
	if got.BatchID != "" || got.ErrorMessage != "" {
		t.Fatalf("unexpected optional fields %+v", got)
	}
}

func TestFinishDerivesStatusFromError(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	tests := []struct {
		err  error
		want string
	}{
		{context.Canceled, services.StatusCanceled},
		{services.ErrValidation, services.StatusInvalid},
		{services.Wrap(services.ErrExternalTool, "tempo", "ffmpeg", "", errors.New("exit 1")), services.StatusFailed},
	}
	for _, tt := range tests {
		run, err := store.Begin(ctx, Run{SourcePath: "a.mp4", SubtitlePath: "a.srt", OutputPath: "o.mp4", Voice: "v", Speed: 1})
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		if err := store.Finish(ctx, run.ID, Outcome{Err: tt.err}); err != nil {
			t.Fatalf("Finish: %v", err)
		}
		got, err := store.Get(ctx, run.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Status != tt.want {
			t.Errorf("error %v: status = %q, want %q", tt.err, got.Status, tt.want)
		}
		if got.ErrorMessage == "" {
			t.Errorf("error %v: message not stored", tt.err)
		}
	}
}

func TestListNewestFirstWithFilters(t *testing.T) {
	store := openTestStore(t)
	store.now = stepClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	var ids []string
	for i := range 4 {
		run, err := store.Begin(ctx, Run{BatchID: "batch-1", SourcePath: "v.mp4", SubtitlePath: "s.srt", OutputPath: "o.mp4", Voice: "v", Speed: 1.2})
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		var outcome Outcome
		if i%2 == 1 {
			outcome.Err = errors.New("boom")
		}
		if err := store.Finish(ctx, run.ID, outcome); err != nil {
			t.Fatalf("Finish: %v", err)
		}
		ids = append(ids, run.ID)
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 || all[0].ID != ids[3] || all[3].ID != ids[0] {
		t.Fatalf("unexpected order %v", all)
	}
	if all[0].BatchID != "batch-1" {
		t.Fatalf("batch id = %q", all[0].BatchID)
	}

	limited, err := store.List(ctx, 2)
	if err != nil || len(limited) != 2 {
		t.Fatalf("limited list = %d, %v", len(limited), err)
	}

	failed, err := store.List(ctx, 0, services.StatusFailed)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(failed) != 2 {
		t.Fatalf("expected 2 failed runs, got %d", len(failed))
	}
}

func TestGetMissingRun(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	run, err := first.Begin(context.Background(), Run{SourcePath: "a", SubtitlePath: "b", OutputPath: "c", Voice: "v", Speed: 1})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	_ = first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	got, err := second.Get(context.Background(), run.ID)
	if err != nil || got.Status != StatusRunning {
		t.Fatalf("expected persisted running run, got %+v %v", got, err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(" "); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestRetryOnBusy(t *testing.T) {
	attempts := 0
	err := retryOnBusy(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked (SQLITE_BUSY)")
		}
		return nil
	})
	if err != nil || attempts != 3 {
		t.Fatalf("attempts = %d err = %v", attempts, err)
	}

	attempts = 0
	err = retryOnBusy(context.Background(), func() error {
		attempts++
		return sql.ErrConnDone
	})
	if !errors.Is(err, sql.ErrConnDone) || attempts != 1 {
		t.Fatalf("non-busy errors must not retry: attempts=%d err=%v", attempts, err)
	}
}
