package services_test

import (
	"context"
	"testing"

	"narrasync/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id on empty context")
	}

	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithStage(ctx, "timeline")
	ctx = services.WithCueIndex(ctx, 7)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("run id = %q, %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "timeline" {
		t.Fatalf("stage = %q, %v", stage, ok)
	}
	if cue, ok := services.CueIndexFromContext(ctx); !ok || cue != 7 {
		t.Fatalf("cue = %d, %v", cue, ok)
	}
	if services.WithStage(ctx, "") != ctx {
		t.Fatal("empty stage should return the same context")
	}
}
