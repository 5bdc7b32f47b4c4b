package services_test

import (
	"context"
	"testing"

	"cdrip/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithBatchID(ctx, "batch-1")
	ctx = services.WithTrack(ctx, 3)
	ctx = services.WithStage(ctx, "encoding")
	ctx = services.WithJobID(ctx, "job-9")

	if id, ok := services.BatchIDFromContext(ctx); !ok || id != "batch-1" {
		t.Fatalf("unexpected batch id: %v %v", id, ok)
	}
	if track, ok := services.TrackFromContext(ctx); !ok || track != 3 {
		t.Fatalf("unexpected track: %v %v", track, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "encoding" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if jid, ok := services.JobIDFromContext(ctx); !ok || jid != "job-9" {
		t.Fatalf("unexpected job id: %v %v", jid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithTrack(ctx, 0)
	ctx = services.WithBatchID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected blank stage to be ignored")
	}
	if _, ok := services.TrackFromContext(ctx); ok {
		t.Fatal("expected zero track to be ignored")
	}
	if _, ok := services.BatchIDFromContext(ctx); ok {
		t.Fatal("expected blank batch id to be ignored")
	}
}
