package main

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func testSettings(t *testing.T) Settings {
	t.Helper()
	return Settings{
		ImageWidth:       180,
		ImageHeight:      100,
		GridRows:         5,
		GridCols:         9,
		QualityThreshold: 30,
		TabScale:         defaultTabScale,
		OutputDir:        t.TempDir(),
	}
}

func TestCutLocal(t *testing.T) {
	settings := testSettings(t)
	store := NewStore()
	pg := NewPuzzleGenerator(settings, NewPromptArtisan(nil, ""), store, nil)

	input := filepath.Join(t.TempDir(), "source.png")
	f, err := os.Create(input)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, noisyImage(300, 200)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	record, err := pg.CutLocal(context.Background(), input, StyleGeometric, 77)
	if err != nil {
		t.Fatal(err)
	}
	if record.PieceCount != 45 {
		t.Fatalf("expected 45 pieces, got %d", record.PieceCount)
	}
	if record.Style != StyleGeometric || record.Grid != [2]int{5, 9} {
		t.Fatalf("unexpected record %+v", record)
	}
	// Local cutting bypasses the quality gate but still records the score.
	if record.Score < 0 || record.Score > 100 {
		t.Fatalf("score %g outside 0-100", record.Score)
	}

	if store.GetPuzzle(record.ID) == nil {
		t.Fatal("record not saved in the store")
	}
	if _, err := os.Stat(filepath.Join(record.Dir, "manifest.json")); err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(record.Dir, "piece_000.png")); err != nil {
		t.Fatalf("pieces not written: %v", err)
	}
}

func TestCutLocalFailedWriteNotPublished(t *testing.T) {
	settings := testSettings(t)
	// The output dir sits under a regular file, so writePuzzle cannot
	// create it. A puzzle that never reached disk must not be listed.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	settings.OutputDir = filepath.Join(blocker, "puzzles")

	store := NewStore()
	pg := NewPuzzleGenerator(settings, NewPromptArtisan(nil, ""), store, nil)

	input := filepath.Join(t.TempDir(), "source.png")
	f, err := os.Create(input)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, noisyImage(300, 200)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, err := pg.CutLocal(context.Background(), input, StyleGeometric, 77); err == nil {
		t.Fatal("expected a write error")
	}
	if got := len(store.ListPuzzles()); got != 0 {
		t.Fatalf("failed write left %d puzzles in the store", got)
	}
}

func TestCutLocalMissingFile(t *testing.T) {
	pg := NewPuzzleGenerator(testSettings(t), NewPromptArtisan(nil, ""), NewStore(), nil)
	if _, err := pg.CutLocal(context.Background(), "does-not-exist.png", StyleClassic, 1); err == nil {
		t.Fatal("expected error for missing input file")
	}
}

func TestRunJobWithoutImageClient(t *testing.T) {
	store := NewStore()
	sse := NewBroadcaster()
	pg := NewPuzzleGenerator(testSettings(t), NewPromptArtisan(nil, ""), store, sse)

	job := store.CreateJob()
	if _, err := pg.RunJob(context.Background(), job, 0.5, StyleClassic, 1); err == nil {
		t.Fatal("expected error when image generation is not configured")
	}

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected job status %s, got %s", StatusFailed, snap.Status)
	}
	if snap.Error == "" {
		t.Fatal("expected the job to record the failure")
	}
}
