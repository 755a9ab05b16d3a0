package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"path/filepath"
	"time"
)

// PuzzleGenerator drives the full pipeline: prompt and image generation,
// quality gating, cutting and packaging. Rejected images are retried here;
// the cutter itself never retries.
type PuzzleGenerator struct {
	settings Settings
	artisan  *PromptArtisan
	guardian *QualityGuardian
	store    *Store
	sse      *Broadcaster

	// maxAttempts bounds image-generation retries per requested puzzle.
	maxAttempts int

	stats struct {
		attempts, accepted, rejected, failed int
		start                                time.Time
	}
}

// NewPuzzleGenerator wires the pipeline. artisan may have a nil image client
// when only local cutting is used.
func NewPuzzleGenerator(settings Settings, artisan *PromptArtisan, store *Store, sse *Broadcaster) *PuzzleGenerator {
	return &PuzzleGenerator{
		settings:    settings,
		artisan:     artisan,
		guardian:    &QualityGuardian{Threshold: settings.QualityThreshold},
		store:       store,
		sse:         sse,
		maxAttempts: 10,
	}
}

// GeneratePuzzles runs the pipeline until count puzzles are accepted or the
// context is cancelled, then logs a summary.
func (pg *PuzzleGenerator) GeneratePuzzles(ctx context.Context, count int, complexity float64, style CuttingStyle, seed uint64) error {
	pg.stats.start = time.Now()
	log.Printf("generating %d puzzles (style %s, grid %dx%d, complexity %.2f)",
		count, style, pg.settings.GridRows, pg.settings.GridCols, complexity)

	created := 0
	for created < count {
		if err := ctx.Err(); err != nil {
			return err
		}
		job := pg.store.CreateJob()
		record, err := pg.RunJob(ctx, job, complexity, style, seed+uint64(created))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("attempt failed: %v", err)
			continue
		}
		created++
		log.Printf("puzzle %s created (%d pieces, score %.1f)", record.ID, record.PieceCount, record.Score)
	}

	pg.logSummary()
	return nil
}

// RunJob drives a single job through the pipeline, retrying rejected images
// up to maxAttempts times. Progress is broadcast to SSE subscribers.
func (pg *PuzzleGenerator) RunJob(ctx context.Context, job *Job, complexity float64, style CuttingStyle, seed uint64) (*PuzzleRecord, error) {
	if pg.artisan == nil || pg.artisan.gemini == nil {
		return nil, pg.failJob(job, fmt.Errorf("image generation not configured"))
	}

	for attempt := 1; attempt <= pg.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, pg.failJob(job, err)
		}
		pg.stats.attempts++
		job.Update(func(j *Job) { j.Attempts = attempt })

		prompt := pg.artisan.GeneratePrompt(complexity)
		pg.setStatus(job, StatusGeneratingImage, func(j *Job) { j.Prompt = prompt })

		data, err := pg.artisan.CreateImage(ctx, prompt)
		if err != nil {
			pg.stats.failed++
			log.Printf("image generation failed: %v", err)
			continue
		}

		img, err := decodeImage(data)
		if err != nil {
			pg.stats.failed++
			log.Printf("decoding generated image failed: %v", err)
			continue
		}
		src := resizeTo(img, pg.settings.ImageWidth, pg.settings.ImageHeight)

		pg.setStatus(job, StatusQualityCheck, nil)
		metrics := pg.guardian.Evaluate(src)
		if !metrics.PassesThreshold(pg.guardian.Threshold) {
			pg.stats.rejected++
			log.Printf("image rejected (score %.1f): %v",
				metrics.OverallScore, pg.guardian.FailureReasons(metrics))
			continue
		}
		job.Update(func(j *Job) { j.Score = metrics.OverallScore })

		pg.setStatus(job, StatusCuttingPieces, nil)
		record, err := pg.cutAndWrite(ctx, src, prompt, complexity, style, seed, metrics)
		if err != nil {
			return nil, pg.failJob(job, err)
		}

		pg.stats.accepted++
		pg.setStatus(job, StatusCompleted, func(j *Job) { j.PuzzleID = record.ID })
		return record, nil
	}

	pg.stats.failed++
	return nil, pg.failJob(job, fmt.Errorf("no acceptable image after %d attempts", pg.maxAttempts))
}

// CutLocal cuts an already-available image file, bypassing generation and
// the quality gate.
func (pg *PuzzleGenerator) CutLocal(ctx context.Context, inputPath string, style CuttingStyle, seed uint64) (*PuzzleRecord, error) {
	img, err := loadImageFile(inputPath)
	if err != nil {
		return nil, err
	}
	src := resizeTo(img, pg.settings.ImageWidth, pg.settings.ImageHeight)
	metrics := pg.guardian.Evaluate(src)
	return pg.cutAndWrite(ctx, src, "", 0, style, seed, metrics)
}

// cutAndWrite runs the cutter on an accepted image and packages the result.
func (pg *PuzzleGenerator) cutAndWrite(ctx context.Context, src *image.RGBA, prompt string, complexity float64, style CuttingStyle, seed uint64, metrics QualityMetrics) (*PuzzleRecord, error) {
	cutter := &Cutter{
		Rows:           pg.settings.GridRows,
		Cols:           pg.settings.GridCols,
		Style:          style,
		Seed:           seed,
		TabScale:       pg.settings.TabScale,
		ConvertTimeout: pg.settings.ConvertTimeout,
	}
	result, err := cutter.Cut(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("cut puzzle: %w", err)
	}
	for _, w := range result.Warnings {
		log.Printf("piece %d degraded: %s", w.PieceID, w.Message)
	}

	record := &PuzzleRecord{
		ID:         generateID(),
		Prompt:     prompt,
		Style:      style,
		Grid:       [2]int{pg.settings.GridRows, pg.settings.GridCols},
		Score:      metrics.OverallScore,
		PieceCount: len(result.Pieces),
		Degraded:   len(result.Warnings),
	}
	record.Dir = filepath.Join(pg.settings.OutputDir, record.ID)

	meta := PuzzleMetadata{
		PuzzleID:   record.ID,
		Prompt:     prompt,
		Complexity: complexity,
		Style:      style,
		Metrics:    metrics,
		Timestamp:  time.Now(),
	}
	if err := writePuzzle(record.Dir, result, src, meta); err != nil {
		return nil, fmt.Errorf("write puzzle: %w", err)
	}
	// The record goes into the store only once every artifact is on disk;
	// a record listed by the API must always have a readable manifest.
	return pg.store.SavePuzzle(record), nil
}

// setStatus updates a job and broadcasts the new snapshot to SSE clients.
func (pg *PuzzleGenerator) setStatus(job *Job, status JobStatus, extra func(*Job)) {
	job.Update(func(j *Job) {
		j.Status = status
		if extra != nil {
			extra(j)
		}
	})
	pg.broadcast(job)
}

func (pg *PuzzleGenerator) failJob(job *Job, err error) error {
	job.Update(func(j *Job) {
		j.Status = StatusFailed
		j.Error = err.Error()
	})
	pg.broadcast(job)
	return err
}

func (pg *PuzzleGenerator) broadcast(job *Job) {
	if pg.sse == nil {
		return
	}
	data, err := json.Marshal(job.Snapshot())
	if err != nil {
		return
	}
	pg.sse.Broadcast(job.ID, string(data))
}

func (pg *PuzzleGenerator) logSummary() {
	duration := time.Since(pg.stats.start)
	log.Printf("summary: %d attempts, %d accepted, %d rejected, %d failed in %s",
		pg.stats.attempts, pg.stats.accepted, pg.stats.rejected, pg.stats.failed,
		duration.Round(time.Second))
}
