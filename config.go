package main

import (
	"os"
	"strconv"
	"time"
)

// Settings collects environment configuration with sensible defaults.
// The 1792x1024 default matches the widescreen output of the image model and
// divides into a 5x9 grid of roughly 200px cells.
type Settings struct {
	ImageWidth  int
	ImageHeight int
	GridRows    int
	GridCols    int

	QualityThreshold float64
	TabScale         float64
	ConvertTimeout   time.Duration

	OutputDir   string
	HistoryFile string

	GCPProject string
	GCPRegion  string
}

// LoadSettings reads configuration from the environment.
func LoadSettings() Settings {
	return Settings{
		ImageWidth:       envInt("IMAGE_WIDTH", 1792),
		ImageHeight:      envInt("IMAGE_HEIGHT", 1024),
		GridRows:         envInt("GRID_ROWS", 5),
		GridCols:         envInt("GRID_COLS", 9),
		QualityThreshold: envFloat("QUALITY_THRESHOLD", 30),
		TabScale:         envFloat("TAB_SCALE", defaultTabScale),
		ConvertTimeout:   envDuration("CONVERT_TIMEOUT", defaultConvertTimeout),
		OutputDir:        envStr("OUTPUT_DIR", "public/puzzles"),
		HistoryFile:      envStr("PROMPT_HISTORY_FILE", "prompt_history.json"),
		GCPProject:       os.Getenv("GCP_PROJECT_ID"),
		GCPRegion:        os.Getenv("GCP_REGION"),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
