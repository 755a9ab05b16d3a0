package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"
)

func main() {
	var (
		count      = flag.Int("count", 1, "number of puzzles to generate")
		complexity = flag.Float64("complexity", 0.5, "image complexity between 0 and 1")
		styleFlag  = flag.String("style", "classic", "cutting style: classic, geometric or organic")
		gridFlag   = flag.String("grid", "", "grid size as RxC, e.g. 5x9 (overrides GRID_ROWS/GRID_COLS)")
		seed       = flag.Uint64("seed", 0, "cutting seed (0 = derived from time)")
		input      = flag.String("input", "", "cut a local image file instead of generating one")
		output     = flag.String("output", "", "output directory (overrides OUTPUT_DIR)")
		serve      = flag.Bool("serve", false, "run the HTTP server instead of generating")
		addr       = flag.String("addr", "", "listen address for -serve (default :8080 or PORT)")
	)
	flag.Parse()

	settings := LoadSettings()
	if *output != "" {
		settings.OutputDir = *output
	}
	if *gridFlag != "" {
		rows, cols, err := parseGridFlag(*gridFlag)
		if err != nil {
			log.Fatal(err)
		}
		settings.GridRows, settings.GridCols = rows, cols
	}

	style, err := ParseCuttingStyle(*styleFlag)
	if err != nil {
		log.Fatal(err)
	}
	if *complexity < 0 || *complexity > 1 {
		log.Fatal("complexity must be between 0 and 1")
	}
	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var gemini *GeminiClient
	if settings.GCPProject != "" {
		gemini, err = NewGeminiClient(ctx, settings.GCPProject, settings.GCPRegion)
		if err != nil {
			log.Fatalf("failed to initialize Gemini: %v", err)
		}
		defer gemini.Close()
		log.Printf("Gemini client initialized (project: %s)", settings.GCPProject)
	} else {
		log.Println("GCP_PROJECT_ID not set - image generation disabled")
	}

	store := NewStore()
	sse := NewBroadcaster()
	artisan := NewPromptArtisan(gemini, settings.HistoryFile)
	generator := NewPuzzleGenerator(settings, artisan, store, sse)

	switch {
	case *serve:
		listen := *addr
		if listen == "" {
			if port := os.Getenv("PORT"); port != "" {
				listen = ":" + port
			} else {
				listen = ":8080"
			}
		}
		srv := NewServer(store, generator, sse, settings)
		log.Printf("server started on http://localhost%s", listen)
		if err := http.ListenAndServe(listen, srv); err != nil {
			log.Fatal(err)
		}

	case *input != "":
		record, err := generator.CutLocal(ctx, *input, style, *seed)
		if err != nil {
			log.Fatalf("cutting failed: %v", err)
		}
		log.Printf("puzzle %s written to %s (%d pieces, %d degraded)",
			record.ID, record.Dir, record.PieceCount, record.Degraded)

	default:
		if gemini == nil {
			log.Fatal("image generation requires GCP_PROJECT_ID (or use -input)")
		}
		if err := generator.GeneratePuzzles(ctx, *count, *complexity, style, *seed); err != nil {
			log.Fatalf("generation failed: %v", err)
		}
	}
}

// parseGridFlag parses a grid size of the form "5x9" (rows x cols).
func parseGridFlag(s string) (rows, cols int, err error) {
	r, c, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid grid %q (want RxC, e.g. 5x9)", s)
	}
	rows, err = strconv.Atoi(r)
	if err == nil {
		cols, err = strconv.Atoi(c)
	}
	if err != nil || rows < 1 || cols < 1 {
		return 0, 0, fmt.Errorf("invalid grid %q (want RxC, e.g. 5x9)", s)
	}
	return rows, cols, nil
}
