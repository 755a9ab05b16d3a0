package main

import (
	"context"
	"encoding/json"
	"log"
	"math/rand/v2"
	"os"
	"strings"
	"time"
)

// baseThemes are the scene subjects prompts are built from. Chosen for
// texture and color variety; all of them cut into distinguishable pieces.
var baseThemes = []string{
	"vibrant coral reef with exotic fish",
	"misty mountain landscape at sunrise",
	"dense rainforest canopy with wildlife",
	"underwater shipwreck with marine life",
	"autumn forest path with fallen leaves",
	"tropical beach with crystal clear water",
	"northern lights over snowy mountains",
	"bustling farmer's market with colorful produce",
	"hot air balloons over countryside",
	"field of wildflowers at golden hour",
	"Japanese zen garden with koi pond",
	"Victorian greenhouse with exotic plants",
	"Mediterranean coastal village at sunset",
	"African savanna with acacia trees",
	"colorful macaw parrots in jungle",
	"vintage train station in autumn",
	"lighthouse on rocky coastline during storm",
	"cherry blossoms in full bloom",
	"Venetian canal with gondolas",
	"desert canyon with layered rock formations",
	"butterfly garden with diverse species",
	"snowy owl in winter forest",
	"tide pools with starfish and anemones",
	"terraced rice fields at sunrise",
	"street art mural with vibrant colors",
}

var variationElements = []string{
	"dramatic lighting",
	"morning mist",
	"golden sunbeams",
	"reflections in water",
	"interesting shadows",
	"natural patterns",
	"organic shapes",
	"flowing water",
	"dappled sunlight",
	"atmospheric perspective",
}

// complexityModifiers adjust how hard the resulting puzzle is to solve.
var complexityModifiers = map[string][]string{
	"low":    {"simple composition", "clear focal point", "distinct color regions"},
	"medium": {"varied textures", "multiple subjects", "balanced composition"},
	"high":   {"intricate details", "complex patterns", "high texture density", "asymmetrical composition"},
}

// PromptHistoryEntry records one generated prompt and its outcome.
type PromptHistoryEntry struct {
	Prompt          string    `json:"prompt"`
	ComplexityScore float64   `json:"complexity_score"`
	Success         bool      `json:"success"`
	Timestamp       time.Time `json:"timestamp"`
}

// maxHistoryEntries bounds the persisted prompt history.
const maxHistoryEntries = 100

// PromptArtisan builds image prompts and drives the image model. It keeps a
// history of recent prompts to avoid repeating themes within a day.
type PromptArtisan struct {
	gemini      *GeminiClient
	historyPath string
	history     []PromptHistoryEntry
	recent      []string // last few generated prompts, in memory
	rng         *rand.Rand
}

// NewPromptArtisan creates an artisan. gemini may be nil when image
// generation is disabled (local cutting mode); historyPath may be empty to
// skip persistence.
func NewPromptArtisan(gemini *GeminiClient, historyPath string) *PromptArtisan {
	a := &PromptArtisan{
		gemini:      gemini,
		historyPath: historyPath,
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
	a.loadHistory()
	return a
}

// GeneratePrompt builds a prompt for the given complexity in [0,1], avoiding
// themes used in the last 24 hours when possible.
func (a *PromptArtisan) GeneratePrompt(complexity float64) string {
	recentThemes := make(map[string]bool)
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, e := range a.history {
		if e.Timestamp.After(cutoff) {
			if theme := extractTheme(e.Prompt); theme != "" {
				recentThemes[theme] = true
			}
		}
	}

	var available []string
	for _, t := range baseThemes {
		if !recentThemes[t] {
			available = append(available, t)
		}
	}
	if len(available) == 0 {
		available = baseThemes
	}
	theme := available[a.rng.IntN(len(available))]

	var band string
	var count int
	switch {
	case complexity < 0.33:
		band, count = "low", 2
	case complexity < 0.66:
		band, count = "medium", 2
	default:
		band, count = "high", 3
	}
	modifiers := a.sample(complexityModifiers[band], count)

	parts := []string{"Ultra-realistic photograph", theme}
	parts = append(parts, modifiers...)
	parts = append(parts,
		variationElements[a.rng.IntN(len(variationElements))],
		"professional lighting",
		"8K resolution",
		"sharp focus",
	)
	prompt := strings.Join(parts, ", ")

	// An exact repeat of a recent prompt gets extra variation.
	for _, p := range a.recent {
		if p == prompt {
			extras := []string{"subtle details", "high contrast", "soft focus background", "macro details"}
			prompt += ", " + extras[a.rng.IntN(len(extras))]
			break
		}
	}
	a.recent = append(a.recent, prompt)
	if len(a.recent) > 10 {
		a.recent = a.recent[1:]
	}

	log.Printf("generated prompt (complexity %.2f): %.100s...", complexity, prompt)
	return prompt
}

// CreateImage generates an image for the prompt and records the attempt in
// the history.
func (a *PromptArtisan) CreateImage(ctx context.Context, prompt string) ([]byte, error) {
	data, err := a.gemini.GenerateImage(ctx, prompt)
	entry := PromptHistoryEntry{
		Prompt:          prompt,
		ComplexityScore: estimateComplexity(prompt),
		Success:         err == nil,
		Timestamp:       time.Now(),
	}
	if err != nil {
		entry.ComplexityScore = 0
	}
	a.history = append(a.history, entry)
	a.saveHistory()
	if err != nil {
		return nil, err
	}
	return data, nil
}

// sample picks n distinct elements from options.
func (a *PromptArtisan) sample(options []string, n int) []string {
	perm := a.rng.Perm(len(options))
	if n > len(options) {
		n = len(options)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = options[perm[i]]
	}
	return out
}

// extractTheme finds which base theme a prompt was built from.
func extractTheme(prompt string) string {
	lower := strings.ToLower(prompt)
	for _, t := range baseThemes {
		if strings.Contains(lower, strings.ToLower(t)) {
			return t
		}
	}
	return ""
}

// estimateComplexity scores a prompt from keyword hits, clamped to [0,1].
func estimateComplexity(prompt string) float64 {
	score := 0.5
	lower := strings.ToLower(prompt)
	for _, w := range []string{"intricate", "complex", "detailed", "asymmetrical", "dense"} {
		if strings.Contains(lower, w) {
			score += 0.1
		}
	}
	for _, w := range []string{"simple", "clear", "minimal", "basic"} {
		if strings.Contains(lower, w) {
			score -= 0.1
		}
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func (a *PromptArtisan) loadHistory() {
	if a.historyPath == "" {
		return
	}
	data, err := os.ReadFile(a.historyPath)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, &a.history); err != nil {
		log.Printf("failed to load prompt history: %v", err)
	}
}

func (a *PromptArtisan) saveHistory() {
	if a.historyPath == "" {
		return
	}
	entries := a.history
	if len(entries) > maxHistoryEntries {
		entries = entries[len(entries)-maxHistoryEntries:]
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err == nil {
		err = os.WriteFile(a.historyPath, data, 0o644)
	}
	if err != nil {
		log.Printf("failed to save prompt history: %v", err)
	}
}
