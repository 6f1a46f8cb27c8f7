package ollama

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
)

// AffirmationGenerator turns a user's stated intention into a short
// first-person affirmation script for the narration track, plus an
// evocative session title.
type AffirmationGenerator struct {
	client *Client

	mu         sync.Mutex
	lastScript string // avoid handing back the same script twice in a row
}

// NewAffirmationGenerator creates a generator backed by an Ollama client.
func NewAffirmationGenerator(client *Client) *AffirmationGenerator {
	return &AffirmationGenerator{client: client}
}

const scriptSystemPrompt = `You are an affirmation writer for a guided wellness app.

Your job: given a user's intention, output a short affirmation script to be read aloud slowly over ambient music.

Script rules:
- 3 to 5 sentences, first person, present tense ("I am...", "I release...")
- Calm, warm, concrete. No mysticism jargon, no medical claims.
- Address the user's intention directly; mirror its key words
- Short sentences that breathe. No semicolons, no lists.
- Each script MUST be meaningfully different from any previous script

NEVER include:
- Second person ("you are") or imperatives
- Explanations, preambles, quotes, or formatting
- Emoji or stage directions

Output format: ONLY the script text. Nothing else.

/no_think`

// GenerateScript creates an affirmation script for an intention.
// Returns empty string on failure (caller falls back to a template).
func (g *AffirmationGenerator) GenerateScript(ctx context.Context, intention string) string {
	g.mu.Lock()
	last := g.lastScript
	g.mu.Unlock()

	prompt := fmt.Sprintf("Intention: %s", intention)
	if last != "" {
		prompt += fmt.Sprintf("\nPrevious script (do NOT repeat this): %s", last)
	}

	script, err := g.client.Generate(ctx, scriptSystemPrompt, prompt)
	if err != nil {
		log.Printf("Ollama script generation failed: %v", err)
		return ""
	}

	script = cleanOutput(script)
	if script == "" || len(script) < 20 {
		log.Printf("Ollama returned unusable script: %q", script)
		return ""
	}

	g.mu.Lock()
	g.lastScript = script
	g.mu.Unlock()

	log.Printf("LLM affirmation script: %s", script)
	return script
}

const titleSystemPrompt = `You are a session title generator for a wellness app.

Given an intention and a soundscape style, generate a short evocative session title (2-4 words).

Rules:
- Atmospheric, not literal; no style name in the title
- No numbers, no "Session 1", no "Untitled"
- Lowercase only

Output ONLY the title. Nothing else.

/no_think`

// GenerateTitle creates a session title. Returns empty string on failure
// (caller falls back to a deterministic name).
func (g *AffirmationGenerator) GenerateTitle(ctx context.Context, intention, style string) string {
	prompt := fmt.Sprintf("Intention: %s\nStyle: %s", intention, style)

	title, err := g.client.Generate(ctx, titleSystemPrompt, prompt)
	if err != nil {
		log.Printf("Ollama title generation failed: %v", err)
		return ""
	}

	title = strings.ToLower(cleanOutput(title))
	if title == "" || len(title) > 60 || strings.Count(title, " ") > 4 {
		log.Printf("Ollama returned unusable title: %q", title)
		return ""
	}
	return title
}

// cleanOutput strips common LLM artifacts.
func cleanOutput(s string) string {
	s = strings.TrimSpace(s)

	// Strip thinking tags (Qwen 3 thinking mode leakage)
	if idx := strings.Index(s, "</think>"); idx >= 0 {
		s = strings.TrimSpace(s[idx+len("</think>"):])
	}

	// Strip surrounding quotes
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	// Strip common preambles
	prefixes := []string{
		"Here's the script:",
		"Here is the script:",
		"Script:",
		"Title:",
	}
	lower := strings.ToLower(s)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, strings.ToLower(p)) {
			s = strings.TrimSpace(s[len(p):])
		}
	}

	return strings.TrimSpace(s)
}
