package ollama

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyWorry reports a script request without a worry.
var ErrEmptyWorry = errors.New("ollama: worry must not be empty")

const scriptPrompt = `You are a professional meditation guide. Create a detailed, comprehensive guided meditation script (approximately %d words) that helps with the following concern:

"%s"

The meditation should:
1. Use a warm, gentle, and soothing tone
2. Have a clear beginning, middle, and end with thorough guidance throughout
3. Include detailed breathing guidance and visualization exercises
4. Take the listener on a journey to help them find deep peace with their concern
5. Include extended periods of guided relaxation for each part of the body
6. End with positive affirmations and empowering statements
7. Be approximately %d words in length to provide a complete 15-20 minute meditation experience

Write ONLY the meditation script without any additional explanations or headers, and do not greet the user (No "Hello, I'm a meditation guide..." or anything like that).`

// DefaultScriptWords is the target script length.
const DefaultScriptWords = 1200

// Generator is the subset of Client a ScriptWriter needs.
type Generator interface {
	Stream(ctx context.Context, system, prompt string, onChunk func(string)) (string, error)
}

// ScriptWriter turns a worry into a meditation script.
type ScriptWriter struct {
	gen   Generator
	words int
}

// NewScriptWriter returns a ScriptWriter backed by gen. words <= 0 selects
// DefaultScriptWords.
func NewScriptWriter(gen Generator, words int) *ScriptWriter {
	if words <= 0 {
		words = DefaultScriptWords
	}

	return &ScriptWriter{gen: gen, words: words}
}

// Prompt returns the prompt sent for worry.
func (w *ScriptWriter) Prompt(worry string) string {
	return fmt.Sprintf(scriptPrompt, w.words, strings.TrimSpace(worry), w.words)
}

// Write generates a script for worry. onChunk, when non-nil, receives the
// text as it streams in.
func (w *ScriptWriter) Write(ctx context.Context, worry string, onChunk func(string)) (string, error) {
	if strings.TrimSpace(worry) == "" {
		return "", ErrEmptyWorry
	}

	raw, err := w.gen.Stream(ctx, "", w.Prompt(worry), onChunk)
	if err != nil {
		return "", fmt.Errorf("generate script: %w", err)
	}

	script := CleanScript(raw)
	if script == "" {
		return "", ErrEmptyResponse
	}

	return script, nil
}

// CleanScript strips reasoning tags, wrapping quotes and markdown headers
// from model output.
func CleanScript(s string) string {
	s = strings.TrimSpace(s)

	if idx := strings.Index(s, "</think>"); idx >= 0 {
		s = strings.TrimSpace(s[idx+len("</think>"):])
	} else if strings.HasPrefix(s, "<think>") {
		return ""
	}

	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	lines := strings.Split(s, "\n")
	kept := lines[:0]

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}

		kept = append(kept, strings.TrimRight(line, " \t"))
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// WordCount returns the number of whitespace separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
