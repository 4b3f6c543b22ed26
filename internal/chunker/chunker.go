package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docsift/internal/doctree"
)

// Config controls chunking behavior. Sizes are in characters.
type Config struct {
	TargetSize int // Length at which a chunk is cut.
	MinChunk   int // Minimum chunk size to emit standalone.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TargetSize: 8000,
		MinChunk:   DefaultMinLength,
	}
}

func (c Config) withDefaults() Config {
	if c.TargetSize <= 0 {
		c.TargetSize = 8000
	}
	if c.MinChunk <= 0 {
		c.MinChunk = DefaultMinLength
	}
	return c
}

// Split breaks normalized text into sentence-respecting chunks of roughly
// cfg.TargetSize characters. Joining the chunk texts with single spaces
// reproduces the input.
func Split(text string, cfg Config) []doctree.Chunk {
	cfg = cfg.withDefaults()
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) < cfg.TargetSize {
		return []doctree.Chunk{{Text: text, Index: 0}}
	}

	var parts []string
	var current strings.Builder
	currentLen := 0

	for _, word := range strings.Fields(text) {
		if current.Len() > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(word)
		currentLen += utf8.RuneCountInString(word)
		if currentLen < cfg.TargetSize {
			continue
		}

		acc := current.String()
		current.Reset()
		currentLen = 0

		cut := lastSentenceEnd(acc)
		if cut < 0 {
			// No natural break: accept an unterminated chunk.
			parts = append(parts, acc)
			continue
		}
		parts = append(parts, acc[:cut+1])
		if rest := strings.TrimSpace(acc[cut+1:]); rest != "" {
			current.WriteString(rest)
			currentLen = utf8.RuneCountInString(rest)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	merged := mergeShort(parts, cfg.MinChunk)
	chunks := make([]doctree.Chunk, len(merged))
	for i, p := range merged {
		chunks[i] = doctree.Chunk{Text: p, Index: i}
	}
	return chunks
}

// lastSentenceEnd returns the byte index of the last '.', '!' or '?' that
// ends a word, or -1.
func lastSentenceEnd(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case '.', '!', '?':
			if i == len(s)-1 || s[i+1] == ' ' {
				return i
			}
		}
	}
	return -1
}

// mergeShort folds parts shorter than minLen into their predecessor. A short
// leading part is carried into the next one; it is emitted alone only when it
// is the whole text.
func mergeShort(parts []string, minLen int) []string {
	var out []string
	pending := ""
	for _, p := range parts {
		if pending != "" {
			p = pending + " " + p
			pending = ""
		}
		if utf8.RuneCountInString(p) < minLen {
			if len(out) > 0 {
				out[len(out)-1] += " " + p
				continue
			}
			pending = p
			continue
		}
		out = append(out, p)
	}
	if pending != "" {
		out = append(out, pending)
	}
	return out
}

// Texts returns the text of each chunk in order.
func Texts(chunks []doctree.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}
