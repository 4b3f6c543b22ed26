// Package summarize turns chunked document text into a single summary,
// combining per-chunk summaries and degrading to sentinels on failure.
package summarize

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/dgallion1/docsift/internal/prompts"
)

// Params bound the length of one summary, in words.
type Params struct {
	MinLength   int
	MaxLength   int
	DoSample    bool
	Temperature float64
}

var (
	SingleParams  = Params{MinLength: 30, MaxLength: 100}
	ChunkParams   = Params{MinLength: 40, MaxLength: 150}
	CombineParams = Params{MinLength: 60, MaxLength: 200}
)

// Capability summarizes one text within the given length bounds.
type Capability interface {
	Summarize(ctx context.Context, text string, p Params) (string, error)
}

// Summarizer runs the chunk, combine and fallback sequence.
type Summarizer struct {
	Capability Capability
	Lang       prompts.Lang
	MinLength  int           // normalized text shorter than this is not summarized
	Timeout    time.Duration // per capability call, 0 disables
	Log        *slog.Logger
}

func New(c Capability, lang prompts.Lang, log *slog.Logger) *Summarizer {
	if log == nil {
		log = slog.Default()
	}
	return &Summarizer{Capability: c, Lang: lang, MinLength: 50, Timeout: 60 * time.Second, Log: log}
}

func (s *Summarizer) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

func (s *Summarizer) call(ctx context.Context, text string, p Params) (string, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	out, err := s.Capability.Summarize(ctx, text, p)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Summarize never fails: every failure maps to a sentinel or a fallback.
func (s *Summarizer) Summarize(ctx context.Context, normalized string, chunks []doctree.Chunk) string {
	sentinels := s.Lang.Sentinels()
	log := s.logger()

	if utf8.RuneCountInString(normalized) < s.MinLength || len(chunks) == 0 {
		return sentinels.TooShort
	}
	if s.Capability == nil {
		return sentinels.Unavailable
	}

	if len(chunks) == 1 {
		out, err := s.call(ctx, chunks[0].Text, SingleParams)
		if err != nil || out == "" {
			log.Warn("summary failed", "error", err)
			return sentinels.Unavailable
		}
		return out
	}

	var summaries []string
	for _, c := range chunks {
		if ctx.Err() != nil {
			break
		}
		out, err := s.call(ctx, c.Text, ChunkParams)
		if err != nil || out == "" {
			log.Warn("chunk summary failed, skipping", "chunk", c.Index, "error", err)
			continue
		}
		summaries = append(summaries, out)
	}

	switch len(summaries) {
	case 0:
		return sentinels.Unavailable
	case 1:
		return summaries[0]
	}

	combined, err := s.call(ctx, strings.Join(summaries, " "), CombineParams)
	if err != nil || combined == "" {
		log.Warn("combined summary failed, using first chunk summary", "chunks", len(summaries), "error", err)
		return summaries[0]
	}
	return Cleanup(combined)
}

var (
	sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]*`)
	repeatRe   = regexp.MustCompile(`\.{2,}|!{2,}|\?{2,}|,{2,}|;{2,}`)
	spacesRe   = regexp.MustCompile(`\s+`)
)

// Cleanup removes repeated sentences, collapses doubled punctuation and makes
// sure the text ends with a terminal mark.
func Cleanup(text string) string {
	text = repeatRe.ReplaceAllStringFunc(text, func(m string) string { return m[:1] })
	text = spacesRe.ReplaceAllString(strings.TrimSpace(text), " ")
	if text == "" {
		return ""
	}

	seen := make(map[string]bool)
	var kept []string
	for _, sent := range sentenceRe.FindAllString(text, -1) {
		sent = strings.TrimSpace(sent)
		if sent == "" {
			continue
		}
		key := strings.ToLower(strings.TrimRight(sent, ".!? "))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, sent)
	}
	out := strings.Join(kept, " ")
	if out == "" {
		return ""
	}
	if !strings.ContainsAny(out[len(out)-1:], ".!?") {
		out += "."
	}
	return out
}
