// Package toc derives a table of contents from document text with a single
// completion request.
package toc

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/dgallion1/docsift/internal/llm"
	"github.com/dgallion1/docsift/internal/prompts"
)

// DefaultMaxInput is how many runes of text are sent to the model.
const DefaultMaxInput = 5000

type Deriver struct {
	Completer llm.Completer
	Lang      prompts.Lang
	MaxInput  int
	Timeout   time.Duration
	Log       *slog.Logger
}

func New(c llm.Completer, lang prompts.Lang, log *slog.Logger) *Deriver {
	if log == nil {
		log = slog.Default()
	}
	return &Deriver{Completer: c, Lang: lang, MaxInput: DefaultMaxInput, Timeout: 60 * time.Second, Log: log}
}

// Derive returns a verbatim or generated table of contents, or "" when the
// text has no discernible structure or the request fails.
func (d *Deriver) Derive(ctx context.Context, text string, format doctree.Format) string {
	if d.Completer == nil || strings.TrimSpace(text) == "" {
		return ""
	}
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	resp, err := d.Completer.Complete(ctx, d.Lang.TableOfContents(clip(text, d.maxInput()), format))
	if err != nil {
		log.Warn("table of contents failed", "error", err)
		return ""
	}
	resp = strings.TrimSpace(resp)
	if d.isNegative(resp) {
		return ""
	}
	return resp
}

func (d *Deriver) maxInput() int {
	if d.MaxInput <= 0 {
		return DefaultMaxInput
	}
	return d.MaxInput
}

// isNegative reports an empty response or one that opens by saying the text
// has no structure.
func (d *Deriver) isNegative(resp string) bool {
	if resp == "" {
		return true
	}
	folded := cases.Fold().String(resp)
	folded = strings.NewReplacer("’", "'", "\"", "", "«", "").Replace(folded)
	folded = strings.TrimLeft(folded, " '")
	for _, p := range d.Lang.NegativePrefixes() {
		if strings.HasPrefix(folded, cases.Lower(language.Und).String(p)) {
			return true
		}
	}
	return false
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
