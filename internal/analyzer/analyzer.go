// Package analyzer runs the document analysis pipeline: normalize, chunk,
// extract keywords and summarize concurrently, then derive a table of
// contents and assemble the record.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docsift/internal/chunker"
	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/dgallion1/docsift/internal/keywords"
	"github.com/dgallion1/docsift/internal/parser"
	"github.com/dgallion1/docsift/internal/prompts"
	"github.com/dgallion1/docsift/internal/summarize"
	"github.com/dgallion1/docsift/internal/toc"
)

var (
	// ErrNotFound is returned when the input file does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrExtraction wraps any failure of a text extractor.
	ErrExtraction = errors.New("text extraction failed")
)

// Analyzer is safe for concurrent use; every call owns its own values.
type Analyzer struct {
	Parsers    *parser.Registry
	Keywords   *keywords.Extractor
	Summarizer *summarize.Summarizer
	TOC        *toc.Deriver
	Chunk      chunker.Config
	MinLength  int
	Lang       prompts.Lang
	Log        *slog.Logger
}

func (a *Analyzer) logger() *slog.Logger {
	if a.Log == nil {
		return slog.Default()
	}
	return a.Log
}

// Analyze turns one extracted document into a record. Stage failures degrade
// to empty values; it only fails when ctx is done.
func (a *Analyzer) Analyze(ctx context.Context, doc doctree.Document) (doctree.Record, error) {
	sentinels := a.Lang.Sentinels()
	title := strings.TrimSpace(doc.Title)
	if title == "" {
		title = sentinels.Untitled
	}
	rec := doctree.Record{
		Source:    doc.Source,
		Title:     title,
		Keywords:  []string{},
		CreatedAt: time.Now().UTC(),
	}

	if strings.TrimSpace(doc.Text) == "" {
		rec.Summary = sentinels.NoText
		return rec, nil
	}

	log := a.logger().With("source", doc.Source)
	start := time.Now()

	normalized := chunker.Normalize(doc.Text, a.MinLength)
	chunks := chunker.Split(normalized, a.Chunk)
	rec.TextLength = chunker.WordCount(normalized)
	log.Debug("document chunked", "chars", len(normalized), "chunks", len(chunks), "words", rec.TextLength)

	var kws []string
	var summary string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if a.Keywords != nil {
			kws = a.Keywords.ExtractChunks(gctx, chunks)
		}
		return nil
	})
	g.Go(func() error {
		if a.Summarizer != nil {
			summary = a.Summarizer.Summarize(gctx, normalized, chunks)
		} else {
			summary = sentinels.Unavailable
		}
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return doctree.Record{}, err
	}

	if kws != nil {
		rec.Keywords = kws
	}
	rec.Summary = summary
	if a.TOC != nil {
		rec.TableOfContents = a.TOC.Derive(ctx, doc.Text, doc.Format)
	}

	log.Info("document analyzed",
		"keywords", len(rec.Keywords),
		"has_toc", rec.TableOfContents != "",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

// Extract parses r with the parser registered for filename.
func (a *Analyzer) Extract(ctx context.Context, r io.Reader, filename string) (doctree.Document, error) {
	reg := a.Parsers
	if reg == nil {
		reg = &parser.Registry{}
	}
	p, err := reg.ForFile(filename)
	if err != nil {
		return doctree.Document{}, err
	}
	tree, err := p.Parse(ctx, r, filename)
	if err != nil {
		return doctree.Document{}, fmt.Errorf("%w: %s: %w", ErrExtraction, filename, err)
	}
	return doctree.Flatten(tree, filename, a.Lang.Sentinels().Untitled), nil
}

// AnalyzeReader extracts and analyzes an uploaded document.
func (a *Analyzer) AnalyzeReader(ctx context.Context, r io.Reader, filename string) (doctree.Record, error) {
	doc, err := a.Extract(ctx, r, filename)
	if err != nil {
		return doctree.Record{}, err
	}
	return a.Analyze(ctx, doc)
}

// AnalyzeFile analyzes the document at path.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (doctree.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doctree.Record{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return doctree.Record{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rec, err := a.AnalyzeReader(ctx, f, filepath.Base(path))
	if err != nil {
		return doctree.Record{}, err
	}
	rec.Source = path
	return rec, nil
}
