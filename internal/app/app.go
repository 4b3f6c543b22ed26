// Package app assembles the analysis stack from configuration. Both the HTTP
// service and the CLI build their analyzer here.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docsift/internal/analyzer"
	"github.com/dgallion1/docsift/internal/chunker"
	"github.com/dgallion1/docsift/internal/config"
	"github.com/dgallion1/docsift/internal/keywords"
	"github.com/dgallion1/docsift/internal/llm"
	"github.com/dgallion1/docsift/internal/ocr"
	"github.com/dgallion1/docsift/internal/parser"
	"github.com/dgallion1/docsift/internal/prompts"
	"github.com/dgallion1/docsift/internal/summarize"
	"github.com/dgallion1/docsift/internal/toc"
)

// StatsWindow is how far back the model call statistics look.
const StatsWindow = time.Hour

type App struct {
	Analyzer *analyzer.Analyzer
	Stats    *llm.Stats

	closers []func()
}

// Close releases idle model connections.
func (a *App) Close() {
	for _, c := range a.closers {
		c()
	}
}

// Build wires parsers, OCR, the completion client, Ollama and the analysis
// stages according to cfg.
func Build(cfg config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	lang := prompts.Parse(cfg.Language)
	a := &App{Stats: llm.NewStats(StatsWindow)}

	completer, err := a.completer(cfg, log)
	if err != nil {
		return nil, err
	}
	completer = llm.NewRetrying(completer, log)

	var capab summarize.Capability
	switch cfg.Summarizer {
	case "completion":
		capab = &summarize.CompletionCapability{Completer: completer, Lang: lang}
	default:
		oc, err := summarize.NewOllamaCapability(cfg.OllamaHost, cfg.OllamaSummaryModel, lang)
		if err != nil {
			return nil, err
		}
		capab = oc
	}

	embedder, err := keywords.NewOllamaEmbedder(cfg.OllamaHost, cfg.OllamaEmbedModel)
	if err != nil {
		return nil, err
	}
	scorer := keywords.NewEmbeddingScorer(embedder, keywords.Stopwords(lang))

	kw := keywords.NewExtractor(keywords.Timed(scorer, a.Stats), log)
	kw.TopN = cfg.KeywordsTopN
	kw.MinScore = cfg.KeywordsMinScore
	kw.Timeout = cfg.CallTimeout

	sum := summarize.New(summarize.Timed(capab, a.Stats), lang, log)
	sum.MinLength = cfg.MinTextLength
	sum.Timeout = cfg.CallTimeout

	deriver := toc.New(llm.Timed(completer, a.Stats, "toc"), lang, log)
	deriver.Timeout = cfg.CallTimeout

	engine := ocr.New(ocr.Config{Lang: cfg.TesseractLang, DPI: cfg.OCRDPI}, log)

	a.Analyzer = &analyzer.Analyzer{
		Parsers: &parser.Registry{
			OCR:             engine,
			OCRLang:         cfg.TesseractLang,
			MinCharsPerPage: cfg.PDFMinCharsPerPage,
		},
		Keywords:   kw,
		Summarizer: sum,
		TOC:        deriver,
		Chunk:      chunker.Config{TargetSize: cfg.ChunkTargetSize, MinChunk: cfg.MinTextLength},
		MinLength:  cfg.MinTextLength,
		Lang:       lang,
		Log:        log,
	}
	log.Info("analysis stack ready",
		"language", cfg.Language,
		"summarizer", cfg.Summarizer,
		"completion_provider", cfg.CompletionProvider,
		"completion_model", cfg.CompletionModel(),
	)
	return a, nil
}

func (a *App) completer(cfg config.Config, log *slog.Logger) (llm.Completer, error) {
	switch cfg.CompletionProvider {
	case "anthropic":
		c := llm.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		a.closers = append(a.closers, c.Close)
		return c, nil
	case "mistral", "":
		opts := []llm.MistralOption{llm.WithLogger(log)}
		if cfg.MistralURL != "" {
			opts = append(opts, llm.WithURL(cfg.MistralURL))
		}
		c := llm.NewMistralClient(cfg.MistralAPIKey, cfg.MistralModel, opts...)
		a.closers = append(a.closers, c.Close)
		return c, nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.CompletionProvider)
	}
}
