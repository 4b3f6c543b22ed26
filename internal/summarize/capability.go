package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"

	"github.com/dgallion1/docsift/internal/chunker"
	"github.com/dgallion1/docsift/internal/llm"
	"github.com/dgallion1/docsift/internal/prompts"
)

// CompletionCapability summarizes through a chat completion service.
type CompletionCapability struct {
	Completer llm.Completer
	Lang      prompts.Lang
}

func (c *CompletionCapability) Summarize(ctx context.Context, text string, p Params) (string, error) {
	out, err := c.Completer.Complete(ctx, c.Lang.Summary(text, p.MinLength, p.MaxLength))
	if err != nil {
		return "", fmt.Errorf("completion summary: %w", err)
	}
	return out, nil
}

// OllamaCapability summarizes with a local model served by Ollama.
type OllamaCapability struct {
	client *ollama.Client
	model  string
	lang   prompts.Lang
}

// NewOllamaCapability connects to host; see llm.OllamaClient.
func NewOllamaCapability(host, model string, lang prompts.Lang) (*OllamaCapability, error) {
	client, err := llm.OllamaClient(host)
	if err != nil {
		return nil, err
	}
	return &OllamaCapability{client: client, model: model, lang: lang}, nil
}

func (o *OllamaCapability) Summarize(ctx context.Context, text string, p Params) (string, error) {
	prompt := o.lang.Summary(text, p.MinLength, p.MaxLength)

	numCtx := chunker.EstimateTokens(prompt) + 1000
	if numCtx < 4096 {
		numCtx = 4096
	}
	temperature := 0.0
	if p.DoSample {
		temperature = p.Temperature
	}
	stream := false
	req := &ollama.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": temperature,
			"top_p":       1.0,
			"num_ctx":     numCtx,
			// roughly 1.33 tokens per word, with headroom
			"num_predict": p.MaxLength * 2,
		},
	}

	var sb strings.Builder
	err := o.client.Generate(ctx, req, func(res ollama.GenerateResponse) error {
		sb.WriteString(res.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate failed: %w", err)
	}
	return llm.CleanResponse(sb.String()), nil
}

// Timed records every Summarize call of c in stats under "summary".
func Timed(c Capability, stats *llm.Stats) Capability {
	if stats == nil {
		return c
	}
	return timedCapability{next: c, stats: stats}
}

type timedCapability struct {
	next  Capability
	stats *llm.Stats
}

func (t timedCapability) Summarize(ctx context.Context, text string, p Params) (string, error) {
	start := time.Now()
	out, err := t.next.Summarize(ctx, text, p)
	t.stats.Observe("summary", time.Since(start), err)
	return out, err
}
