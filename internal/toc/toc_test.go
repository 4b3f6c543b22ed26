package toc

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/dgallion1/docsift/internal/llm"
	"github.com/dgallion1/docsift/internal/prompts"
)

func reply(s string, err error) llm.Completer {
	return llm.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return s, err
	})
}

func TestDerive_Classification(t *testing.T) {
	tests := []struct {
		name string
		lang prompts.Lang
		resp string
		want string
	}{
		{"explicit listing kept", prompts.French, "1. Introduction\n2. Résultats", "1. Introduction\n2. Résultats"},
		{"trimmed", prompts.English, "\n  1. Intro\n2. Plan  \n", "1. Intro\n2. Plan"},
		{"french negative", prompts.French, "Le texte ne contient pas de structure claire.", ""},
		{"french negative uppercase", prompts.French, "LE TEXTE NE présente aucune section.", ""},
		{"english negative", prompts.English, "The text does not have a clear structure.", ""},
		{"english there is no", prompts.English, "There is no table of contents.", ""},
		{"empty", prompts.French, "   ", ""},
		{"negative phrase later is kept", prompts.English, "1. Scope\n2. There is no risk", "1. Scope\n2. There is no risk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(reply(tt.resp, nil), tt.lang, nil)
			assert.Equal(t, tt.want, d.Derive(context.Background(), "Some document text.", doctree.FormatPDF))
		})
	}
}

func TestDerive_ErrorYieldsEmpty(t *testing.T) {
	d := New(reply("", errors.New("service down")), prompts.French, nil)
	assert.Equal(t, "", d.Derive(context.Background(), "Some text.", doctree.FormatPPTX))
}

func TestDerive_ClipsInput(t *testing.T) {
	var sent string
	d := New(llm.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		sent = prompt
		return "1. A", nil
	}), prompts.English, nil)
	d.MaxInput = 100

	text := strings.Repeat("é", 500)
	d.Derive(context.Background(), text, doctree.FormatText)

	assert.Contains(t, sent, strings.Repeat("é", 100))
	assert.NotContains(t, sent, strings.Repeat("é", 101))
	assert.True(t, utf8.ValidString(sent))
}

func TestDerive_FormatHint(t *testing.T) {
	var sent string
	d := New(llm.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		sent = prompt
		return "", nil
	}), prompts.French, nil)

	d.Derive(context.Background(), "Slide text", doctree.FormatPPTX)
	assert.Contains(t, sent, "Sommaire")
}

func TestDerive_NoCompleter(t *testing.T) {
	d := &Deriver{Lang: prompts.English}
	assert.Equal(t, "", d.Derive(context.Background(), "text", doctree.FormatText))
}
