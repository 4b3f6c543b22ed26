package prompts

import (
	"strings"
	"testing"

	"github.com/dgallion1/docsift/internal/doctree"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Lang
	}{
		{"en", English},
		{"English", English},
		{"fr", French},
		{"", French},
		{"de", French},
	}
	for _, tt := range tests {
		if got := Parse(tt.in); got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTableOfContents_FormatHints(t *testing.T) {
	slides := French.TableOfContents("texte", doctree.FormatPPTX)
	if !strings.Contains(slides, "Sommaire") {
		t.Errorf("expected slide hint in prompt, got %q", slides)
	}
	pages := English.TableOfContents("body", doctree.FormatPDF)
	if !strings.Contains(pages, "chapter/section numbers") {
		t.Errorf("expected page hint in prompt, got %q", pages)
	}
	if !strings.Contains(pages, "Text: body") {
		t.Errorf("expected text embedded in prompt, got %q", pages)
	}
}

func TestSummary_EmbedsBounds(t *testing.T) {
	p := English.Summary("some text", 30, 100)
	if !strings.Contains(p, "30 to 100 words") || !strings.HasSuffix(p, "some text") {
		t.Errorf("unexpected prompt %q", p)
	}
}

func TestUnknownLangFallsBackToFrench(t *testing.T) {
	if Lang("xx").Sentinels().Untitled != "Sans titre" {
		t.Error("expected French sentinels for unknown language")
	}
}
