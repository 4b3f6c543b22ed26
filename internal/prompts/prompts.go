// Package prompts holds the language-specific prompt templates and sentinel
// strings used by the analysis stages.
package prompts

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docsift/internal/doctree"
)

// Lang selects a prompt and sentinel table.
type Lang string

const (
	French  Lang = "fr"
	English Lang = "en"
)

// Sentinels are the fixed placeholder strings returned in place of results.
type Sentinels struct {
	Untitled    string
	NoText      string
	TooShort    string
	Unavailable string
}

type table struct {
	sentinels        Sentinels
	negativePrefixes []string
	summary          string
	tocBase          string
	tocSlides        string
	tocPages         string
	tocGeneric       string
	tocWarning       string
}

var tables = map[Lang]table{
	French: {
		sentinels: Sentinels{
			Untitled:    "Sans titre",
			NoText:      "Aucun texte trouvé dans le document.",
			TooShort:    "Texte trop court pour générer un résumé.",
			Unavailable: "Impossible de générer un résumé.",
		},
		negativePrefixes: []string{"le texte ne", "ce texte ne", "il n'y a pas", "aucun sommaire", "aucune structure"},
		summary: `Résume le texte suivant en français, entre %d et %d mots.
Reste fidèle au contenu d'origine et conserve les points essentiels.
Réponds uniquement avec le résumé.

Texte : %s`,
		tocBase:    "Analyse ce texte extrait d'un document et fais l'une des trois choses suivantes :\n",
		tocSlides:  "1. Si tu trouves des slides titrées 'Sommaire', 'Plan' ou 'Table des matières', extrais leur contenu tel quel.\n2. Sinon, si tu identifies une structure claire avec des sections marquées par des titres de slides, génère un sommaire basé sur cette structure.\n",
		tocPages:   "1. Si tu trouves un sommaire explicite (avec des numéros de chapitres/sections), extrais-le et retourne-le tel quel.\n2. Si tu ne trouves pas de sommaire explicite mais que le texte a une structure claire avec des sections distinctes, génère un sommaire qui reflète cette structure.\n",
		tocGeneric: "1. Si tu trouves une table des matières explicite, extrais-la et retourne-la telle quelle.\n2. Sinon, si le texte a des sections titrées distinctes, génère un sommaire qui reflète cette structure.\n",
		tocWarning: "3. Si le texte n'a pas de structure claire ou de sections distinctes, retourne une chaîne vide.\n\nTexte : %s\n\nImportant : Ne génère pas de sommaire artificiel si le texte n'a pas de structure claire.",
	},
	English: {
		sentinels: Sentinels{
			Untitled:    "Untitled",
			NoText:      "No text found in the document.",
			TooShort:    "Text too short to summarize.",
			Unavailable: "Unable to generate a summary.",
		},
		negativePrefixes: []string{"the text does not", "this text does not", "the text doesn't", "there is no", "no table of contents", "no clear structure"},
		summary: `Summarize the following text in English in %d to %d words.
Stay faithful to the original content and keep the essential points.
Reply with the summary only.

Text: %s`,
		tocBase:    "Analyze this text extracted from a document and do exactly one of the following:\n",
		tocSlides:  "1. If you find slides titled 'Contents', 'Agenda' or 'Outline', extract their content verbatim.\n2. Otherwise, if slide titles mark a clear sectioned structure, generate a table of contents from that structure.\n",
		tocPages:   "1. If you find an explicit table of contents (with chapter/section numbers), extract it and return it verbatim.\n2. If there is no explicit table of contents but the text has clearly distinct sections, generate one that reflects that structure.\n",
		tocGeneric: "1. If you find an explicit table of contents, extract it and return it verbatim.\n2. Otherwise, if the text has distinct titled sections, generate a table of contents that reflects that structure.\n",
		tocWarning: "3. If the text has no clear structure or distinct sections, return an empty string.\n\nText: %s\n\nImportant: do not invent a table of contents when the text has no clear structure.",
	},
}

// Parse maps a configuration value to a Lang, defaulting to French.
func Parse(s string) Lang {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "en", "english":
		return English
	default:
		return French
	}
}

func (l Lang) table() table {
	if t, ok := tables[l]; ok {
		return t
	}
	return tables[French]
}

// Sentinels returns the placeholder strings for l.
func (l Lang) Sentinels() Sentinels {
	return l.table().sentinels
}

// NegativePrefixes lists lowercase openings meaning "the text has no structure".
func (l Lang) NegativePrefixes() []string {
	return l.table().negativePrefixes
}

// Summary builds a summarization prompt bounded by a word range.
func (l Lang) Summary(text string, minWords, maxWords int) string {
	return fmt.Sprintf(l.table().summary, minWords, maxWords, text)
}

// TableOfContents builds the three-way TOC prompt, tuned to the source format.
func (l Lang) TableOfContents(text string, format doctree.Format) string {
	t := l.table()
	var sb strings.Builder
	sb.WriteString(t.tocBase)
	switch format {
	case doctree.FormatPPTX:
		sb.WriteString(t.tocSlides)
	case doctree.FormatPDF:
		sb.WriteString(t.tocPages)
	default:
		sb.WriteString(t.tocGeneric)
	}
	sb.WriteString(fmt.Sprintf(t.tocWarning, text))
	return sb.String()
}
