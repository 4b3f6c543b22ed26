package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/docsift/internal/doctree"
)

// DefaultMinCharsPerPage is the text-layer density below which a PDF is
// treated as scanned.
const DefaultMinCharsPerPage = 50

// PDFParser reads the PDF text layer and falls back to OCR when the layer is
// too sparse and the file carries page images.
type PDFParser struct {
	OCR             OCR
	OCRLang         string
	MinCharsPerPage int
	Log             *slog.Logger
}

func (p *PDFParser) Parse(ctx context.Context, r io.Reader, filename string) (*doctree.DocTree, error) {
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	minChars := p.MinCharsPerPage
	if minChars <= 0 {
		minChars = DefaultMinCharsPerPage
	}

	// ledongthuc/pdf, pdfcpu and pdftoppm all want a file on disk.
	tmp, err := os.CreateTemp("", "docsift-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, textErr := extractPDFPages(tmpPath)
	chars := 0
	for _, pg := range pages {
		chars += utf8.RuneCountInString(strings.TrimSpace(pg))
	}

	scan := inspectPDF(tmpPath)
	pageCount := len(pages)
	if scan.pages > pageCount {
		pageCount = scan.pages
	}

	sparse := pageCount == 0 || chars/max(pageCount, 1) < minChars
	if sparse && p.OCR != nil && scan.images {
		log.Info("pdf text layer sparse, running ocr", "file", filename, "pages", pageCount, "chars", chars)
		text, n, err := p.OCR.PDFToText(ctx, tmpPath, p.OCRLang)
		if err == nil && strings.TrimSpace(text) != "" {
			return pdfTree(filename, "pdf-ocr", max(n, pageCount), strings.Split(text, "\n\n")), nil
		}
		log.Warn("pdf ocr failed, keeping text layer", "file", filename, "error", err)
	}

	if textErr != nil && chars == 0 {
		return nil, fmt.Errorf("extract pdf text: %w", textErr)
	}
	return pdfTree(filename, "pdf-text", pageCount, pages), nil
}

// pdfTree builds one node per non-empty page. The title is the first
// non-empty line of the document.
func pdfTree(filename, method string, pageCount int, pages []string) *doctree.DocTree {
	tree := &doctree.DocTree{
		Format: doctree.FormatPDF,
		Method: method,
		Pages:  pageCount,
	}
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		if tree.Title == "" {
			tree.Title = truncateRunes(firstLine(page), 200)
		}
		tree.Children = append(tree.Children, &doctree.DocNode{Text: page, Page: i + 1})
	}
	if tree.Title == "" {
		tree.Title = stem(filename)
	}
	return tree
}

func extractPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
