package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docsift/internal/doctree"
)

// ErrUnsupportedFormat is returned for file types no parser handles.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(ctx context.Context, r io.Reader, filename string) (*doctree.DocTree, error)
}

// OCR recovers text from a scanned PDF file.
type OCR interface {
	PDFToText(ctx context.Context, pdfPath, lang string) (string, int, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pptx":     true,
	".pdf":      true,
	".docx":     true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".txt":      true,
}

// Registry picks a parser per file extension. The zero value works and
// disables the PDF OCR fallback.
type Registry struct {
	OCR             OCR
	OCRLang         string
	MinCharsPerPage int // PDFs averaging fewer text-layer chars per page are OCRed
}

// ForFile returns the appropriate parser for a filename.
func (reg *Registry) ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pptx":
		return &PPTXParser{}, nil
	case ".pdf":
		return &PDFParser{OCR: reg.OCR, OCRLang: reg.OCRLang, MinCharsPerPage: reg.MinCharsPerPage}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ForFile resolves a parser with the default registry.
func ForFile(filename string) (Parser, error) {
	return (&Registry{}).ForFile(filename)
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
