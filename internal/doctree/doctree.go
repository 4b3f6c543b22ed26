package doctree

import (
	"strings"
	"time"
)

// Format identifies the source document family.
type Format string

const (
	FormatPPTX     Format = "pptx"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatText     Format = "text"
)

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata, first slide, or filename)
	Format   Format     // Source format
	Method   string     // Extraction method, e.g. "pdf-text" or "pdf-ocr"
	Pages    int        // Page or slide count (0 if N/A)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page/slide (0 if N/A)
	Children []*DocNode // Subsections
}

// Document is the flattened, immutable input of one analysis.
type Document struct {
	Source string // Path or upload name the text came from
	Text   string // Extracted raw text
	Title  string // Extracted title, or the "untitled" sentinel
	Format Format
	Method string
	Pages  int
}

// Chunk is a bounded slice of normalized document text.
type Chunk struct {
	Text  string // Chunk text content
	Index int    // Sequence number within document
}

// Keyword is a scored phrase returned by a keyword scorer.
type Keyword struct {
	Phrase string  `json:"phrase"`
	Score  float64 `json:"score"`
}

// Record is the terminal analysis artifact for one document.
type Record struct {
	ID              string    `json:"id,omitempty"`
	Source          string    `json:"source,omitempty"`
	ContentHash     string    `json:"content_hash,omitempty"`
	Title           string    `json:"title"`
	TextLength      int       `json:"text_length"`
	Keywords        []string  `json:"keywords"`
	Summary         string    `json:"summary"`
	TableOfContents string    `json:"table_of_contents"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

// Flatten converts a parsed tree into a Document. Section titles are kept on
// their own lines so structural cues survive into the raw text.
func Flatten(tree *DocTree, source, untitled string) Document {
	var sb strings.Builder
	var walk func(nodes []*DocNode)
	walk = func(nodes []*DocNode) {
		for _, n := range nodes {
			if n.Title != "" {
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(n.Title)
			}
			if n.Text != "" {
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(n.Text)
			}
			walk(n.Children)
		}
	}
	walk(tree.Children)

	title := strings.TrimSpace(tree.Title)
	if title == "" {
		title = untitled
	}
	return Document{
		Source: source,
		Text:   sb.String(),
		Title:  title,
		Format: tree.Format,
		Method: tree.Method,
		Pages:  tree.Pages,
	}
}
