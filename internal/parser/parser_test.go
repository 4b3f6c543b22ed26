package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/docsift/internal/doctree"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"deck.pptx", "*parser.PPTXParser"},
		{"scan.PDF", "*parser.PDFParser"},
		{"memo.docx", "*parser.DOCXParser"},
		{"notes.md", "*parser.MarkdownParser"},
		{"page.htm", "*parser.HTMLParser"},
		{"plain.txt", "*parser.TextParser"},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.name)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if got := typeName(p); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func typeName(p Parser) string {
	switch p.(type) {
	case *PPTXParser:
		return "*parser.PPTXParser"
	case *PDFParser:
		return "*parser.PDFParser"
	case *DOCXParser:
		return "*parser.DOCXParser"
	case *MarkdownParser:
		return "*parser.MarkdownParser"
	case *HTMLParser:
		return "*parser.HTMLParser"
	case *TextParser:
		return "*parser.TextParser"
	}
	return "unknown"
}

func TestForFile_Unsupported(t *testing.T) {
	for _, name := range []string{"legacy.ppt", "sheet.csv", "noext"} {
		if _, err := ForFile(name); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("%s: expected ErrUnsupportedFormat, got %v", name, err)
		}
		if IsSupportedExtension(name) {
			t.Errorf("%s: expected unsupported", name)
		}
	}
}

const slideXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree>
<p:sp><p:nvSpPr><p:nvPr><p:ph type="%s"/></p:nvPr></p:nvSpPr>
<p:txBody><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>
<p:sp><p:nvSpPr><p:nvPr><p:ph idx="1"/></p:nvPr></p:nvSpPr>
<p:txBody><a:p><a:r><a:t>%s</a:t></a:r><a:r><a:t> suite</a:t></a:r></a:p><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>
</p:spTree></p:cSld></p:sld>`

func buildPPTX(t *testing.T, slides map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range slides {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func slide(kind, title, line1, line2 string) string {
	out := slideXML
	for _, v := range []string{kind, title, line1, line2} {
		out = strings.Replace(out, "%s", v, 1)
	}
	return out
}

func TestPPTXParser_SlidesInNumericOrder(t *testing.T) {
	data := buildPPTX(t, map[string]string{
		"ppt/slides/slide10.xml":           slide("title", "Conclusion", "Fin", "Merci"),
		"ppt/slides/slide2.xml":            slide("title", "Sommaire", "Contexte", "Budget"),
		"ppt/slides/slide1.xml":            slide("ctrTitle", "Revue stratégique 2024", "Direction", "Janvier"),
		"ppt/slides/_rels/slide1.xml.rels": "<Relationships/>",
	})

	tree, err := (&PPTXParser{}).Parse(context.Background(), bytes.NewReader(data), "deck.pptx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "Revue stratégique 2024" {
		t.Errorf("expected first slide text as title, got %q", tree.Title)
	}
	if tree.Format != doctree.FormatPPTX || tree.Pages != 3 {
		t.Errorf("unexpected format/pages %q/%d", tree.Format, tree.Pages)
	}
	if len(tree.Children) != 3 {
		t.Fatalf("expected 3 slides, got %d", len(tree.Children))
	}
	wantTitles := []string{"Revue stratégique 2024", "Sommaire", "Conclusion"}
	for i, w := range wantTitles {
		if tree.Children[i].Title != w {
			t.Errorf("slide %d: expected title %q, got %q", i+1, w, tree.Children[i].Title)
		}
		if tree.Children[i].Page != i+1 {
			t.Errorf("slide %d: expected page %d, got %d", i+1, i+1, tree.Children[i].Page)
		}
	}
	if tree.Children[1].Text != "Contexte suite\nBudget" {
		t.Errorf("unexpected slide body %q", tree.Children[1].Text)
	}
}

func TestPPTXParser_NotAZip(t *testing.T) {
	if _, err := (&PPTXParser{}).Parse(context.Background(), strings.NewReader("not a zip"), "bad.pptx"); err == nil {
		t.Error("expected an error for a non-zip file")
	}
}

func TestPPTXParser_EmptyDeckFallsBackToFilename(t *testing.T) {
	data := buildPPTX(t, map[string]string{"[Content_Types].xml": "<Types/>"})
	tree, err := (&PPTXParser{}).Parse(context.Background(), bytes.NewReader(data), "vide.pptx")
	if err != nil {
		t.Fatal(err)
	}
	if tree.Title != "vide" || len(tree.Children) != 0 {
		t.Errorf("expected empty tree titled by filename, got %+v", tree)
	}
}

func TestHTMLParser_TitleAndSections(t *testing.T) {
	input := `<html><head><title>Rapport</title><style>p{}</style></head>
<body><nav>menu</nav><h1>Intro</h1><p>Premier   paragraphe.</p>
<h2>Détails</h2><ul><li>Point un</li><li>Point deux</li></ul><script>x()</script></body></html>`

	tree, err := (&HTMLParser{}).Parse(context.Background(), strings.NewReader(input), "page.html")
	if err != nil {
		t.Fatal(err)
	}
	if tree.Title != "Rapport" {
		t.Errorf("expected <title> as title, got %q", tree.Title)
	}
	if len(tree.Children) != 1 || tree.Children[0].Title != "Intro" {
		t.Fatalf("expected one h1 section, got %+v", tree.Children)
	}
	if tree.Children[0].Text != "Premier paragraphe." {
		t.Errorf("unexpected intro text %q", tree.Children[0].Text)
	}
	details := tree.Children[0].Children[0]
	if details.Text != "Point un\n\nPoint deux" {
		t.Errorf("unexpected list text %q", details.Text)
	}
	doc := doctree.Flatten(tree, "page.html", "Untitled")
	if strings.Contains(doc.Text, "menu") || strings.Contains(doc.Text, "x()") {
		t.Errorf("expected nav and script skipped, got %q", doc.Text)
	}
}

type fakeOCR struct {
	text  string
	err   error
	calls int
}

func (f *fakeOCR) PDFToText(ctx context.Context, pdfPath, lang string) (string, int, error) {
	f.calls++
	return f.text, 2, f.err
}

func TestPDFParser_UnreadableWithoutOCR(t *testing.T) {
	_, err := (&PDFParser{}).Parse(context.Background(), strings.NewReader("garbage"), "broken.pdf")
	if err == nil {
		t.Error("expected an extraction error")
	}
}

func TestPDFParser_FallsBackToOCR(t *testing.T) {
	ocr := &fakeOCR{text: "Chapitre 1 Introduction\n\nChapitre 2 Résultats"}
	tree, err := (&PDFParser{OCR: ocr, OCRLang: "fra"}).Parse(context.Background(), strings.NewReader("garbage"), "scan.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if ocr.calls != 1 {
		t.Errorf("expected one ocr call, got %d", ocr.calls)
	}
	if tree.Method != "pdf-ocr" || tree.Pages != 2 {
		t.Errorf("unexpected method/pages %q/%d", tree.Method, tree.Pages)
	}
	if tree.Title != "Chapitre 1 Introduction" {
		t.Errorf("expected first line as title, got %q", tree.Title)
	}
	if len(tree.Children) != 2 {
		t.Errorf("expected 2 page nodes, got %d", len(tree.Children))
	}
}

func TestPDFParser_OCRFailureSurfacesExtractionError(t *testing.T) {
	ocr := &fakeOCR{err: errors.New("tesseract missing")}
	if _, err := (&PDFParser{OCR: ocr}).Parse(context.Background(), strings.NewReader("garbage"), "scan.pdf"); err == nil {
		t.Error("expected an error when both text layer and ocr fail")
	}
}

func TestPDFTreeTitleTruncated(t *testing.T) {
	long := strings.Repeat("é", 250)
	tree := pdfTree("x.pdf", "pdf-text", 1, []string{"", long + "\nbody"})
	if got := len([]rune(tree.Title)); got != 200 {
		t.Errorf("expected 200-rune title, got %d", got)
	}
	if tree.Children[0].Page != 2 {
		t.Errorf("expected page numbers to follow source pages, got %d", tree.Children[0].Page)
	}
}
