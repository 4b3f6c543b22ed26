package doctree

import "testing"

func TestFlatten_KeepsSectionTitles(t *testing.T) {
	tree := &DocTree{
		Title:  "Quarterly Review",
		Format: FormatPPTX,
		Pages:  2,
		Children: []*DocNode{
			{Title: "Agenda", Text: "Results. Outlook.", Page: 1},
			{Title: "Results", Children: []*DocNode{{Text: "Revenue grew.", Page: 2}}},
		},
	}

	doc := Flatten(tree, "review.pptx", "Untitled")

	want := "Agenda\nResults. Outlook.\nResults\nRevenue grew."
	if doc.Text != want {
		t.Errorf("expected text %q, got %q", want, doc.Text)
	}
	if doc.Title != "Quarterly Review" {
		t.Errorf("expected title %q, got %q", "Quarterly Review", doc.Title)
	}
	if doc.Source != "review.pptx" || doc.Format != FormatPPTX || doc.Pages != 2 {
		t.Errorf("unexpected metadata: %+v", doc)
	}
}

func TestFlatten_UntitledSentinel(t *testing.T) {
	tree := &DocTree{Title: "   ", Children: []*DocNode{{Text: "body"}}}
	doc := Flatten(tree, "x.txt", "Sans titre")
	if doc.Title != "Sans titre" {
		t.Errorf("expected sentinel title, got %q", doc.Title)
	}
}

func TestFlatten_EmptyTree(t *testing.T) {
	doc := Flatten(&DocTree{}, "empty.pdf", "Untitled")
	if doc.Text != "" {
		t.Errorf("expected empty text, got %q", doc.Text)
	}
}
