package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/docsift/internal/doctree"
)

const drawingNS = "http://schemas.openxmlformats.org/drawingml/2006/main"

// PPTXParser handles .pptx slide decks. Each slide becomes one node titled by
// its title placeholder; the document title is the first text on slide 1.
type PPTXParser struct{}

var slidePathRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

type slideFile struct {
	num  int
	file *zip.File
}

func (p *PPTXParser) Parse(ctx context.Context, r io.Reader, filename string) (*doctree.DocTree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pptx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pptx: %w", err)
	}

	var slides []slideFile
	for _, f := range zr.File {
		if m := slidePathRe.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slideFile{num: n, file: f})
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	tree := &doctree.DocTree{
		Format: doctree.FormatPPTX,
		Method: "pptx",
		Pages:  len(slides),
	}
	for i, s := range slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		shapes, err := readSlide(s.file)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", s.num, err)
		}
		if i == 0 {
			for _, sh := range shapes {
				if sh.text != "" {
					tree.Title = firstLine(sh.text)
					break
				}
			}
		}
		node := &doctree.DocNode{Page: i + 1}
		var body []string
		for _, sh := range shapes {
			if sh.text == "" {
				continue
			}
			if sh.title && node.Title == "" {
				node.Title = strings.Join(strings.Fields(sh.text), " ")
				continue
			}
			body = append(body, sh.text)
		}
		node.Text = strings.Join(body, "\n")
		if node.Title != "" || node.Text != "" {
			tree.Children = append(tree.Children, node)
		}
	}
	if tree.Title == "" {
		tree.Title = stem(filename)
	}
	return tree, nil
}

type shape struct {
	text  string
	title bool
}

// readSlide streams one slide part and returns its shapes in document order.
// Paragraphs inside a shape are separated by newlines.
func readSlide(f *zip.File) ([]shape, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var (
		shapes []shape
		depth  int // nesting of sp / graphicFrame elements
		cur    shape
		para   strings.Builder
		paras  []string
		inText bool
	)
	endPara := func() {
		if t := strings.TrimSpace(para.String()); t != "" {
			paras = append(paras, t)
		}
		para.Reset()
	}

	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case el.Name.Local == "sp" || el.Name.Local == "graphicFrame":
				if depth == 0 {
					cur = shape{}
					paras = nil
				}
				depth++
			case el.Name.Local == "ph":
				for _, a := range el.Attr {
					if a.Name.Local == "type" && (a.Value == "title" || a.Value == "ctrTitle") {
						cur.title = true
					}
				}
			case el.Name.Space == drawingNS && el.Name.Local == "t":
				inText = true
			case el.Name.Space == drawingNS && el.Name.Local == "br":
				para.WriteByte(' ')
			}
		case xml.CharData:
			if inText {
				para.Write(el)
			}
		case xml.EndElement:
			switch {
			case el.Name.Space == drawingNS && el.Name.Local == "t":
				inText = false
			case el.Name.Space == drawingNS && el.Name.Local == "p":
				endPara()
			case el.Name.Local == "sp" || el.Name.Local == "graphicFrame":
				depth--
				if depth == 0 {
					endPara()
					cur.text = strings.Join(paras, "\n")
					shapes = append(shapes, cur)
				}
			}
		}
	}
	return shapes, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
