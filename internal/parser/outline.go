package parser

import (
	"strings"

	"github.com/dgallion1/docsift/internal/doctree"
)

// outline nests sections by heading level while collecting body paragraphs
// under the most recent heading.
type outline struct {
	root  *doctree.DocNode
	stack []level
	text  strings.Builder
	first string // first heading seen
}

type level struct {
	node  *doctree.DocNode
	depth int
}

func newOutline() *outline {
	root := &doctree.DocNode{}
	return &outline{root: root, stack: []level{{node: root}}}
}

func (o *outline) heading(depth int, title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	o.flush()
	if o.first == "" {
		o.first = title
	}
	n := &doctree.DocNode{Title: title}
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].depth >= depth {
		o.stack = o.stack[:len(o.stack)-1]
	}
	parent := o.stack[len(o.stack)-1].node
	parent.Children = append(parent.Children, n)
	o.stack = append(o.stack, level{node: n, depth: depth})
}

func (o *outline) paragraph(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if o.text.Len() > 0 {
		o.text.WriteString("\n\n")
	}
	o.text.WriteString(t)
}

func (o *outline) flush() {
	t := strings.TrimSpace(o.text.String())
	o.text.Reset()
	if t == "" {
		return
	}
	top := o.stack[len(o.stack)-1].node
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// sections returns the top-level nodes. Text that preceded every heading
// becomes a leading untitled node.
func (o *outline) sections() []*doctree.DocNode {
	o.flush()
	nodes := o.root.Children
	if o.root.Text != "" {
		nodes = append([]*doctree.DocNode{{Text: o.root.Text}}, nodes...)
	}
	return nodes
}
