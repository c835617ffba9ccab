package mdadapter

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

const (
	langMermaid    = "mermaid"
	svgImagePrefix = "data:image/svg+xml;base64,"
)

// CodeBlockRenderer renders fenced code. Mermaid blocks become a div for
// the client side renderer.
type CodeBlockRenderer struct{}

func NewCodeBlockRenderer() renderer.NodeRenderer {
	return &CodeBlockRenderer{}
}

func (r *CodeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *CodeBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	n, ok := node.(*ast.FencedCodeBlock)
	if !ok {
		return ast.WalkStop, fmt.Errorf("unexpected node %T, expected *ast.FencedCodeBlock", node)
	}

	lang := n.Language(source)
	if bytes.EqualFold(lang, []byte(langMermaid)) {
		w.WriteString(`<div class="mermaid">`)
		writeLines(w, source, n)
		w.WriteString("</div>\n")

		return ast.WalkSkipChildren, nil
	}

	w.WriteString("<pre><code")
	if lang != nil {
		w.WriteString(` class="language-`)
		w.Write(util.EscapeHTML(lang))
		w.WriteByte('"')
	}
	w.WriteByte('>')
	writeLines(w, source, n)
	w.WriteString("</code></pre>\n")

	return ast.WalkSkipChildren, nil
}

func writeLines(w util.BufWriter, source []byte, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		w.Write(util.EscapeHTML(line.Value(source)))
	}
}

// ImageRenderer renders images like the default renderer but keeps
// embedded SVG diagrams, which the default renderer drops as unsafe.
type ImageRenderer struct {
	xhtml bool
}

func NewImageRenderer(xhtml bool) renderer.NodeRenderer {
	return &ImageRenderer{xhtml: xhtml}
}

func (r *ImageRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindImage, r.renderImage)
}

func (r *ImageRenderer) renderImage(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	n, ok := node.(*ast.Image)
	if !ok {
		return ast.WalkStop, fmt.Errorf("unexpected node %T, expected *ast.Image", node)
	}

	w.WriteString(`<img src="`)
	if isSVGImage(n.Destination) || !html.IsDangerousURL(n.Destination) {
		w.Write(util.EscapeHTML(util.URLEscape(n.Destination, true)))
	}
	w.WriteString(`" alt="`)
	w.Write(util.EscapeHTML(plainText(n, source)))
	w.WriteByte('"')

	if n.Title != nil {
		w.WriteString(` title="`)
		w.Write(util.EscapeHTML(n.Title))
		w.WriteByte('"')
	}

	if r.xhtml {
		w.WriteString(" />")
	} else {
		w.WriteString(">")
	}

	return ast.WalkSkipChildren, nil
}

func isSVGImage(dest []byte) bool {
	return len(dest) >= len(svgImagePrefix) && bytes.EqualFold(dest[:len(svgImagePrefix)], []byte(svgImagePrefix))
}

func plainText(n ast.Node, source []byte) []byte {
	var buf bytes.Buffer

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.Write(plainText(c, source))
		}
	}

	return buf.Bytes()
}
