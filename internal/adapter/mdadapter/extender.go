package mdadapter

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// Takes precedence over the default HTML renderer (priority 1000).
const rendererPriority = 100

// DocsExtension renders diagrams embedded in generated documentation.
type DocsExtension struct {
	XHTML bool
}

func NewDocsExtension(xhtml bool) goldmark.Extender {
	return &DocsExtension{XHTML: xhtml}
}

func (e *DocsExtension) Extend(m goldmark.Markdown) {
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(NewCodeBlockRenderer(), rendererPriority),
			util.Prioritized(NewImageRenderer(e.XHTML), rendererPriority),
		),
	)
}
