// Package mdadapter renders generated documentation to HTML.
package mdadapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jgivc/autodocs/internal/adapter/diagram"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

const (
	SectionDescription   = "description"
	SectionDiagram       = "diagram"
	SectionNodes         = "nodes"
	SectionDocumentation = "documentation"

	emptyPreview = "<pre>(empty)</pre>"
)

// Section is one titled part of a document.
type Section struct {
	Key      string
	Title    string
	Markdown string
}

// FrontMatter holds the optional YAML header of a markdown document.
type FrontMatter struct {
	Title string `yaml:"title"`
}

var jsonSections = []struct {
	key, title, field string
}{
	{key: SectionDescription, title: "Workflow Description", field: diagram.KeyDescription},
	{key: SectionDiagram, title: "Workflow Diagram", field: diagram.KeyDiagram},
	{key: SectionNodes, title: "Node Configuration Details", field: diagram.KeyNodes},
}

type mdAdapter struct {
	md goldmark.Markdown
}

func NewMDAdapter() *mdAdapter {
	return &mdAdapter{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Table,
				extension.Linkify,
				extension.TaskList,
				&frontmatter.Extender{},
				NewDocsExtension(true),
			),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithXHTML(),
			),
		),
	}
}

// Render converts markdown to HTML and returns its front matter, if any.
func (a *mdAdapter) Render(markdown string) (string, *FrontMatter, error) {
	var buf bytes.Buffer

	ctx := parser.NewContext()
	if err := a.md.Convert([]byte(markdown), &buf, parser.WithContext(ctx)); err != nil {
		return "", nil, fmt.Errorf("cannot convert markdown: %w", err)
	}

	fm := &FrontMatter{}
	if data := frontmatter.Get(ctx); data != nil {
		if err := data.Decode(fm); err != nil {
			return "", nil, fmt.Errorf("cannot get frontmatter: %w", err)
		}
	}

	return buf.String(), fm, nil
}

// Preview renders a document as an HTML fragment.
func (a *mdAdapter) Preview(doc string) (string, error) {
	if strings.TrimSpace(doc) == "" {
		return emptyPreview, nil
	}

	sections, isJSON := split(doc)

	var b strings.Builder
	b.WriteString(`<div class="markdown">`)

	for _, s := range sections {
		content, _, err := a.Render(s.Markdown)
		if err != nil {
			return "", err
		}

		if !isJSON {
			b.WriteString(content)

			continue
		}

		fmt.Fprintf(&b, `<section class="doc-block doc-block--%s">%s</section>`, s.Key, content)
	}

	b.WriteString("</div>")

	return b.String(), nil
}

// Sections splits a document into titled parts. JSON documents yield one
// part per non-empty known key; anything else is a single part.
func Sections(doc string) []Section {
	sections, _ := split(doc)

	return sections
}

// ToMarkdown returns the document as a single markdown text.
func ToMarkdown(doc string) string {
	if strings.TrimSpace(doc) == "" {
		return ""
	}

	sections, isJSON := split(doc)
	if !isJSON {
		return strings.TrimSpace(doc) + "\n"
	}

	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, strings.TrimSpace(s.Markdown))
	}

	return strings.Join(parts, "\n\n") + "\n"
}

func split(doc string) ([]Section, bool) {
	trimmed := strings.TrimSpace(doc)

	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		var fields map[string]any
		if err := json.Unmarshal([]byte(trimmed), &fields); err == nil {
			var sections []Section
			for _, s := range jsonSections {
				if text, ok := fields[s.field].(string); ok && text != "" {
					sections = append(sections, Section{Key: s.key, Title: s.title, Markdown: text})
				}
			}

			if len(sections) > 0 {
				return sections, true
			}
		}
	}

	return []Section{{Key: SectionDocumentation, Title: "Documentation", Markdown: doc}}, false
}
