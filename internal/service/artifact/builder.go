package artifact

import (
	"fmt"
	"html/template"
	"path"
	"strings"
	"time"

	"github.com/jgivc/autodocs/internal/adapter/mdadapter"
	"github.com/jgivc/autodocs/internal/adapter/tpladapter"
	"github.com/jgivc/autodocs/internal/archive"
	"github.com/jgivc/autodocs/internal/entity"
	"github.com/jgivc/autodocs/internal/util"
)

const (
	// EntryReadme holds the markdown documentation.
	EntryReadme = "docs/README.md"
	// EntryIndex is the Docsify loader, bundled with extras only.
	EntryIndex = "docs/index.html"
	// EntryWorkflow is the uploaded export, bundled with extras only.
	EntryWorkflow = "docs/workflow.json"

	defaultZipName      = "docs.zip"
	defaultWorkflowName = "workflow.json"
	zipSuffix           = ".docs.zip"
	printSuffix         = ".print.html"
	shareSuffix         = ".html"

	pageSubtitle = "AI-generated documentation for an n8n workflow."
	pageFooter   = "Generated by autodocs"
	emptySection = "<p>(empty)</p>"
	mermaidFence = "```mermaid"
)

type Renderer interface {
	Render(markdown string) (string, *mdadapter.FrontMatter, error)
}

type PageBuilder interface {
	Page(p *tpladapter.Page) (string, error)
	DocsifyIndex(title string) (string, error)
}

type builder struct {
	md           Renderer
	pages        PageBuilder
	bundleExtras bool
}

// NewBuilder returns a builder of artifact payloads. With bundleExtras the
// archive also carries a Docsify index and the original workflow.
func NewBuilder(md Renderer, pages PageBuilder, bundleExtras bool) *builder {
	return &builder{
		md:           md,
		pages:        pages,
		bundleExtras: bundleExtras,
	}
}

// Zip returns the documentation archive with every entry stamped with t.
func (b *builder) Zip(doc *entity.Documentation, t time.Time) ([]byte, error) {
	entries := []archive.Entry{
		{Name: EntryReadme, Content: []byte(mdadapter.ToMarkdown(doc.Content))},
	}

	if b.bundleExtras {
		index, err := b.pages.DocsifyIndex(title(doc))
		if err != nil {
			return nil, fmt.Errorf("cannot build index page: %w", err)
		}

		entries = append(entries,
			archive.Entry{Name: EntryIndex, Content: []byte(index)},
			archive.Entry{Name: EntryWorkflow, Content: []byte(doc.Workflow)},
		)
	}

	return archive.BuildAt(entries, t), nil
}

// Page renders the document as a standalone HTML page. The first front
// matter title found in the document overrides the document title.
func (b *builder) Page(doc *entity.Documentation, autoPrint bool) (string, error) {
	p := &tpladapter.Page{
		Title:     title(doc),
		Subtitle:  pageSubtitle,
		Footer:    pageFooter,
		AutoPrint: autoPrint,
	}

	titled := false
	for _, s := range mdadapter.Sections(doc.Content) {
		if strings.TrimSpace(s.Markdown) == "" {
			p.Sections = append(p.Sections, tpladapter.PageSection{Title: s.Title, HTML: emptySection})

			continue
		}

		html, fm, err := b.md.Render(s.Markdown)
		if err != nil {
			return "", fmt.Errorf("cannot render section %s: %w", s.Key, err)
		}

		if fm != nil && fm.Title != "" && !titled {
			p.Title = fm.Title
			titled = true
		}

		if strings.Contains(s.Markdown, mermaidFence) {
			p.Mermaid = true
		}

		p.Sections = append(p.Sections, tpladapter.PageSection{Title: s.Title, HTML: template.HTML(html)})
	}

	return b.pages.Page(p)
}

// ZipName is the download name of the document archive.
func ZipName(doc *entity.Documentation) string {
	return withSuffix(doc, zipSuffix, defaultZipName)
}

// PrintName is the download name of the printable page.
func PrintName(doc *entity.Documentation) string {
	return withSuffix(doc, printSuffix, "docs"+printSuffix)
}

func shareName(doc *entity.Documentation) string {
	return withSuffix(doc, shareSuffix, "docs"+shareSuffix)
}

func workflowName(doc *entity.Documentation) string {
	name := path.Base(strings.ReplaceAll(doc.FileName, `\`, "/"))
	if name == "" || name == "." || name == "/" {
		return defaultWorkflowName
	}

	return name
}

func withSuffix(doc *entity.Documentation, suffix, fallback string) string {
	base := util.FileBaseName(doc.FileName, "")
	if base == "" {
		return fallback
	}

	return base + suffix
}

func title(doc *entity.Documentation) string {
	if doc.Title != "" {
		return doc.Title
	}

	return entity.DefaultTitle
}
