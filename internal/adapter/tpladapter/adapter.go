package tpladapter

import (
	"bytes"
	"fmt"
	"html/template"

	_ "embed"

	"github.com/spf13/afero"
)

const (
	templateNamePage    = "PAGE"
	templateNameDocsify = "DOCSIFY"
)

var (
	//go:embed page.html
	defaultPageTemplate string

	//go:embed docsify.html
	docsifyTemplate string
)

// PageSection is a titled block of rendered HTML.
type PageSection struct {
	Title string
	HTML  template.HTML
}

type Page struct {
	Title     string
	Subtitle  string
	Footer    string
	Sections  []PageSection
	Mermaid   bool
	AutoPrint bool
}

type tplAdapter struct {
	tpl *template.Template
}

// NewTplAdapter parses the built-in templates. A non-empty
// templateFileName replaces the page template; it must define "PAGE".
func NewTplAdapter(fs afero.Fs, templateFileName string) (*tplAdapter, error) {
	src := defaultPageTemplate
	if templateFileName != "" {
		data, err := afero.ReadFile(fs, templateFileName)
		if err != nil {
			return nil, fmt.Errorf("cannot read template: %w", err)
		}

		src = string(data)
	}

	tpl := template.New("")
	for _, s := range []string{src, docsifyTemplate} {
		if _, err := tpl.Parse(s); err != nil {
			return nil, fmt.Errorf("cannot parse template: %w", err)
		}
	}

	if tpl.Lookup(templateNamePage) == nil {
		return nil, fmt.Errorf("template %s must be defined", templateNamePage)
	}

	return &tplAdapter{tpl: tpl}, nil
}

// Page renders a standalone HTML document.
func (a *tplAdapter) Page(p *Page) (string, error) {
	return a.execute(templateNamePage, p)
}

// DocsifyIndex renders an index.html that serves README.md with Docsify.
func (a *tplAdapter) DocsifyIndex(title string) (string, error) {
	return a.execute(templateNameDocsify, struct{ Title string }{Title: title})
}

func (a *tplAdapter) execute(name string, data any) (string, error) {
	buf := bytes.Buffer{}
	if err := a.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("cannot execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
