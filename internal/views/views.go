package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"time"
)

//go:embed templates/*.html
var files embed.FS

// Views holds one parsed template set per page, each combined with the base
// layout so pages can't accidentally bleed blocks into each other.
type Views struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"humandate": func(t time.Time) string {
		return t.Format("2 Jan 2006")
	},
}

func New() (*Views, error) {
	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template)

	for _, name := range names {
		base := filepath.Base(name)
		if base == "base.html" {
			continue
		}

		tmpl, err := template.New(base).Funcs(funcs).ParseFS(files, "templates/base.html", name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", base, err)
		}

		pages[base] = tmpl
	}

	return &Views{pages: pages}, nil
}

func (v *Views) Render(w io.Writer, page string, data any) error {
	tmpl, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown template %q", page)
	}

	return tmpl.ExecuteTemplate(w, "base", data)
}
