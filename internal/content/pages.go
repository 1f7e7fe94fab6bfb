package content

import (
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/frontmatter"
)

var ErrPageNotFound = errors.New("page not found")

// PageMeta is the frontmatter header of a static markdown page.
type PageMeta struct {
	Title string `yaml:"title"`
	Slug  string `yaml:"slug"`
	Order int    `yaml:"order"`
}

type Page struct {
	Meta PageMeta
	HTML template.HTML
}

// Pages holds the site's static pages (about, privacy, ...) loaded once at
// startup from markdown files with frontmatter.
type Pages struct {
	mu     sync.RWMutex
	bySlug map[string]*Page
	render *MarkDownRenderer
}

func NewPages(renderer *MarkDownRenderer) *Pages {
	return &Pages{
		bySlug: make(map[string]*Page),
		render: renderer,
	}
}

// LoadDir parses every *.md file in dir. A file without a slug in its
// frontmatter falls back to its base name.
func (p *Pages) LoadDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return fmt.Errorf("scanning pages dir: %w", err)
	}

	for _, file := range files {
		if err := p.loadFile(file); err != nil {
			return err
		}
	}

	return nil
}

func (p *Pages) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening page %s: %w", path, err)
	}
	defer f.Close()

	var meta PageMeta
	body, err := frontmatter.Parse(f, &meta)
	if err != nil {
		return fmt.Errorf("parsing frontmatter in %s: %w", path, err)
	}

	if meta.Slug == "" {
		meta.Slug = strings.TrimSuffix(filepath.Base(path), ".md")
	}

	html, err := p.render.Render(body)
	if err != nil {
		return fmt.Errorf("rendering page %s: %w", path, err)
	}

	p.mu.Lock()
	p.bySlug[meta.Slug] = &Page{Meta: meta, HTML: template.HTML(html)}
	p.mu.Unlock()

	return nil
}

func (p *Pages) Get(slug string) (*Page, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	page, ok := p.bySlug[slug]
	if !ok {
		return nil, ErrPageNotFound
	}
	return page, nil
}

// Slugs lists the loaded pages, for building the nav.
func (p *Pages) Slugs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	slugs := make([]string, 0, len(p.bySlug))
	for slug := range p.bySlug {
		slugs = append(slugs, slug)
	}
	return slugs
}
