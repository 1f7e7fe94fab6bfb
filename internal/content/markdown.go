package content

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var ErrMDConversion = errors.New("markdown conversion failed")

// MarkDownRenderer turns post bodies and page sources into HTML. Raw HTML in
// the source is escaped by goldmark's defaults, which is what we want for
// user-authored bodies.
type MarkDownRenderer struct {
	engine goldmark.Markdown
}

func NewMarkDownRenderer() *MarkDownRenderer {
	engine := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
			extension.TaskList,
			emoji.Emoji,
			highlighting.NewHighlighting(
				// Common themes: "monokai", "dracula", "github", "solarized-dark"
				highlighting.WithStyle("solarized-dark"),
				highlighting.WithGuessLanguage(true),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &MarkDownRenderer{engine: engine}
}

func (m *MarkDownRenderer) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	// html output is larger than markdown add 50% to the buffer
	buf.Grow(len(source) + (len(source) / 2))

	if err := m.engine.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMDConversion, err)
	}

	// worth trading CPU time for RAM?
	return bytes.Clone(buf.Bytes()), nil
}
