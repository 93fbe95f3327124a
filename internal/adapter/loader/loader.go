package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"resumerag/internal/domain"
	"resumerag/internal/port"
)

var _ port.DocumentLoader = (*Loader)(nil)

// ErrUnsupportedFormat is returned for files the loader cannot extract.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// Metadata keys set on loaded documents.
const (
	MetaType   = "type"
	MetaSource = "source"
)

// Loader extracts plain text from .txt and markdown files.
type Loader struct {
	md goldmark.Markdown
}

func New() *Loader {
	return &Loader{md: goldmark.New()}
}

// Supported reports whether Load can handle path.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		return true
	}
	return false
}

// Load reads path and returns a document named after the file's base name.
func (l *Loader) Load(path string) (domain.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(path) {
		return domain.Document{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc := domain.Document{
		Name: filepath.Base(path),
		Meta: map[string]string{MetaSource: path},
	}

	switch ext {
	case ".txt":
		doc.Text = strings.ToValidUTF8(string(data), "")
		doc.Meta[MetaType] = "txt"
	default:
		doc.Text = l.MarkdownText(data)
		doc.Meta[MetaType] = "md"
	}

	return doc, nil
}

// MarkdownText flattens markdown into plain text. Headings and paragraphs
// become blank-line separated blocks so resume section headers stay on their
// own line.
func (l *Loader) MarkdownText(source []byte) string {
	source = bytes.ToValidUTF8(source, nil)
	doc := l.md.Parser().Parse(text.NewReader(source))

	var buf strings.Builder
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				buf.Write(node.Segment.Value(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					buf.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				buf.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				buf.Write(node.URL(source))
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(source))
				}
				buf.WriteString("\n\n")
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Heading, *ast.Paragraph:
			if !entering {
				buf.WriteString("\n\n")
			}
		case *ast.TextBlock, *ast.ThematicBreak:
			if !entering {
				buf.WriteByte('\n')
			}
		case *ast.List:
			if !entering {
				buf.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(buf.String())
}
