// Package export renders selected sections of an analysis into one
// self-contained HTML document.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/bryanwahyu/scriptlens/internal/domain/analysis"
	"github.com/bryanwahyu/scriptlens/internal/domain/workspace"
)

// ErrNoResult means the script has not been analyzed yet.
var ErrNoResult = errors.New("script has no analysis to export")

const ContentType = "text/html; charset=utf-8"

// Document is everything one export needs.
type Document struct {
	ScriptName  string
	Script      string
	Result      *analysis.Result
	Sections    analysis.SectionSet
	Chat        []workspace.ChatMessage
	GeneratedAt time.Time
}

type section struct {
	Key   analysis.Section
	Label string
}

type view struct {
	Document
	Title    string
	Sections []section
	Date     string
}

// Renderer turns documents into HTML. It is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	tmpl   *template.Template
}

func NewRenderer() *Renderer {
	r := &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
	r.tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
		"markdown": r.markdown,
	}).Parse(reportTemplate))
	return r
}

// markdown converts untrusted model output to sanitized HTML.
func (r *Renderer) markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
}

// Render writes the HTML report for doc. Only the selected sections are
// emitted; an empty selection emits every section.
func (r *Renderer) Render(w io.Writer, doc Document) error {
	if doc.Result == nil {
		return ErrNoResult
	}
	if len(doc.Sections) == 0 {
		doc.Sections = analysis.DefaultSections()
	}
	if doc.GeneratedAt.IsZero() {
		doc.GeneratedAt = time.Now().UTC()
	}
	v := view{
		Document: doc,
		Title:    doc.ScriptName + " analysis",
		Date:     doc.GeneratedAt.Format("2006-01-02 15:04 MST"),
	}
	for _, s := range doc.Sections.Ordered() {
		if s == analysis.SectionInteractiveQA && len(doc.Chat) == 0 {
			continue
		}
		v.Sections = append(v.Sections, section{Key: s, Label: s.Label()})
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, v); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// RenderBytes is Render into memory.
func (r *Renderer) RenderBytes(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename returns the download name for a script's report.
func Filename(scriptName string) string {
	base := filepath.Base(strings.TrimSpace(scriptName))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, base)
	if base == "" || base == "." || base == "-" {
		base = "script"
	}
	return base + "-analysis.html"
}
