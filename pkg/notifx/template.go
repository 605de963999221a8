package notifx

import (
	"bytes"
	htmltemplate "html/template"
	"sync"
	texttemplate "text/template"
)

// Rendered is one template executed in both formats. Text is empty when the
// template has no plain-text part.
type Rendered struct {
	HTML string
	Text string
}

type emailTemplate struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// TemplateRegistry stores named email templates: an HTML body and an
// optional plain-text alternative.
type TemplateRegistry struct {
	templates map[string]emailTemplate
	mu        sync.RWMutex
}

func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{templates: make(map[string]emailTemplate)}
}

// Register parses both parts and stores them under name, replacing any
// previous entry. text may be empty.
func (r *TemplateRegistry) Register(name, html, text string) error {
	h, err := htmltemplate.New(name).Option("missingkey=error").Parse(html)
	if err != nil {
		return notifxErrors.NewWithCause(ErrTemplateParse, err).WithDetail("template", name).WithDetail("part", "html")
	}

	entry := emailTemplate{html: h}
	if text != "" {
		t, err := texttemplate.New(name).Option("missingkey=error").Parse(text)
		if err != nil {
			return notifxErrors.NewWithCause(ErrTemplateParse, err).WithDetail("template", name).WithDetail("part", "text")
		}
		entry.text = t
	}

	r.mu.Lock()
	r.templates[name] = entry
	r.mu.Unlock()
	return nil
}

func (r *TemplateRegistry) Render(name string, data any) (Rendered, error) {
	r.mu.RLock()
	entry, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		return Rendered{}, notifxErrors.New(ErrTemplateNotFound).WithDetail("template", name)
	}

	var out Rendered
	var buf bytes.Buffer
	if err := entry.html.Execute(&buf, data); err != nil {
		return Rendered{}, notifxErrors.NewWithCause(ErrTemplateRender, err).WithDetail("template", name)
	}
	out.HTML = buf.String()

	if entry.text != nil {
		buf.Reset()
		if err := entry.text.Execute(&buf, data); err != nil {
			return Rendered{}, notifxErrors.NewWithCause(ErrTemplateRender, err).WithDetail("template", name)
		}
		out.Text = buf.String()
	}
	return out, nil
}
