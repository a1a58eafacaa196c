package inventory

import (
	"fmt"
	"io"
	"text/template"
)

// TemplateRenderer renders hosts through a caller-provided Go text
// template. Templates receive the host list as {{.Hosts}}.
type TemplateRenderer struct {
	name string
	tmpl *template.Template
}

// NewTemplateRenderer parses the template body up front so a broken
// template fails at registration, not at onboarding time
func NewTemplateRenderer(name, body string) (*TemplateRenderer, error) {
	tmpl, err := template.New(name).Parse(body)
	if err != nil {
		return nil, fmt.Errorf("inventory template %q: %w", name, err)
	}
	return &TemplateRenderer{name: name, tmpl: tmpl}, nil
}

func (r *TemplateRenderer) Format() string {
	return "template:" + r.name
}

// Render executes the template over the host list
func (r *TemplateRenderer) Render(hosts []Host, w io.Writer) error {
	data := struct {
		Hosts []Host
	}{Hosts: hosts}

	if err := r.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("inventory template %q: %w", r.name, err)
	}
	return nil
}
