package notification

import (
	"bytes"
	"fmt"
	"html/template"

	"affiliate/internal/outbox"
)

const layout = `<!doctype html>
<html>
<body style="font-family: sans-serif; color: #171717;">
{{if .Program.Logo}}<img src="{{.Program.Logo}}" alt="{{.Program.Name}}" height="32">{{end}}
{{template "content" .}}
<p style="color: #737373; font-size: 12px;">You are receiving this email because you applied to the {{.Program.Name}} partner program.</p>
</body>
</html>`

var contents = map[string]string{
	"partner-application-approved": `{{define "content"}}
<h1>You've been accepted into the {{.Program.Name}} partner program!</h1>
<p>Hi {{if .Partner.Name}}{{.Partner.Name}}{{else}}there{{end}},</p>
<p>Your application to join {{.Program.Name}} has been approved.</p>
{{if .RewardDescription}}<p>{{.RewardDescription}}.</p>{{end}}
<p><a href="{{.BaseURL}}/programs/{{.Program.Slug}}">Go to your dashboard</a></p>
{{if not .Partner.PayoutsEnabled}}<p>Connect a payout account to start receiving your earnings.</p>{{end}}
{{end}}`,
	"partner-application-rejected": `{{define "content"}}
<h1>Your application to {{.Program.Name}}</h1>
<p>Hi {{if .Partner.Name}}{{.Partner.Name}}{{else}}there{{end}},</p>
<p>Thank you for your interest in the {{.Program.Name}} partner program. Unfortunately your application was not approved at this time.</p>
{{end}}`,
}

type templateData struct {
	outbox.EmailProps
	BaseURL string
}

// Renderer turns template names plus props into HTML bodies
type Renderer struct {
	baseURL   string
	templates map[string]*template.Template
}

func NewRenderer(baseURL string) (*Renderer, error) {
	r := &Renderer{baseURL: baseURL, templates: make(map[string]*template.Template, len(contents))}
	for name, body := range contents {
		t, err := template.New(name).Parse(layout)
		if err != nil {
			return nil, fmt.Errorf("parse layout: %w", err)
		}
		if _, err := t.Parse(body); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Render executes the named template against props
func (r *Renderer) Render(name string, props outbox.EmailProps) (string, error) {
	t, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: unknown email template %q", outbox.ErrPermanent, name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, templateData{EmailProps: props, BaseURL: r.baseURL}); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
