package transport

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"

	"xoxo/internal/candy"
)

const DefaultSubject = "Your daily candy"

const defaultTemplate = `<!DOCTYPE html>
<html>
<body>
<p>Hi {{.Recipient}},</p>
{{if .Note}}<div class="note">{{.Note}}</div>
{{end}}{{if .Attachments}}<p>Attached: {{range $i, $a := .Attachments}}{{if $i}}, {{end}}{{$a}}{{end}}</p>
{{end}}<p>xoxo</p>
</body>
</html>
`

// Presenter turns a candy into an e-mail subject and HTML body.
type Presenter struct {
	subject string
	tmpl    *template.Template
}

type bodyData struct {
	Recipient   string
	Note        template.HTML
	Attachments []string
}

// NewPresenter uses the template at templatePath, or the built-in one when
// templatePath is empty.
func NewPresenter(subject, templatePath string) (*Presenter, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	src := defaultTemplate
	if templatePath != "" {
		b, err := os.ReadFile(templatePath)
		if err != nil {
			return nil, fmt.Errorf("read template: %w", err)
		}
		src = string(b)
	}
	tmpl, err := template.New("candy").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &Presenter{subject: subject, tmpl: tmpl}, nil
}

func (p *Presenter) Subject() string { return p.subject }

// Body renders the note as Markdown inside the HTML template.
func (p *Presenter) Body(recipient string, c candy.Candy) (string, error) {
	data := bodyData{Recipient: recipient}
	if c.HasNote && c.Note != "" {
		var note bytes.Buffer
		if err := goldmark.Convert([]byte(c.Note), &note); err != nil {
			return "", fmt.Errorf("render note: %w", err)
		}
		data.Note = template.HTML(note.String())
	}
	for _, a := range c.Attachments {
		data.Attachments = append(data.Attachments, filepath.Base(a))
	}
	var out bytes.Buffer
	if err := p.tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render body: %w", err)
	}
	return out.String(), nil
}
