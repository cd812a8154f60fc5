package cli

import (
	"bytes"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"

	"github.com/minddock/minddock/internal/tags"
	"github.com/minddock/minddock/internal/types"
)

// MemoryTemplate renders memory details from a configurable template.
type MemoryTemplate struct {
	tmpl *template.Template
}

type memoryTemplateData struct {
	Memory *types.Memory
	Owner  string
	Tags   string
}

// NewMemoryTemplate parses text with the sprig functions available.
func NewMemoryTemplate(text string) (*MemoryTemplate, error) {
	tmpl, err := template.New("memory").Funcs(sprig.FuncMap()).Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "parsing memory template")
	}
	return &MemoryTemplate{tmpl: tmpl}, nil
}

// Render executes the template for memory, owned by owner.
func (t *MemoryTemplate) Render(memory *types.Memory, owner string) (string, error) {
	data := &memoryTemplateData{Memory: memory, Owner: owner, Tags: tags.Format(memory.Tags)}
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, "executing memory template")
	}
	return buf.String(), nil
}
