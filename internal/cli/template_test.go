package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minddock/minddock/internal/configuration"
	"github.com/minddock/minddock/internal/types"
)

func TestDefaultMemoryTemplate(t *testing.T) {
	tmpl, err := NewMemoryTemplate(configuration.DefaultMemoryTemplate)
	require.NoError(t, err)

	output, err := tmpl.Render(&types.Memory{
		Title:       "Groceries",
		Content:     "  milk, eggs \n",
		Tags:        []string{"home"},
		UpdatedAt:   time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local),
		Attachments: []*types.Attachment{{Filename: "list.jpg"}},
	}, "Alice")
	require.NoError(t, err)

	assert.Equal(t, "GROCERIES\nAlice · 2024-05-01 09:30\n#home\n\nmilk, eggs\n\nAttachments:\n  - list.jpg\n", output)
}

func TestMemoryTemplate_Invalid(t *testing.T) {
	_, err := NewMemoryTemplate("{{ .Memory.Title ")
	require.Error(t, err)
}
