package memories

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/minddock/minddock/internal/cli"
	"github.com/minddock/minddock/internal/state"
)

// capturedAtLayouts are tried in order. Layouts without a zone are read as local time.
var capturedAtLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"}

// MetadataOpts are the optional capture metadata flags shared by memo and transcribe.
type MetadataOpts struct {
	Tags           string
	CapturedAt     string
	SourceDevice   string
	SourceLocation string
}

func (o *MetadataOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Tags, "tags", "t", "", "comma separated tags")
	cmd.Flags().StringVar(&o.CapturedAt, "captured-at", "", "capture time, RFC3339 or 'YYYY-MM-DD HH:MM'")
	cmd.Flags().StringVar(&o.SourceDevice, "device", "", "device the memory was captured on")
	cmd.Flags().StringVar(&o.SourceLocation, "location", "", "where the memory was captured")
}

func parseCapturedAt(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range capturedAtLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, errors.Errorf("invalid capture time %q", value)
}

func parseContext(value string) (map[string]any, error) {
	if value == "" {
		return nil, nil
	}
	extra := map[string]any{}
	if err := json.Unmarshal([]byte(value), &extra); err != nil {
		return nil, errors.Wrap(err, "parsing context")
	}
	return extra, nil
}

// report prints the outcome of a mutation from the workspace status slot.
func report(workspace *state.Workspace, err error) error {
	status, message := workspace.Status().Get()
	if err != nil {
		if message != "" {
			cli.Error(message)
		}
		return err
	}
	if status != "" {
		cli.Status(status)
	}
	if message != "" {
		// The mutation landed but the follow-up refresh did not.
		cli.Error(message)
	}
	return nil
}
