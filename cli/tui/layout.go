package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/minddock/minddock/cli/tui/styles"
)

// adjustTextareaHeight resizes the textarea based on content line count.
func (m *Model) adjustTextareaHeight() {
	lineCount := strings.Count(m.textarea.Value(), "\n") + 1
	newHeight := max(styles.MinTextareaHeight, min(lineCount, styles.MaxTextareaHeight))
	if m.textarea.Height() != newHeight {
		m.textarea.SetHeight(newHeight)
		m.recalculateLayout()
	}
}

// listWidth is the outer width of the memory list pane.
func (m *Model) listWidth() int {
	return max(styles.MinListWidth, min(m.width/4, styles.MaxListWidth))
}

// recalculateLayout adjusts pane dimensions based on the window size.
//
//	title
//	┌ memories ┐┌ detail ─────┐
//	│          ││             │
//	│          │└─────────────┘
//	│          │┌ transcript ─┐
//	└──────────┘└─────────────┘
//	textarea
//	status
func (m *Model) recalculateLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	bodyHeight := m.height - styles.HeaderHeight - styles.StatusHeight - m.textarea.Height() - styles.InputBorderHeight
	m.listHeight = max(styles.MinViewportHeight, bodyHeight-styles.PaneBorderHeight)

	paneWidth := max(1, m.width-m.listWidth()-styles.PaneStyle.GetHorizontalFrameSize())
	detailHeight := max(styles.MinViewportHeight, bodyHeight/2-styles.PaneBorderHeight)
	transcriptHeight := max(styles.MinViewportHeight, bodyHeight-detailHeight-2*styles.PaneBorderHeight)

	if err := m.renderer.SetWidth(paneWidth - styles.MessageHorizontalFrameSize()); err != nil {
		m.log.Error().Err(err).Msg("resizing renderer")
	}

	if !m.ready {
		m.detail = viewport.New(paneWidth, detailHeight)
		m.transcript = viewport.New(paneWidth, transcriptHeight)
		m.ready = true
	} else {
		m.detail.Width, m.detail.Height = paneWidth, detailHeight
		m.transcript.Width, m.transcript.Height = paneWidth, transcriptHeight
	}
	m.refreshDetail()
	m.refreshTranscript()

	m.textarea.SetWidth(m.width - styles.TextAreaStyle.GetHorizontalPadding() - styles.TextAreaStyle.GetHorizontalBorderSize())
}

// listWindow returns the visible range of the memory list, keeping the cursor in view.
func (m *Model) listWindow() (start, end int) {
	count := len(m.snapshot.Memories)
	if m.listHeight <= 0 || count <= m.listHeight {
		return 0, count
	}
	start = max(0, m.cursor-m.listHeight+1)
	return start, min(count, start+m.listHeight)
}
