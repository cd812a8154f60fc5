package markdown

import (
	"fmt"
	"strings"

	"github.com/minddock/minddock/internal/tags"
	"github.com/minddock/minddock/internal/types"
)

const timeLayout = "2006-01-02 15:04"

// MemoryDocument lays a memory out as markdown: title, owner and update time,
// tags, content and attachment names.
func MemoryDocument(memory *types.Memory, owner string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", memory.Title)

	meta := []string{}
	if owner != "" {
		meta = append(meta, owner)
	}
	meta = append(meta, "updated "+memory.UpdatedAt.Local().Format(timeLayout))
	if memory.CapturedAt != nil {
		meta = append(meta, "captured "+memory.CapturedAt.Local().Format(timeLayout))
	}
	if memory.SourceDevice != nil && *memory.SourceDevice != "" {
		meta = append(meta, *memory.SourceDevice)
	}
	if memory.SourceLocation != nil && *memory.SourceLocation != "" {
		meta = append(meta, *memory.SourceLocation)
	}
	fmt.Fprintf(&sb, "*%s*\n\n", strings.Join(meta, " · "))

	if len(memory.Tags) > 0 {
		fmt.Fprintf(&sb, "`%s`\n\n", tags.Format(memory.Tags))
	}
	sb.WriteString(strings.TrimSpace(memory.Content))
	sb.WriteString("\n")

	if len(memory.Attachments) > 0 {
		sb.WriteString("\n## Attachments\n\n")
		for _, attachment := range memory.Attachments {
			fmt.Fprintf(&sb, "- %s%s\n", attachment.Filename, attachmentInfo(attachment))
		}
	}
	return sb.String()
}

func attachmentInfo(attachment *types.Attachment) string {
	var parts []string
	if attachment.ContentType != nil && *attachment.ContentType != "" {
		parts = append(parts, *attachment.ContentType)
	}
	if attachment.SizeBytes != nil {
		parts = append(parts, HumanSize(*attachment.SizeBytes))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// ReplyDocument lays an assistant turn out as markdown, followed by its context references.
func ReplyDocument(message *types.ChatMessage) string {
	var sb strings.Builder
	sb.WriteString(message.Content)
	for _, ref := range message.Context {
		sb.WriteString("\n\n> **")
		sb.WriteString(ContextHeading(ref))
		sb.WriteString("**")
		if ref.Snippet != "" {
			sb.WriteString("\n> ")
			sb.WriteString(strings.Join(strings.Fields(ref.Snippet), " "))
		}
	}
	return sb.String()
}

// ContextHeading names a context reference, with its relevance when scored.
func ContextHeading(ref *types.ContextRef) string {
	title := ref.Title
	if title == "" {
		title = ref.MemoryID
	}
	if ref.Score == nil {
		return title
	}
	return fmt.Sprintf("%s · relevance %.2f", title, *ref.Score)
}

// HumanSize formats a byte count.
func HumanSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
