package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ExportFormat selects the transcript export encoding.
type ExportFormat string

const (
	ExportMarkdown ExportFormat = "markdown"
	ExportJSON     ExportFormat = "json"
)

// ParseExportFormat accepts "markdown", "md" and "json". Empty means markdown.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return ExportMarkdown, nil
	case "json":
		return ExportJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q (valid: markdown, json)", s)
}

// Export renders snap in the given format.
func Export(snap Snapshot, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportMarkdown:
		return []byte(ExportToMarkdown(snap)), nil
	case ExportJSON:
		return ExportToJSON(snap)
	}
	return nil, fmt.Errorf("unknown export format %q", format)
}

// ExportToMarkdown renders the transcript as a markdown document with one
// section per message. Replies are already markdown and are embedded as is.
func ExportToMarkdown(snap Snapshot) string {
	var sb strings.Builder

	sb.WriteString("# Chat transcript\n\n")
	sb.WriteString("**Session:** ")
	sb.WriteString(snap.SessionID)
	sb.WriteString("\n")
	sb.WriteString("**Messages:** ")
	sb.WriteString(fmt.Sprintf("%d", len(snap.Messages)))
	sb.WriteString("\n\n---\n\n")

	for i, msg := range snap.Messages {
		role := "User"
		if msg.Sender == SenderAssistant {
			role = "Assistant"
		}

		sb.WriteString("## ")
		sb.WriteString(role)
		if !msg.Time.IsZero() {
			sb.WriteString(" (")
			sb.WriteString(msg.Time.Format("15:04:05"))
			sb.WriteString(")")
		}
		sb.WriteString("\n\n")
		sb.WriteString(msg.Text)
		sb.WriteString("\n")

		if i < len(snap.Messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

// ExportToJSON renders the transcript as indented JSON with an export
// timestamp.
func ExportToJSON(snap Snapshot) ([]byte, error) {
	export := struct {
		SessionID  string    `json:"session_id"`
		ExportedAt time.Time `json:"exported_at"`
		Messages   []Message `json:"messages"`
	}{
		SessionID:  snap.SessionID,
		ExportedAt: time.Now().UTC(),
		Messages:   snap.Messages,
	}
	if export.Messages == nil {
		export.Messages = []Message{}
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transcript: %w", err)
	}
	return data, nil
}
