package messaging

import "classline/internal/models"

// Preview returns the conversation-list summary line for a message. Text
// content wins; an attachment-only message falls back to a kind marker so the
// list shows something meaningful.
func Preview(content string, attachment models.Attachment) string {
	if content != "" {
		return content
	}
	if !attachment.Present() {
		return ""
	}
	switch attachment.Kind {
	case models.AttachmentImage:
		return "📷 Photo"
	case models.AttachmentVideo:
		return "🎬 Video"
	case models.AttachmentAudio:
		return "🎵 Audio"
	default:
		return "📎 " + attachment.FileName
	}
}
