package messaging

import (
	"testing"

	"classline/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPreview(t *testing.T) {
	t.Run("TextWinsOverAttachment", func(t *testing.T) {
		att := models.Attachment{URL: "u", Kind: models.AttachmentImage}
		assert.Equal(t, "see photo", Preview("see photo", att))
	})

	t.Run("AttachmentOnlyMarkers", func(t *testing.T) {
		cases := map[models.AttachmentKind]string{
			models.AttachmentImage: "📷 Photo",
			models.AttachmentVideo: "🎬 Video",
			models.AttachmentAudio: "🎵 Audio",
		}
		for kind, want := range cases {
			assert.Equal(t, want, Preview("", models.Attachment{URL: "u", Kind: kind}))
		}
		assert.Equal(t, "📎 report.pdf", Preview("", models.Attachment{URL: "u", Kind: models.AttachmentFile, FileName: "report.pdf"}))
	})

	t.Run("NothingToPreview", func(t *testing.T) {
		assert.Equal(t, "", Preview("", models.Attachment{}))
	})
}
