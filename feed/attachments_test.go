package feed_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"vkrss/feed"
	"vkrss/models"
)

func img(src string) string {
	return "<img style='display: block; border-style: none;' src='" + src + "' />"
}

func TestRenderAttachmentsPriorityOrder(t *testing.T) {
	top, bottom, categories := feed.RenderAttachments([]models.Attachment{
		{Kind: models.AttachmentAudio, Performer: "P", Title: "T", Duration: 61},
		{Kind: models.AttachmentLink, URL: "http://l/", Title: "L"},
		{Kind: models.AttachmentDoc, Title: "D"},
	})

	// Documents render before audio even though they arrived last.
	docAt := strings.Index(bottom, "Документ")
	audioAt := strings.Index(bottom, "Аудиозапись")
	assert.GreaterOrEqual(t, docAt, 0)
	assert.GreaterOrEqual(t, audioAt, 0)
	assert.Less(t, docAt, audioAt)

	assert.Contains(t, top, "Ссылка:")
	assert.Contains(t, bottom, "P - T (01:01)")

	assert.Contains(t, categories, "type/doc")
	assert.Contains(t, categories, "type/link")
	assert.Contains(t, categories, "type/audio")
}

func TestRenderAttachmentsSingularPhoto(t *testing.T) {
	photo := models.Attachment{
		Kind:    models.AttachmentPhoto,
		OwnerID: 1,
		ID:      2,
		Src:     "http://s/",
		SrcBig:  "http://b/",
	}

	t.Run("one photo-like attachment uses the big variant", func(t *testing.T) {
		top, bottom, categories := feed.RenderAttachments([]models.Attachment{photo})

		assert.Equal(t,
			"<p><a href='https://vk.com/photo1_2'>"+img("http://b/")+"</a></p>", top)
		assert.Empty(t, bottom)

		// A plain photo contributes no category of its own.
		assert.Empty(t, categories)
	})

	t.Run("two photo-like attachments use the small variant", func(t *testing.T) {
		top, _, _ := feed.RenderAttachments([]models.Attachment{photo, photo})

		assert.Equal(t, 2, strings.Count(top, "src='http://s/'"))
		assert.NotContains(t, top, "http://b/")
	})

	t.Run("non-photo attachments do not count towards the rule", func(t *testing.T) {
		top, _, _ := feed.RenderAttachments([]models.Attachment{
			photo,
			{Kind: models.AttachmentDoc, Title: "D"},
		})

		assert.Contains(t, top, "src='http://b/'")
	})
}

func TestRenderAttachmentsPostedPhotoCategory(t *testing.T) {
	_, _, categories := feed.RenderAttachments([]models.Attachment{
		{Kind: models.AttachmentPostedPhoto, OwnerID: 1, ID: 2, Src: "s", SrcBig: "b"},
	})

	assert.Contains(t, categories, "type/posted_photo")
}

func TestRenderAttachmentsVideoDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration int64
		want     string
	}{
		{
			name:     "minutes and seconds",
			duration: 125,
			want:     "Clip (02:05)",
		},
		{
			name:     "with hours",
			duration: 3725,
			want:     "Clip (01:02:05)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			top, _, categories := feed.RenderAttachments([]models.Attachment{
				{Kind: models.AttachmentVideo, Title: "Clip", Duration: tt.duration, Image: "http://v/"},
			})

			assert.Contains(t, top, tt.want)
			assert.Contains(t, categories, "type/video")
		})
	}
}

func TestRenderAttachmentsLinkCard(t *testing.T) {
	tests := []struct {
		name       string
		attachment models.Attachment
		contains   []string
	}{
		{
			name: "title only",
			attachment: models.Attachment{
				Kind: models.AttachmentLink, URL: "http://l/", Title: "News",
			},
			contains: []string{"Ссылка:", "<a href='http://l/'>News</a>", "<p>News</p>"},
		},
		{
			name: "description wins over the title",
			attachment: models.Attachment{
				Kind: models.AttachmentLink, URL: "http://l/", Title: "News", Description: "Details",
			},
			contains: []string{"<p>Details</p>"},
		},
		{
			name: "image renders next to the description",
			attachment: models.Attachment{
				Kind: models.AttachmentLink, URL: "http://l/", Title: "News", ImageSrc: "http://i/",
			},
			contains: []string{"<table", "src='http://i/'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			top, _, _ := feed.RenderAttachments([]models.Attachment{tt.attachment})
			for _, want := range tt.contains {
				assert.Contains(t, top, want)
			}
		})
	}
}

func TestRenderAttachmentsUnknownKind(t *testing.T) {
	top, bottom, categories := feed.RenderAttachments([]models.Attachment{
		{Kind: "sticker"},
	})

	assert.Empty(t, top)
	assert.Empty(t, bottom)
	assert.Empty(t, categories)
}
