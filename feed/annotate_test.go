package feed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vkrss/feed"
	"vkrss/models"
)

func TestAnnotate(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		spans     []models.Span
		wantHTML  string
		wantMedia string
	}{
		{
			name:     "plain text is escaped",
			text:     "a < b & c",
			wantHTML: "a &lt; b &amp; c",
		},
		{
			name: "mention",
			text: "hello Bob!",
			spans: []models.Span{
				{Kind: models.SpanMention, Start: 6, End: 9, UserID: 5, Name: "Bob"},
			},
			wantHTML: "hello <b><a href='https://vk.com/id5'>Bob</a></b>!",
		},
		{
			name: "link keeps the covered text as display text",
			text: "see vk.com/x now",
			spans: []models.Span{
				{Kind: models.SpanLink, Start: 4, End: 12, URL: "http://vk.com/x"},
			},
			wantHTML: "see <a href='http://vk.com/x'>vk.com/x</a> now",
		},
		{
			name: "link prefers the span display text",
			text: "see vk.com/x now",
			spans: []models.Span{
				{Kind: models.SpanLink, Start: 4, End: 12, URL: "http://vk.com/x", Text: "here"},
			},
			wantHTML: "see <a href='http://vk.com/x'>here</a> now",
		},
		{
			name: "hashtag without URL links to search",
			text: "go #tag",
			spans: []models.Span{
				{Kind: models.SpanHashtag, Start: 3, End: 7},
			},
			wantHTML: "go <a href='https://vk.com/search?c%5Bq%5D=%23tag'>#tag</a>",
		},
		{
			name: "offsets are clamped to the text bounds",
			text: "abcd",
			spans: []models.Span{
				{Kind: models.SpanLink, Start: -3, End: 99, URL: "http://e/"},
			},
			wantHTML: "<a href='http://e/'>abcd</a>",
		},
		{
			name: "unknown span kind degrades to escaped text",
			text: "<hi>",
			spans: []models.Span{
				{Kind: "marquee", Start: 0, End: 4},
			},
			wantHTML: "&lt;hi&gt;",
		},
		{
			name: "spans are applied in text order regardless of input order",
			text: "a b c",
			spans: []models.Span{
				{Kind: models.SpanLink, Start: 4, End: 5, URL: "http://x/"},
				{Kind: models.SpanLink, Start: 0, End: 1, URL: "http://y/"},
			},
			wantHTML: "<a href='http://y/'>a</a> b <a href='http://x/'>c</a>",
		},
		{
			name: "media span renders inline and contributes a media block",
			text: "pic",
			spans: []models.Span{
				{Kind: models.SpanMedia, Start: 0, End: 3, URL: "http://p/", ImageSrc: "http://i/"},
			},
			wantHTML: "<a href='http://p/'>pic</a>",
			wantMedia: "<p><a href='http://p/'>" +
				"<img style='display: block; border-style: none;' src='http://i/' />" +
				"</a></p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, media := feed.Annotate(tt.text, tt.spans)
			assert.Equal(t, tt.wantHTML, html)
			assert.Equal(t, tt.wantMedia, media)
		})
	}
}
