package feed

import (
	"net/url"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"vkrss/models"
)

// Annotate splices positional span annotations into text and returns the
// body HTML plus a secondary HTML string with the media blocks contributed
// by media spans, to be rendered after the main paragraph.
//
// The text is traversed right to left: every character of the input ends up
// in the output exactly once, either HTML-escaped as a literal or consumed
// by exactly one span's rendering. Spans with out-of-range offsets are
// clamped to the text bounds; spans of an unknown kind degrade to escaped
// literal text.
func Annotate(text string, spans []models.Span) (string, string) {
	sorted := make([]models.Span, len(spans))
	copy(sorted, spans)

	// Stable, so equal-start spans keep the provider-given order.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start > sorted[j].Start
	})

	// Segments are collected in reverse order and joined backwards once,
	// instead of repeatedly prepending to an accumulator string.
	var segments []string
	var media strings.Builder
	pos := len(text)

	for _, span := range sorted {
		start := clamp(span.Start, len(text))
		end := clamp(span.End, len(text))
		if start > end {
			start = end
		}

		if end < pos {
			segments = append(segments, escape(text[end:pos]))
		}

		slice := text[start:end]

		switch span.Kind {
		case models.SpanLink:
			segments = append(segments, link(span.URL, escape(display(span, slice))))
		case models.SpanMention:
			segments = append(segments, em(link(mentionURL(span), escape(span.Name))))
		case models.SpanHashtag:
			segments = append(segments, link(hashtagURL(span, slice), escape(slice)))
		case models.SpanMedia:
			segments = append(segments, link(span.URL, escape(display(span, slice))))
			media.WriteString(block(link(span.URL, image(span.ImageSrc))))
		default:
			log.WithFields(log.Fields{
				"kind": span.Kind,
				"text": slice,
			}).Warn("Unknown text span kind")
			segments = append(segments, escape(slice))
		}

		pos = start
	}

	if pos > 0 {
		segments = append(segments, escape(text[:pos]))
	}

	var b strings.Builder
	for i := len(segments) - 1; i >= 0; i-- {
		b.WriteString(segments[i])
	}

	return b.String(), media.String()
}

func clamp(offset int, length int) int {
	if offset < 0 {
		return 0
	}
	if offset > length {
		return length
	}
	return offset
}

func display(span models.Span, slice string) string {
	if span.Text != "" {
		return span.Text
	}
	return slice
}

func mentionURL(span models.Span) string {
	if span.URL != "" {
		return span.URL
	}
	return userURL(span.UserID)
}

func hashtagURL(span models.Span, slice string) string {
	if span.URL != "" {
		return span.URL
	}
	return vkURL + "search?" + url.Values{"c[q]": {slice}}.Encode()
}
