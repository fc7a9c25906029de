// Package rss serializes an assembled feed into RSS 2.0 XML.
package rss

import (
	"bytes"
	"encoding/xml"
	"regexp"
	"time"

	"vkrss/models"
)

// RFC 822 date with a four digit year, always rendered from the UTC
// breakdown of the item timestamp.
const pubDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

var interTagSpace = regexp.MustCompile(`>\s+<`)

// Serialize renders the feed as an RSS 2.0 document. In non-debug mode all
// whitespace between adjacent tags is stripped to produce compact output;
// debug mode keeps the human-readable form.
func Serialize(feed *models.Feed, debug bool) []byte {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n<rss version=\"2.0\">\n  <channel>\n")

	writeElement(&buf, "title", feed.Title, 4)
	writeElement(&buf, "link", feed.URL, 4)
	writeElement(&buf, "description", feed.Description, 4)

	if feed.Image != "" {
		buf.WriteString("    <image>\n")
		writeElement(&buf, "url", feed.Image, 6)
		writeElement(&buf, "title", feed.Title, 6)
		writeElement(&buf, "link", feed.URL, 6)
		buf.WriteString("    </image>\n")
	}

	for _, item := range feed.Items {
		writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>\n")

	if debug {
		return buf.Bytes()
	}
	return interTagSpace.ReplaceAll(buf.Bytes(), []byte("><"))
}

func writeItem(buf *bytes.Buffer, item models.FeedItem) {
	buf.WriteString("    <item>\n")

	buf.WriteString(`      <guid isPermaLink="false">`)
	xml.EscapeText(buf, []byte(item.ID))
	buf.WriteString("</guid>\n")

	// Title and author are HTML-safe already: metacharacters in them only
	// occur as entity references, which are valid XML as-is.
	writeRawElement(buf, "title", item.Title, 6)

	if item.URL != "" {
		writeElement(buf, "link", item.URL, 6)
	}

	writeElement(buf, "pubDate", time.Unix(item.Time, 0).UTC().Format(pubDateLayout), 6)

	if item.Author != "" {
		writeRawElement(buf, "author", item.Author, 6)
	}

	// The body is embedded verbatim: it is already escaped HTML.
	buf.WriteString("      <description><![CDATA[")
	buf.WriteString(item.Text)
	buf.WriteString("]]></description>\n")

	for category := range item.Categories {
		writeElement(buf, "category", category, 6)
	}

	buf.WriteString("    </item>\n")
}

func writeElement(buf *bytes.Buffer, tag string, content string, indent int) {
	if content == "" {
		return
	}

	writeIndent(buf, indent)
	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

// writeRawElement writes content that is already entity-escaped.
func writeRawElement(buf *bytes.Buffer, tag string, content string, indent int) {
	if content == "" {
		return
	}

	writeIndent(buf, indent)
	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	buf.WriteString(content)
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func writeIndent(buf *bytes.Buffer, indent int) {
	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}
}
