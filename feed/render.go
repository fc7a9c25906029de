package feed

import (
	"fmt"
	"html"
	"strings"
)

// Note: Firefox ignores styles when it displays RSS, so the fragments below
// stick to plain HTML properties where possible.

const vkURL = "https://vk.com/"

func escape(text string) string {
	return html.EscapeString(text)
}

func block(html string) string {
	return "<p>" + html + "</p>"
}

func styledBlock(style string, html string) string {
	return fmt.Sprintf("<p style='%s'>%s</p>", style, html)
}

func em(html string) string {
	return "<b>" + html + "</b>"
}

func image(src string) string {
	return fmt.Sprintf("<img style='display: block; border-style: none;' src='%s' />", escape(src))
}

func link(url string, html string) string {
	return fmt.Sprintf("<a href='%s'>%s</a>", escape(url), html)
}

func vkLink(target string, html string) string {
	return link(vkURL+target, html)
}

func imageBlock(url string, imageSrc string, html string) string {
	return table([][]string{{link(url, image(imageSrc)), html}})
}

func quoteBlock(html string, quotedHTML string) string {
	return block(html) + styledBlock("margin-left: 1em;", quotedHTML)
}

func table(rows [][]string) string {
	const rowSpacing = 10
	const columnSpacing = 10

	var b strings.Builder
	b.WriteString("<table cellpadding='0' cellspacing='0'>")

	for rowID, row := range rows {
		if rowID > 0 {
			fmt.Fprintf(&b, "<tr><td height='%d' colspan='%d'></td></tr>",
				rowSpacing, len(row)+len(row)/2)
		}

		b.WriteString("<tr valign='top'>")

		for columnID, column := range row {
			if columnID > 0 {
				fmt.Fprintf(&b, "<td width='%d'></td>", columnSpacing)
			}
			b.WriteString("<td>" + column + "</td>")
		}

		b.WriteString("</tr>")
	}

	b.WriteString("</table>")

	return b.String()
}
