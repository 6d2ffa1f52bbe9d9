package fetch

import (
	"strings"

	"golang.org/x/net/html"
)

// skipElements are page regions dropped during text extraction:
// navigation and boilerplate contribute noise, scripts and styles are
// not content at all.
var skipElements = map[string]bool{
	"nav":      true,
	"header":   true,
	"footer":   true,
	"script":   true,
	"style":    true,
	"noscript": true,
}

// blockElements get a newline separator so extracted text keeps rough
// paragraph structure before whitespace collapsing.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// ExtractText converts an HTML document to plain text, skipping
// navigation, header, footer, script, and style regions. Malformed
// HTML is handled leniently by the parser; extraction never fails.
func ExtractText(htmlSrc string) string {
	doc, err := html.Parse(strings.NewReader(htmlSrc))
	if err != nil {
		// html.Parse only fails on reader errors; a string reader has none.
		return htmlSrc
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			b.WriteByte('\n')
		}
	}
	walk(doc)
	return b.String()
}
