package profile

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// NormalizeInput prepares raw captured input for extraction. Voice arrives
// pre-transcribed and text passes through; file input may be an HTML export
// (CRM pages, email threads) and is converted to markdown first so the
// extraction prompt sees prose, not markup.
func NormalizeInput(inputType InputType, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty %s input", inputType)
	}

	switch inputType {
	case InputVoice, InputText:
		return raw, nil
	case InputFile:
		if !looksLikeHTML(raw) {
			return raw, nil
		}
		md, err := htmltomarkdown.ConvertString(raw)
		if err == nil && strings.TrimSpace(md) != "" {
			return strings.TrimSpace(md), nil
		}
		// Markdown conversion chokes on malformed exports; fall back to a
		// plain text walk of whatever parses.
		text := htmlToText(raw)
		if text == "" {
			return "", fmt.Errorf("file input: no text content found")
		}
		return text, nil
	default:
		return "", fmt.Errorf("unknown input type %q", inputType)
	}
}

func looksLikeHTML(s string) bool {
	head := strings.ToLower(s)
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html") ||
		strings.Contains(head, "<body") || strings.Contains(head, "<div")
}

// htmlToText collects visible text from an HTML tree, skipping script and
// style subtrees.
func htmlToText(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return ""
	}
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if sb.Len() > 0 {
					sb.WriteByte('\n')
				}
				sb.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(sb.String())
}
