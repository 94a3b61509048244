package processor

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/ZaguanLabs/webproxy"
)

var openTokenRe = regexp.MustCompile(`\[(H[ABISUX])(\d+)\]`)

// Apply writes translations back into the document at the exact node or
// attribute each segment came from. Translations must be aligned to the
// extraction order; the segment count is asserted before any mutation so a
// misaligned batch never half-applies. Applying twice with the same inputs
// yields the same document.
func Apply(doc *Document, segments []webproxy.Segment, translations []string) (int, error) {
	if len(translations) != len(segments) {
		return 0, &webproxy.CountMismatchError{Stage: "apply", Expected: len(segments), Got: len(translations)}
	}

	applied := 0
	for i := range segments {
		seg := &segments[i]
		node := doc.Node(seg.NodeIndex)
		if node == nil {
			continue
		}
		switch seg.Kind {
		case webproxy.SegmentText:
			node.Data = seg.Leading + translations[i] + seg.Trailing
			applied++
		case webproxy.SegmentAttr:
			setAttr(node, seg.Attr, seg.Leading+translations[i]+seg.Trailing)
			applied++
		case webproxy.SegmentHTML:
			applyHTMLSegment(doc, node, seg, translations[i])
			seg.FinalHTML = innerHTML(node)
			applied++
		}
	}
	return applied, nil
}

// inlinePart is one piece of a tokenized html segment value: either plain
// text or a token with its translated inner text.
type inlinePart struct {
	text  string
	token string
	inner string
}

// applyHTMLSegment rebuilds an element's content from a translated token
// string. The inline child elements are reused, never recreated, so their
// identity (attributes, event hooks in hydrated pages) survives; only the
// text around and inside them is swapped.
func applyHTMLSegment(doc *Document, container *html.Node, seg *webproxy.Segment, translated string) {
	value := seg.Leading + translated + seg.Trailing
	parts := splitInlineTokens(value)

	// Detach everything; token parts reattach their elements below.
	for c := container.FirstChild; c != nil; {
		next := c.NextSibling
		container.RemoveChild(c)
		c = next
	}

	used := make(map[string]bool)
	for _, part := range parts {
		if part.token == "" {
			if part.text != "" {
				container.AppendChild(&html.Node{Type: html.TextNode, Data: part.text})
			}
			continue
		}
		idx, ok := seg.InlineIndex[part.token]
		el := doc.Node(idx)
		if !ok || el == nil {
			// token the extractor never issued: keep the text, drop the marker
			if part.inner != "" {
				container.AppendChild(&html.Node{Type: html.TextNode, Data: part.inner})
			}
			continue
		}
		used[part.token] = true
		setElementText(el, part.inner)
		container.AppendChild(el)
	}

	// Inline elements whose token the translation dropped are reattached at
	// the end rather than lost.
	for token, idx := range seg.InlineIndex {
		if used[token] {
			continue
		}
		if el := doc.Node(idx); el != nil && el.Parent == nil {
			container.AppendChild(el)
		}
	}
}

// splitInlineTokens parses a translated html segment value into parts.
// Unmatched open tokens stay literal text; restoration never throws away
// content.
func splitInlineTokens(s string) []inlinePart {
	var parts []inlinePart
	for s != "" {
		loc := openTokenRe.FindStringSubmatchIndex(s)
		if loc == nil {
			parts = append(parts, inlinePart{text: s})
			break
		}
		if loc[0] > 0 {
			parts = append(parts, inlinePart{text: s[:loc[0]]})
		}
		token := s[loc[2]:loc[3]] + s[loc[4]:loc[5]]
		closing := "[/" + token + "]"
		rest := s[loc[1]:]
		if ci := strings.Index(rest, closing); ci >= 0 {
			parts = append(parts, inlinePart{token: token, inner: rest[:ci]})
			s = rest[ci+len(closing):]
		} else {
			parts = append(parts, inlinePart{text: s[loc[0]:loc[1]]})
			s = rest
		}
	}
	return parts
}

// setElementText replaces el's content with a single text node.
func setElementText(el *html.Node, text string) {
	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		el.RemoveChild(c)
		c = next
	}
	if text != "" {
		el.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}
