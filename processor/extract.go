package processor

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ZaguanLabs/webproxy"
)

// inlineTags are elements that get folded into a parent's html segment as
// paired placeholder tokens instead of producing their own segments.
var inlineTags = map[string]bool{
	"a": true, "b": true, "strong": true, "i": true, "em": true,
	"u": true, "s": true, "span": true, "small": true, "sup": true,
	"sub": true, "mark": true, "abbr": true, "cite": true, "q": true,
	"time": true, "ins": true, "del": true, "br": true, "wbr": true,
}

// tokenFamily maps an inline tag to its placeholder family letter, so a
// bolded phrase shows up to the translator as [HB1]...[/HB1].
func tokenFamily(tag string) string {
	switch strings.ToLower(tag) {
	case "a":
		return "HA"
	case "b", "strong":
		return "HB"
	case "i", "em":
		return "HI"
	case "u", "ins":
		return "HU"
	case "span":
		return "HS"
	default:
		return "HX"
	}
}

// translatableAttrs are checked on every element, in this order.
var translatableAttrs = []string{"alt", "title", "placeholder", "aria-label"}

// metaContentNames are <meta> name/property values whose content attribute
// is translated.
var metaContentNames = map[string]bool{
	"description":    true,
	"og:title":       true,
	"og:description": true,
}

var wsRun = regexp.MustCompile(`\s+`)

// ExtractOptions configures one extraction pass.
type ExtractOptions struct {
	// SkipSelectors lists CSS selectors whose subtrees are omitted entirely.
	SkipSelectors []string
	// OriginHost marks absolute links as internal for pathname collection.
	OriginHost string
	// Logger receives diagnostics for invalid skip selectors.
	Logger *zap.Logger
}

type extractor struct {
	doc       *Document
	skip      []cascadia.SelectorGroup
	origin    string
	segments  []webproxy.Segment
	linkPaths []string
	seenPaths map[string]bool
}

// Extract walks the document and produces the ordered translatable segment
// list plus, separately, the internal link pathnames found on the page.
// Segment order is the contract every later stage depends on: cache
// matching, translation, pattern restoration, and application all address
// segments by their position in this list.
func Extract(doc *Document, opts ExtractOptions) ([]webproxy.Segment, []string) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &extractor{
		doc:       doc,
		origin:    strings.ToLower(opts.OriginHost),
		seenPaths: make(map[string]bool),
	}

	for _, sel := range opts.SkipSelectors {
		group, err := cascadia.ParseGroup(sel)
		if err != nil {
			logger.Warn("ignoring invalid skip selector", zap.String("selector", sel), zap.Error(err))
			continue
		}
		e.skip = append(e.skip, group)
	}

	e.extractTitle()
	for _, root := range doc.roots() {
		e.walkBody(root)
	}
	for _, root := range doc.roots() {
		e.walkAttrs(root)
	}
	e.collectLinks()

	return e.segments, e.linkPaths
}

// skipElement reports whether an element's subtree is excluded: a fixed skip
// tag, a data-no-translate marker, or a configured skip selector.
func (e *extractor) skipElement(n *html.Node) bool {
	if webproxy.SkipTags[strings.ToLower(n.Data)] {
		return true
	}
	if _, ok := getAttr(n, "data-no-translate"); ok {
		return true
	}
	for _, group := range e.skip {
		if group.Match(n) {
			return true
		}
	}
	return false
}

// extractTitle emits the <title> text as the first segment.
func (e *extractor) extractTitle() {
	sel := e.doc.Find("head > title")
	if sel.Length() == 0 {
		sel = e.doc.Find("title")
	}
	if sel.Length() == 0 {
		return
	}
	title := sel.Nodes[0]
	if e.skipElement(title) {
		return
	}
	for c := title.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			e.addTextSegment(c, false)
			return
		}
	}
}

// findBody locates the body element under root, falling back to root itself
// for fragments.
func (e *extractor) walkBody(root *html.Node) {
	var body *html.Node
	var find func(n *html.Node)
	find = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(root)
	if body == nil {
		body = root
	}
	e.walk(body, false)
}

// walk visits n's subtree in document order, emitting text and html
// segments. An element whose children were grouped into an html segment is
// fully consumed: the walk does not descend into it again, so grouped
// children never produce independent segments.
func (e *extractor) walk(n *html.Node, inPre bool) {
	switch n.Type {
	case html.ElementNode:
		if e.skipElement(n) {
			return
		}
		if n.Data == "pre" {
			inPre = true
		}
		if e.groupable(n) {
			e.addGroupSegment(n, inPre)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			e.walk(c, inPre)
		}
	case html.TextNode:
		e.addTextSegment(n, inPre)
	}
}

// groupable reports whether n's content should become a single html
// segment: at least one inline element child, no block children, no skipped
// inline children, and some text content.
func (e *extractor) groupable(n *html.Node) bool {
	inline := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if !inlineTags[strings.ToLower(c.Data)] || e.skipElement(c) {
			return false
		}
		inline++
	}
	return inline > 0 && strings.TrimSpace(flattenText(n)) != ""
}

// addTextSegment emits a text segment for a non-empty text node. Inside
// <pre>, content is preserved verbatim; elsewhere whitespace runs collapse
// to single spaces with the exact leading/trailing runs recorded.
func (e *extractor) addTextSegment(n *html.Node, inPre bool) {
	if strings.TrimSpace(n.Data) == "" {
		return
	}
	seg := webproxy.Segment{Kind: webproxy.SegmentText, NodeIndex: e.doc.addNode(n)}
	if inPre {
		seg.Value = n.Data
	} else {
		seg.Leading, seg.Trailing = splitWhitespace(n.Data)
		seg.Value = wsRun.ReplaceAllString(strings.TrimSpace(n.Data), " ")
	}
	e.segments = append(e.segments, seg)
}

// addGroupSegment folds n's children into one html segment with paired
// inline tokens, numbered per family in document order.
func (e *extractor) addGroupSegment(n *html.Node, inPre bool) {
	var b strings.Builder
	famCounts := make(map[string]int)
	inlineIndex := make(map[string]int)

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
		case html.ElementNode:
			fam := tokenFamily(c.Data)
			famCounts[fam]++
			token := fmt.Sprintf("%s%d", fam, famCounts[fam])
			inlineIndex[token] = e.doc.addNode(c)
			fmt.Fprintf(&b, "[%s]%s[/%s]", token, flattenText(c), token)
		}
	}

	raw := b.String()
	if strings.TrimSpace(raw) == "" {
		return
	}

	seg := webproxy.Segment{
		Kind:        webproxy.SegmentHTML,
		NodeIndex:   e.doc.addNode(n),
		InlineIndex: inlineIndex,
	}
	if inPre {
		seg.Value = raw
	} else {
		seg.Leading, seg.Trailing = splitWhitespace(raw)
		seg.Value = wsRun.ReplaceAllString(strings.TrimSpace(raw), " ")
	}
	e.segments = append(e.segments, seg)
}

// walkAttrs emits attribute segments in document order, after all text and
// html segments.
func (e *extractor) walkAttrs(n *html.Node) {
	if n.Type == html.ElementNode {
		if e.skipElement(n) {
			return
		}
		e.addAttrSegments(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.walkAttrs(c)
	}
}

func (e *extractor) addAttrSegments(n *html.Node) {
	if n.Data == "meta" {
		name, _ := getAttr(n, "name")
		if name == "" {
			name, _ = getAttr(n, "property")
		}
		if metaContentNames[strings.ToLower(name)] {
			if content, ok := getAttr(n, "content"); ok && strings.TrimSpace(content) != "" {
				e.addAttrSegment(n, "content", content)
			}
		}
		return
	}
	for _, attr := range translatableAttrs {
		if val, ok := getAttr(n, attr); ok && strings.TrimSpace(val) != "" {
			e.addAttrSegment(n, attr, val)
		}
	}
}

func (e *extractor) addAttrSegment(n *html.Node, attr, val string) {
	leading, trailing := splitWhitespace(val)
	e.segments = append(e.segments, webproxy.Segment{
		Kind:      webproxy.SegmentAttr,
		Attr:      attr,
		Value:     wsRun.ReplaceAllString(strings.TrimSpace(val), " "),
		Leading:   leading,
		Trailing:  trailing,
		NodeIndex: e.doc.addNode(n),
	})
}

// collectLinks gathers internal link pathnames, deduplicated in document
// order. Asset paths are excluded: they are never translated.
func (e *extractor) collectLinks() {
	e.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
			return
		}
		if u.Host != "" && !strings.EqualFold(u.Host, e.origin) {
			return
		}
		path := u.Path
		if path == "" || path == "/" || !strings.HasPrefix(path, "/") {
			return
		}
		if webproxy.IsStaticAsset(path) {
			return
		}
		if e.seenPaths[path] {
			return
		}
		e.seenPaths[path] = true
		e.linkPaths = append(e.linkPaths, path)
	})
}

// flattenText returns n's text content with all markup stripped.
func flattenText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}

// splitWhitespace returns the exact leading and trailing whitespace runs.
func splitWhitespace(s string) (string, string) {
	trimmedLeft := strings.TrimLeft(s, " \t\n\r")
	leading := s[:len(s)-len(trimmedLeft)]

	trimmedRight := strings.TrimRight(s, " \t\n\r")
	trailing := ""
	if len(trimmedRight) < len(s) {
		trailing = s[len(trimmedRight):]
	}
	if trimmedLeft == "" {
		// all-whitespace string: report it once, as leading
		return leading, ""
	}
	return leading, trailing
}
