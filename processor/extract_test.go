package processor

import (
	"strings"
	"testing"
)

const samplePage = `<html><head>
<title>My Page</title>
<meta name="description" content="A fine site">
</head><body>
<h1>Hello</h1>
<p>Visit <a href="/about">our team</a> today</p>
<div class="skipme"><p>Secret text</p></div>
<script>var x = 1;</script>
<pre>line1
  line2</pre>
<img src="/logo.png" alt="Company logo">
<a href="https://origin.example/pricing">Pricing</a>
<a href="https://elsewhere.example/out">External</a>
<a href="/app.js">Bundle</a>
</body></html>`

func mustParse(t *testing.T, raw string) *Document {
	t.Helper()
	doc, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestExtract_OrderAndKinds(t *testing.T) {
	doc := mustParse(t, samplePage)

	segments, links := Extract(doc, ExtractOptions{
		SkipSelectors: []string{".skipme"},
		OriginHost:    "origin.example",
	})

	var values []string
	for _, seg := range segments {
		values = append(values, string(seg.Kind)+"|"+seg.Value)
	}

	want := []string{
		"text|My Page",
		"text|Hello",
		"html|Visit [HA1]our team[/HA1] today",
		"text|line1\n  line2",
		"text|Pricing",
		"text|External",
		"text|Bundle",
		"attr|A fine site",
		"attr|Company logo",
	}
	if len(values) != len(want) {
		t.Fatalf("Expected %d segments, got %d: %v", len(want), len(values), values)
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("Segment %d: got %q, want %q", i, values[i], want[i])
		}
	}

	// Skipped subtree, script content, and grouped children never produce
	// their own segments.
	for _, seg := range segments {
		if strings.Contains(seg.Value, "Secret") || strings.Contains(seg.Value, "var x") {
			t.Errorf("Skipped content leaked: %q", seg.Value)
		}
		if seg.Value == "our team" {
			t.Error("Grouped inline element must not produce an independent segment")
		}
	}

	// Internal non-asset link pathnames only.
	if len(links) != 2 || links[0] != "/about" || links[1] != "/pricing" {
		t.Errorf("Unexpected link paths: %v", links)
	}
}

func TestExtract_WhitespaceCapture(t *testing.T) {
	doc := mustParse(t, "<p>\n  Hello   big\n world  </p>")

	segments, _ := Extract(doc, ExtractOptions{})
	if len(segments) != 1 {
		t.Fatalf("Expected 1 segment, got %d", len(segments))
	}
	seg := segments[0]
	if seg.Value != "Hello big world" {
		t.Errorf("Internal runs must collapse: %q", seg.Value)
	}
	if seg.Leading != "\n  " || seg.Trailing != "  " {
		t.Errorf("Whitespace not captured: leading %q, trailing %q", seg.Leading, seg.Trailing)
	}
}

func TestExtract_DataNoTranslate(t *testing.T) {
	doc := mustParse(t, `<p data-no-translate>Brand Name</p><p>Real text</p>`)

	segments, _ := Extract(doc, ExtractOptions{})
	if len(segments) != 1 || segments[0].Value != "Real text" {
		t.Errorf("Unexpected segments: %+v", segments)
	}
}

func TestExtract_SkippedInlineChildBreaksGrouping(t *testing.T) {
	doc := mustParse(t, `<p>Run <code>make</code> now</p>`)

	segments, _ := Extract(doc, ExtractOptions{})

	var values []string
	for _, seg := range segments {
		values = append(values, seg.Value)
	}
	// code is a skip tag: the paragraph is not grouped and the command is
	// not extracted.
	want := []string{"Run", "now"}
	if len(values) != 2 || values[0] != want[0] || values[1] != want[1] {
		t.Errorf("Expected %v, got %v", want, values)
	}
}

func TestExtract_InvalidSkipSelectorIgnored(t *testing.T) {
	doc := mustParse(t, `<p>Text</p>`)

	segments, _ := Extract(doc, ExtractOptions{SkipSelectors: []string{"[[["}})
	if len(segments) != 1 {
		t.Errorf("Invalid selector must not abort extraction: %+v", segments)
	}
}

func TestExtract_TokenFamilies(t *testing.T) {
	doc := mustParse(t, `<p><b>one</b> and <b>two</b> and <em>three</em></p>`)

	segments, _ := Extract(doc, ExtractOptions{})
	if len(segments) != 1 {
		t.Fatalf("Expected 1 segment, got %d", len(segments))
	}
	want := "[HB1]one[/HB1] and [HB2]two[/HB2] and [HI1]three[/HI1]"
	if segments[0].Value != want {
		t.Errorf("Got %q, want %q", segments[0].Value, want)
	}
	if len(segments[0].InlineIndex) != 3 {
		t.Errorf("Expected 3 inline mappings, got %v", segments[0].InlineIndex)
	}
}
