package processor

import (
	"strings"
	"testing"
)

func TestRewriteLinks(t *testing.T) {
	raw := `<body>` +
		`<a href="/about">About</a>` +
		`<a href="https://origin.example/pricing?tab=1">Pricing</a>` +
		`<a href="https://elsewhere.example/page">External</a>` +
		`<a href="mailto:hi@origin.example">Mail</a>` +
		`</body>`
	doc := mustParse(t, raw)

	pathnames := map[string]string{
		"/about":   "/acerca",
		"/pricing": "/precios",
	}
	count := RewriteLinks(doc, "origin.example", "es.origin.example", true, pathnames)
	if count != 2 {
		t.Errorf("Expected 2 rewritten links, got %d", count)
	}

	out, _ := doc.Serialize()
	for _, want := range []string{
		`href="/acerca"`,
		`href="https://es.origin.example/precios?tab=1"`,
		`href="https://elsewhere.example/page"`,
		`href="mailto:hi@origin.example"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestRewriteLinks_PathsDisabled(t *testing.T) {
	doc := mustParse(t, `<a href="https://origin.example/about">About</a>`)

	count := RewriteLinks(doc, "origin.example", "es.origin.example", false,
		map[string]string{"/about": "/acerca"})
	if count != 1 {
		t.Errorf("Expected 1 rewrite, got %d", count)
	}
	out, _ := doc.Serialize()
	if !strings.Contains(out, `href="https://es.origin.example/about"`) {
		t.Errorf("Host must change while path stays original:\n%s", out)
	}
}

func TestRewriteHref_CaseInsensitiveHost(t *testing.T) {
	got, changed := rewriteHref("https://Origin.Example/x", "origin.example", "es.origin.example", false, nil)
	if !changed || got != "https://es.origin.example/x" {
		t.Errorf("Got %q (changed=%v)", got, changed)
	}
}

func TestRewriteRedirectLocation(t *testing.T) {
	tests := []struct {
		name     string
		location string
		want     string
	}{
		{"relative path", "/login?next=%2Fdash", "https://es.origin.example/login?next=%2Fdash"},
		{"absolute internal", "https://origin.example/account#top", "https://es.origin.example/account#top"},
		{"absolute external", "https://other.example/oauth", "https://other.example/oauth"},
		{"unparseable", "http://bad host/", "http://bad host/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RewriteRedirectLocation(tt.location, "https", "es.origin.example", "https://origin.example", nil)
			if got != tt.want {
				t.Errorf("Got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRewriteRedirectLocation_Proto(t *testing.T) {
	got := RewriteRedirectLocation("/next", "http", "es.origin.example", "https://origin.example", nil)
	if got != "http://es.origin.example/next" {
		t.Errorf("Inbound protocol not honored: %q", got)
	}
}

func TestSetLanguageMetadata(t *testing.T) {
	doc := mustParse(t, `<html lang="en"><body><p>Hi</p></body></html>`)

	SetLanguageMetadata(doc, "ar_SA")
	out, _ := doc.Serialize()
	if !strings.Contains(out, `lang="ar-SA"`) {
		t.Errorf("lang attribute not updated:\n%s", out)
	}
	if !strings.Contains(out, `dir="rtl"`) {
		t.Errorf("dir attribute missing for RTL language:\n%s", out)
	}
}
