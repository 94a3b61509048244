package webproxy

import (
	"context"
	"time"
)

// SegmentKind identifies what part of a page a segment came from.
type SegmentKind string

const (
	// SegmentText is a plain text node.
	SegmentText SegmentKind = "text"
	// SegmentHTML is a block whose inline children were folded into paired
	// placeholder tokens ([HB1]...[/HB1]).
	SegmentHTML SegmentKind = "html"
	// SegmentAttr is a translatable attribute value (alt, title, ...).
	SegmentAttr SegmentKind = "attr"
	// SegmentPath is a URL pathname.
	SegmentPath SegmentKind = "path"
)

// Segment is one translatable unit extracted from a page. Segments are
// created fresh per request and are never persisted directly; only the
// normalized/translated string pair goes to the segment cache.
type Segment struct {
	Kind  SegmentKind
	Value string // extracted text; html segments carry inline placeholder tokens

	// Leading and Trailing hold whitespace captured around the value so it
	// can be re-attached after translation.
	Leading  string
	Trailing string

	// Attr is the attribute name, set only when Kind == SegmentAttr.
	Attr string

	// NodeIndex addresses the owning node in the parsed document's arena.
	// Text segments point at the text node, html and attr segments at the
	// owning element.
	NodeIndex int

	// InlineIndex maps inline placeholder tokens ("HB1", "HA2", ...) to the
	// arena index of the grouped child element, set only for html segments.
	// Application resolves tokens through this map so a translation that
	// reorders tokens still reattaches each one to its own element.
	InlineIndex map[string]int

	// FinalHTML is filled in by the applicator for html segments: the owning
	// element's innerHTML after translation, for downstream consumers such
	// as the dictionary builder.
	FinalHTML string
}

// HostConfig is the per-hostname configuration consumed by the pipeline.
// It is owned by the database collaborator and read-only here.
type HostConfig struct {
	Hostname           string
	OriginBaseURL      string
	SourceLang         string
	TargetLang         string
	SkipWords          []string
	SkipPaths          []string
	SkipSelectors      []string
	TranslatePaths     bool
	CacheDisabledUntil time.Time
}

// CacheDisabled reports whether the cache-disable override is active.
func (c *HostConfig) CacheDisabled(now time.Time) bool {
	return !c.CacheDisabledUntil.IsZero() && now.Before(c.CacheDisabledUntil)
}

// Dictionary maps original to translated strings per content kind. It is
// produced after DOM application for the client-side recovery script.
type Dictionary struct {
	Text       map[string]string `json:"text"`
	HTML       map[string]string `json:"html"`
	Attrs      map[string]string `json:"attrs"`
	Paths      map[string]string `json:"paths"`
	TargetLang string            `json:"targetLang"`
}

// NewDictionary returns an empty dictionary for the given target language.
func NewDictionary(targetLang string) *Dictionary {
	return &Dictionary{
		Text:       make(map[string]string),
		HTML:       make(map[string]string),
		Attrs:      make(map[string]string),
		Paths:      make(map[string]string),
		TargetLang: targetLang,
	}
}

// Provider is the interface for translation backends.
type Provider interface {
	Translate(ctx context.Context, req TranslateRequest) ([]string, error)
}

// TranslateRequest contains the parameters for a translation request.
// Translations must come back aligned to the order of Texts.
type TranslateRequest struct {
	Texts      []string
	SourceLang string
	TargetLang string
	SkipWords  []string
	PageURL    string
}

// SkipTags contains HTML tags whose subtrees are never translated.
// <pre> is not in this set: its content is translated with whitespace
// preserved verbatim.
var SkipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"textarea": true,
	"noscript": true,
	"svg":      true,
	"iframe":   true,
	"template": true,
}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}
