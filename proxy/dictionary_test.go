package proxy

import (
	"testing"

	"github.com/ZaguanLabs/webproxy"
	"github.com/ZaguanLabs/webproxy/cache"
)

func TestBuildDictionary_SplitsByKind(t *testing.T) {
	segments := []webproxy.Segment{
		{Kind: webproxy.SegmentText, Value: "Hello"},
		{Kind: webproxy.SegmentHTML, Value: "See [HB1]bold[/HB1]", FinalHTML: "Vea <b>negrita</b>"},
		{Kind: webproxy.SegmentAttr, Value: "A photo", Attr: "alt"},
	}
	finals := []string{"Hola", "Vea [HB1]negrita[/HB1]", "Una foto"}
	pairs := []cache.PathnamePair{{Original: "/about", Translated: "/acerca"}}

	dict := BuildDictionary(segments, finals, pairs, "es_ES")
	if dict.Text["Hello"] != "Hola" {
		t.Errorf("Text mapping: %+v", dict.Text)
	}
	if dict.HTML["See [HB1]bold[/HB1]"] != "Vea <b>negrita</b>" {
		t.Errorf("HTML mapping must carry the applied innerHTML: %+v", dict.HTML)
	}
	if dict.Attrs["A photo"] != "Una foto" {
		t.Errorf("Attr mapping: %+v", dict.Attrs)
	}
	if dict.Paths["/about"] != "/acerca" {
		t.Errorf("Path mapping: %+v", dict.Paths)
	}
	if dict.TargetLang != "es_ES" {
		t.Errorf("TargetLang = %q", dict.TargetLang)
	}
}
