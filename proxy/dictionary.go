package proxy

import (
	"encoding/json"

	"github.com/ZaguanLabs/webproxy"
	"github.com/ZaguanLabs/webproxy/cache"
	"github.com/ZaguanLabs/webproxy/processor"
)

const dictionaryScriptID = "webproxy-dictionary"

// BuildDictionary assembles the original→translated mapping for one page,
// split by content kind, from the segment list after DOM application. The
// client-side recovery script uses it to re-translate content a hydration
// pass reverted.
func BuildDictionary(segments []webproxy.Segment, finals []string, pathPairs []cache.PathnamePair, targetLang string) *webproxy.Dictionary {
	dict := webproxy.NewDictionary(targetLang)
	for i, seg := range segments {
		if i >= len(finals) {
			break
		}
		switch seg.Kind {
		case webproxy.SegmentText:
			dict.Text[seg.Value] = finals[i]
		case webproxy.SegmentHTML:
			// The applicator records the element's final innerHTML, which
			// carries the real inline markup instead of placeholder tokens.
			dict.HTML[seg.Value] = seg.FinalHTML
		case webproxy.SegmentAttr:
			dict.Attrs[seg.Value] = finals[i]
		}
	}
	for _, pair := range pathPairs {
		dict.Paths[pair.Original] = pair.Translated
	}
	return dict
}

// InjectDictionary embeds the dictionary as an inline JSON script so the
// recovery script finds it without an extra fetch.
func InjectDictionary(doc *processor.Document, dict *webproxy.Dictionary) error {
	data, err := json.Marshal(dict)
	if err != nil {
		return &webproxy.ProcessorError{Message: "failed to encode dictionary", Cause: err}
	}
	body := doc.Find("body")
	if body.Length() == 0 {
		return nil
	}
	body.AppendHtml(`<script type="application/json" id="` + dictionaryScriptID + `">` + string(data) + `</script>`)
	return nil
}
