package processor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ZaguanLabs/webproxy"
	"github.com/ZaguanLabs/webproxy/cache"
)

// RewriteLinks points every internal <a href> at the translated host. When
// path translation is enabled, link pathnames with a known mapping are
// substituted as well; unmapped pathnames keep the original. The pathnames
// map is keyed by normalized original pathname and should include the
// current page's own mapping. Returns the number of links rewritten.
func RewriteLinks(doc *Document, originHost, translatedHost string, translatePaths bool, pathnames map[string]string) int {
	count := 0
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		rewritten, changed := rewriteHref(href, originHost, translatedHost, translatePaths, pathnames)
		if changed {
			s.SetAttr("href", rewritten)
			count++
		}
	})
	return count
}

func rewriteHref(href, originHost, translatedHost string, translatePaths bool, pathnames map[string]string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href, false
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return href, false
	}
	absolute := u.Host != ""
	if absolute && !strings.EqualFold(u.Host, originHost) {
		return href, false
	}

	changed := false
	if absolute {
		u.Host = translatedHost
		changed = true
	}
	if translatePaths && u.Path != "" {
		if translated, ok := pathnames[cache.NormalizePathname(u.Path)]; ok && translated != u.Path {
			u.Path = translated
			changed = true
		}
	}
	return u.String(), changed
}

// RewriteRedirectLocation maps an origin redirect Location onto the
// translated domain: the target is resolved against the origin base, then
// reassembled with the inbound request's protocol and the translated host,
// keeping path, query, and fragment verbatim. External targets and
// unparseable values pass through unchanged; this function never fails the
// response.
func RewriteRedirectLocation(location, proto, translatedHost, originBase string, logger *zap.Logger) string {
	if logger == nil {
		logger = zap.NewNop()
	}
	base, err := url.Parse(originBase)
	if err != nil {
		logger.Warn("unparseable origin base for redirect rewrite", zap.String("base", originBase), zap.Error(err))
		return location
	}
	ref, err := url.Parse(location)
	if err != nil {
		logger.Warn("unparseable redirect location, passing through", zap.String("location", location), zap.Error(err))
		return location
	}

	abs := base.ResolveReference(ref)
	if !strings.EqualFold(abs.Host, base.Host) {
		return location
	}

	out := proto + "://" + translatedHost + abs.EscapedPath()
	if abs.RawQuery != "" {
		out += "?" + abs.RawQuery
	}
	if abs.Fragment != "" {
		out += "#" + abs.Fragment
	}
	return out
}

// SetLanguageMetadata stamps the <html> element with the target language
// and its text direction.
func SetLanguageMetadata(doc *Document, targetLang string) {
	htmlTag := doc.Find("html")
	if htmlTag.Length() > 0 {
		htmlTag.SetAttr("lang", webproxy.ToHTMLLang(targetLang))
		htmlTag.SetAttr("dir", webproxy.GetDirection(targetLang))
	}
}
