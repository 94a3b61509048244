// Package proxy is the request pipeline: it resolves the inbound hostname
// to a host configuration, fetches the origin page, extracts and translates
// its content through the cache and provider layers, and serves the
// translated document. Failures of the translation or cache layers degrade
// to serving the original page; only an unknown host or an unreachable
// origin surface as errors.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ZaguanLabs/webproxy"
	"github.com/ZaguanLabs/webproxy/cache"
	"github.com/ZaguanLabs/webproxy/hostconfig"
	"github.com/ZaguanLabs/webproxy/processor"
	"github.com/ZaguanLabs/webproxy/provider"
)

const (
	headerError       = "X-Error"
	headerCacheHits   = "X-Segment-Cache-Hits"
	headerCacheMisses = "X-Segment-Cache-Misses"

	dictionaryPath = "/__webproxy/dictionary"

	defaultTranslateTimeout = 60 * time.Second
)

// Config wires the pipeline's collaborators.
type Config struct {
	Resolver   hostconfig.Resolver
	Fetcher    *Fetcher
	Segments   *cache.SegmentCache
	Pathnames  *cache.PathnameCache
	Translator *provider.Batcher
	Logger     *zap.Logger

	// TranslateTimeout bounds the translation stage of one request.
	TranslateTimeout time.Duration
	// Now is the pipeline clock, injectable for tests.
	Now func() time.Time
}

// Server handles inbound requests for translated hostnames.
type Server struct {
	resolver   hostconfig.Resolver
	fetcher    *Fetcher
	segments   *cache.SegmentCache
	pathnames  *cache.PathnameCache
	translator *provider.Batcher
	logger     *zap.Logger

	translateTimeout time.Duration
	now              func() time.Time
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("proxy: Resolver is required")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("proxy: Fetcher is required")
	}
	if cfg.Segments == nil || cfg.Pathnames == nil {
		return nil, fmt.Errorf("proxy: Segments and Pathnames caches are required")
	}
	if cfg.Translator == nil {
		return nil, fmt.Errorf("proxy: Translator is required")
	}
	s := &Server{
		resolver:         cfg.Resolver,
		fetcher:          cfg.Fetcher,
		segments:         cfg.Segments,
		pathnames:        cfg.Pathnames,
		translator:       cfg.Translator,
		logger:           cfg.Logger,
		translateTimeout: cfg.TranslateTimeout,
		now:              cfg.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.translateTimeout <= 0 {
		s.translateTimeout = defaultTranslateTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	hostname := requestHostname(r)

	cfg, err := s.resolver.Resolve(r.Context(), hostname)
	if errors.Is(err, hostconfig.ErrHostNotFound) {
		http.Error(w, "unknown host", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("host resolution failed", zap.String("host", hostname), zap.Error(err))
		w.Header().Set(headerError, "host resolution failed")
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}

	if r.URL.Path == dictionaryPath {
		s.serveDictionary(w, r, cfg)
		return
	}

	result := s.handle(w, r, cfg)
	s.logger.Info("request served",
		zap.String("host", hostname),
		zap.String("path", r.URL.Path),
		zap.String("outcome", result.outcome),
		zap.Int("status", result.status),
		zap.Int("cache_hits", result.hits),
		zap.Int("cache_misses", result.misses),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// requestResult is per-request telemetry for the closing log line.
type requestResult struct {
	outcome string
	status  int
	hits    int
	misses  int
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request, cfg *webproxy.HostConfig) requestResult {
	ctx := r.Context()
	originHost := originHostname(cfg.OriginBaseURL)

	// Inbound pathnames may already be translated (bookmarks, indexed
	// links); resolve them back to the origin's pathname before fetching.
	originPath := r.URL.Path
	if cfg.TranslatePaths && !webproxy.IsStaticAsset(originPath) {
		if orig, ok := s.pathnames.LookupOriginal(ctx, cfg.TargetLang, originHost, originPath); ok {
			originPath = orig
		}
	}

	targetURL := strings.TrimRight(cfg.OriginBaseURL, "/") + originPath
	if r.URL.RawQuery != "" {
		targetURL += "?" + r.URL.RawQuery
	}

	res, err := s.fetcher.Fetch(ctx, targetURL, r)
	if err != nil {
		s.logger.Error("origin fetch failed", zap.String("url", targetURL), zap.Error(err))
		w.Header().Set(headerError, "origin fetch failed")
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return requestResult{outcome: "fetch_error", status: http.StatusBadGateway}
	}

	if res.IsRedirect() {
		location := processor.RewriteRedirectLocation(
			res.Header.Get("Location"), requestProto(r), cfg.Hostname, cfg.OriginBaseURL, s.logger)
		res.Header.Set("Location", location)
		s.writeRaw(w, res)
		return requestResult{outcome: "redirect", status: res.StatusCode}
	}

	if webproxy.IsStaticAsset(r.URL.Path) || s.skipPath(cfg, r.URL.Path) || !res.IsHTML() {
		s.writeRaw(w, res)
		return requestResult{outcome: "raw_proxy", status: res.StatusCode}
	}

	return s.translatePage(ctx, w, r, cfg, originHost, originPath, res)
}

// translatePage runs the HTML half of the pipeline: parse, extract,
// normalize, cache-match, translate, restore, apply, rewrite, serialize.
func (s *Server) translatePage(ctx context.Context, w http.ResponseWriter, r *http.Request, cfg *webproxy.HostConfig, originHost, originPath string, res *FetchResult) requestResult {
	doc, err := processor.Parse(string(res.Body))
	if err != nil {
		s.logger.Error("origin HTML parse failed", zap.String("path", originPath), zap.Error(err))
		w.Header().Set(headerError, "origin HTML parse failed")
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return requestResult{outcome: "parse_error", status: http.StatusBadGateway}
	}

	segments, linkPaths := processor.Extract(doc, processor.ExtractOptions{
		SkipSelectors: cfg.SkipSelectors,
		OriginHost:    originHost,
		Logger:        s.logger,
	})

	// Normalize every segment; the cache is keyed by normalized text so
	// pages differing only in numbers, emails, or URLs share entries.
	normalized := make([]string, len(segments))
	patterns := make([]webproxy.PatternizedText, len(segments))
	for i, seg := range segments {
		patterns[i] = webproxy.ApplyPatterns(seg.Value, webproxy.PatternSegment)
		normalized[i] = patterns[i].Normalized
	}

	cacheEnabled := !cfg.CacheDisabled(s.now())
	entry := map[string]string{}
	if cacheEnabled {
		entry = s.segments.Get(ctx, cfg.TargetLang, originHost)
	}
	match := s.segments.Match(normalized, entry)
	hits, misses := len(match.Cached), len(match.NewSegments)

	tctx, cancel := context.WithTimeout(ctx, s.translateTimeout)
	defer cancel()

	// Segment translation and pathname translation share no data; run them
	// concurrently and join before touching the document.
	var (
		wg         sync.WaitGroup
		segResult  *provider.Result
		segErr     error
		pathMap    map[string]string
		newPairs   []cache.PathnamePair
		pageURL    = requestProto(r) + "://" + cfg.Hostname + r.URL.Path
		skipWords  = cfg.SkipWords
		sourceLang = cfg.SourceLang
		targetLang = cfg.TargetLang
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if misses == 0 {
			return
		}
		segResult, segErr = s.translator.Translate(tctx, match.NewSegments, sourceLang, targetLang, skipWords, pageURL)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if !cfg.TranslatePaths {
			return
		}
		pathMap, newPairs = s.translatePathnames(tctx, cfg, originHost, originPath, linkPaths)
	}()

	wg.Wait()

	if segErr != nil {
		// The user always gets a page: serve the original HTML.
		s.logger.Error("translation failed, serving original",
			zap.String("path", originPath), zap.Int("segments", misses), zap.Error(segErr))
		w.Header().Set(headerError, "translation failed")
		s.writeRaw(w, res)
		return requestResult{outcome: "translate_fallback", status: res.StatusCode, hits: hits, misses: misses}
	}

	merged := make([]string, len(segments))
	for idx, translated := range match.Cached {
		merged[idx] = translated
	}
	if segResult != nil {
		for j, idx := range match.NewIndices {
			merged[idx] = segResult.Translations[j]
		}
	}

	finals := make([]string, len(segments))
	for i := range merged {
		restored, err := webproxy.RestorePatterns(merged[i], patterns[i].Replacements, patterns[i].IsUpperCase)
		if err != nil {
			s.logger.Error("pattern restoration failed", zap.Int("segment", i), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return requestResult{outcome: "restore_error", status: http.StatusInternalServerError, hits: hits, misses: misses}
		}
		finals[i] = restored
	}

	if _, err := processor.Apply(doc, segments, finals); err != nil {
		s.logger.Error("applying translations failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return requestResult{outcome: "apply_error", status: http.StatusInternalServerError, hits: hits, misses: misses}
	}

	if cacheEnabled && segResult != nil && misses > 0 {
		if _, err := s.segments.Update(ctx, targetLang, originHost, entry, match.NewSegments, segResult.Translations); err != nil {
			s.logger.Warn("segment cache write failed", zap.Error(err))
		}
	}
	if cacheEnabled && len(newPairs) > 0 {
		if err := s.pathnames.BatchUpdate(ctx, targetLang, originHost, newPairs); err != nil {
			s.logger.Warn("pathname cache write failed", zap.Error(err))
		}
	}

	processor.RewriteLinks(doc, originHost, cfg.Hostname, cfg.TranslatePaths, pathMap)
	processor.SetLanguageMetadata(doc, targetLang)

	dict := BuildDictionary(segments, finals, newPairs, targetLang)
	if err := InjectDictionary(doc, dict); err != nil {
		s.logger.Warn("dictionary injection failed", zap.Error(err))
	}

	out, err := doc.Serialize()
	if err != nil {
		s.logger.Error("serialization failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return requestResult{outcome: "serialize_error", status: http.StatusInternalServerError, hits: hits, misses: misses}
	}

	header := w.Header()
	copyResponseHeaders(header, res.Header)
	header.Set("Content-Type", "text/html; charset=utf-8")
	header.Set(headerCacheHits, strconv.Itoa(hits))
	header.Set(headerCacheMisses, strconv.Itoa(misses))
	w.WriteHeader(res.StatusCode)
	w.Write([]byte(out))

	return requestResult{outcome: "translated", status: res.StatusCode, hits: hits, misses: misses}
}

// translatePathnames returns the rewriter's pathname map (every known
// original→translated mapping) plus the pairs translated just now, pending
// a cache write. Failures here never fail the page; links simply keep
// their original pathnames.
func (s *Server) translatePathnames(ctx context.Context, cfg *webproxy.HostConfig, originHost, originPath string, linkPaths []string) (map[string]string, []cache.PathnamePair) {
	candidates := make([]string, 0, len(linkPaths)+1)
	seen := make(map[string]bool)
	for _, p := range append([]string{originPath}, linkPaths...) {
		norm := cache.NormalizePathname(p)
		if norm == "/" || seen[norm] {
			continue
		}
		seen[norm] = true
		candidates = append(candidates, norm)
	}

	known := s.pathnames.Entry(ctx, cfg.TargetLang, originHost)

	var missing []string
	for _, p := range candidates {
		if _, ok := known[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		return known, nil
	}

	// Volatile slug parts (ids, numbers) become placeholders so the
	// provider only sees the translatable words.
	texts := make([]string, len(missing))
	pts := make([]webproxy.PatternizedText, len(missing))
	for i, p := range missing {
		pts[i] = webproxy.ApplyPatterns(p, webproxy.PatternPath)
		texts[i] = pts[i].Normalized
	}

	result, err := s.translator.Translate(ctx, texts, cfg.SourceLang, cfg.TargetLang, cfg.SkipWords, "")
	if err != nil {
		s.logger.Warn("pathname translation failed", zap.Int("pathnames", len(missing)), zap.Error(err))
		return known, nil
	}

	pairs := make([]cache.PathnamePair, 0, len(missing))
	for i, orig := range missing {
		restored, err := webproxy.RestorePatterns(result.Translations[i], pts[i].Replacements, pts[i].IsUpperCase)
		if err != nil {
			s.logger.Warn("pathname pattern restore failed", zap.String("pathname", orig), zap.Error(err))
			continue
		}
		translated := cache.NormalizePathname(restored)
		known[orig] = translated
		pairs = append(pairs, cache.PathnamePair{Original: orig, Translated: translated})
	}
	return known, pairs
}

// serveDictionary exposes the site-wide original→translated mapping
// accumulated in the caches, for the out-of-process recovery script.
func (s *Server) serveDictionary(w http.ResponseWriter, r *http.Request, cfg *webproxy.HostConfig) {
	originHost := originHostname(cfg.OriginBaseURL)
	dict := webproxy.NewDictionary(cfg.TargetLang)
	for k, v := range s.segments.Get(r.Context(), cfg.TargetLang, originHost) {
		dict.Text[k] = v
	}
	for k, v := range s.pathnames.Entry(r.Context(), cfg.TargetLang, originHost) {
		dict.Paths[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(dict); err != nil {
		s.logger.Warn("dictionary encode failed", zap.Error(err))
	}
}

// writeRaw proxies an origin response through unmodified.
func (s *Server) writeRaw(w http.ResponseWriter, res *FetchResult) {
	copyResponseHeaders(w.Header(), res.Header)
	w.WriteHeader(res.StatusCode)
	if _, err := w.Write(res.Body); err != nil {
		s.logger.Debug("client write failed", zap.Error(err))
	}
}

// skipPath reports whether the pathname matches a configured skip rule.
// Rules are pathname prefixes.
func (s *Server) skipPath(cfg *webproxy.HostConfig, path string) bool {
	for _, rule := range cfg.SkipPaths {
		if rule != "" && strings.HasPrefix(path, rule) {
			return true
		}
	}
	return false
}

func copyResponseHeaders(dst, src http.Header) {
	for name, values := range src {
		if strings.EqualFold(name, "Content-Length") {
			continue
		}
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

// requestHostname returns the inbound Host without any port.
func requestHostname(r *http.Request) string {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host)
}

// requestProto returns the scheme the client used, honoring a forwarding
// proxy's X-Forwarded-Proto.
func requestProto(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func originHostname(originBase string) string {
	u, err := url.Parse(originBase)
	if err != nil {
		return originBase
	}
	return u.Host
}
