// Package webproxy implements the core of a website translation reverse
// proxy: it fetches pages from an origin site, extracts translatable
// segments, translates them through an AI provider, applies the results back
// into the DOM, rewrites internal links and redirects to the translated
// domain, and caches translated segments and pathnames per hostname and
// target language.
//
// The root package holds the shared types, the pattern normalizer, the
// static-asset classifier, and provider middleware (retry, rate limiting).
// Subpackages:
//
//	cache      segment/pathname caches over redis, bbolt, or memory stores
//	provider   translation backends (OpenAI) plus dedup/batching
//	processor  HTML parsing, segment extraction, application, link rewriting
//	hostconfig per-hostname configuration resolvers (Postgres, YAML file)
//	proxy      the HTTP orchestrator tying the pipeline together
//
// Basic usage:
//
//	store := cache.NewMemoryStore(0)
//	p := provider.NewOpenAIProvider(provider.OpenAIConfig{APIKey: key})
//	srv, err := proxy.NewServer(proxy.Config{
//	    Resolver:   hostconfig.NewCachedResolver(resolver, time.Minute),
//	    Fetcher:    proxy.NewFetcher(proxy.FetcherConfig{}),
//	    Segments:   cache.NewSegmentCache(store),
//	    Pathnames:  cache.NewPathnameCache(store),
//	    Translator: provider.NewBatcher(p),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":8080", srv)
package webproxy
