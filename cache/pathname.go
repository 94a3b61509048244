package cache

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// PathnamePair associates an original pathname with its translation.
type PathnamePair struct {
	Original   string
	Translated string
}

// PathnameCache maps normalized original pathnames to translated pathnames
// per (target language, origin hostname), with a reverse index so inbound
// requests carrying an already-translated URL (bookmarks, search results)
// can be resolved back to the origin pathname.
type PathnameCache struct {
	store  Store
	logger *zap.Logger
}

// NewPathnameCache creates a pathname cache over store.
func NewPathnameCache(store Store, opts ...Option) *PathnameCache {
	return &PathnameCache{store: store, logger: resolveOptions(opts).logger}
}

// NormalizePathname canonicalizes a pathname for use as a cache key:
// lowercase, leading slash, trailing slash stripped (root kept).
func NormalizePathname(p string) string {
	p = strings.ToLower(p)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	return p
}

// Entry returns the full forward mapping, failing open to an empty map.
func (c *PathnameCache) Entry(ctx context.Context, targetLang, hostname string) map[string]string {
	entry, err := c.store.GetEntry(ctx, Key{Kind: KindPathnames, TargetLang: targetLang, Hostname: hostname})
	if err != nil {
		c.logger.Warn("pathname cache read failed, treating as miss",
			zap.String("hostname", hostname),
			zap.Error(err))
		return map[string]string{}
	}
	return entry
}

// LookupTranslated returns the translated pathname for an original one, if
// cached.
func (c *PathnameCache) LookupTranslated(ctx context.Context, targetLang, hostname, original string) (string, bool) {
	entry := c.Entry(ctx, targetLang, hostname)
	translated, ok := entry[NormalizePathname(original)]
	return translated, ok
}

// LookupOriginal reverse-resolves a translated pathname to its original.
func (c *PathnameCache) LookupOriginal(ctx context.Context, targetLang, hostname, translated string) (string, bool) {
	entry, err := c.store.GetEntry(ctx, Key{Kind: KindPathnamesReverse, TargetLang: targetLang, Hostname: hostname})
	if err != nil {
		c.logger.Warn("pathname reverse index read failed, treating as miss",
			zap.String("hostname", hostname),
			zap.Error(err))
		return "", false
	}
	original, ok := entry[NormalizePathname(translated)]
	return original, ok
}

// BatchUpdate writes the current page's pathname plus every link pathname
// discovered on it in one store round-trip per direction.
func (c *PathnameCache) BatchUpdate(ctx context.Context, targetLang, hostname string, pairs []PathnamePair) error {
	if len(pairs) == 0 {
		return nil
	}

	forward := make(map[string]string, len(pairs))
	reverse := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		orig := NormalizePathname(pair.Original)
		trans := NormalizePathname(pair.Translated)
		forward[orig] = trans
		reverse[trans] = orig
	}

	fwdKey := Key{Kind: KindPathnames, TargetLang: targetLang, Hostname: hostname}
	if err := c.store.PutEntries(ctx, fwdKey, forward); err != nil {
		return err
	}
	revKey := Key{Kind: KindPathnamesReverse, TargetLang: targetLang, Hostname: hostname}
	return c.store.PutEntries(ctx, revKey, reverse)
}
