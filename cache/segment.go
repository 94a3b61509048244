package cache

import (
	"context"

	"go.uber.org/zap"

	"github.com/ZaguanLabs/webproxy"
)

// sizeWarnThreshold is the serialized entry size beyond which Update logs a
// warning. Oversized entries degrade performance but are not a failure.
const sizeWarnThreshold = 500 * 1024

// MatchResult partitions a normalized segment list into cache hits and
// misses. NewSegments/NewIndices preserve the relative order of the
// unmatched segments in the input; the index list is strictly increasing.
type MatchResult struct {
	Cached      map[int]string // input position → cached translation
	NewSegments []string       // cache-miss values, input order
	NewIndices  []int          // their positions in the input
}

// SegmentCache maps normalized segment text to translated text per
// (target language, origin hostname).
type SegmentCache struct {
	store  Store
	logger *zap.Logger
}

// NewSegmentCache creates a segment cache over store.
func NewSegmentCache(store Store, opts ...Option) *SegmentCache {
	return &SegmentCache{store: store, logger: resolveOptions(opts).logger}
}

// Option configures a cache.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

func resolveOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for fail-open diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Get fetches the whole entry for the hostname+language pair. Store errors
// fail open: the caller sees an empty entry and the error is logged.
func (c *SegmentCache) Get(ctx context.Context, targetLang, hostname string) map[string]string {
	entry, err := c.store.GetEntry(ctx, Key{Kind: KindSegments, TargetLang: targetLang, Hostname: hostname})
	if err != nil {
		c.logger.Warn("segment cache read failed, treating as miss",
			zap.String("hostname", hostname),
			zap.String("target_lang", targetLang),
			zap.Error(err))
		return map[string]string{}
	}
	return entry
}

// Match resolves each normalized segment against the entry. Matching is by
// exact string equality; duplicate values at different indices each resolve
// independently to the same cached translation.
func (c *SegmentCache) Match(normalized []string, entry map[string]string) MatchResult {
	result := MatchResult{Cached: make(map[int]string)}
	for i, text := range normalized {
		if translated, ok := entry[text]; ok {
			result.Cached[i] = translated
			continue
		}
		result.NewSegments = append(result.NewSegments, text)
		result.NewIndices = append(result.NewIndices, i)
	}
	return result
}

// Update merges newly translated pairs into the entry. The write is an
// idempotent upsert, safe to race with other requests for the same key.
// Returns the number of distinct pairs written.
func (c *SegmentCache) Update(ctx context.Context, targetLang, hostname string, entry map[string]string, newSegments, newTranslations []string) (int, error) {
	if len(newSegments) != len(newTranslations) {
		return 0, &webproxy.CountMismatchError{Stage: "cache update", Expected: len(newSegments), Got: len(newTranslations)}
	}
	if len(newSegments) == 0 {
		return 0, nil
	}

	fields := make(map[string]string, len(newSegments))
	for i, text := range newSegments {
		fields[text] = newTranslations[i]
	}

	if size := entrySize(entry) + entrySize(fields); size > sizeWarnThreshold {
		c.logger.Warn("segment cache entry exceeds size threshold",
			zap.String("hostname", hostname),
			zap.String("target_lang", targetLang),
			zap.Int("bytes", size))
	}

	key := Key{Kind: KindSegments, TargetLang: targetLang, Hostname: hostname}
	if err := c.store.PutEntries(ctx, key, fields); err != nil {
		return 0, err
	}
	return len(fields), nil
}

// entrySize approximates the serialized size of an entry in bytes.
func entrySize(entry map[string]string) int {
	size := 0
	for k, v := range entry {
		size += len(k) + len(v)
	}
	return size
}
