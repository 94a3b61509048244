package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ZaguanLabs/webproxy"
)

// defaultMaxBatch bounds how many unique strings go into one provider call.
const defaultMaxBatch = 100

// Result reports one batch translation: Translations aligned to the input
// order, UniqueCount after dedup, and BatchCount provider calls made.
type Result struct {
	Translations []string
	UniqueCount  int
	BatchCount   int
}

// Batcher sits between the pipeline and a Provider. It deduplicates
// identical inputs (translate once, fan back out), substitutes per-site
// skip-words with neutral placeholders so brand names round-trip unchanged,
// and chunks large unique sets into multiple provider calls.
type Batcher struct {
	provider Provider
	maxBatch int
}

// BatcherOption configures a Batcher.
type BatcherOption func(*Batcher)

// WithMaxBatch sets the maximum unique strings per provider call.
func WithMaxBatch(n int) BatcherOption {
	return func(b *Batcher) {
		if n > 0 {
			b.maxBatch = n
		}
	}
}

// NewBatcher creates a Batcher over provider.
func NewBatcher(provider Provider, opts ...BatcherOption) *Batcher {
	b := &Batcher{provider: provider, maxBatch: defaultMaxBatch}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Translate translates texts from sourceLang to targetLang, honoring
// skipWords. Any provider failure for a chunk fails the whole call; the
// orchestrator degrades to serving the untranslated page.
func (b *Batcher) Translate(ctx context.Context, texts []string, sourceLang, targetLang string, skipWords []string, pageURL string) (*Result, error) {
	result := &Result{Translations: make([]string, len(texts))}
	if len(texts) == 0 {
		return result, nil
	}

	protected := make([]string, len(texts))
	for i, text := range texts {
		protected[i] = protectSkipWords(text, skipWords)
	}

	// Dedup in first-occurrence order.
	unique := make([]string, 0, len(protected))
	seen := make(map[string]int)
	for _, text := range protected {
		if _, ok := seen[text]; !ok {
			seen[text] = len(unique)
			unique = append(unique, text)
		}
	}
	result.UniqueCount = len(unique)

	translated := make([]string, len(unique))
	for start := 0; start < len(unique); start += b.maxBatch {
		end := start + b.maxBatch
		if end > len(unique) {
			end = len(unique)
		}

		out, err := b.provider.Translate(ctx, TranslateRequest{
			Texts:      unique[start:end],
			SourceLang: sourceLang,
			TargetLang: targetLang,
			SkipWords:  skipWords,
			PageURL:    pageURL,
		})
		if err != nil {
			return nil, err
		}
		if len(out) != end-start {
			return nil, &webproxy.CountMismatchError{Stage: "batch translate", Expected: end - start, Got: len(out)}
		}
		copy(translated[start:], out)
		result.BatchCount++
	}

	for i, text := range protected {
		result.Translations[i] = restoreSkipWords(translated[seen[text]], skipWords)
	}
	return result, nil
}

// protectSkipWords replaces each skip word with its [S{n}] token, longest
// word first so overlapping terms resolve to the longer match.
func protectSkipWords(text string, skipWords []string) string {
	if len(skipWords) == 0 {
		return text
	}
	order := byLengthDesc(skipWords)
	for _, i := range order {
		if skipWords[i] == "" {
			continue
		}
		text = strings.ReplaceAll(text, skipWords[i], skipToken(i))
	}
	return text
}

// restoreSkipWords puts the original words back after translation.
func restoreSkipWords(text string, skipWords []string) string {
	if len(skipWords) == 0 {
		return text
	}
	for i, word := range skipWords {
		if word == "" {
			continue
		}
		text = strings.ReplaceAll(text, skipToken(i), word)
	}
	return text
}

func skipToken(i int) string {
	return fmt.Sprintf("[S%d]", i+1)
}

// byLengthDesc returns index order sorted by word length, longest first.
// Ties keep the original order so token assignment stays stable.
func byLengthDesc(words []string) []int {
	order := make([]int, len(words))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(words[order[a]]) > len(words[order[b]])
	})
	return order
}
