// Package cache implements the segment and pathname caches over a pluggable
// key-value store (redis, bbolt, or in-memory). A store entry is a
// string-keyed mapping addressed by (kind, target language, origin
// hostname); the caches layer matching, merging, and normalization on top.
//
// Stores are an optimization, never a correctness dependency: every cache
// consumer fails open, treating read errors as misses and logging dropped
// writes.
package cache

import (
	"context"
	"strings"
)

// Kind separates the entry namespaces sharing one store.
type Kind string

const (
	// KindSegments holds normalized segment text → translated text.
	KindSegments Kind = "segments"
	// KindPathnames holds normalized original pathname → translated pathname.
	KindPathnames Kind = "pathnames"
	// KindPathnamesReverse is the inverse index of KindPathnames, kept in
	// lockstep by PathnameCache for reverse lookups.
	KindPathnamesReverse Kind = "pathnames_rev"
)

// Key addresses one cache entry.
type Key struct {
	Kind       Kind
	TargetLang string
	Hostname   string
}

func (k Key) String() string {
	return string(k.Kind) + ":" + k.TargetLang + ":" + strings.ToLower(k.Hostname)
}

// Store is the key-value backend shared by the segment and pathname caches.
type Store interface {
	// GetEntry returns the whole entry for key, or an empty map if none
	// exists. A missing entry is not an error.
	GetEntry(ctx context.Context, key Key) (map[string]string, error)

	// PutEntries merges fields into the entry for key. Existing fields not
	// named in the map are left untouched, so concurrent writers for the
	// same key commute (last write wins per field, not per entry).
	PutEntries(ctx context.Context, key Key, fields map[string]string) error
}
