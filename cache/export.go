package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// SiteExport is the JSON structure handed to the dashboard collaborator: a
// snapshot of one site's cached segments and pathname mappings.
type SiteExport struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Hostname   string            `json:"hostname"`
	TargetLang string            `json:"target_lang"`
	Segments   map[string]string `json:"segments"`
	Pathnames  map[string]string `json:"pathnames"`
}

// Exporter reads site cache entries out of a store.
type Exporter struct {
	store Store
}

// NewExporter creates a new exporter over store.
func NewExporter(store Store) *Exporter {
	return &Exporter{store: store}
}

// Export writes a site's cache snapshot to w as indented JSON.
func (e *Exporter) Export(ctx context.Context, w io.Writer, targetLang, hostname string) error {
	segments, err := e.store.GetEntry(ctx, Key{Kind: KindSegments, TargetLang: targetLang, Hostname: hostname})
	if err != nil {
		return fmt.Errorf("reading segment entry: %w", err)
	}
	pathnames, err := e.store.GetEntry(ctx, Key{Kind: KindPathnames, TargetLang: targetLang, Hostname: hostname})
	if err != nil {
		return fmt.Errorf("reading pathname entry: %w", err)
	}

	export := SiteExport{
		Version:    "1.0",
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:   hostname,
		TargetLang: targetLang,
		Segments:   segments,
		Pathnames:  pathnames,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ImportResult contains statistics about an import operation.
type ImportResult struct {
	Segments  int
	Pathnames int
}

// Importer loads exported snapshots back into a store (for seeding a new
// store or restoring after a flush).
type Importer struct {
	store Store
}

// NewImporter creates a new importer over store.
func NewImporter(store Store) *Importer {
	return &Importer{store: store}
}

// Import reads a snapshot from r and merges it into the store.
func (i *Importer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var export SiteExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}
	if export.Hostname == "" || export.TargetLang == "" {
		return nil, fmt.Errorf("export missing hostname or target_lang")
	}

	result := &ImportResult{}

	if len(export.Segments) > 0 {
		key := Key{Kind: KindSegments, TargetLang: export.TargetLang, Hostname: export.Hostname}
		if err := i.store.PutEntries(ctx, key, export.Segments); err != nil {
			return nil, err
		}
		result.Segments = len(export.Segments)
	}

	if len(export.Pathnames) > 0 {
		key := Key{Kind: KindPathnames, TargetLang: export.TargetLang, Hostname: export.Hostname}
		if err := i.store.PutEntries(ctx, key, export.Pathnames); err != nil {
			return nil, err
		}
		reverse := make(map[string]string, len(export.Pathnames))
		for orig, trans := range export.Pathnames {
			reverse[trans] = orig
		}
		revKey := Key{Kind: KindPathnamesReverse, TargetLang: export.TargetLang, Hostname: export.Hostname}
		if err := i.store.PutEntries(ctx, revKey, reverse); err != nil {
			return nil, err
		}
		result.Pathnames = len(export.Pathnames)
	}

	return result, nil
}
