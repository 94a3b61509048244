package provider

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ZaguanLabs/webproxy"
)

// echoProvider returns its inputs prefixed, recording every call.
type echoProvider struct {
	calls [][]string
}

func (p *echoProvider) Translate(_ context.Context, req TranslateRequest) ([]string, error) {
	texts := make([]string, len(req.Texts))
	copy(texts, req.Texts)
	p.calls = append(p.calls, texts)

	out := make([]string, len(req.Texts))
	for i, t := range req.Texts {
		out[i] = "T:" + t
	}
	return out, nil
}

func TestBatcher_DedupFanOut(t *testing.T) {
	inner := &echoProvider{}
	b := NewBatcher(inner)

	result, err := b.Translate(context.Background(),
		[]string{"Menu", "Body", "Menu", "Footer", "Body"},
		"en_US", "es_ES", nil, "")
	if err != nil {
		t.Fatal(err)
	}

	if result.UniqueCount != 3 {
		t.Errorf("Expected 3 unique, got %d", result.UniqueCount)
	}
	if result.BatchCount != 1 {
		t.Errorf("Expected 1 batch, got %d", result.BatchCount)
	}
	want := []string{"T:Menu", "T:Body", "T:Menu", "T:Footer", "T:Body"}
	for i, w := range want {
		if result.Translations[i] != w {
			t.Errorf("Position %d: got %q, want %q", i, result.Translations[i], w)
		}
	}
	if len(inner.calls) != 1 || len(inner.calls[0]) != 3 {
		t.Errorf("Provider should see one deduped call: %v", inner.calls)
	}
}

func TestBatcher_Chunking(t *testing.T) {
	inner := &echoProvider{}
	b := NewBatcher(inner, WithMaxBatch(2))

	result, err := b.Translate(context.Background(),
		[]string{"a", "b", "c", "d", "e"},
		"en_US", "es_ES", nil, "")
	if err != nil {
		t.Fatal(err)
	}

	if result.BatchCount != 3 {
		t.Errorf("Expected 3 batches of max 2, got %d", result.BatchCount)
	}
	if result.Translations[4] != "T:e" {
		t.Errorf("Chunked translations misaligned: %v", result.Translations)
	}
}

func TestBatcher_SkipWordsRoundTrip(t *testing.T) {
	inner := &echoProvider{}
	b := NewBatcher(inner)

	result, err := b.Translate(context.Background(),
		[]string{"Try Acme Cloud today", "Acme rocks"},
		"en_US", "es_ES", []string{"Acme", "Acme Cloud"}, "")
	if err != nil {
		t.Fatal(err)
	}

	// The provider must never see the raw brand names.
	for _, call := range inner.calls {
		for _, text := range call {
			if strings.Contains(text, "Acme") {
				t.Errorf("Skip word leaked to provider: %q", text)
			}
		}
	}

	// Longest skip word wins, and both restore unchanged.
	if result.Translations[0] != "T:Try Acme Cloud today" {
		t.Errorf("Unexpected translation: %q", result.Translations[0])
	}
	if result.Translations[1] != "T:Acme rocks" {
		t.Errorf("Unexpected translation: %q", result.Translations[1])
	}
}

func TestBatcher_ProviderErrorPropagates(t *testing.T) {
	mock := NewMockProvider()
	mock.Err = &webproxy.ProviderError{Message: "quota exceeded"}
	b := NewBatcher(mock)

	_, err := b.Translate(context.Background(), []string{"a"}, "en_US", "es_ES", nil, "")
	var perr *webproxy.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
}

func TestBatcher_EmptyInput(t *testing.T) {
	inner := &echoProvider{}
	b := NewBatcher(inner)

	result, err := b.Translate(context.Background(), nil, "en_US", "es_ES", nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Translations) != 0 || result.BatchCount != 0 {
		t.Errorf("Empty input must not call the provider: %+v", result)
	}
}

