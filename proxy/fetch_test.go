package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetcher_ForwardsHeadersAndReadsBody(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Custom") != "yes" {
			t.Error("Inbound header not forwarded")
		}
		if r.Header.Get("Connection") != "" {
			t.Error("Hop-by-hop header forwarded to origin")
		}
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Keep-Alive", "timeout=5")
		w.Write([]byte("<html></html>"))
	}))
	defer origin.Close()

	inbound := httptest.NewRequest(http.MethodGet, "http://es.example.com/", nil)
	inbound.Header.Set("X-Custom", "yes")
	inbound.Header.Set("Connection", "keep-alive")

	res, err := NewFetcher(FetcherConfig{}).Fetch(context.Background(), origin.URL, inbound)
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Body) != "<html></html>" {
		t.Errorf("Unexpected body: %q", res.Body)
	}
	if !res.IsHTML() {
		t.Error("text/html response not classified as HTML")
	}
	if res.Header.Get("Keep-Alive") != "" {
		t.Error("Hop-by-hop response header not stripped")
	}
}

func TestFetcher_DoesNotFollowRedirects(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/target" {
			t.Error("Fetcher followed the redirect")
		}
		http.Redirect(w, r, "/target", http.StatusFound)
	}))
	defer origin.Close()

	res, err := NewFetcher(FetcherConfig{}).Fetch(context.Background(), origin.URL+"/start", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsRedirect() {
		t.Errorf("Expected redirect result, got status %d", res.StatusCode)
	}
	if res.Header.Get("Location") != "/target" {
		t.Errorf("Location = %q", res.Header.Get("Location"))
	}
}

func TestFetcher_BodySizeCap(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer origin.Close()

	res, err := NewFetcher(FetcherConfig{MaxBodySize: 64}).Fetch(context.Background(), origin.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Body) != 64 {
		t.Errorf("Expected capped body of 64 bytes, got %d", len(res.Body))
	}
}
