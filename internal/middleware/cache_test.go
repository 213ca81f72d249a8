package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCacheKeyUsesConcretePath(t *testing.T) {
	// Both URLs match the /v1/tournaments/:id template; their cache
	// entries must still be distinct.
	a := cacheKey("cache", httptest.NewRequest(http.MethodGet, "/v1/tournaments/1", nil))
	b := cacheKey("cache", httptest.NewRequest(http.MethodGet, "/v1/tournaments/2", nil))
	if a == b {
		t.Fatalf("distinct tournaments share one cache key: %s", a)
	}

	again := cacheKey("cache", httptest.NewRequest(http.MethodGet, "/v1/tournaments/1", nil))
	if a != again {
		t.Fatalf("same URL produced different keys: %s vs %s", a, again)
	}
}

func TestCacheKeySeparatesQueryAndMethod(t *testing.T) {
	plain := cacheKey("cache", httptest.NewRequest(http.MethodGet, "/v1/tournaments", nil))
	filtered := cacheKey("cache", httptest.NewRequest(http.MethodGet, "/v1/tournaments?category=esports", nil))
	if plain == filtered {
		t.Fatal("query string ignored in cache key")
	}
	head := cacheKey("cache", httptest.NewRequest(http.MethodHead, "/v1/tournaments", nil))
	if plain == head {
		t.Fatal("method ignored in cache key")
	}
}

func TestRecordingWriterSkipsTruncatedBodies(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &recordingWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	if _, err := w.Write([]byte("0123456789")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if w.cacheable() {
		t.Fatal("oversized body reported as cacheable")
	}
	// The client still receives the whole response.
	if got := rec.Body.String(); got != "0123456789" {
		t.Fatalf("client saw %q", got)
	}
}
