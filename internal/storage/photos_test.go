package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/batizy/chantierpro/internal/config"
)

func newTestStore(server *httptest.Server) *PhotoStore {
	return NewPhotoStore(config.RemoteConfig{
		URL:     server.URL,
		AnonKey: "test-anon-key",
		Bucket:  "rapport-photos",
	})
}

func TestUploadPhotosReturnsPublicURLs(t *testing.T) {
	var uploadedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/storage/v1/object/rapport-photos/rapport-1/") {
			t.Errorf("Unexpected upload path: %s", r.URL.Path)
		}
		if r.Header.Get("x-upsert") != "true" {
			t.Error("Missing x-upsert header")
		}
		uploadedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := newTestStore(server)

	urls := store.UploadPhotos(context.Background(), "rapport-1", []string{"aGVsbG8="})
	if len(urls) != 1 {
		t.Fatalf("Expected 1 URL, got %d", len(urls))
	}
	if !strings.Contains(urls[0], "/storage/v1/object/public/rapport-photos/rapport-1/") {
		t.Errorf("Expected public URL, got %s", urls[0])
	}
	if string(uploadedBody) != "hello" {
		t.Errorf("Payload not decoded before upload: %q", uploadedBody)
	}
}

func TestUploadPhotosDataURL(t *testing.T) {
	var uploadedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploadedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := newTestStore(server)

	urls := store.UploadPhotos(context.Background(), "rapport-1", []string{"data:image/jpeg;base64,aGVsbG8="})
	if len(urls) != 1 {
		t.Fatalf("Expected 1 URL, got %d", len(urls))
	}
	if string(uploadedBody) != "hello" {
		t.Errorf("Data URL prefix not stripped: %q", uploadedBody)
	}
}

func TestUploadPhotosKeepsInlinePayloadOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	store := newTestStore(server)

	// One photo per input, failed uploads keep the original payload
	urls := store.UploadPhotos(context.Background(), "rapport-1", []string{"aGVsbG8=", "d29ybGQ="})
	if len(urls) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(urls))
	}
	if urls[0] != "aGVsbG8=" || urls[1] != "d29ybGQ=" {
		t.Errorf("Failed uploads must keep inline payloads: %v", urls)
	}
}

func TestDeletePhotoIgnoresForeignURLs(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	store := newTestStore(server)

	if err := store.DeletePhoto(context.Background(), "https://elsewhere.example/photo.jpg"); err != nil {
		t.Fatalf("Foreign URL should be ignored, got %v", err)
	}
	if err := store.DeletePhoto(context.Background(), "aGVsbG8="); err != nil {
		t.Fatalf("Inline payload should be ignored, got %v", err)
	}
	if called {
		t.Error("No request expected for foreign URLs")
	}
}
