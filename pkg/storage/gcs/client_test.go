package gcs

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Dutta2005/Medi-Track/pkg/config"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]fakeObject
}

type fakeObject struct {
	data        []byte
	contentType string
}

func newFakeServer(t *testing.T) (*httptest.Server, *fakeBucket) {
	t.Helper()
	bucket := &fakeBucket{objects: map[string]fakeObject{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/upload/storage/v1/b/bucket/o", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Query().Get("uploadType") != "media" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(r.Body)
		bucket.mu.Lock()
		bucket.objects[r.URL.Query().Get("name")] = fakeObject{data: data, contentType: r.Header.Get("Content-Type")}
		bucket.mu.Unlock()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/storage/v1/b/bucket/o", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	})
	mux.HandleFunc("/storage/v1/b/bucket/o/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/storage/v1/b/bucket/o/")
		bucket.mu.Lock()
		defer bucket.mu.Unlock()
		obj, ok := bucket.objects[name]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", obj.contentType)
			_, _ = w.Write(obj.data)
		case http.MethodDelete:
			delete(bucket.objects, name)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, bucket
}

func TestUploadOpenDelete(t *testing.T) {
	srv, bucket := newFakeServer(t)
	client := NewClientWithHTTP(srv.Client(), "bucket", srv.URL, nil)
	ctx := context.Background()

	if err := client.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	object := "images/user-1/file-1"
	if err := client.Upload(ctx, object, "image/png", strings.NewReader("png-bytes")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, ok := bucket.objects[object]; !ok {
		t.Fatalf("object not stored; have %v", bucket.objects)
	}

	obj, err := client.Open(ctx, object)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(obj.Body)
	_ = obj.Body.Close()
	if string(data) != "png-bytes" || obj.ContentType != "image/png" {
		t.Fatalf("unexpected object %q %q", data, obj.ContentType)
	}

	if err := client.Delete(ctx, object); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := client.Open(ctx, object); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := client.Delete(ctx, object); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestPingFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClientWithHTTP(srv.Client(), "bucket", srv.URL, nil)
	err := client.Ping(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "denied") {
		t.Fatalf("expected status error with body, got %v", err)
	}
	if err := NewClientWithHTTP(nil, "", "", nil).Ping(context.Background()); err == nil {
		t.Fatal("expected missing bucket error")
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GCSConfig{}, config.GCPConfig{}, nil); err == nil {
		t.Fatal("expected bucket error")
	}
	_, err := NewClient(context.Background(), config.GCSConfig{BucketName: "b"}, config.GCPConfig{CredentialsJSON: "{not json"}, nil)
	if err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Fatalf("expected credentials parse error, got %v", err)
	}
}

func TestDefaultBaseURL(t *testing.T) {
	client := NewClientWithHTTP(nil, "bucket", "", nil)
	if got := client.objectURL("images/a b"); got != "https://storage.googleapis.com/storage/v1/b/bucket/o/images%2Fa%20b" {
		t.Fatalf("unexpected object url %s", got)
	}
}
