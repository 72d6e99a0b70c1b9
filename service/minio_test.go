package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fesexport/backend/config"
)

func TestNewDocumentArchive(t *testing.T) {
	cfg := &config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "documents",
		Region:    "us-east-1",
	}

	archive, err := NewDocumentArchive(cfg)
	if err != nil {
		t.Fatalf("NewDocumentArchive failed: %v", err)
	}
	if archive.bucket != "documents" {
		t.Errorf("Expected bucket documents, got %s", archive.bucket)
	}
}

func TestDocumentArchiveObjectURL(t *testing.T) {
	tests := []struct {
		name       string
		useSSL     bool
		endpoint   string
		bucket     string
		objectName string
		expected   string
	}{
		{
			name:       "http url",
			useSSL:     false,
			endpoint:   "localhost:9000",
			bucket:     "documents",
			objectName: "catch-certificate/GBR-2025-CC-ABCDEF123.json",
			expected:   "http://localhost:9000/documents/catch-certificate/GBR-2025-CC-ABCDEF123.json",
		},
		{
			name:       "https url",
			useSSL:     true,
			endpoint:   "minio.example.com",
			bucket:     "export-docs",
			objectName: "storage-document/GBR-2025-SD-ABCDEF123.json",
			expected:   "https://minio.example.com/export-docs/storage-document/GBR-2025-SD-ABCDEF123.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive := &DocumentArchive{
				bucket: tt.bucket,
				config: &config.MinioConfig{
					Endpoint: tt.endpoint,
					UseSSL:   tt.useSSL,
				},
			}

			result := archive.ObjectURL(tt.objectName)
			if result != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}

func TestDocumentArchiveStore(t *testing.T) {
	var gotPath, gotBody, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><LocationConstraint>us-east-1</LocationConstraint>`)
			return
		}
		body, _ := io.ReadAll(r.Body)
		gotPath, gotBody, gotType = r.URL.Path, string(body), r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	endpoint := strings.TrimPrefix(server.URL, "http://")
	archive, err := NewDocumentArchive(&config.MinioConfig{
		Endpoint:  endpoint,
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "documents",
		Region:    "us-east-1",
	})
	if err != nil {
		t.Fatalf("NewDocumentArchive failed: %v", err)
	}

	uri, err := archive.Store(context.Background(), "processing-statement/GBR-2025-PS-ABCDEF123.json", []byte(`{"a":1}`), "application/json")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if uri != "http://"+endpoint+"/documents/processing-statement/GBR-2025-PS-ABCDEF123.json" {
		t.Errorf("Unexpected URI %s", uri)
	}
	if gotPath != "/documents/processing-statement/GBR-2025-PS-ABCDEF123.json" {
		t.Errorf("Expected object path, got %s", gotPath)
	}
	if !strings.Contains(gotBody, `{"a":1}`) {
		t.Errorf("Expected body to be uploaded, got %q", gotBody)
	}
	if gotType != "application/json" {
		t.Errorf("Expected content type application/json, got %s", gotType)
	}
}

func TestDocumentArchiveStoreWithCancelledContext(t *testing.T) {
	archive, err := NewDocumentArchive(&config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "documents",
		Region:    "us-east-1",
	})
	if err != nil {
		t.Fatalf("NewDocumentArchive failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := archive.Store(ctx, "x.json", []byte("{}"), "application/json"); err == nil {
		t.Error("Expected an error with a cancelled context")
	}
}
