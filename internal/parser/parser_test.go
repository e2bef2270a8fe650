package parser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"crlf", "line one\r\nline two", "line one\nline two"},
		{"space runs", "a  \t  b", "a b"},
		{"line trimming", "  padded line  \nnext", "padded line\nnext"},
		{"newline runs", "para one\n\n\n\n\npara two", "para one\n\npara two"},
		{"paragraph break kept", "para one\n\npara two", "para one\n\npara two"},
		{"outer whitespace", "\n\n  body  \n\n", "body"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := CleanText(c.in); got != c.want {
				t.Errorf("CleanText(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestFileExtension(t *testing.T) {
	cases := []struct {
		rawURL      string
		contentType string
		want        string
	}{
		{"https://example.com/policy.pdf", "", ".pdf"},
		{"https://example.com/policy.PDF?sig=abc", "", ".pdf"},
		{"https://example.com/policy.docx", "application/octet-stream", ".docx"},
		{"https://example.com/download?id=42", "application/pdf", ".pdf"},
		{"https://example.com/download?id=42", "application/vnd.openxmlformats-officedocument.wordprocessingml.document; charset=utf-8", ".docx"},
		{"https://example.com/download", "", ".pdf"},
		{"https://example.com/report.xlsx", "", ".pdf"},
		// URL extension wins even when the content type would be rejected.
		{"https://example.com/policy.docx", "application/msword", ".docx"},
	}
	for _, c := range cases {
		got, err := fileExtension(c.rawURL, c.contentType)
		if err != nil {
			t.Errorf("fileExtension(%q, %q): unexpected error %v", c.rawURL, c.contentType, err)
			continue
		}
		if got != c.want {
			t.Errorf("fileExtension(%q, %q) = %q, want %q", c.rawURL, c.contentType, got, c.want)
		}
	}
}

func TestFileExtensionRejectsLegacyDoc(t *testing.T) {
	if _, err := fileExtension("https://example.com/download?id=42", "application/msword"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for application/msword, got %v", err)
	}
}

func TestExtractTextUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"doc.txt", "doc.xlsx", "doc"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("content"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := ExtractText(p); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ExtractText(%q): expected ErrUnsupportedFormat, got %v", name, err)
		}
	}
}

func TestExtractTextCorruptPDF(t *testing.T) {
	p := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(p, []byte("not a pdf at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ExtractText(p); err == nil {
		t.Fatal("expected an error for a corrupt pdf")
	}
}

func TestDownloadDocument(t *testing.T) {
	payload := strings.Repeat("p", 1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	path, err := DownloadDocument(context.Background(), srv.URL+"/policy.pdf", 1<<20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer os.Remove(path)

	if filepath.Ext(path) != ".pdf" {
		t.Errorf("expected .pdf temp file, got %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != payload {
		t.Errorf("downloaded %d bytes, want %d", len(data), len(payload))
	}
}

func TestDownloadDocumentTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("p", 2048)))
	}))
	defer srv.Close()

	if _, err := DownloadDocument(context.Background(), srv.URL+"/policy.pdf", 1024); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestDownloadDocumentLegacyDocContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/msword")
		w.Write([]byte("legacy doc payload"))
	}))
	defer srv.Close()

	if _, err := DownloadDocument(context.Background(), srv.URL+"/download", 1<<20); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDownloadDocumentBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := DownloadDocument(context.Background(), srv.URL+"/missing.pdf", 1024); err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}

func TestProcessDocumentFromURLDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := ProcessDocumentFromURL(context.Background(), srv.URL+"/policy.pdf", 50); err == nil {
		t.Fatal("expected an error when the upstream returns 500")
	}
}
