package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const downloadTimeout = 30 * time.Second

var supportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
}

var contentTypeExtensions = map[string]string{
	"application/pdf": ".pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

// rejectedContentTypes are formats we can name but not parse. Rejecting them
// here gives a clear error instead of a failed extraction later; notably
// application/msword is the legacy binary .doc format, not DOCX.
var rejectedContentTypes = []string{"application/msword"}

// DownloadDocument fetches the document at rawURL into a temporary file and
// returns its path. The caller is responsible for removing the file.
func DownloadDocument(ctx context.Context, rawURL string, maxBytes int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("building download request: %w", err)
	}

	client := &http.Client{Timeout: downloadTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading document: unexpected status %d", resp.StatusCode)
	}
	if maxBytes > 0 && resp.ContentLength > maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrFileTooLarge, resp.ContentLength)
	}

	ext, err := fileExtension(rawURL, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "document-*"+ext)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer tmp.Close()

	body := resp.Body
	if maxBytes > 0 {
		// One byte past the limit so an oversized body is detectable even
		// without a Content-Length header.
		body = io.NopCloser(io.LimitReader(resp.Body, maxBytes+1))
	}
	written, err := io.Copy(tmp, body)
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing document: %w", err)
	}
	if maxBytes > 0 && written > maxBytes {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: over %d bytes", ErrFileTooLarge, maxBytes)
	}

	log.Debug().Str("path", tmp.Name()).Int64("bytes", written).Msg("downloaded document")
	return tmp.Name(), nil
}

// fileExtension picks the document type from the URL path first, then the
// response content type. Known-unsupported content types are rejected.
func fileExtension(rawURL, contentType string) (string, error) {
	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); supportedExtensions[ext] {
			return ext, nil
		}
	}

	ct := strings.ToLower(contentType)
	for _, rejected := range rejectedContentTypes {
		if strings.Contains(ct, rejected) {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, rejected)
		}
	}
	for prefix, ext := range contentTypeExtensions {
		if strings.Contains(ct, prefix) {
			return ext, nil
		}
	}

	// Most policy documents on the wire are PDFs.
	log.Warn().Str("url", rawURL).Str("content_type", contentType).Msg("could not determine file type, defaulting to .pdf")
	return ".pdf", nil
}
