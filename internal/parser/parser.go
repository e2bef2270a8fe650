package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
)

var (
	// ErrUnsupportedFormat is returned for anything that is not PDF or DOCX.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrFileTooLarge is returned when the download exceeds the size limit.
	ErrFileTooLarge = errors.New("document exceeds maximum allowed size")
	// ErrNoText is returned when extraction yields no usable text.
	ErrNoText = errors.New("no text content extracted from document")
)

// ProcessDocumentFromURL downloads the document at rawURL, extracts its plain
// text and normalizes whitespace. The temporary download is always removed.
func ProcessDocumentFromURL(ctx context.Context, rawURL string, maxSizeMB int) (string, error) {
	filePath, err := DownloadDocument(ctx, rawURL, int64(maxSizeMB)*1024*1024)
	if err != nil {
		return "", err
	}
	defer os.Remove(filePath)

	text, err := ExtractText(filePath)
	if err != nil {
		return "", err
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return "", ErrNoText
	}

	log.Info().Int("chars", len(cleaned)).Str("url", rawURL).Msg("extracted document text")
	return cleaned, nil
}

// ExtractText reads the document at filePath and returns its plain text.
func ExtractText(filePath string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".pdf":
		return extractPDF(filePath)
	case ".docx":
		return extractDOCX(filePath)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func extractPDF(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Msg("skipping unreadable pdf page")
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		fmt.Fprintf(&text, "\n--- Page %d ---\n%s\n", i, pageText)
	}

	if strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("%w: pdf contained no extractable text", ErrNoText)
	}
	return text.String(), nil
}

var xmlTag = regexp.MustCompile(`<[^>]+>`)

func extractDOCX(filePath string) (string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", fmt.Errorf("reading docx: %w", err)
	}
	defer r.Close()

	// GetContent returns the raw document XML; w:p elements delimit
	// paragraphs.
	content := r.Editable().GetContent()
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = xmlTag.ReplaceAllString(content, " ")

	var text strings.Builder
	for _, paragraph := range strings.Split(content, "\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		text.WriteString(paragraph)
		text.WriteString("\n")
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("%w: docx contained no extractable text", ErrNoText)
	}
	return text.String(), nil
}

var (
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// CleanText collapses whitespace runs while keeping paragraph breaks, so the
// chunker's separator hierarchy still has something to split on.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spaceRun.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	text = strings.Join(lines, "\n")

	text = newlineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
