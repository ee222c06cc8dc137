// Package media turns local image files into data URLs for image blocks.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/wailsapp/mimetype"
)

// DefaultMaxBytes caps an ingested file when no limit is configured.
const DefaultMaxBytes int64 = 8 << 20

var (
	ErrTooLarge   = errors.New("media: file too large")
	ErrNotImage   = errors.New("media: not an image")
	ErrBadDataURL = errors.New("media: invalid data URL")
)

// FileIngestor reads image files from disk. The zero value uses
// DefaultMaxBytes.
type FileIngestor struct {
	MaxBytes int64
}

func NewFileIngestor(maxBytes int64) *FileIngestor {
	return &FileIngestor{MaxBytes: maxBytes}
}

func (f *FileIngestor) limit() int64 {
	if f.MaxBytes > 0 {
		return f.MaxBytes
	}
	return DefaultMaxBytes
}

// Ingest reads path and returns "data:<mime>;base64,<payload>". The MIME
// type comes from the file's content, not its extension.
func (f *FileIngestor) Ingest(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fh, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer fh.Close()

	// Read one byte past the limit to detect oversized files without stat.
	data, err := io.ReadAll(io.LimitReader(fh, f.limit()+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > f.limit() {
		return "", fmt.Errorf("%s exceeds %s: %w", path, humanize.IBytes(uint64(f.limit())), ErrTooLarge)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", fmt.Errorf("%s is %s: %w", path, mime.String(), ErrNotImage)
	}
	return EncodeDataURL(mime.String(), data), nil
}

func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL splits a base64 data URL into its MIME type and payload.
func DecodeDataURL(url string) (string, []byte, error) {
	header, payload, ok := strings.Cut(url, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return "", nil, ErrBadDataURL
	}
	mime := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode base64: %w", err)
	}
	return mime, data, nil
}

// Extension returns the file extension for a data URL's payload, sniffed
// from its bytes. Falls back to ".bin".
func Extension(data []byte) string {
	if ext := mimetype.Detect(data).Extension(); ext != "" {
		return ext
	}
	return ".bin"
}
