// Package blob stores uploaded file bodies. S3Store talks to S3 (or any
// S3-compatible endpoint); MemoryStore keeps objects in process for local
// runs and tests.
package blob

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var ErrNotFound = errors.New("object not found")

// Object is a stored body opened for reading.
type Object struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// Store is the blob collaborator used by the file, trash and settings
// operations.
type Store interface {
	// Put stores body under key and returns the object's URL.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	// Get opens the object for reading. The caller closes Body.
	Get(ctx context.Context, key string) (*Object, error)
	// PresignGet returns a time-limited URL for reading key.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// ContentType guesses a MIME type from the key's extension.
func ContentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".txt":
		return "text/plain"
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".zip":
		return "application/zip"
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".ppt":
		return "application/vnd.ms-powerpoint"
	case ".pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	default:
		return "application/octet-stream"
	}
}

// Key joins a prefix and file name into an object key. Slashes in the file
// name are flattened so uploads cannot escape their prefix.
func Key(prefix, name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "/", "_")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
