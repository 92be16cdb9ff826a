package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Open when no object exists under the key.
var ErrNotFound = errors.New("object not found")

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ObjectStore defines the contract for saving and retrieving uploaded résumé files.
type ObjectStore interface {
	Save(ctx context.Context, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// NewKey builds a day-partitioned storage key for an already sanitized file name.
func NewKey(now time.Time, sanitizedName string) string {
	return path.Join("resumes", now.UTC().Format("2006/01/02"), uuid.NewString()+"_"+sanitizedName)
}

// Sniff reads up to 512 bytes to pick a content type and returns a reader that still
// yields the whole stream.
func Sniff(fileName string, r io.Reader) (string, io.Reader, error) {
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read head: %w", err)
	}
	return ContentType(fileName, head[:n]), io.MultiReader(bytes.NewReader(head[:n]), r), nil
}

// ContentType prefers the résumé formats by extension when the bytes agree,
// since DOCX files sniff as plain zip archives.
func ContentType(fileName string, head []byte) string {
	detected := http.DetectContentType(head)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		if detected == MimePDF {
			return MimePDF
		}
	case ".docx":
		if detected == "application/zip" {
			return MimeDOCX
		}
	}
	return detected
}
