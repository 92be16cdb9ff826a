package documents

import "time"

// Document is an uploaded résumé file and where it is stored.
type Document struct {
	ID         string
	FileName   string
	MimeType   string
	SizeBytes  int64
	StorageKey string
	Checksum   string
	CreatedAt  time.Time
}
