package documents

import "context"

// DocumentsRepo defines persistence operations for documents.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	// GetByChecksum returns the oldest document with the given sha256, or ErrNotFound.
	GetByChecksum(ctx context.Context, checksum string) (Document, error)
	List(ctx context.Context, limit, offset int) ([]Document, error)
}
