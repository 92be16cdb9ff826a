package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-coach/internal/shared/storage/object"
	"resume-coach/internal/shared/util"
)

// Service contains business logic for documents.
type Service struct {
	Store object.ObjectStore
	Repo  DocumentsRepo
	Now   func() time.Time
}

// Upload saves the file to object storage and records the document.
// Identical bytes uploaded again return the first document instead of a new copy.
func (s *Service) Upload(ctx context.Context, fileName string, data []byte) (Document, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(data) == 0 {
		return Document{}, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}

	checksum := util.SHA256Hex(data)
	existing, err := s.Repo.GetByChecksum(ctx, checksum)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, ErrNotFound):
		return Document{}, err
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, name, bytes.NewReader(data))
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		ID:         uuid.NewString(),
		FileName:   name,
		MimeType:   mimeType,
		SizeBytes:  size,
		StorageKey: storageKey,
		Checksum:   checksum,
		CreatedAt:  s.now(),
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Get returns document metadata by ID.
func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Document{}, ErrInvalidInput
	}
	if _, err := uuid.Parse(id); err != nil {
		return Document{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns recent documents.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Document, error) {
	return s.Repo.List(ctx, limit, offset)
}

// Open streams the stored file for a document.
func (s *Service) Open(ctx context.Context, id string) (Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return Document{}, nil, err
	}
	body, err := s.Store.Open(ctx, doc.StorageKey)
	if errors.Is(err, object.ErrNotFound) {
		return Document{}, nil, fmt.Errorf("%w: stored file missing", ErrNotFound)
	}
	if err != nil {
		return Document{}, nil, fmt.Errorf("open %s: %w", doc.StorageKey, err)
	}
	return doc, body, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
