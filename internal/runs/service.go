package runs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-coach/internal/coach"
	"resume-coach/internal/documents"
	"resume-coach/internal/extract"
	"resume-coach/internal/shared/metrics"
	"resume-coach/internal/shared/telemetry"
)

const defaultMaxBytes = 10 << 20

// Coach runs the three generation steps for one submission.
type Coach interface {
	Run(ctx context.Context, in coach.Input) coach.Result
}

// Service contains business logic for runs.
type Service struct {
	Repo     Repo
	Docs     *documents.Service
	Coach    Coach
	MaxBytes int64
	Now      func() time.Time
}

// Submit stores the upload, extracts its text, runs the coach and persists the outcome.
// Generation failures are recorded on the run and returned as its text, not as an error.
func (s *Service) Submit(ctx context.Context, fileName string, r io.Reader, location string) (Run, error) {
	fileName = strings.TrimSpace(filepath.Base(strings.ReplaceAll(fileName, "\\", "/")))
	if fileName == "" || fileName == "." || fileName == "/" || r == nil {
		return Run{}, fmt.Errorf("%w: resume file is required", ErrInvalidInput)
	}
	location = strings.TrimSpace(location)

	data, err := readLimited(r, s.MaxUploadBytes())
	if err != nil {
		return Run{}, err
	}
	if len(data) == 0 {
		return Run{}, fmt.Errorf("%w: resume file is empty", ErrInvalidInput)
	}

	start := time.Now()
	metrics.IncRunStarted()

	run := Run{
		ID:        uuid.NewString(),
		FileName:  fileName,
		Location:  location,
		Status:    StatusProcessing,
		CreatedAt: s.now(),
	}

	if s.Docs != nil {
		doc, err := s.Docs.Upload(ctx, fileName, data)
		if err != nil {
			metrics.IncRunFailed()
			if errors.Is(err, documents.ErrInvalidInput) {
				return Run{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			return Run{}, fmt.Errorf("store upload: %w", err)
		}
		run.DocumentID = doc.ID
	}

	if err := s.Repo.Create(ctx, run); err != nil {
		metrics.IncRunFailed()
		return Run{}, fmt.Errorf("create run: %w", err)
	}
	telemetry.Info("run.started", map[string]any{
		"run_id":      run.ID,
		"document_id": run.DocumentID,
		"file_name":   run.FileName,
		"size_bytes":  len(data),
	})

	text, err := extract.ExtractBytes(ctx, fileName, data)
	if err != nil {
		run, _ = s.finish(ctx, run, coach.Result{}, err, start)
		return run, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	result := s.Coach.Run(ctx, coach.Input{ResumeText: text, Location: location})
	return s.finish(ctx, run, result, result.Err, start)
}

func (s *Service) finish(ctx context.Context, run Run, result coach.Result, failure error, start time.Time) (Run, error) {
	completedAt := s.now()
	run.Feedback = result.Feedback
	run.ImprovedResume = result.ImprovedResume
	run.JobRoles = result.JobRoles
	run.CompletedAt = &completedAt
	run.Status = StatusCompleted
	if failure != nil {
		run.Status = StatusFailed
		run.ErrorMessage = failure.Error()
	}

	elapsed := metrics.SinceMillis(start)
	metrics.ObserveRunDurationMs(elapsed)
	log := telemetry.With(map[string]any{"run_id": run.ID})
	fields := map[string]any{
		"status":      run.Status,
		"duration_ms": elapsed,
	}
	if failure != nil {
		metrics.IncRunFailed()
		fields["err"] = run.ErrorMessage
		log.Error("run.failed", fields)
	} else {
		metrics.IncRunCompleted()
		log.Info("run.completed", fields)
	}

	// The outcome is stored even when the caller has gone away.
	if err := s.Repo.Complete(context.WithoutCancel(ctx), run); err != nil {
		log.Error("run.persist_failed", map[string]any{"err": err})
		return run, fmt.Errorf("complete run: %w", err)
	}
	return run, nil
}

// Get returns a run by ID.
func (s *Service) Get(ctx context.Context, id string) (Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Run{}, ErrInvalidInput
	}
	if _, err := uuid.Parse(id); err != nil {
		return Run{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns recent runs, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Run, error) {
	return s.Repo.List(ctx, limit, offset)
}

// MaxUploadBytes is the largest accepted résumé file.
func (s *Service) MaxUploadBytes() int64 {
	if s.MaxBytes > 0 {
		return s.MaxBytes
	}
	return defaultMaxBytes
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func readLimited(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, ErrTooLarge
		}
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > max {
		return nil, ErrTooLarge
	}
	return data, nil
}
