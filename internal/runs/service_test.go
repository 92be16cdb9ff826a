package runs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"resume-coach/internal/coach"
	"resume-coach/internal/documents"
	"resume-coach/internal/extract"
	"resume-coach/internal/extract/extracttest"
	"resume-coach/internal/shared/storage/object/local"
	"resume-coach/internal/shared/telemetry"
)

type fakeCoach struct {
	inputs []coach.Input
	result coach.Result
}

func (f *fakeCoach) Run(ctx context.Context, in coach.Input) coach.Result {
	f.inputs = append(f.inputs, in)
	return f.result
}

func newTestService(t *testing.T, c Coach) *Service {
	t.Helper()
	t.Cleanup(telemetry.SetOutput(io.Discard))
	return &Service{
		Repo: NewMemoryRepo(),
		Docs: &documents.Service{
			Store: local.New(t.TempDir()),
			Repo:  documents.NewMemoryRepo(),
		},
		Coach:    c,
		MaxBytes: 1 << 20,
	}
}

func TestSubmitCompletesRun(t *testing.T) {
	fc := &fakeCoach{result: coach.Result{Feedback: "8/10", ImprovedResume: "# Jane", JobRoles: "- Go Dev"}}
	svc := newTestService(t, fc)

	run, err := svc.Submit(context.Background(), "cv.docx", bytes.NewReader(extracttest.DOCX("Jane Doe", "Go Engineer")), "  Lahore ")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if run.Status != StatusCompleted || run.CompletedAt == nil || run.ErrorMessage != "" {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.DocumentID == "" {
		t.Fatal("expected the upload to be stored")
	}
	if len(fc.inputs) != 1 || fc.inputs[0].ResumeText != "Jane Doe\nGo Engineer" || fc.inputs[0].Location != "Lahore" {
		t.Fatalf("unexpected coach input %+v", fc.inputs)
	}

	stored, err := svc.Get(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Feedback != "8/10" || stored.JobRoles != "- Go Dev" || stored.Status != StatusCompleted {
		t.Fatalf("unexpected stored run %+v", stored)
	}
}

func TestSubmitUnsupportedFormatStillRuns(t *testing.T) {
	fc := &fakeCoach{}
	svc := newTestService(t, fc)

	run, err := svc.Submit(context.Background(), "notes.txt", strings.NewReader("plain text"), "Berlin")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if run.Status != StatusCompleted {
		t.Fatalf("unexpected status %s", run.Status)
	}
	if fc.inputs[0].ResumeText != extract.UnsupportedFormat {
		t.Fatalf("expected sentinel text, got %q", fc.inputs[0].ResumeText)
	}
}

func TestSubmitGenerationFailureMarksRunFailed(t *testing.T) {
	boom := errors.New("rewrite: Error fetching feedback from Gemini API. Status code: 500, Response: boom")
	fc := &fakeCoach{result: coach.Result{Feedback: "ok", ImprovedResume: "Error fetching feedback from Gemini API. Status code: 500, Response: boom", JobRoles: "ok", Err: boom}}
	svc := newTestService(t, fc)

	run, err := svc.Submit(context.Background(), "cv.pdf", bytes.NewReader(extracttest.PDF("Jane")), "")
	if err != nil {
		t.Fatalf("generation errors are reported on the run, got %v", err)
	}
	if run.Status != StatusFailed || !strings.Contains(run.ErrorMessage, "Status code: 500") {
		t.Fatalf("unexpected run %+v", run)
	}
	if !strings.Contains(run.ImprovedResume, "Response: boom") {
		t.Fatalf("expected error text as output, got %q", run.ImprovedResume)
	}
}

func TestSubmitExtractionFailure(t *testing.T) {
	fc := &fakeCoach{}
	svc := newTestService(t, fc)

	run, err := svc.Submit(context.Background(), "cv.pdf", strings.NewReader("definitely not a pdf"), "x")
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if run.ID == "" || run.Status != StatusFailed {
		t.Fatalf("expected a failed run to be recorded, got %+v", run)
	}
	if len(fc.inputs) != 0 {
		t.Fatal("coach must not run when extraction fails")
	}
	stored, err := svc.Get(context.Background(), run.ID)
	if err != nil || stored.Status != StatusFailed {
		t.Fatalf("unexpected stored run %+v (%v)", stored, err)
	}
}

func TestSubmitValidation(t *testing.T) {
	svc := newTestService(t, &fakeCoach{})
	svc.MaxBytes = 8

	cases := []struct {
		name string
		file string
		body io.Reader
		want error
	}{
		{name: "missing name", file: " ", body: strings.NewReader("x"), want: ErrInvalidInput},
		{name: "nil reader", file: "cv.pdf", body: nil, want: ErrInvalidInput},
		{name: "empty file", file: "cv.pdf", body: strings.NewReader(""), want: ErrInvalidInput},
		{name: "too large", file: "cv.pdf", body: strings.NewReader("123456789"), want: ErrTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Submit(context.Background(), tc.file, tc.body, ""); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSubmitStripsClientPath(t *testing.T) {
	svc := newTestService(t, &fakeCoach{})
	run, err := svc.Submit(context.Background(), `C:\Users\jane\cv.docx`, bytes.NewReader(extracttest.DOCX("x")), "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if run.FileName != "cv.docx" {
		t.Fatalf("unexpected file name %q", run.FileName)
	}
}

func TestSubmitAcceptsDoubleDotsInName(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "J.R..Smith.pdf", data: extracttest.PDF("Jane")},
		{name: "resume..pdf", data: extracttest.PDF("Jane Doe")},
		{name: "CV v2..docx", data: extracttest.DOCX("Jane")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCoach{result: coach.Result{Feedback: "f", ImprovedResume: "i", JobRoles: "j"}}
			svc := newTestService(t, fc)
			run, err := svc.Submit(context.Background(), tt.name, bytes.NewReader(tt.data), "Lahore")
			if err != nil {
				t.Fatalf("Submit(%q): %v", tt.name, err)
			}
			if run.Status != StatusCompleted || run.FileName != tt.name {
				t.Fatalf("unexpected run %+v", run)
			}
			if len(fc.inputs) != 1 {
				t.Fatalf("expected the coach to run once, got %d", len(fc.inputs))
			}
		})
	}
}

func TestSubmitRejectsDotDotName(t *testing.T) {
	svc := newTestService(t, &fakeCoach{})
	_, err := svc.Submit(context.Background(), "..", bytes.NewReader(extracttest.PDF("x")), "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetRejectsUnknownIDs(t *testing.T) {
	svc := newTestService(t, &fakeCoach{})
	if _, err := svc.Get(context.Background(), "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(context.Background(), ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMemoryRepoCompleteOnlyOnce(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	now := time.Now()
	if err := repo.Create(ctx, Run{ID: "r1", Status: StatusProcessing, CreatedAt: now}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Complete(ctx, Run{ID: "r1", Status: StatusCompleted, CompletedAt: &now}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := repo.Complete(ctx, Run{ID: "r1", Status: StatusFailed}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if err := repo.Complete(ctx, Run{ID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoListNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		_ = repo.Create(context.Background(), Run{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	got, err := repo.List(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "mid" || got[1].ID != "old" {
		t.Fatalf("unexpected page %+v", got)
	}
}
