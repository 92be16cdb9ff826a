package runs

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-coach/internal/coach"
	"resume-coach/internal/extract/extracttest"
)

func newRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(svc)
	h.RegisterRoutes(r.Group("/api/v1"))
	h.RegisterAdminRoutes(r.Group("/api/v1"))
	return r
}

func multipartBody(t *testing.T, fileName string, data []byte, location string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if fileName != "" {
		fw, err := w.CreateFormFile("resume", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.WriteField("location", location); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func TestCreateAndFetchRun(t *testing.T) {
	fc := &fakeCoach{result: coach.Result{Feedback: "Score 7", ImprovedResume: "# CV", JobRoles: "- job"}}
	svc := newTestService(t, fc)
	router := newRouter(svc)

	body, contentType := multipartBody(t, "cv.docx", extracttest.DOCX("Jane"), "Lahore")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created RunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.RunID == "" || created.Status != StatusCompleted || created.Location != "Lahore" {
		t.Fatalf("unexpected response %+v", created)
	}
	if created.Feedback != "## Resume Feedback:\n\nScore 7" || created.JobRoles != "## Relevant Job Roles:\n\n- job" {
		t.Fatalf("expected headed sections, got %+v", created)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+created.RunID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var fetched RunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &fetched); err != nil || fetched.ImprovedResume != "## Improved Resume:\n\n# CV" {
		t.Fatalf("unexpected fetched run %+v (%v)", fetched, err)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=5", nil))
	var list []RunSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 1 || list[0].RunID != created.RunID {
		t.Fatalf("unexpected list %s (%v)", rec.Body.String(), err)
	}
}

func TestCreateRunErrors(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		data     []byte
		maxBytes int64
		want     int
		code     string
	}{
		{name: "missing file", want: http.StatusBadRequest, code: "validation_error"},
		{name: "bad pdf", fileName: "cv.pdf", data: []byte("garbage"), want: http.StatusUnprocessableEntity, code: "extraction_failed"},
		{name: "too large", fileName: "cv.pdf", data: bytes.Repeat([]byte("a"), 64), maxBytes: 16, want: http.StatusRequestEntityTooLarge, code: "file_too_large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, &fakeCoach{})
			if tt.maxBytes > 0 {
				svc.MaxBytes = tt.maxBytes
			}
			body, contentType := multipartBody(t, tt.fileName, tt.data, "x")
			req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), `"code":"`+tt.code+`"`) {
				t.Fatalf("expected code %s, got %s", tt.code, rec.Body.String())
			}
		})
	}
}

func TestGetRunNotFound(t *testing.T) {
	router := newRouter(newTestService(t, &fakeCoach{}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/6c4d1f0e-0000-4000-8000-000000000000", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSubmitGuardRunsBeforeCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(t, &fakeCoach{})
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"), func(c *gin.Context) {
		c.AbortWithStatus(http.StatusTooManyRequests)
	})

	body, contentType := multipartBody(t, "cv.docx", extracttest.DOCX("x"), "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected guard to reject, got %d", rec.Code)
	}
}
