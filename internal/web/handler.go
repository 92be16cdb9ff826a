package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-coach/internal/coach"
	"resume-coach/internal/runs"
	"resume-coach/internal/shared/telemetry"
)

const pageTitle = "Resume Feedback and Job Matching Tool"

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// Panel is one rendered result section.
type Panel struct {
	Label string
	HTML  template.HTML
}

type pageData struct {
	Title    string
	Location string
	Error    string
	Run      *runs.Run
	Panels   []Panel
}

// Handler serves the HTML form and result pages.
type Handler struct {
	Svc *runs.Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *runs.Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the page routes. submit guards POST /.
func (h *Handler) RegisterRoutes(r gin.IRoutes, submit ...gin.HandlerFunc) {
	r.GET("/", h.index)
	r.POST("/", append(submit, h.submit)...)
	r.GET("/runs/:id", h.show)
}

func (h *Handler) index(c *gin.Context) {
	h.render(c, http.StatusOK, pageData{})
}

func (h *Handler) submit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.MaxUploadBytes()+runs.FormOverhead)
	fileHeader, err := c.FormFile("resume")
	location := c.PostForm("location")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.render(c, http.StatusRequestEntityTooLarge, pageData{Location: location, Error: "The uploaded file is too large."})
			return
		}
		h.render(c, http.StatusBadRequest, pageData{Location: location, Error: "Please upload your resume (PDF or DOCX)."})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.render(c, http.StatusBadRequest, pageData{Location: location, Error: "Unable to read the uploaded file."})
		return
	}
	defer file.Close()

	run, err := h.Svc.Submit(c.Request.Context(), fileHeader.Filename, file, location)
	if run.ID != "" {
		c.Set("runId", run.ID)
		c.Set("documentId", run.DocumentID)
	}
	if err != nil {
		status, msg := pageError(err)
		h.render(c, status, pageData{Location: location, Error: msg})
		return
	}
	h.renderRun(c, run)
}

func (h *Handler) show(c *gin.Context) {
	run, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		status, msg := pageError(err)
		h.render(c, status, pageData{Error: msg})
		return
	}
	c.Set("runId", run.ID)
	h.renderRun(c, run)
}

func (h *Handler) renderRun(c *gin.Context, run runs.Run) {
	panels, err := Panels(run.Result())
	if err != nil {
		telemetry.Error("web.render_markdown_failed", map[string]any{"run_id": run.ID, "err": err.Error()})
		h.render(c, http.StatusInternalServerError, pageData{Error: "Unable to render the results."})
		return
	}
	h.render(c, http.StatusOK, pageData{Location: run.Location, Run: &run, Panels: panels})
}

// Panels renders the three headed sections of a result as HTML.
func Panels(res coach.Result) ([]Panel, error) {
	feedback, improved, jobs := res.Formatted()
	sections := []struct {
		label string
		text  string
	}{
		{coach.FeedbackTask.Heading, feedback},
		{coach.RewriteTask.Heading, improved},
		{coach.JobSearchTask.Heading, jobs},
	}
	out := make([]Panel, 0, len(sections))
	for _, s := range sections {
		html, err := RenderMarkdown(s.text)
		if err != nil {
			return nil, err
		}
		out = append(out, Panel{Label: s.label, HTML: html})
	}
	return out, nil
}

func (h *Handler) render(c *gin.Context, status int, data pageData) {
	data.Title = pageTitle
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(c.Writer, data); err != nil {
		telemetry.Error("web.template_failed", map[string]any{"err": err.Error()})
	}
}

func pageError(err error) (int, string) {
	switch {
	case errors.Is(err, runs.ErrNotFound):
		return http.StatusNotFound, "Run not found."
	case errors.Is(err, runs.ErrInvalidInput):
		return http.StatusBadRequest, "Please upload a non-empty resume file."
	case errors.Is(err, runs.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "The uploaded file is too large."
	case errors.Is(err, runs.ErrExtraction):
		return http.StatusUnprocessableEntity, "We could not read text from that file. Please upload a valid PDF or DOCX."
	default:
		return http.StatusInternalServerError, "Something went wrong while processing your resume."
	}
}
