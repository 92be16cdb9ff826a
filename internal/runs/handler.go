package runs

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-coach/internal/shared/server/respond"
)

// FormOverhead is the multipart framing allowance on top of the file limit.
const FormOverhead = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches run routes to the router group. submit guards POST /runs.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, submit ...gin.HandlerFunc) {
	rg.POST("/runs", append(submit, h.create)...)
	rg.GET("/runs/:id", h.get)
}

// RegisterAdminRoutes attaches the run listing, which exposes every submission.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/runs", h.list)
}

func (h *Handler) create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.MaxUploadBytes()+FormOverhead)

	fileHeader, err := c.FormFile("resume")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", ErrTooLarge.Error(), nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "resume file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	run, err := h.Svc.Submit(c.Request.Context(), fileHeader.Filename, file, c.PostForm("location"))
	if run.ID != "" {
		c.Set("runId", run.ID)
		c.Set("documentId", run.DocumentID)
	}
	if err != nil {
		WriteError(c, err, run)
		return
	}
	respond.Created(c, ToResponse(run))
}

func (h *Handler) get(c *gin.Context) {
	run, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		WriteError(c, err, Run{})
		return
	}
	c.Set("runId", run.ID)
	respond.OK(c, ToResponse(run))
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := respond.Page(c)
	items, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		WriteError(c, err, Run{})
		return
	}
	resp := make([]RunSummary, 0, len(items))
	for _, run := range items {
		resp = append(resp, toSummary(run))
	}
	respond.OK(c, resp)
}

// WriteError maps service errors to the JSON error envelope.
func WriteError(c *gin.Context, err error, run Run) {
	var details any
	if run.ID != "" {
		details = gin.H{"runId": run.ID}
	}
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "run not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", err.Error(), nil)
	case errors.Is(err, ErrExtraction):
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", err.Error(), details)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process run", details)
	}
}
