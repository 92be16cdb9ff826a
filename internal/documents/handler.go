package documents

import (
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-coach/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.GET("/documents/:id/content", h.content)
}

func (h *Handler) get(c *gin.Context) {
	doc, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to fetch document")
		return
	}
	c.Set("documentId", doc.ID)
	respond.OK(c, ToResponse(doc))
}

func (h *Handler) content(c *gin.Context) {
	doc, body, err := h.Svc.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to open document")
		return
	}
	defer body.Close()
	c.Set("documentId", doc.ID)

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName})
	c.DataFromReader(http.StatusOK, doc.SizeBytes, contentType, body, map[string]string{
		"Content-Disposition": disposition,
	})
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := respond.Page(c)
	docs, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err, "failed to list documents")
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, ToResponse(doc))
	}
	respond.OK(c, resp)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
