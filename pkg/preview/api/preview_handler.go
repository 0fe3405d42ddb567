package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/previewd/previewd/pkg/preview"
)

// PreviewHandler serves the preview store over HTTP
type PreviewHandler struct {
	service   preview.Service
	tokenAuth *jwtauth.JWTAuth
	logger    *slog.Logger
}

func NewPreviewHandler(service preview.Service, tokenAuth *jwtauth.JWTAuth, logger *slog.Logger) *PreviewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreviewHandler{
		service:   service,
		tokenAuth: tokenAuth,
		logger:    logger,
	}
}

// Routes returns the router for the preview endpoints
func (h *PreviewHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/status", h.ServiceStatus)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(h.tokenAuth))
		r.Route("/{sourceID}/{checksum}", func(r chi.Router) {
			r.With(RequireScope(ScopeRead)).Get("/", h.GetPreviewMetadata)
			r.With(RequireScope(ScopeRead)).Get("/content", h.GetPreviewContent)
			r.With(RequireScope(ScopeCreate)).Put("/content", h.DepositPreview)
		})
	})

	return r
}

// metadataResponse is the wire shape of a preview metadata record
type metadataResponse struct {
	Added     time.Time `json:"added"`
	Creator   string    `json:"creator"`
	Checksum  string    `json:"checksum"`
	SizeBytes int64     `json:"size_bytes"`
}

func newMetadataResponse(m *preview.Metadata) metadataResponse {
	return metadataResponse{
		Added:     m.Added,
		Creator:   m.Creator,
		Checksum:  m.Checksum,
		SizeBytes: m.SizeBytes,
	}
}

// statusResponse is the liveness probe body
type statusResponse struct {
	Iam string `json:"iam"`
}

// ServiceStatus reports whether the service can reach its storage backend
func (h *PreviewHandler) ServiceStatus(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Status(r.Context()); err != nil {
		h.logger.Error("status check failed", "error", err)
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, statusResponse{Iam: "down"})
		return
	}
	render.JSON(w, r, statusResponse{Iam: "ok"})
}

// GetPreviewMetadata serves the stored metadata record for a preview
func (h *PreviewHandler) GetPreviewMetadata(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "sourceID")
	checksum := chi.URLParam(r, "checksum")

	metadata, err := h.service.GetMetadata(r.Context(), sourceID, checksum)
	if err != nil {
		h.renderStoreError(w, r, err)
		return
	}

	render.JSON(w, r, newMetadataResponse(metadata))
}

// GetPreviewContent serves the raw preview bytes with the stored content type
func (h *PreviewHandler) GetPreviewContent(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "sourceID")
	checksum := chi.URLParam(r, "checksum")

	p, err := h.service.GetContent(r.Context(), sourceID, checksum)
	if err != nil {
		h.renderStoreError(w, r, err)
		return
	}
	defer p.Content.Close()

	if match := r.Header.Get("If-None-Match"); match != "" && match == p.Metadata.Checksum {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", p.Metadata.ContentType)
	w.Header().Set("ETag", p.Metadata.Checksum)
	if _, err := io.Copy(w, p.Content); err != nil {
		h.logger.Error("failed to stream preview content",
			"source_id", sourceID, "checksum", checksum, "error", err)
	}
}

// DepositPreview stores the request body as a new preview
func (h *PreviewHandler) DepositPreview(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "sourceID")
	checksum := chi.URLParam(r, "checksum")

	metadata, err := h.service.Deposit(r.Context(), preview.DepositRequest{
		SourceID:    sourceID,
		Checksum:    checksum,
		Content:     r.Body,
		ContentType: r.Header.Get("Content-Type"),
		Creator:     Creator(r),
	})
	if err != nil {
		h.renderStoreError(w, r, err)
		return
	}

	w.Header().Set("ETag", metadata.Checksum)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newMetadataResponse(metadata))
}

// renderStoreError maps the store's error taxonomy onto HTTP statuses
func (h *PreviewHandler) renderStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytes *http.MaxBytesError

	switch {
	case errors.Is(err, preview.ErrPreviewNotFound):
		renderError(w, r, http.StatusNotFound, "preview not found")
	case errors.Is(err, preview.ErrPreviewExists):
		renderError(w, r, http.StatusConflict, "preview already exists")
	case errors.Is(err, preview.ErrUnauthorized):
		renderError(w, r, http.StatusUnauthorized, "missing or invalid credential")
	case errors.Is(err, preview.ErrMalformedRequest):
		renderError(w, r, http.StatusBadRequest, "malformed request")
	case errors.As(err, &maxBytes):
		renderError(w, r, http.StatusRequestEntityTooLarge, "payload exceeds size limit")
	case errors.Is(err, preview.ErrIntegrity):
		h.logger.Error("preview integrity violation", "error", err)
		renderError(w, r, http.StatusInternalServerError, "preview integrity violation")
	case errors.Is(err, preview.ErrMalformedMetadata):
		h.logger.Error("stored metadata malformed", "error", err)
		renderError(w, r, http.StatusInternalServerError, "stored metadata malformed")
	case errors.Is(err, preview.ErrBackendUnavailable):
		h.logger.Error("storage backend unavailable", "error", err)
		renderError(w, r, http.StatusServiceUnavailable, "storage backend unavailable")
	default:
		h.logger.Error("preview operation failed", "error", err)
		renderError(w, r, http.StatusInternalServerError, "internal error")
	}
}
