// Package handler contains HTTP handlers for the Yaahman Refreshment site.
//
// This file streams gallery media out of the storage backend.
package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/yaahman/refreshment/internal/domain"
	"github.com/yaahman/refreshment/internal/service"
	"github.com/yaahman/refreshment/internal/storage"
)

// =============================================================================
// Handler Configuration
// =============================================================================

// MediaHandler serves gallery media objects.
type MediaHandler struct {
	store  storage.Storage
	thumbs service.ThumbnailProcessor
	logger *slog.Logger
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(store storage.Storage, thumbs service.ThumbnailProcessor, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{
		store:  store,
		thumbs: thumbs,
		logger: logger,
	}
}

// RegisterRoutes registers the media routes with the provided mux.
//
// Routes:
// - GET /media/{key...} -> Serve
func (h *MediaHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /media/{key...}", h.Serve)
}

// =============================================================================
// GET /media/{key...} - Serve Media
// =============================================================================

// Serve streams a stored object to the client.
//
// With ?thumb=WxH (e.g. ?thumb=480x480) an image object is resized to fit
// within those bounds and returned as JPEG. Non-image objects ignore the
// thumb parameter.
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	// Serve only gallery objects, never staged attachments.
	if !strings.HasPrefix(key, "media/") {
		key = "media/" + key
	}

	body, info, err := h.store.Get(r.Context(), key)
	if err != nil {
		if storage.IsNotFound(err) {
			NotFoundResponse(w, r, h.logger)
			return
		}
		h.logger.Error("failed to fetch media object", "key", key, "error", err)
		InternalErrorResponse(w, r, h.logger, err)
		return
	}
	defer body.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = storage.DetectContentType("", key, nil)
	}

	if spec := r.URL.Query().Get("thumb"); spec != "" && storage.IsImage(contentType) {
		h.serveThumbnail(w, r, key, body, spec)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("media stream interrupted", "key", key, "error", err)
	}
}

// serveThumbnail resizes the object and writes it as JPEG.
func (h *MediaHandler) serveThumbnail(w http.ResponseWriter, r *http.Request, key string, body io.Reader, spec string) {
	maxW, maxH, err := parseThumbSpec(spec)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	data, width, height, err := h.thumbs.GenerateThumbnail(body, maxW, maxH)
	if err != nil {
		h.logger.Error("thumbnail generation failed", "key", key, "error", err)
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.Debug("thumbnail generated", "key", key, "width", width, "height", height)

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// parseThumbSpec parses a WxH dimension spec, clamping both axes to the
// configured thumbnail bounds.
func parseThumbSpec(spec string) (int, int, error) {
	const op = "handler.parseThumbSpec"

	parts := strings.SplitN(strings.ToLower(spec), "x", 2)
	if len(parts) != 2 {
		return 0, 0, domain.Invalid(op, "thumb must look like 480x480")
	}

	width, err := strconv.Atoi(parts[0])
	if err != nil || width <= 0 {
		return 0, 0, domain.Invalid(op, fmt.Sprintf("invalid thumb width %q", parts[0]))
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil || height <= 0 {
		return 0, 0, domain.Invalid(op, fmt.Sprintf("invalid thumb height %q", parts[1]))
	}

	if width > domain.ThumbnailMaxWidth {
		width = domain.ThumbnailMaxWidth
	}
	if height > domain.ThumbnailMaxHeight {
		height = domain.ThumbnailMaxHeight
	}
	return width, height, nil
}
