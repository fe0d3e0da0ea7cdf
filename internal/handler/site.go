// Package handler contains HTTP handlers for the Yaahman Refreshment site.
//
// This file serves the public brochure pages.
package handler

import (
	"log/slog"
	"net/http"
)

// =============================================================================
// Template Data Types
// =============================================================================

// PageData contains data shared by every public page.
type PageData struct {
	CurrentPath string // Current URL path, for nav highlighting
	Title       string // Page title
}

// =============================================================================
// Handler Configuration
// =============================================================================

// SiteHandler serves the public brochure pages.
type SiteHandler struct {
	renderer *Renderer
	logger   *slog.Logger
}

// NewSiteHandler creates a new SiteHandler.
func NewSiteHandler(renderer *Renderer, logger *slog.Logger) *SiteHandler {
	return &SiteHandler{
		renderer: renderer,
		logger:   logger,
	}
}

// =============================================================================
// Route Registration
// =============================================================================

// pages maps URL paths to template names and titles. Every entry renders
// the same way, so the routes are registered from this table.
var pages = []struct {
	path     string
	template string
	title    string
}{
	{"/{$}", "public/home", "Yaahman Refreshment | Island-Style Event Beverages"},
	{"/services", "public/services", "Services | Yaahman Refreshment"},
	{"/about", "public/about", "About Us | Yaahman Refreshment"},
	{"/gallery", "public/gallery", "Gallery | Yaahman Refreshment"},
	{"/menu", "public/menu", "Drink Menu | Yaahman Refreshment"},
	{"/booking", "public/booking", "Book Your Event | Yaahman Refreshment"},
	{"/contact", "public/contact", "Contact | Yaahman Refreshment"},
}

// RegisterRoutes registers the brochure pages and the health endpoint.
//
// Routes:
// - GET /         -> home
// - GET /services -> services
// - GET /about    -> about
// - GET /gallery  -> gallery
// - GET /menu     -> menu
// - GET /booking  -> booking form
// - GET /contact  -> contact form
// - GET /health   -> liveness check
func (h *SiteHandler) RegisterRoutes(mux *http.ServeMux) {
	for _, p := range pages {
		mux.HandleFunc("GET "+p.path, h.page(p.template, p.title))
	}
	mux.HandleFunc("GET /health", h.Health)
}

// =============================================================================
// Page Handlers
// =============================================================================

// page returns a handler rendering the named template.
func (h *SiteHandler) page(template, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := PageData{
			CurrentPath: r.URL.Path,
			Title:       title,
		}
		h.renderer.RenderHTTP(w, template, data)
	}
}

// Health responds to liveness checks.
func (h *SiteHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
