package server

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

// mountFrontend serves the single-page frontend when a directory is
// configured: index.html at the root, assets under /static and /img.
func (h *Handler) mountFrontend(r chi.Router) {
	dir := h.sc.frontendDir
	if dir == "" {
		return
	}

	index := filepath.Join(dir, "index.html")
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, index)
	})
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(dir))))
	r.Handle("/img/*", http.StripPrefix("/img/", http.FileServer(http.Dir(filepath.Join(dir, "img")))))
}
