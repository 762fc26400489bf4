package rest

import (
	"net/http"
	"os"
	"path/filepath"
)

// ErrorResponse is the common JSON error envelope returned by handlers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// FrontendHandler serves the static frontend build, falling back to the index
// file for client-side routed paths.
type FrontendHandler struct {
	root      string
	indexFile string
	fs        http.Handler
}

func NewFrontendHandler(root string, indexFile string) *FrontendHandler {
	return &FrontendHandler{
		root:      root,
		indexFile: indexFile,
		fs:        http.FileServer(http.Dir(root)),
	}
}

func (h *FrontendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.root, filepath.Clean(r.URL.Path))
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		http.ServeFile(w, r, filepath.Join(h.root, h.indexFile))
		return
	}
	h.fs.ServeHTTP(w, r)
}
