package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// frontendHandler serves the SPA build. Unknown paths fall back to
// index.html so client-side routing works; paths escaping the build dir
// are refused.
func (api *API) frontendHandler(w http.ResponseWriter, r *http.Request) {
	root, err := filepath.Abs(api.buildDir)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[frontendHandler] failed to resolve build dir %q: %v", api.buildDir, err)
		return
	}

	rel := strings.TrimPrefix(r.URL.Path, "/")
	target := filepath.Join(root, filepath.FromSlash(rel))

	abs, err := filepath.Abs(target)
	if err != nil || !strings.HasPrefix(abs, root+string(os.PathSeparator)) && abs != root {
		http.NotFound(w, r)
		return
	}

	if rel != "" {
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			http.ServeFile(w, r, abs)
			return
		}
	}

	http.ServeFile(w, r, filepath.Join(root, "index.html"))
}
