package upload

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"time"
)

// FileServer serves stored files by name. Mount it behind
// http.StripPrefix(URLPrefix, ...).
func FileServer(store Store, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		name := r.URL.Path
		rc, err := store.Open(r.Context(), name)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				logger.Error("failed to open upload", "error", err, "name", name)
			}
			http.NotFound(w, r)
			return
		}
		defer rc.Close()

		if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}

		if rs, ok := rc.(io.ReadSeeker); ok {
			http.ServeContent(w, r, name, time.Time{}, rs)
			return
		}
		io.Copy(w, rc)
	})
}
