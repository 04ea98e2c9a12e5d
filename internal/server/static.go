package server

import (
	"mime"
	"net/http"
	"path"
)

// staticHandler serves the frontend from root. Files whose type cannot be
// guessed from the extension are served as HTML, so extensionless pages
// like /spec work.
func staticHandler(root string) http.Handler {
	fileServer := http.FileServer(http.Dir(root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if mime.TypeByExtension(path.Ext(r.URL.Path)) == "" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		fileServer.ServeHTTP(w, r)
	})
}
