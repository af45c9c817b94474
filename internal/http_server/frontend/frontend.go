// Package frontend serves the prebuilt single page application.
package frontend

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

const indexFile = "index.html"

// New serves files from dir. Paths that do not name a file fall back to
// index.html so client side routes like /dashboard load the app.
func New(dir string) http.Handler {
	root := http.Dir(dir)
	files := http.FileServer(root)
	index := filepath.Join(dir, indexFile)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isFile(root, path.Clean("/"+r.URL.Path)) {
			files.ServeHTTP(w, r)
			return
		}

		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, index)
	})
}

func isFile(root http.FileSystem, name string) bool {
	f, err := root.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	st, err := f.Stat()

	return err == nil && !st.IsDir()
}
