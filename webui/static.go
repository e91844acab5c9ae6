package webui

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"time"
)

//go:embed static
var embedded embed.FS

// Static is the front-end served at "/".
var Static fs.FS

func init() {
	var err error
	Static, err = fs.Sub(embedded, "static")
	if err != nil {
		panic(err)
	}
}

func MaxAge(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var age time.Duration
		ext := filepath.Ext(r.URL.Path)

		switch ext {
		case ".css", ".js":
			age = (time.Hour * 24 * 30) / time.Second
		case ".png", ".ico", ".svg":
			age = (time.Hour * 24 * 365) / time.Second
		default:
			age = 0
		}

		if age > 0 {
			w.Header().Add("Cache-Control", fmt.Sprintf("max-age=%d, public, must-revalidate, proxy-revalidate", age))
		}

		h.ServeHTTP(w, r)
	})
}
