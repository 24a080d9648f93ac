package router

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/akeren/go-waitlist/internal/log"
	"github.com/gin-gonic/gin"
)

// resolveStaticDir returns dir when it is an existing directory, otherwise "".
func resolveStaticDir(logger *log.Logger, dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return ""
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		logger.Warn("Static directory not found; static file serving disabled", "dir", dir)
		return ""
	}

	logger.Info("Serving static files", "dir", dir)
	return dir
}

// staticFilesHandler serves files under the static directory. Directory
// requests resolve to their index.html; anything missing is a plain 404.
func (routerService *RouterService) staticFilesHandler() gin.HandlerFunc {
	if routerService.staticDir == "" {
		return nil
	}

	root := http.Dir(routerService.staticDir)
	fileServer := http.FileServer(root)

	return func(c *gin.Context) {
		name := path.Clean("/" + c.Request.URL.Path)

		f, err := root.Open(name)
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		info, statErr := f.Stat()
		_ = f.Close()
		if statErr != nil {
			c.Status(http.StatusNotFound)
			return
		}

		if info.IsDir() {
			if _, err := os.Stat(filepath.Join(routerService.staticDir, filepath.FromSlash(name), "index.html")); err != nil {
				c.Status(http.StatusNotFound)
				return
			}
		}

		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}
