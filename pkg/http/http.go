package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akuity/devportal/pkg/logging"
)

var noCacheHeaders = map[string]string{
	"Expires":         time.Unix(0, 0).Format(time.RFC1123),
	"Cache-Control":   "no-cache, private, max-age=0",
	"Pragma":          "no-cache",
	"X-Accel-Expires": "0",
}

// SetNoCacheHeaders marks a response as uncacheable.
func SetNoCacheHeaders(w http.ResponseWriter) {
	if w == nil {
		return
	}
	for k, v := range noCacheHeaders {
		w.Header().Set(k, v)
	}
}

// NewRouter returns a gin engine whose handlers report failures by adding
// errors to the gin context. Unmatched methods on a known path get a 405.
func NewRouter() *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery(), ErrorHandler())
	return router
}

// ErrorHandler writes the last error a handler added to the gin context as a
// JSON error response, unless the handler already wrote a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		logging.LoggerFromContext(c.Request.Context()).Debug(
			"request failed",
			"path", c.Request.URL.Path,
			"error", err.Error(),
		)
		WriteErrorJSON(c.Writer, err)
	}
}

// BindJSONOrError binds the JSON request body to target. An empty body
// leaves target untouched. Returns false if an error was added to the gin
// context.
func BindJSONOrError(c *gin.Context, target any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(target); err != nil {
		_ = c.Error(Error(err, http.StatusBadRequest))
		return false
	}
	return true
}
