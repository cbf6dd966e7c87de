package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// recordedResponse is a finished response kept for replay.
type recordedResponse struct {
	status int
	header http.Header
	body   []byte
}

// recordingWriter tees the response body while it is being written.
type recordingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache replays successful GET responses from memory for the given duration.
// Keys include the query string, so paginated or filtered requests do not
// collide.
func Cache(store *cache.Cache, duration time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if hit, found := store.Get(key); found {
			resp := hit.(recordedResponse)
			for k, v := range resp.header {
				c.Writer.Header()[k] = v
			}
			c.Writer.WriteHeader(resp.status)
			c.Writer.Write(resp.body)
			c.Abort()
			return
		}

		rw := recordingWriter{ResponseWriter: c.Writer, body: bytes.NewBuffer(nil)}
		c.Writer = rw
		c.Next()

		// Errors pass through uncached so a transient failure is not pinned.
		if rw.Status() >= 200 && rw.Status() < 300 {
			store.Set(key, recordedResponse{
				status: rw.Status(),
				header: rw.Header().Clone(),
				body:   rw.body.Bytes(),
			}, duration)
		}
	}
}
