package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// KeyFunc scopes a cached GET response. Responses that differ per caller
// must include the caller in the key.
type KeyFunc func(c *gin.Context) string

// Cache serves repeated GET requests from memory. Any successful non-GET
// request flushes the whole cache, since occupancy writes touch several views.
func Cache(store *cache.Cache, duration time.Duration, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			if s := c.Writer.Status(); s >= 200 && s < 300 {
				store.Flush()
			}
			return
		}

		k := key(c)
		if resp, found := store.Get(k); found {
			cached := resp.(cachedResponse)
			for name, values := range cached.headers {
				c.Writer.Header()[name] = values
			}
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(cached.status)
			_, _ = c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		if blw.Status() >= 200 && blw.Status() < 300 {
			store.Set(k, cachedResponse{
				status:  blw.Status(),
				headers: blw.Header().Clone(),
				body:    blw.body.Bytes(),
			}, duration)
		}
	}
}
