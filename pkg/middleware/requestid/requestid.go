package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the request ID on both the request and the response.
const Header = "X-Request-ID"

const ctxKey = "request_id"

// Tag stamps every request with an ID, reusing the caller's header when
// one is supplied so IDs survive proxy hops.
func Tag() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxKey, id)
		c.Header(Header, id)
		c.Next()
	}
}

// Value reads the request ID off the context, or "" when none was set.
func Value(c *gin.Context) string {
	return c.GetString(ctxKey)
}
