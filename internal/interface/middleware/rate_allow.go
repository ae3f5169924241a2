package middleware

import (
	"net"

	"github.com/gin-gonic/gin"
)

// AllowPrivateIP bypasses rate limits for loopback and private-range
// clients, such as in-cluster scrapers of /debug/vars.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		parsed := net.ParseIP(ipFromCtx(c))
		if parsed == nil {
			return false
		}
		return parsed.IsLoopback() || parsed.IsPrivate()
	}
}
