package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/walletlink/internal/common"
)

// AllowIPs rejects clients outside allowed. An empty list admits everyone.
func AllowIPs(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(allowed) > 0 && !slices.Contains(allowed, c.ClientIP()) {
			Fail(c, http.StatusForbidden, common.CodeIPNotWhitelisted, "IP address not whitelisted")
			return
		}
		c.Next()
	}
}
