// Package middleware holds the gin middlewares of the sandbox backend and
// the envelope helpers its handlers answer with.
package middleware

import "github.com/gin-gonic/gin"

// OK writes a successful envelope around data.
func OK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// Fail writes an error envelope and stops the handler chain.
func Fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message, "code": code})
}
