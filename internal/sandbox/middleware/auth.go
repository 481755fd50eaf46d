package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/walletlink/internal/common"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/tokens"
)

const (
	appIDContextKey  = "appID"
	claimsContextKey = "claims"
)

// AppID derives a stable application id from its token.
func AppID(appToken string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(appToken)).String()
}

func AppIDFromContext(c *gin.Context) string {
	return c.GetString(appIDContextKey)
}

func ClaimsFromContext(c *gin.Context) (*tokens.Claims, bool) {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*tokens.Claims)
	return claims, ok
}

// RequireAppToken admits requests whose X-App-Token is one of allowed.
func RequireAppToken(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(common.AppTokenHeaderName)
		if token == "" || !slices.Contains(allowed, token) {
			Fail(c, http.StatusUnauthorized, common.CodeInvalidAppToken, "Invalid app token")
			return
		}
		c.Set(appIDContextKey, AppID(token))
		c.Next()
	}
}

// RequireSession admits requests with a valid bearer session token. An
// expired token is answered with SESSION_EXPIRED so clients know to refresh.
func RequireSession(issuer *tokens.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authorizeSession(c, issuer) {
			c.Next()
		}
	}
}

// RequireClient admits either credential. A request carrying an
// Authorization header is judged on it alone.
func RequireClient(allowed []string, issuer *tokens.Issuer) gin.HandlerFunc {
	appOnly := RequireAppToken(allowed)
	return func(c *gin.Context) {
		if c.GetHeader(common.AuthorizationHeaderName) == "" {
			appOnly(c)
			return
		}
		if authorizeSession(c, issuer) {
			c.Next()
		}
	}
}

func authorizeSession(c *gin.Context, issuer *tokens.Issuer) bool {
	header := c.GetHeader(common.AuthorizationHeaderName)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		Fail(c, http.StatusUnauthorized, common.CodeInvalidToken, "Invalid authentication token")
		return false
	}

	claims, err := issuer.Parse(parts[1])
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		Fail(c, http.StatusUnauthorized, common.CodeSessionExpired, "Session expired")
		return false
	case err != nil:
		Fail(c, http.StatusUnauthorized, common.CodeInvalidToken, "Invalid authentication token")
		return false
	}

	c.Set(claimsContextKey, claims)
	c.Set(appIDContextKey, claims.AppID)
	return true
}
