// Package tokens issues and checks sandbox session tokens.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/walletlink/internal/common"
)

// Claims identifies the connection a session token was issued for.
type Claims struct {
	jwt.RegisteredClaims
	ConnectionID string `json:"cid"`
	AppID        string `json:"aid"`
}

// Issuer signs HS256 session tokens. Now is the clock used for issuing and
// for validation, so tests can move it.
type Issuer struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func (i *Issuer) now() time.Time {
	if i.Now == nil {
		return time.Now()
	}
	return i.Now()
}

// Generate returns a session token for connectionID.
func (i *Issuer) Generate(connectionID, appID string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.TTL)),
			Subject:   connectionID,
		},
		ConnectionID: connectionID,
		AppID:        appID,
	})
	return token.SignedString(i.Secret)
}

// Parse validates tokenString. An expired token yields
// common.ErrTokenExpired, anything else wrong common.ErrInvalidToken.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid || claims.ConnectionID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
