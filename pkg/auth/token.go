// Package auth verifies Shopify embedded-app session tokens. App Bridge
// attaches one per request, signed HS256 with the app's API secret; the shop
// domain rides in the dest claim.
package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/bxgy-bundles-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// SessionClaims are the claims Shopify mints into a session token.
type SessionClaims struct {
	Dest string `json:"dest"`
	jwt.RegisteredClaims
}

// ParseSessionToken validates the token signature, expiry and audience and
// returns the claims.
func ParseSessionToken(cfg config.ShopifyConfig, tokenString string) (*SessionClaims, error) {
	if cfg.APISecret == "" {
		return nil, fmt.Errorf("shopify api secret is required")
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
			}
			return []byte(cfg.APISecret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithAudience(cfg.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing session token: %w", err)
	}
	return claims, nil
}

// Shop extracts the myshopify domain from the dest claim.
func (c *SessionClaims) Shop() string {
	dest := strings.TrimSpace(c.Dest)
	dest = strings.TrimPrefix(dest, "https://")
	dest = strings.TrimPrefix(dest, "http://")
	if idx := strings.IndexByte(dest, '/'); idx >= 0 {
		dest = dest[:idx]
	}
	return dest
}
