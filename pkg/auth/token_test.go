package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bxgy-bundles-backend/pkg/config"
)

func testConfig() config.ShopifyConfig {
	return config.ShopifyConfig{
		APIKey:    "test-api-key",
		APISecret: "test-api-secret",
	}
}

func mintToken(t *testing.T, secret, audience, dest string, expiresAt time.Time) string {
	t.Helper()
	claims := SessionClaims{
		Dest: dest,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    dest + "/admin",
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestParseSessionTokenRoundTrip(t *testing.T) {
	cfg := testConfig()
	token := mintToken(t, cfg.APISecret, cfg.APIKey, "https://demo.myshopify.com", time.Now().Add(time.Minute))

	claims, err := ParseSessionToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "demo.myshopify.com", claims.Shop())
}

func TestParseSessionTokenRejectsBadSignature(t *testing.T) {
	cfg := testConfig()
	token := mintToken(t, "other-secret", cfg.APIKey, "https://demo.myshopify.com", time.Now().Add(time.Minute))

	_, err := ParseSessionToken(cfg, token)
	assert.Error(t, err)
}

func TestParseSessionTokenRejectsExpired(t *testing.T) {
	cfg := testConfig()
	token := mintToken(t, cfg.APISecret, cfg.APIKey, "https://demo.myshopify.com", time.Now().Add(-time.Minute))

	_, err := ParseSessionToken(cfg, token)
	assert.Error(t, err)
}

func TestParseSessionTokenRejectsWrongAudience(t *testing.T) {
	cfg := testConfig()
	token := mintToken(t, cfg.APISecret, "other-app", "https://demo.myshopify.com", time.Now().Add(time.Minute))

	_, err := ParseSessionToken(cfg, token)
	assert.Error(t, err)
}

func TestShopStripsSchemeAndPath(t *testing.T) {
	claims := &SessionClaims{Dest: "https://demo.myshopify.com/admin"}
	assert.Equal(t, "demo.myshopify.com", claims.Shop())
}
