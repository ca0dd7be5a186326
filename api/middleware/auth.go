package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/bxgy-bundles-backend/api/responses"
	pkgAuth "github.com/angelmondragon/bxgy-bundles-backend/pkg/auth"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/bxgy-bundles-backend/pkg/errors"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/logger"
)

// Auth validates the embedded-app session token and seeds the request
// context with the shop domain from the dest claim.
func Auth(cfg config.ShopifyConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseSessionToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token"))
				return
			}

			shop := claims.Shop()
			if shop == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing shop claim"))
				return
			}

			ctx := WithShop(r.Context(), shop)
			if logg != nil {
				ctx = logg.WithShop(ctx, shop)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
