package middleware

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/response"
	"github.com/RoyceAzure/lab/storefront/internal/util"
)

// RequireRole 需放在 AuthMiddleware 之後
func RequireRole(role model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload := util.GetTokenPayloadFromContext(r.Context())
			if payload == nil {
				response.ErrorJSON(w, apperr.Unauthenticated("unauthenticated"))
				return
			}
			if model.Role(payload.Role) != role {
				response.ErrorJSON(w, apperr.Forbidden("not authorized as "+string(role)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
