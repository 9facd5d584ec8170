package middleware

import (
	"net"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/infra/ratelimit"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/response"
	"github.com/RoyceAzure/lab/storefront/internal/util"
	"github.com/rs/zerolog"
)

// RateLimitMiddleware 以 "<scope>:<user id>" 為桶，未登入時改用來源 IP
// 限流器本身故障時放行並記錄
func RateLimitMiddleware(limiter ratelimit.Limiter, scope string, logger *zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := util.GetUserIDFromContext(r.Context())
			if subject == "" {
				subject = clientIP(r)
			}
			allowed, err := limiter.Allow(r.Context(), scope+":"+subject)
			if err != nil {
				logger.Warn().Err(err).
					Str("request_id", getRequestID(r)).
					Str("scope", scope).
					Msg("rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", "1")
				response.ErrorJSON(w, apperr.New(apperr.RateLimitedCode, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
