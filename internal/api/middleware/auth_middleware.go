package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/response"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/token"
	"github.com/RoyceAzure/lab/storefront/internal/util"
)

var (
	errMissingAuthHeader = errors.New("missing authorization header")
	errInvalidAuthFormat = errors.New("invalid authorization header format")
)

/*
從 header 取得 Authorization => 檢查格式 => 檢查 Bearer => 用 tokenMaker 檢查 token 內容
成功時把 payload 放進 ctx，失敗時只記錄原因，由 AuthMiddleware 決定是否擋下
*/
func AuthPayloadMiddleware(tokenMaker token.Maker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload, err := authorizeUser(tokenMaker, r.Header.Get(string(constants.AuthorizationHeaderKey)))
			ctx := r.Context()
			if err != nil {
				ctx = context.WithValue(ctx, constants.AuthorizationErrorKey, err)
			} else {
				ctx = context.WithValue(ctx, constants.AuthorizationPayloadKey, payload)
				reportUser(ctx, payload.UserID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authorizeUser(tokenMaker token.Maker, header string) (*token.Payload, error) {
	if header == "" {
		return nil, errMissingAuthHeader
	}
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return nil, errInvalidAuthFormat
	}
	if strings.ToLower(fields[0]) != string(constants.AuthorizationTypeBearer) {
		return nil, errInvalidAuthFormat
	}
	return tokenMaker.VerifyToken(fields[1])
}

// 驗證 ctx 是否有 token payload
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if util.GetTokenPayloadFromContext(r.Context()) == nil {
			msg := "unauthenticated"
			if err, ok := r.Context().Value(constants.AuthorizationErrorKey).(error); ok {
				switch {
				case errors.Is(err, token.ErrExpiredToken):
					msg = "token expired"
				case errors.Is(err, errMissingAuthHeader):
					msg = "not authorized, no token"
				default:
					msg = "not authorized, invalid token"
				}
			}
			response.ErrorJSON(w, apperr.Unauthenticated(msg))
			return
		}
		next.ServeHTTP(w, r)
	})
}
