package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
)

var exposeInternal atomic.Bool

// SetExposeInternal 開發環境才回傳 500/502 的內部錯誤細節
func SetExposeInternal(v bool) {
	exposeInternal.Store(v)
}

type ResponseError struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Fields  []apperr.FieldError `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func SuccessJSON(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

func CreatedJSON(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// ErrorJSON 非 *apperr.Error 一律視為 500
func ErrorJSON(w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)
	body := ResponseError{
		Code:    int(code),
		Message: apperr.ErrStrMap[code],
		Fields:  apperr.FieldsOf(err),
	}
	if code == apperr.PersistenceCode || code == apperr.PaymentProviderCode {
		if exposeInternal.Load() {
			body.Message = err.Error()
		}
	} else if e := asAppErr(err); e != nil && e.Msg != "" {
		body.Message = e.Msg
	}
	if body.Message == "" {
		body.Message = http.StatusText(int(code))
	}
	WriteJSON(w, int(code), body)
}

func asAppErr(err error) *apperr.Error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
