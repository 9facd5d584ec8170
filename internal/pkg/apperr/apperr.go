package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code 錯誤分類，數值與對應的 HTTP status 相同
type Code int

const (
	ValidationCode      Code = http.StatusBadRequest
	UnauthenticatedCode Code = http.StatusUnauthorized
	ForbiddenCode       Code = http.StatusForbidden
	NotFoundCode        Code = http.StatusNotFound
	ConflictCode        Code = http.StatusConflict
	RateLimitedCode     Code = http.StatusTooManyRequests
	PersistenceCode     Code = http.StatusInternalServerError
	PaymentProviderCode Code = http.StatusBadGateway
)

// ErrStrMap 對外顯示的預設訊息
var ErrStrMap = map[Code]string{
	ValidationCode:      "validation failed",
	UnauthenticatedCode: "unauthenticated",
	ForbiddenCode:       "forbidden",
	NotFoundCode:        "not found",
	ConflictCode:        "conflict",
	RateLimitedCode:     "too many requests",
	PersistenceCode:     "internal server error",
	PaymentProviderCode: "payment provider error",
}

// FieldError 描述單一欄位驗證失敗
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Code   Code
	Msg    string
	Fields []FieldError
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Msg)
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Field+": "+f.Message)
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 讓 errors.Is(err, apperr.NotFound("")) 這類比較只看 Code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, msg string, err error) *Error {
	return &Error{Code: code, Msg: msg, Err: err}
}

func Validation(msg string, fields ...FieldError) *Error {
	return &Error{Code: ValidationCode, Msg: msg, Fields: fields}
}

func Unauthenticated(msg string) *Error {
	return New(UnauthenticatedCode, msg)
}

func Forbidden(msg string) *Error {
	return New(ForbiddenCode, msg)
}

func NotFound(msg string) *Error {
	return New(NotFoundCode, msg)
}

func Conflict(msg string) *Error {
	return New(ConflictCode, msg)
}

func Persistence(msg string, err error) *Error {
	return Wrap(PersistenceCode, msg, err)
}

func PaymentProvider(msg string, err error) *Error {
	return Wrap(PaymentProviderCode, msg, err)
}

// CodeOf 取出錯誤分類，非 *Error 一律視為 PersistenceCode
func CodeOf(err error) Code {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return PersistenceCode
}

func FieldsOf(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
