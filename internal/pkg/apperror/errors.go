package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrCodeOrderViolation     ErrorCode = "ORDER_VIOLATION"
	ErrCodeStateConflict      ErrorCode = "STATE_CONFLICT"
	ErrCodeAlreadyResolved    ErrorCode = "ALREADY_RESOLVED"
	ErrCodeExternalDependency ErrorCode = "EXTERNAL_DEPENDENCY"
	ErrCodeDatabaseError      ErrorCode = "DATABASE_ERROR"
)

// forbiddenMessage одинаков для всех отказов в доступе, чтобы не раскрывать существование сущностей.
const forbiddenMessage = "действие не разрешено"

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func Validation(format string, args ...any) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf(format, args...))
}

func OrderViolation(format string, args ...any) *AppError {
	return New(ErrCodeOrderViolation, fmt.Sprintf(format, args...))
}

func StateConflict(format string, args ...any) *AppError {
	return New(ErrCodeStateConflict, fmt.Sprintf(format, args...))
}

func AlreadyResolved(format string, args ...any) *AppError {
	return New(ErrCodeAlreadyResolved, fmt.Sprintf(format, args...))
}

// Forbidden всегда возвращает непрозрачное сообщение; причина остаётся только в логах.
func Forbidden() *AppError {
	return New(ErrCodeForbidden, forbiddenMessage)
}

func External(err error, message string) *AppError {
	return Wrap(err, ErrCodeExternalDependency, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden, ErrCodeOrderViolation:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeStateConflict, ErrCodeAlreadyResolved:
		return http.StatusConflict
	case ErrCodeExternalDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return hasCode(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func IsOrderViolation(err error) bool {
	return hasCode(err, ErrCodeOrderViolation)
}

func IsStateConflict(err error) bool {
	return hasCode(err, ErrCodeStateConflict)
}

func IsAlreadyResolved(err error) bool {
	return hasCode(err, ErrCodeAlreadyResolved)
}

func IsExternal(err error) bool {
	return hasCode(err, ErrCodeExternalDependency)
}

var (
	ErrHiringNotFound      = New(ErrCodeNotFound, "найм не найден")
	ErrDeliverableNotFound = New(ErrCodeNotFound, "этап не найден")
	ErrDeliveryNotFound    = New(ErrCodeNotFound, "сдача работы не найдена")
	ErrClaimNotFound       = New(ErrCodeNotFound, "претензия не найдена")
	ErrComplianceNotFound  = New(ErrCodeNotFound, "обязательство не найдено")
	ErrAnalysisNotFound    = New(ErrCodeNotFound, "анализ модерации не найден")
	ErrPaymentNotFound     = New(ErrCodeNotFound, "платёж не найден")
	ErrUserNotFound        = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized        = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrConcurrentUpdate    = New(ErrCodeStateConflict, "запись была изменена параллельным запросом")
)
