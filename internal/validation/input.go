package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

// Верхние границы текстовых полей запросов. Нижние границы проверяет домен.
const (
	MaxDescriptionLength   = 5000
	MaxContentLength       = 10000
	MaxNotesLength         = 2000
	MaxReasonLength        = 1000
	MaxInstructionsLength  = 5000
	MaxSummaryLength       = 5000
	MaxFileNameLength      = 255
	MaxCompliancesPerClaim = 10
)

// ValidateLength проверяет длину строки в символах; 0 отключает границу.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return apperror.Validation("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return apperror.Validation("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пуста после обрезки пробелов.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.Validation("%s обязателен", fieldName)
	}
	return nil
}

// Field - одно текстовое поле запроса с верхней границей длины.
type Field struct {
	Name  string
	Value string
	Max   int
}

// ValidateMax проверяет верхние границы всех полей и возвращает первую ошибку.
func ValidateMax(fields ...Field) error {
	for _, f := range fields {
		if err := ValidateLength(f.Name, f.Value, 0, f.Max); err != nil {
			return err
		}
	}
	return nil
}
