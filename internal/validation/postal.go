// Package validation содержит функции валидации входных данных.
package validation

import (
	"strings"
	"unicode"
)

// NormalizePostalCode оставляет в почтовом индексе только цифры.
func NormalizePostalCode(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, ch := range raw {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// SanitizePostalInput оставляет цифры и дефис, как поле ввода индекса.
func SanitizePostalInput(raw string) string {
	var b strings.Builder
	for _, ch := range raw {
		if unicode.IsDigit(ch) && ch < unicode.MaxASCII || ch == '-' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// IsValidPostalCode проверяет, что индекс имеет польский формат NN-NNN (дефис необязателен).
func IsValidPostalCode(raw string) bool {
	code := strings.TrimSpace(raw)
	if code == "" {
		return false
	}

	digits := 0
	for i, ch := range code {
		switch {
		case ch >= '0' && ch <= '9':
			digits++
		case ch == '-' && i == 2 && digits == 2:
		default:
			return false
		}
	}

	return digits == 5
}

// FormatPostalCode приводит пятизначный индекс к виду NN-NNN.
func FormatPostalCode(raw string) string {
	digits := NormalizePostalCode(raw)
	if len(digits) != 5 {
		return raw
	}
	return digits[:2] + "-" + digits[2:]
}
