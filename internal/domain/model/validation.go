package model

import (
	"strings"
)

type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 收集所有違反的規則，而非遇到第一個就中斷
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Field+": "+v.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Rule 單一驗證規則，Check 回傳 true 表示通過
type Rule[T any] struct {
	Field   string
	Message string
	Check   func(T) bool
}

func Validate[T any](v T, rules []Rule[T]) []Violation {
	var violations []Violation
	for _, r := range rules {
		if !r.Check(v) {
			violations = append(violations, Violation{Field: r.Field, Message: r.Message})
		}
	}
	return violations
}

// ToError 沒有違規時回傳 nil
func ToError(violations []Violation) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}
