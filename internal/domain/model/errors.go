package model

import (
	"errors"
	"fmt"
)

// 錯誤分類，呼叫端以 errors.Is 判斷
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidState   = errors.New("invalid state")
	ErrValidation     = errors.New("validation failed")
	ErrInfrastructure = errors.New("infrastructure error")
)

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// InfrastructureError 包裝 store / bus 的錯誤，保留原始錯誤供 errors.Is/As 使用
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() []error {
	return []error{ErrInfrastructure, e.Err}
}

// Infra 將錯誤標記為基礎設施錯誤，已分類的錯誤原樣回傳
func Infra(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInfrastructure) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrValidation) {
		return err
	}
	return &InfrastructureError{Op: op, Err: err}
}

// IsRetryable 只有基礎設施錯誤值得重試
func IsRetryable(err error) bool {
	return errors.Is(err, ErrInfrastructure)
}
