package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
)

type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func SuccessJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Response{Code: status, Message: http.StatusText(status), Data: data})
}

// StatusOf 錯誤分類對應 http status
//
//	ErrValidation     -> 400
//	ErrNotFound       -> 404
//	ErrInvalidState   -> 409
//	ErrInfrastructure -> 503
//	其他              -> 500
func StatusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, model.ErrInfrastructure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorJSON 驗證錯誤會附上所有違反的規則
// 500 / 503 不回傳內部錯誤訊息
func ErrorJSON(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	body := Response{Code: status, Message: err.Error()}

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		body.Data = verr.Violations
	}
	if status >= http.StatusInternalServerError {
		body.Message = http.StatusText(status)
	}
	writeJSON(w, status, body)
}

// MessageJSON 不經過錯誤分類，直接回傳指定 status
func MessageJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Code: status, Message: message})
}
