package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: model.ToError([]model.Violation{{Field: "quantity", Message: "bad"}}), want: http.StatusBadRequest},
		{name: "not found", err: model.NotFound("cart %s", "c-1"), want: http.StatusNotFound},
		{name: "invalid state", err: model.InvalidState("Only active carts with items can be checked out"), want: http.StatusConflict},
		{name: "infrastructure", err: model.Infra("publish CartCheckedOut", errors.New("broker down")), want: http.StatusServiceUnavailable},
		{name: "wrapped not found", err: fmt.Errorf("load: %w", model.NotFound("order")), want: http.StatusNotFound},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, StatusOf(tc.err))
		})
	}
}

func TestErrorJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrorJSON(rec, model.ToError([]model.Violation{{Field: "items", Message: "at least one item is required"}}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Code int               `json:"code"`
		Data []model.Violation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, http.StatusBadRequest, body.Code)
	require.Equal(t, []model.Violation{{Field: "items", Message: "at least one item is required"}}, body.Data)

	rec = httptest.NewRecorder()
	ErrorJSON(rec, model.Infra("get cart", errors.New("dial tcp 10.0.0.1:6379")))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotContains(t, rec.Body.String(), "10.0.0.1")
}
