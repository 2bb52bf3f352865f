package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/RoyceAzure/lab/devstore/internal/api/response"
	"github.com/RoyceAzure/lab/devstore/internal/service"
)

// decodeJSON 解析失敗時已回應 400，呼叫端直接 return
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		response.MessageJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// listQuery ?page=1&size=10&order=createdat desc
// 無法解析的數字交由 paging 使用預設值
func listQuery(r *http.Request) service.ListQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	return service.ListQuery{Page: page, PageSize: size, Order: q.Get("order")}
}

func pathInt(w http.ResponseWriter, value, name string) (int, bool) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		response.MessageJSON(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}
