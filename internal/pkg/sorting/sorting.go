package sorting

import (
	"strings"
)

type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Field 各實體自行定義的排序欄位
type Field string

type Term struct {
	Field     Field
	Direction Direction
}

// AllowList 排序字串中的欄位名 (不分大小寫) 對應到實體欄位
type AllowList map[string]Field

// Parse 解析 "field[ asc|desc], field2 desc"
// 不在 allow list 的欄位或無法辨識的方向直接略過
// 沒有任何可用欄位時回傳 fallback
func Parse(order string, allow AllowList, fallback ...Term) []Term {
	var terms []Term
	seen := make(map[Field]bool)

	for _, token := range strings.Split(order, ",") {
		parts := strings.Fields(token)
		if len(parts) == 0 || len(parts) > 2 {
			continue
		}

		field, ok := allow[strings.ToLower(parts[0])]
		if !ok || seen[field] {
			continue
		}

		dir := Asc
		if len(parts) == 2 {
			switch strings.ToLower(parts[1]) {
			case "asc":
			case "desc":
				dir = Desc
			default:
				continue
			}
		}

		seen[field] = true
		terms = append(terms, Term{Field: field, Direction: dir})
	}

	if len(terms) == 0 {
		return append([]Term(nil), fallback...)
	}
	return terms
}

// Compare 給記憶體排序使用，cmp 回傳 -1/0/1 表示 a 相對 b 的升冪順序
func Compare[T any](a, b T, terms []Term, cmp func(field Field, a, b T) int) int {
	for _, t := range terms {
		c := cmp(t.Field, a, b)
		if c == 0 {
			continue
		}
		if t.Direction == Desc {
			return -c
		}
		return c
	}
	return 0
}
