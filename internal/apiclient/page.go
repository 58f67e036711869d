package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Page is a normalized list response.
type Page struct {
	List  []json.RawMessage
	Total int
}

type pageEnvelope struct {
	List  []json.RawMessage `json:"list"`
	Data  []json.RawMessage `json:"data"`
	Total int               `json:"total"`
	Count int               `json:"count"`
}

// DecodePage accepts {list,total}, {data,count} or a bare array. A missing or
// zero total falls back to count and then to the number of items received.
func DecodePage(data json.RawMessage) (Page, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Page{}, nil
	}
	if trimmed[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return Page{}, fmt.Errorf("apiclient: decode page: %w", err)
		}
		return Page{List: list, Total: len(list)}, nil
	}
	var env pageEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Page{}, fmt.Errorf("apiclient: decode page: %w", err)
	}
	list := env.List
	if list == nil {
		list = env.Data
	}
	total := env.Total
	if total <= 0 {
		total = env.Count
	}
	if total <= 0 {
		total = len(list)
	}
	return Page{List: list, Total: total}, nil
}

// Decode unmarshals every item of the page into T.
func Decode[T any](p Page) ([]T, error) {
	out := make([]T, 0, len(p.List))
	for i, raw := range p.List {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("apiclient: decode item %d: %w", i, err)
		}
		out = append(out, item)
	}
	return out, nil
}
