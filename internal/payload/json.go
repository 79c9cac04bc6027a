package payload

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"

	"github.com/mind-engage/markr/internal/results"
)

// DecodeJSON accepts a top-level array of records, a single record, or the
// XML layout expressed as objects. Numbers are kept as json.Number.
func DecodeJSON(b []byte) ([]results.RawRecord, error) {
	if !gjson.ValidBytes(b) {
		return nil, &DecodeError{Format: "json", Err: errors.New("invalid json")}
	}
	return records("json", fold(gjson.ParseBytes(b)))
}

func fold(r gjson.Result) any {
	switch {
	case r.IsObject():
		m := map[string]any{}
		r.ForEach(func(k, v gjson.Result) bool {
			m[SnakeCase(k.String())] = fold(v)
			return true
		})
		return m
	case r.IsArray():
		list := []any{}
		r.ForEach(func(_, v gjson.Result) bool {
			list = append(list, fold(v))
			return true
		})
		return list
	}
	switch r.Type {
	case gjson.String:
		return r.String()
	case gjson.Number:
		return json.Number(r.Raw)
	case gjson.True, gjson.False:
		return r.Bool()
	}
	return nil
}
