// internal/parser/api.go
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/grantio/grantscraper/pkg/types"
)

// apiParser consumes a JSON endpoint. RecordPath walks to the record
// array; FieldMap maps record fields to response fields, both sides
// supporting dot paths.
type apiParser struct {
	deps Deps
}

func newAPI(deps Deps) (Parser, error) {
	return &apiParser{deps: deps}, nil
}

func (p *apiParser) Extract(ctx context.Context, target types.GrantTarget) ([]RawRecord, error) {
	resp, err := p.deps.Fetcher.Fetch(ctx, target.URL)
	if err != nil {
		return nil, err
	}

	var payload interface{}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode JSON from %s: %w", target.URL, err)
	}

	items, err := recordArray(payload, p.deps.Source.Parser.RecordPath)
	if err != nil {
		return nil, fmt.Errorf("record path %q: %w", p.deps.Source.Parser.RecordPath, err)
	}

	records := make([]RawRecord, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		record := RawRecord{FieldURL: target.URL}
		for field, path := range p.deps.Source.Parser.FieldMap {
			if value, ok := lookupPath(obj, path); ok {
				record[field] = stringify(value)
			}
		}

		if record[FieldTitle] == nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// recordArray walks a dot path to the array of records. An empty path
// expects the response itself to be the array.
func recordArray(payload interface{}, path string) ([]interface{}, error) {
	current := payload
	if path != "" {
		for _, key := range strings.Split(path, ".") {
			obj, ok := current.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("segment %q: not an object", key)
			}
			current, ok = obj[key]
			if !ok {
				return nil, fmt.Errorf("segment %q: not found", key)
			}
		}
	}

	items, ok := current.([]interface{})
	if !ok {
		return nil, fmt.Errorf("path does not resolve to an array")
	}
	return items, nil
}

func lookupPath(obj map[string]interface{}, path string) (interface{}, bool) {
	var current interface{} = obj
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

// stringify renders JSON scalars the way the normalizers expect:
// numbers without exponent notation, lists preserved as []string.
func stringify(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := stringify(item).(string); ok && s != "" {
				items = append(items, s)
			}
		}
		return items
	default:
		return fmt.Sprintf("%v", v)
	}
}
