package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// extractList finds the array of raw items stored under key. The backend
// has produced all of these shapes:
//
//	{"questions": [...]}
//	{"questions": {"questions": [...]}}
//	{"questions": {"0": {...}, "1": {...}}}
//	{"0": {...}, "1": {...}}
//	[...]
//
// marker is a field every item carries, used to recognise a bare
// numeric-key object that does not start at "0".
func extractList(content json.RawMessage, key, marker string) ([]json.RawMessage, error) {
	return extractListDepth(content, key, marker, 0)
}

func extractListDepth(content json.RawMessage, key, marker string, depth int) ([]json.RawMessage, error) {
	content = bytes.TrimSpace(content)
	if len(content) == 0 || bytes.Equal(content, []byte("null")) {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidContent)
	}

	switch content[0] {
	case '"':
		// Content stored as an encoded JSON string
		var inner string
		if depth > 0 || json.Unmarshal(content, &inner) != nil {
			return nil, fmt.Errorf("%w: unexpected string content", ErrInvalidContent)
		}
		return extractListDepth(json.RawMessage(inner), key, marker, depth+1)
	case '[':
		return decodeArray(content)
	case '{':
	default:
		return nil, fmt.Errorf("%w: unexpected content", ErrInvalidContent)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(content, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}

	if nested, ok := obj[key]; ok {
		nested = bytes.TrimSpace(nested)
		if len(nested) > 0 && nested[0] == '[' {
			return decodeArray(nested)
		}
		var inner map[string]json.RawMessage
		if len(nested) > 0 && nested[0] == '{' && json.Unmarshal(nested, &inner) == nil {
			if deeper, ok := inner[key]; ok {
				deeper = bytes.TrimSpace(deeper)
				if len(deeper) > 0 && deeper[0] == '[' {
					return decodeArray(deeper)
				}
			}
			if values := numericValues(inner); len(values) > 0 {
				return values, nil
			}
		}
	}

	if values := numericValues(obj); len(values) > 0 {
		if _, ok := obj["0"]; ok || hasField(values[0], marker) {
			return values, nil
		}
	}

	return nil, fmt.Errorf("%w: no %s found", ErrInvalidContent, key)
}

func decodeArray(raw json.RawMessage) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return items, nil
}

// numericValues returns the values of numeric keys ordered by key
func numericValues(obj map[string]json.RawMessage) []json.RawMessage {
	type entry struct {
		n   int
		raw json.RawMessage
	}
	var entries []entry
	for k, v := range obj {
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		entries = append(entries, entry{n, v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].n < entries[j].n })

	values := make([]json.RawMessage, len(entries))
	for i, e := range entries {
		values[i] = e.raw
	}
	return values
}

func hasField(raw json.RawMessage, field string) bool {
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return false
	}
	_, ok := obj[field]
	return ok
}

// decodeItems decodes every raw item with decode and checks ids are unique.
// Items without an id get their 1-based position.
func decodeItems(raws []json.RawMessage, decode func(raw json.RawMessage, pos int) (Item, error)) ([]Item, error) {
	if len(raws) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInvalidContent)
	}

	items := make([]Item, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	for i, raw := range raws {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '{' {
			return nil, fmt.Errorf("%w: item %d is not an object", ErrInvalidContent, i+1)
		}
		item, err := decode(raw, i+1)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidContent, i+1, err)
		}
		if seen[item.ItemID()] {
			return nil, fmt.Errorf("%w: duplicate item id %q", ErrInvalidContent, item.ItemID())
		}
		seen[item.ItemID()] = true
		items = append(items, item)
	}
	return items, nil
}

func itemID(id text, pos int) string {
	if id == "" {
		return strconv.Itoa(pos)
	}
	return string(id)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
