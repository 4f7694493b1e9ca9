package service

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/team-entries-api/internal/models"
)

// internalFieldPrefix marks fields that never appear in exports.
const internalFieldPrefix = "_"

// geoSubKeys is the canonical emission order for geolocation sub-columns.
// Only sub-keys actually present in a value produce columns.
var geoSubKeys = []string{
	"address", "lat", "lng", "zoom", "place_id", "name",
	"street_number", "street_name", "city", "state", "post_code",
	"country", "country_short",
}

// flattenRecord turns one record into export cells: the fixed id/title/team
// triple followed by every non-internal field flattened into one or more
// columns. fieldOrder is the externally supplied per-type ordering; fields
// it does not mention are appended in name order so the overall iteration
// stays deterministic. Returns the row and the column names it produced, in
// order.
func flattenRecord(record *models.Record, team string, fieldOrder []string) (models.ExportRow, []string) {
	row := models.ExportRow{
		"id":    strconv.FormatInt(record.ID, 10),
		"title": record.Title,
		"team":  team,
	}
	columns := []string{"id", "title", "team"}

	for _, name := range orderedFieldNames(record.Fields, fieldOrder) {
		if strings.HasPrefix(name, internalFieldPrefix) {
			continue
		}
		for _, cell := range flattenValue(name, record.Fields[name]) {
			row[cell.column] = cell.value
			columns = append(columns, cell.column)
		}
	}
	return row, columns
}

// orderedFieldNames returns the record's field names: declared order first
// (skipping fields the record does not carry), then undeclared names sorted.
func orderedFieldNames(fields map[string]json.RawMessage, fieldOrder []string) []string {
	names := make([]string, 0, len(fields))
	declared := make(map[string]bool, len(fieldOrder))
	for _, name := range fieldOrder {
		declared[name] = true
		if _, ok := fields[name]; ok {
			names = append(names, name)
		}
	}

	rest := make([]string, 0, len(fields))
	for name := range fields {
		if !declared[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

type cell struct {
	column string
	value  string
}

// flattenValue expands one raw field value into cells by structural
// inspection. An undecodable payload degrades to its raw string form: one
// bad field on one record must never abort an export.
func flattenValue(name string, raw json.RawMessage) []cell {
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return []cell{{column: name, value: string(raw)}}
	}

	switch v := value.(type) {
	case map[string]interface{}:
		if isGeo(v) {
			return flattenGeo(name, v)
		}
		if url, ok := v["url"]; ok {
			// Link object: the plain URL only, label/target dropped.
			return []cell{{column: name, value: scalarString(url)}}
		}
		// Unrecognized object shape: compact JSON keeps the data visible.
		return []cell{{column: name, value: compactJSON(raw)}}
	case []interface{}:
		if objs := asObjectList(v); objs {
			return []cell{{column: name, value: compactJSON(raw)}}
		}
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = scalarString(item)
		}
		return []cell{{column: name, value: strings.Join(parts, ", ")}}
	case nil:
		return []cell{{column: name, value: ""}}
	default:
		return []cell{{column: name, value: scalarString(v)}}
	}
}

// isGeo recognizes the structured geolocation shape: an object carrying an
// address or a lat/lng pair.
func isGeo(v map[string]interface{}) bool {
	if _, ok := v["address"]; ok {
		return true
	}
	_, lat := v["lat"]
	_, lng := v["lng"]
	return lat && lng
}

// flattenGeo expands a geo object into <field>_<subkey> columns for each
// present sub-key, in the canonical sub-key order. Absent sub-keys produce
// no column at all.
func flattenGeo(name string, v map[string]interface{}) []cell {
	cells := make([]cell, 0, len(v))
	for _, sub := range geoSubKeys {
		if val, ok := v[sub]; ok {
			cells = append(cells, cell{column: name + "_" + sub, value: scalarString(val)})
		}
	}
	return cells
}

// asObjectList reports whether a non-empty list holds key-keyed objects.
func asObjectList(v []interface{}) bool {
	if len(v) == 0 {
		return false
	}
	for _, item := range v {
		if _, ok := item.(map[string]interface{}); !ok {
			return false
		}
	}
	return true
}

// scalarString renders a decoded JSON scalar without float artifacts for
// integral numbers.
func scalarString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// compactJSON re-serializes a raw value without insignificant whitespace,
// falling back to the raw bytes when compaction fails.
func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
