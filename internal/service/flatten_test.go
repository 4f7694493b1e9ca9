package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/team-entries-api/internal/models"
)

func testRecord(id int64, fields map[string]string) *models.Record {
	raw := map[string]json.RawMessage{}
	for name, value := range fields {
		raw[name] = json.RawMessage(value)
	}
	return &models.Record{
		ID:     id,
		Type:   models.RecordTypeEntry,
		Title:  "Test entry",
		Status: models.StatusDraft,
		Fields: raw,
	}
}

func TestFlattenFixedColumnsFirst(t *testing.T) {
	rec := testRecord(7, map[string]string{"notes": `"hello"`})

	row, columns := flattenRecord(rec, "stockholm", nil)

	assert.Equal(t, []string{"id", "title", "team", "notes"}, columns)
	assert.Equal(t, "7", row["id"])
	assert.Equal(t, "Test entry", row["title"])
	assert.Equal(t, "stockholm", row["team"])
	assert.Equal(t, "hello", row["notes"])
}

func TestFlattenEmptyTeamStillEmitsTeamColumn(t *testing.T) {
	rec := testRecord(1, nil)

	row, columns := flattenRecord(rec, "", nil)

	assert.Equal(t, []string{"id", "title", "team"}, columns)
	assert.Equal(t, "", row["team"])
}

func TestFlattenGeoEmitsOnlyPresentSubkeys(t *testing.T) {
	rec := testRecord(1, map[string]string{
		"location": `{"address":"X","lat":"59.3","lng":"18.0"}`,
	})

	row, columns := flattenRecord(rec, "stockholm", nil)

	assert.Equal(t, []string{"id", "title", "team", "location_address", "location_lat", "location_lng"}, columns)
	assert.Equal(t, "X", row["location_address"])
	assert.Equal(t, "59.3", row["location_lat"])
	assert.Equal(t, "18.0", row["location_lng"])
	// zoom is absent from the value, so no column — not an empty cell.
	_, hasZoom := row["location_zoom"]
	assert.False(t, hasZoom)
}

func TestFlattenGeoSubkeyOrder(t *testing.T) {
	rec := testRecord(1, map[string]string{
		"place": `{"country":"SE","lat":1,"lng":2,"city":"Stockholm","zoom":14}`,
	})

	_, columns := flattenRecord(rec, "", nil)

	// Canonical sub-key order regardless of JSON key order.
	assert.Equal(t, []string{"id", "title", "team", "place_lat", "place_lng", "place_zoom", "place_city", "place_country"}, columns)
}

func TestFlattenLinkKeepsURLOnly(t *testing.T) {
	rec := testRecord(1, map[string]string{
		"website": `{"url":"https://example.org","label":"Example","target":"_blank"}`,
	})

	row, columns := flattenRecord(rec, "", nil)

	assert.Equal(t, []string{"id", "title", "team", "website"}, columns)
	assert.Equal(t, "https://example.org", row["website"])
}

func TestFlattenScalarList(t *testing.T) {
	rec := testRecord(1, map[string]string{
		"tags": `["alpha","beta","gamma"]`,
	})

	row, _ := flattenRecord(rec, "", nil)

	assert.Equal(t, "alpha, beta, gamma", row["tags"])
}

func TestFlattenObjectListAsCompactJSON(t *testing.T) {
	rec := testRecord(1, map[string]string{
		"rows": `[{"day": "mon", "open": true}, {"day": "tue", "open": false}]`,
	})

	row, _ := flattenRecord(rec, "", nil)

	assert.Equal(t, `[{"day":"mon","open":true},{"day":"tue","open":false}]`, row["rows"])
}

func TestFlattenNumbers(t *testing.T) {
	rec := testRecord(1, map[string]string{
		"capacity": `120`,
		"rating":   `4.5`,
	})

	row, _ := flattenRecord(rec, "", nil)

	assert.Equal(t, "120", row["capacity"])
	assert.Equal(t, "4.5", row["rating"])
}

func TestFlattenMalformedValueFallsBackToRawString(t *testing.T) {
	rec := testRecord(1, map[string]string{
		"broken": `{"address": unterminated`,
	})

	row, columns := flattenRecord(rec, "", nil)

	// One bad field never aborts anything; it degrades to the raw bytes.
	assert.Contains(t, columns, "broken")
	assert.Equal(t, `{"address": unterminated`, row["broken"])
}

func TestFlattenSkipsInternalFields(t *testing.T) {
	rec := testRecord(1, map[string]string{
		"_edit_lock": `"1700000000"`,
		"notes":      `"visible"`,
	})

	_, columns := flattenRecord(rec, "", nil)

	assert.Equal(t, []string{"id", "title", "team", "notes"}, columns)
}

func TestFlattenHonorsDeclaredFieldOrder(t *testing.T) {
	rec := testRecord(1, map[string]string{
		"b_field": `"b"`,
		"a_field": `"a"`,
		"z_extra": `"z"`,
	})

	// Declared order wins for declared fields; undeclared fields follow in
	// name order.
	_, columns := flattenRecord(rec, "", []string{"b_field", "missing", "a_field"})

	assert.Equal(t, []string{"id", "title", "team", "b_field", "a_field", "z_extra"}, columns)
}
