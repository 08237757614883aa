package ingest

import (
	"strings"
	"unicode"

	"cinecatalog-api/internal/model"
)

// CleanKeys normalizes reference-record property names. The provider's genre
// and theater feeds ship keys with trailing tabs and other control characters
// ("NameEN\t"); those would otherwise become distinct fields in the store.
func CleanKeys(records []model.ReferenceRecord) []model.ReferenceRecord {
	cleaned := make([]model.ReferenceRecord, len(records))
	for i, rec := range records {
		cleaned[i] = cleanRecord(rec)
	}
	return cleaned
}

func cleanRecord(rec model.ReferenceRecord) model.ReferenceRecord {
	out := make(model.ReferenceRecord, len(rec))
	for k, v := range rec {
		out[cleanKey(k)] = cleanValue(v)
	}
	return out
}

func cleanValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return map[string]interface{}(cleanRecord(t))
	case []interface{}:
		for i := range t {
			t[i] = cleanValue(t[i])
		}
		return t
	default:
		return v
	}
}

func cleanKey(key string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, key)
}
