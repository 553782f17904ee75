package domain

import (
	"encoding/json"
	"time"
)

// Setting is a single configuration entry scoped to a shop. Values are stored
// as JSON documents so any shape (string, number, bool, object) round-trips.
type Setting struct {
	ShopID    string          `json:"shop_id"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// EncodeSettingValue serializes an arbitrary value for storage.
func EncodeSettingValue(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// DecodeSettingValue deserializes a stored value. Rows written by older
// clients may hold bare strings rather than JSON documents; those are
// returned as-is instead of failing.
func DecodeSettingValue(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
