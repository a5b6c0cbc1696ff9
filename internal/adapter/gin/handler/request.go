package handler

import (
	"bytes"
	"encoding/json"
	"math"
)

// UserBody is the request schema shared by create and update. Each field is
// kept raw so a value of the wrong JSON type reads as "not supplied" for that
// field alone instead of failing the whole body.
type UserBody struct {
	Name  json.RawMessage `json:"name"`
	Age   json.RawMessage `json:"age"`
	Email json.RawMessage `json:"email"`
}

// NameField returns the name when it was sent as a JSON string.
func (b UserBody) NameField() *string {
	return decodeString(b.Name)
}

// EmailField returns the email when it was sent as a JSON string.
func (b UserBody) EmailField() *string {
	return decodeString(b.Email)
}

// AgeField returns the age when it was sent as an integral JSON number.
// Strings such as "30" are not coerced.
func (b UserBody) AgeField() *int {
	if isAbsent(b.Age) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b.Age, &f); err != nil {
		return nil
	}
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return nil
	}
	age := int(f)
	return &age
}

func decodeString(raw json.RawMessage) *string {
	if isAbsent(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
