package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexUint64 is a record id sent either as a JSON number or as a numeric string.
// Forms post ids as strings, the mobile client as numbers. null and "" decode to zero.
type FlexUint64 uint64

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexUint64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*f = 0
			return nil
		}
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("id: expected a non-negative integer, got %s", data)
	}
	*f = FlexUint64(id)
	return nil
}

// MarshalJSON always emits a number.
func (f FlexUint64) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(f), 10), nil
}

// Uint64 converts FlexUint64 back to uint64.
func (f FlexUint64) Uint64() uint64 {
	return uint64(f)
}

// Ptr returns the id of an optional field, or nil when the field was absent.
func (f *FlexUint64) Ptr() *uint64 {
	if f == nil {
		return nil
	}
	id := uint64(*f)
	return &id
}
