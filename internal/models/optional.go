package models

import (
	"bytes"
	"encoding/json"
)

// Optional records whether a field was present in a partial update.
// Set is true when the key appeared in the input; Null is true when its
// value was an explicit JSON null. An absent key leaves both false.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// UnmarshalJSON implements json.Unmarshaler. encoding/json only calls it
// for keys that are present, which is what distinguishes Set from unset.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Null = bytes.Equal(bytes.TrimSpace(data), []byte("null"))
	if o.Null {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}
