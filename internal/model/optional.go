package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrNullValue is returned when a patch field is sent as JSON null.  None of
// the patchable fields are nullable, so null is rejected instead of being read
// as "leave unchanged".
var ErrNullValue = errors.New("null is not allowed")

// Optional distinguishes a field that was not supplied from one that was
// explicitly set.  The zero value is "not supplied".
type Optional[T any] struct {
	Value T    // Value holds the supplied value; meaningful only when Set is true
	Set   bool // Set reports whether the field was present in the request
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Get returns the value and whether it was supplied.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// OrElse returns the supplied value or def when the field is unset.
func (o Optional[T]) OrElse(def T) T {
	if o.Set {
		return o.Value
	}
	return def
}

// UnmarshalJSON marks the field as supplied.  encoding/json only calls it
// when the key is present in the object.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return ErrNullValue
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = v
	o.Set = true
	return nil
}

// ValidationValue exposes the wrapped value to the request validator.  It
// returns nil when the field is unset, so "omitempty" skips it, and a
// pointer otherwise, so an explicitly supplied zero value is still checked.
func (o Optional[T]) ValidationValue() any {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}
