package types

import "encoding/json"

// Result is the discriminated outcome of an exposed engine call: either data
// or a caller-facing error message, never both.
type Result[T any] struct {
	Data  T
	Error string
}

// OK wraps a successful value.
func OK[T any](v T) Result[T] {
	return Result[T]{Data: v}
}

// Fail wraps err as a failed result carrying Message(err).
func Fail[T any](err error) Result[T] {
	msg := Message(err)
	if msg == "" {
		msg = "unknown error"
	}
	return Result[T]{Error: msg}
}

// Ok reports whether the result carries data.
func (r Result[T]) Ok() bool { return r.Error == "" }

// MarshalJSON encodes {"data": ...} or {"error": "..."}.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	}
	return json.Marshal(struct {
		Data T `json:"data"`
	}{r.Data})
}
