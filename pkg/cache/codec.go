package cache

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec converts a value to and from the bytes kept in a Store.
type Codec[T any] interface {
	Encode(value T) ([]byte, error)
	Decode(payload []byte) (T, error)
}

// Validator is implemented by payloads that can check their own required
// fields. Codecs run it after decoding so a schema mismatch is a decode
// failure instead of a silently zero-filled value.
type Validator interface {
	Validate() error
}

// JSONCodec stores values as JSON.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(value T) ([]byte, error) {
	return json.Marshal(value)
}

func (JSONCodec[T]) Decode(payload []byte) (T, error) {
	var value T
	if err := json.Unmarshal(payload, &value); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to unmarshal json: %w", err)
	}
	return value, validate(value)
}

// MsgpackCodec stores values as MessagePack, which keeps large listings
// noticeably smaller than JSON.
type MsgpackCodec[T any] struct{}

func (MsgpackCodec[T]) Encode(value T) ([]byte, error) {
	return msgpack.Marshal(value)
}

func (MsgpackCodec[T]) Decode(payload []byte) (T, error) {
	var value T
	if err := msgpack.Unmarshal(payload, &value); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to unmarshal msgpack: %w", err)
	}
	return value, validate(value)
}

func validate[T any](value T) error {
	if v, ok := any(value).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid payload: %w", err)
		}
	}
	return nil
}
