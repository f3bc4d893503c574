package state

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	markerPlain byte = 0
	markerGzip  byte = 1
)

// MsgPackSerializer encodes values as MessagePack behind a one-byte
// marker that says whether the payload is gzip-compressed.
type MsgPackSerializer struct {
	// UseCompression enables gzip compression for large payloads
	UseCompression bool
	// CompressionThreshold is the minimum size to trigger compression
	CompressionThreshold int
}

// NewMsgPackSerializer creates a new MsgPack serializer.
func NewMsgPackSerializer() *MsgPackSerializer {
	return &MsgPackSerializer{
		UseCompression:       true,
		CompressionThreshold: 1024,
	}
}

// Marshal serializes a value to bytes.
func (s *MsgPackSerializer) Marshal(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}

	if s.UseCompression && len(data) >= s.CompressionThreshold {
		if compressed, err := compress(data); err == nil {
			return append([]byte{markerGzip}, compressed...), nil
		}
	}

	return append([]byte{markerPlain}, data...), nil
}

// Unmarshal deserializes bytes to a value.
func (s *MsgPackSerializer) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return ErrInvalidData
	}

	payload := data[1:]
	switch data[0] {
	case markerPlain:
	case markerGzip:
		decompressed, err := decompress(payload)
		if err != nil {
			return err
		}
		payload = decompressed
	default:
		return ErrInvalidData
	}

	return msgpack.Unmarshal(payload, v)
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)

	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	return io.ReadAll(gz)
}

// GenericSerializer implements Serializer[T] for any type.
type GenericSerializer[T any] struct {
	inner *MsgPackSerializer
}

// NewGenericSerializer creates a new generic serializer.
func NewGenericSerializer[T any]() *GenericSerializer[T] {
	return &GenericSerializer[T]{
		inner: NewMsgPackSerializer(),
	}
}

// Serialize serializes a value.
func (s *GenericSerializer[T]) Serialize(value T) ([]byte, error) {
	return s.inner.Marshal(value)
}

// Deserialize deserializes a value.
func (s *GenericSerializer[T]) Deserialize(data []byte) (T, error) {
	var value T
	err := s.inner.Unmarshal(data, &value)
	return value, err
}
