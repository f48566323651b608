package storage

// Ensure StringCodec implements Codec interface.
var _ Codec[string, string] = StringCodec{}

// StringCodec stores string keys and values as their raw bytes.
//
// Use it when the value is already a serialized document (such as a
// JSON blob) and must be stored exactly as given.
type StringCodec struct{}

func (StringCodec) EncodeKey(key string) ([]byte, error) { return []byte(key), nil }
func (StringCodec) DecodeKey(data []byte) (string, error) { return string(data), nil }
func (StringCodec) EncodeValue(value string) ([]byte, error) { return []byte(value), nil }
func (StringCodec) DecodeValue(data []byte) (string, error) { return string(data), nil }
