package storage

// Codec translates keys and values to and from the bytes a backend
// persists. Backends that store opaque bytes (pebble) need one; the
// in-memory backend keeps Go values as-is.
type Codec[K, V any] interface {
	EncodeKey(K) ([]byte, error)
	DecodeKey([]byte) (K, error)
	EncodeValue(V) ([]byte, error)
	DecodeValue([]byte) (V, error)
}
