package codec

import "github.com/vmihailenco/msgpack/v5"

const msgpackNil = 0xc0

// Msgpack is a Codec that serializes values using vmihailenco/msgpack/v5.
// The zero value is ready to use.
//
// Use `msgpack:"fieldName"` tags if you need explicit control over field names.
type Msgpack[V any] struct{}

var _ NullChecker = Msgpack[struct{}]{}

func (Msgpack[V]) Encode(v V) ([]byte, error) {
	return msgpack.Marshal(v)
}
func (Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	err := msgpack.Unmarshal(b, &v)
	return v, err
}

func (Msgpack[V]) IsNull(b []byte) bool {
	return len(b) == 0 || (len(b) == 1 && b[0] == msgpackNil)
}
