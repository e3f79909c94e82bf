package codec

import (
	"bytes"
	"encoding/json"
)

var jsonNull = []byte("null")

// JSON encodes values with encoding/json. The zero value is ready to use.
type JSON[V any] struct{}

var (
	_ Codec[struct{}] = JSON[struct{}]{}
	_ NullChecker     = JSON[struct{}]{}
)

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}

func (JSON[V]) IsNull(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) == 0 || bytes.Equal(b, jsonNull)
}
