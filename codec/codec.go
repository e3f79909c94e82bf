package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// NullChecker is implemented by codecs that have an explicit encoding for an
// absent value (JSON null, CBOR null, msgpack nil). Values that encode to null
// are persisted in the authority but never cached.
type NullChecker interface {
	IsNull(b []byte) bool
}

// IsNull reports whether b is the encoding of an absent value under c.
// Codecs without NullChecker treat only an empty payload as null.
func IsNull[V any](c Codec[V], b []byte) bool {
	if nc, ok := c.(NullChecker); ok {
		return nc.IsNull(b)
	}
	return len(b) == 0
}
