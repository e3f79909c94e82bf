package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version   byte = 1
	kindEntry byte = 1

	hdrLen = 4 + 1 + 1 + 8 + 8 + 8 + 4
)

var (
	ErrCorrupt = errors.New("cacheaside: corrupt entry")
	magic4     = [...]byte{'C', 'A', 'S', 'D'}
)

// Entry is one cached value plus the metadata needed to validate it on read.
type Entry struct {
	Gen       uint64
	StoredAt  time.Time
	ExpiresAt time.Time // zero => never expires
	Payload   []byte
}

// Expired reports whether the entry must be treated as absent at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode frames an entry:
//
//	magic(4) | ver(1) | kind(1) | gen(u64 be) | storedAt(i64 be, unix ns) |
//	expiresAt(i64 be, unix ns, 0 = none) | vlen(u32 be) | payload(vlen)
func Encode(e Entry) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(e.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], e.Gen)
	buf.Write(u8[:])

	binary.BigEndian.PutUint64(u8[:], uint64(unixNano(e.StoredAt)))
	buf.Write(u8[:])

	binary.BigEndian.PutUint64(u8[:], uint64(unixNano(e.ExpiresAt)))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
	buf.Write(u4[:])

	buf.Write(e.Payload)
	return buf.Bytes()
}

// Decode parses a frame produced by Encode. Trailing bytes are rejected.
// The returned payload aliases b.
func Decode(b []byte) (Entry, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version || b[5] != kindEntry {
		return Entry{}, ErrCorrupt
	}

	off := 6
	gen := binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	stored := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	expires := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off {
		return Entry{}, ErrCorrupt
	}

	return Entry{
		Gen:       gen,
		StoredAt:  fromUnixNano(stored),
		ExpiresAt: fromUnixNano(expires),
		Payload:   b[off : off+vlen],
	}, nil
}

// zero time has no meaningful UnixNano; it travels as 0.
func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
