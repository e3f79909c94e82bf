// Package cacheaside implements a read-through / write-through cache-aside
// store in front of a slow authority, with per-key generations guarding
// read-through fills against concurrent writes.
//
// Components:
//   - Authority[K, V]: source of truth (authority.Memory, authority/postgres).
//   - Provider: byte store with TTL (Redis, Ristretto, BigCache, LRU).
//   - Codec[V]: (de)serializes V <-> []byte.
//   - GenStore: generation counter per storage key. Local (in-process) by default,
//     optional Redis implementation for multi-replica / restart persistence.
//
// Keys:
//
//	entry:<ns>:<key>  - cache entries (framed: generation, timestamps, payload)
//
// Ordering:
//
//	Write:  lock(key) -> authority.Put -> gen.Bump -> provider.Set -> unlock
//	Delete: lock(key) -> authority.Delete -> gen.Bump -> provider.Del -> unlock
//	Read miss: obs := gen.Snapshot -> authority.Get -> lock(key) -> set iff gen == obs -> unlock
//
// Cache failures on read are logged and served uncached from the authority;
// on write they are returned as ErrUnavailable.
package cacheaside
