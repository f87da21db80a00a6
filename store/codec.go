package store

import "encoding/binary"

// Key layout for the pebble-backed store. A flat prefix scheme (rather than
// nested buckets, which pebble does not have) keeps range scans cheap via
// NewIter with bounded prefixes, matching how the teacher's rawdb schema
// (core/rawdb/schema_rollup.go) lays out single-level byte-prefixed keys.
var (
	prefixDisbursement = []byte("d/")
	prefixIntent       = []byte("i/")
	prefixNonce        = []byte("n/")
	keyLease           = []byte("lease")
	keySnapshot        = []byte("snapshot")
)

func disbursementKey(id uint64) []byte {
	return appendUint64(prefixDisbursement, id)
}

func intentKey(id uint64) []byte {
	return appendUint64(prefixIntent, id)
}

func nonceKey(identity string) []byte {
	return append(append([]byte(nil), prefixNonce...), []byte(identity)...)
}

func appendUint64(prefix []byte, v uint64) []byte {
	buf := make([]byte, len(prefix)+8)
	copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[len(prefix):], v)
	return buf
}
