package statedb

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"

	"github.com/opentron/opentron-sub001/types"
)

// encodeRecord and decodeRecord serialize the structured records StateDB
// persists (Account, Witness, Proposal, ...). Spec §6 describes the upstream
// store's values as "protobuf for structured records"; reproducing that
// exactly needs the generated protobuf types, which in turn need the
// .proto sources — not part of this retrieval (see DESIGN.md). Every other
// serialization library in the pack is a *consumer* of generated protobuf
// code, not a schema-less struct encoder, so there is no ecosystem
// alternative to reach for here; encoding/gob is the standard-library
// encoder for exactly this shape of problem (arbitrary Go structs, internal
// use only, never exposed on the wire) and is used the same way throughout
// this package.
func encodeRecord(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, types.Wrap(types.KindStateConsistency, err, "encode record")
	}
	return buf.Bytes(), nil
}

func decodeRecord(data []byte, v interface{}) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return types.Wrap(types.KindStateConsistency, err, "decode record")
	}
	return nil
}

// i64Value / i64Decode implement the "8-byte big-endian for i64 singletons"
// encoding spec §6 calls for.
func i64Value(v int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return b[:]
}

func i64Decode(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}
