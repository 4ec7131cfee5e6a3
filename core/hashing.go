package core

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

// Commitment is the 32-byte value written to the commitment store. The
// all-zero value means "absent"; distinguish absence from unacknowledged by
// comparing against this exact zero value, never by truthiness of a byte
// slice.
type Commitment [32]byte

// IsZero reports whether c is the absent sentinel.
func (c Commitment) IsZero() bool { return c == Commitment{} }

// String renders the commitment as lowercase hex.
func (c Commitment) String() string { return hex.EncodeToString(c[:]) }

// MarshalJSON renders a Commitment as its hex string, the same
// string-on-the-wire convention Address uses, so query responses and
// dispatch results never leak a raw [32]byte JSON number array.
func (c Commitment) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON parses a hex string into a Commitment.
func (c *Commitment) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid commitment %q: %w", s, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("invalid commitment %q: want 32 bytes, got %d", s, len(raw))
	}
	copy(c[:], raw)
	return nil
}

func keccak256(parts ...[]byte) Commitment {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out Commitment
	copy(out[:], h.Sum(nil))
	return out
}

// COMMITMENT_MAGIC and ackMagicTag (the ACK_MAGIC tag AckCommitment mixes
// into every acknowledgement commitment) are fixed, distinguished, non-zero
// 32-byte constants so a raw storage read can always tell "never set" apart
// from a legitimately written entry.
var (
	COMMITMENT_MAGIC = keccak256([]byte("ibc-union/commitment-magic-v1"))
	ackMagicTag      = keccak256([]byte("ibc-union/ack-magic-v1"))
)

// writeLengthPrefixed appends a 4-byte big-endian length followed by b.
func writeLengthPrefixed(buf *bytes.Buffer, b []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	buf.Write(lenBuf[:])
	buf.Write(b)
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// canonicalPacketBytes is the domain-separated, length-prefixed,
// big-endian-integer encoding of a packet's fields.
func canonicalPacketBytes(p Packet) []byte {
	buf := new(bytes.Buffer)
	writeLengthPrefixed(buf, []byte("ibc-union/packet"))
	writeUint32(buf, uint32(p.SourceChannelId))
	writeUint32(buf, uint32(p.DestinationChannelId))
	writeLengthPrefixed(buf, p.Data)
	writeUint64(buf, uint64(p.TimeoutHeight))
	writeUint64(buf, uint64(p.TimeoutTimestamp))
	return buf.Bytes()
}

// PacketHash computes the packet's identity: a 32-byte domain-separated
// keccak over its canonical byte-serialization. Hash collisions imply
// packet equality.
func PacketHash(p Packet) Commitment {
	return keccak256(canonicalPacketBytes(p))
}

// AckCommitment is the value written to the PacketAcknowledgement path:
// keccak(ack_bytes) tagged with ACK_MAGIC so it can never coincide with a
// plain COMMITMENT_MAGIC entry or the zero/absent sentinel.
func AckCommitment(ack []byte) Commitment {
	inner := keccak256(ack)
	return keccak256(inner[:], ackMagicTag[:])
}

// sortHashes returns a new slice of hashes sorted ascending by byte value,
// the canonical order batching operates over.
func sortHashes(hashes []Commitment) []Commitment {
	out := make([]Commitment, len(hashes))
	copy(out, hashes)
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

// rlpEncodeHashList canonically encodes a sorted hash list using RLP, the
// canonical pre-image fed into the batch commitment hash.
func rlpEncodeHashList(hashes []Commitment) ([]byte, error) {
	raw := make([][]byte, len(hashes))
	for i, h := range hashes {
		raw[i] = append([]byte(nil), h[:]...)
	}
	return rlp.EncodeToBytes(raw)
}

// BatchHash is the path suffix for a batch: a keccak of the RLP-encoded,
// sorted list of packet hashes.
func BatchHash(hashes []Commitment) (Commitment, error) {
	sorted := sortHashes(hashes)
	enc, err := rlpEncodeHashList(sorted)
	if err != nil {
		return Commitment{}, err
	}
	return keccak256(enc), nil
}

// CommitOverHashes is the value written at a batch path: a keccak chain
// (Merkle-root equivalent) over the sorted hash list.
func CommitOverHashes(hashes []Commitment) Commitment {
	sorted := sortHashes(hashes)
	var acc Commitment
	for _, h := range sorted {
		acc = keccak256(acc[:], h[:])
	}
	return acc
}
