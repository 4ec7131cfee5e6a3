package core

import "encoding/binary"

// CommitmentPrefix is the fixed contract prefix every path is rooted under.
// Counterparty light clients verify this exact byte layout via Merkle
// proof, so it is part of the wire protocol, not an implementation detail.
const CommitmentPrefix = "IBC_UNION_COSMWASM_COMMITMENT_PREFIX"

// pathTag is the single distinguishing byte for a path family.
type pathTag byte

const (
	tagPacketCommitment pathTag = iota + 1
	tagPacketReceipt
	tagPacketAcknowledgement
	tagBatchPackets
	tagBatchReceipts
	tagConnection
	tagChannel
	tagChannelOwner
	tagClientRecord
	tagClientState
	tagConsensusState
)

func newPath(tag pathTag, suffix ...[]byte) []byte {
	out := make([]byte, 0, len(CommitmentPrefix)+1+32)
	out = append(out, CommitmentPrefix...)
	out = append(out, byte(tag))
	for _, s := range suffix {
		out = append(out, s...)
	}
	return out
}

func be32(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

func be64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func pathPacketCommitment(h Commitment) []byte { return newPath(tagPacketCommitment, h[:]) }
func pathPacketReceipt(h Commitment) []byte    { return newPath(tagPacketReceipt, h[:]) }
func pathPacketAcknowledgement(h Commitment) []byte {
	return newPath(tagPacketAcknowledgement, h[:])
}
func pathBatchPackets(batchHash Commitment) []byte {
	return newPath(tagBatchPackets, batchHash[:])
}
func pathBatchReceipts(batchHash Commitment) []byte {
	return newPath(tagBatchReceipts, batchHash[:])
}
func pathConnection(id ConnectionId) []byte { return newPath(tagConnection, be32(uint32(id))) }
func pathChannel(id ChannelId) []byte       { return newPath(tagChannel, be32(uint32(id))) }
func pathChannelOwner(id ChannelId) []byte  { return newPath(tagChannelOwner, be32(uint32(id))) }
func pathClientRecord(id ClientId) []byte   { return newPath(tagClientRecord, be32(uint32(id))) }
func pathClientState(id ClientId) []byte    { return newPath(tagClientState, be32(uint32(id))) }
func pathConsensusState(id ClientId, h Height) []byte {
	return newPath(tagConsensusState, be32(uint32(id)), be64(uint64(h)))
}
