package core

import (
	"encoding/json"
	"strconv"
)

// packetAttr renders a packet as the JSON attribute relayers read off the
// packet_send / packet_recv events; the hash alone is not enough to
// transport the packet to the counterparty.
func packetAttr(p Packet) string {
	raw, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(raw)
}

// resolveChannelClient loads a channel, its connection, and the client id
// proofs against that channel must be verified with. Shared by every
// packet operation that needs "which light client backs this channel."
func (e *Engine) resolveChannelClient(tx *Tx, channelId ChannelId) (ChannelRecord, ConnectionRecord, error) {
	var ch ChannelRecord
	ok, err := tx.getJSON(pathChannel(channelId), &ch)
	if err != nil {
		return ChannelRecord{}, ConnectionRecord{}, err
	}
	if !ok {
		return ChannelRecord{}, ConnectionRecord{}, ErrInvalidChannelState
	}
	var conn ConnectionRecord
	ok, err = tx.getJSON(pathConnection(ch.ConnectionId), &conn)
	if err != nil {
		return ChannelRecord{}, ConnectionRecord{}, err
	}
	if !ok {
		return ChannelRecord{}, ConnectionRecord{}, ErrInvalidConnectionState
	}
	return ch, conn, nil
}

// Send is the MsgSendPacket entrypoint: stage a commitment now, let a later
// proof release it. Resending an identical packet is a silent no-op
// (content-addressed idempotency).
func (e *Engine) Send(tx *Tx, caller Address, sourceChannelId ChannelId, timeoutTimestamp Timestamp, data []byte) (Packet, Commitment, error) {
	if timeoutTimestamp == 0 {
		return Packet{}, Commitment{}, ErrTimeoutMustBeSet
	}
	ch, _, err := e.resolveChannelClient(tx, sourceChannelId)
	if err != nil {
		return Packet{}, Commitment{}, err
	}
	if ch.State != ChannelStateOpen {
		return Packet{}, Commitment{}, ErrInvalidChannelState
	}
	owner, ok, err := e.ChannelOwner(tx, sourceChannelId)
	if err != nil {
		return Packet{}, Commitment{}, err
	}
	if !ok || owner != caller {
		return Packet{}, Commitment{}, ErrUnauthorized
	}
	packet := Packet{
		SourceChannelId:      sourceChannelId,
		DestinationChannelId: ch.CounterpartyChannelId,
		Data:                 data,
		TimeoutHeight:        0,
		TimeoutTimestamp:     timeoutTimestamp,
	}
	h := PacketHash(packet)
	if existing := tx.ReadCommitment(pathPacketCommitment(h)); !existing.IsZero() {
		return packet, h, nil // idempotent resend
	}
	tx.WriteCommitment(pathPacketCommitment(h), COMMITMENT_MAGIC)
	tx.Emit(newEvent("packet_send", map[string]string{
		"channel_id": strconv.FormatUint(uint64(sourceChannelId), 10),
		"hash":       hashAttr(h),
		"packet":     packetAttr(packet),
	}))
	return packet, h, nil
}

// recvPacket is the shared body of Recv and IntentRecv: channel/timeout
// checks, the idempotent-receipt write, and the on_recv_packet callback to
// the destination channel's owning application module. A synchronous
// non-empty ack is written immediately; an empty ack defers to a later
// MsgWriteAcknowledgement.
func (e *Engine) recvPacket(tx *Tx, packet Packet, relayer Address, relayerMsg []byte) (skip bool, h Commitment, err error) {
	ch, _, err := e.resolveChannelClient(tx, packet.DestinationChannelId)
	if err != nil {
		return false, Commitment{}, err
	}
	if ch.State != ChannelStateOpen {
		return false, Commitment{}, ErrInvalidChannelState
	}
	now := Now()
	if now >= packet.TimeoutTimestamp {
		return false, Commitment{}, &ReceivedTimedOutPacketTimestampError{Now: now, Timeout: packet.TimeoutTimestamp}
	}
	h = PacketHash(packet)
	if existing := tx.ReadCommitment(pathPacketReceipt(h)); !existing.IsZero() {
		return true, h, nil // already received: idempotent skip, not an error
	}
	tx.WriteCommitment(pathPacketReceipt(h), COMMITMENT_MAGIC)
	tx.Emit(newEvent("packet_recv", map[string]string{
		"channel_id": strconv.FormatUint(uint64(packet.DestinationChannelId), 10),
		"hash":       hashAttr(h),
		"packet":     packetAttr(packet),
		"relayer":    relayer.String(),
	}))
	owner, ok, err := e.ChannelOwner(tx, packet.DestinationChannelId)
	if err != nil {
		return false, Commitment{}, err
	}
	if !ok {
		return false, h, nil
	}
	ack, err := e.Modules.lookup(PortId(owner.Bytes())).OnRecvPacket(tx, packet, relayer, relayerMsg)
	if err != nil {
		return false, Commitment{}, err
	}
	if len(ack) == 0 {
		return false, h, nil // async: the module will call MsgWriteAcknowledgement later
	}
	tx.WriteCommitment(pathPacketAcknowledgement(h), AckCommitment(ack))
	tx.Emit(newEvent("write_ack", map[string]string{
		"channel_id": strconv.FormatUint(uint64(packet.DestinationChannelId), 10),
		"hash":       hashAttr(h),
	}))
	return false, h, nil
}

// Recv is MsgPacketRecv: a relayer-authenticated batch delivery backed by
// one membership proof over the whole batch. Processing aborts atomically
// on the first failing packet; idempotent skips never count as a failure.
func (e *Engine) Recv(tx *Tx, relayer Address, packets []Packet, relayerMsgs [][]byte, proofHeight Height, proof []byte) error {
	if err := e.Authorizer.RequireRelayer(relayer); err != nil {
		return err
	}
	if len(packets) == 0 {
		return nil
	}
	if len(relayerMsgs) != len(packets) {
		return ErrBatchFieldMismatch
	}
	hashes := make([]Commitment, len(packets))
	for i, p := range packets {
		hashes[i] = PacketHash(p)
	}
	batchHash, err := BatchHash(hashes)
	if err != nil {
		return err
	}
	_, conn, err := e.resolveChannelClient(tx, packets[0].DestinationChannelId)
	if err != nil {
		return err
	}
	value := CommitOverHashes(hashes)
	if err := e.Registry.VerifyMembershipAt(tx, conn.ClientId, proofHeight, pathBatchPackets(batchHash), proof, value); err != nil {
		return err
	}
	for i, p := range packets {
		if _, _, err := e.recvPacket(tx, p, relayer, relayerMsgs[i]); err != nil {
			return err
		}
	}
	return nil
}

// IntentRecv is MsgIntentPacketRecv: identical to Recv but
// without membership verification — the market maker accepts financial
// responsibility for an unproven packet. The timeout check still applies.
func (e *Engine) IntentRecv(tx *Tx, marketMaker Address, packets []Packet, marketMakerMsgs [][]byte) error {
	if len(marketMakerMsgs) != len(packets) {
		return ErrBatchFieldMismatch
	}
	for i, p := range packets {
		if _, _, err := e.recvPacket(tx, p, marketMaker, marketMakerMsgs[i]); err != nil {
			return err
		}
	}
	return nil
}

// Acknowledge is MsgPacketAcknowledgement: proves the
// counterparty wrote an acknowledgement for a packet this chain still has
// an in-flight commitment for, then releases the commitment.
func (e *Engine) Acknowledge(tx *Tx, relayer Address, packets []Packet, acks [][]byte, proofHeight Height, proof []byte) error {
	if err := e.Authorizer.RequireRelayer(relayer); err != nil {
		return err
	}
	if len(packets) != len(acks) {
		return ErrBatchFieldMismatch
	}
	for i, p := range packets {
		h := PacketHash(p)
		if existing := tx.ReadCommitment(pathPacketCommitment(h)); existing.IsZero() {
			return ErrPacketCommitmentNotFound
		}
		_, conn, err := e.resolveChannelClient(tx, p.SourceChannelId)
		if err != nil {
			return err
		}
		value := AckCommitment(acks[i])
		if err := e.Registry.VerifyMembershipAt(tx, conn.ClientId, proofHeight, pathPacketAcknowledgement(h), proof, value); err != nil {
			return err
		}
		tx.Delete(pathPacketCommitment(h))
		tx.Emit(newEvent("packet_ack", map[string]string{
			"channel_id": strconv.FormatUint(uint64(p.SourceChannelId), 10),
			"hash":       hashAttr(h),
			"relayer":    relayer.String(),
		}))
		owner, ok, err := e.ChannelOwner(tx, p.SourceChannelId)
		if err != nil {
			return err
		}
		if ok {
			if err := e.Modules.lookup(PortId(owner.Bytes())).OnAcknowledgePacket(tx, p, acks[i], relayer); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteAcknowledgement is MsgWriteAcknowledgement: the
// destination channel's owning port commits the application-level reply
// to a received packet, exactly once.
func (e *Engine) WriteAcknowledgement(tx *Tx, caller Address, packet Packet, ack []byte) error {
	owner, ok, err := e.ChannelOwner(tx, packet.DestinationChannelId)
	if err != nil {
		return err
	}
	if !ok || owner != caller {
		return ErrUnauthorized
	}
	h := PacketHash(packet)
	if existing := tx.ReadCommitment(pathPacketReceipt(h)); existing.IsZero() {
		return ErrPacketNotReceived
	}
	if existing := tx.ReadCommitment(pathPacketAcknowledgement(h)); !existing.IsZero() {
		return ErrAlreadyAcknowledged
	}
	tx.WriteCommitment(pathPacketAcknowledgement(h), AckCommitment(ack))
	tx.Emit(newEvent("write_ack", map[string]string{
		"channel_id": strconv.FormatUint(uint64(packet.DestinationChannelId), 10),
		"hash":       hashAttr(h),
	}))
	return nil
}

// BatchSend is MsgBatchSend: requires every packet already
// committed individually, then writes the aggregate batch commitment a
// single counterparty proof can verify.
func (e *Engine) BatchSend(tx *Tx, packets []Packet) (Commitment, error) {
	if err := requireUniformChannels(packets); err != nil {
		return Commitment{}, err
	}
	hashes := make([]Commitment, len(packets))
	for i, p := range packets {
		h := PacketHash(p)
		if existing := tx.ReadCommitment(pathPacketCommitment(h)); existing.IsZero() {
			return Commitment{}, ErrPacketCommitmentNotFound
		}
		hashes[i] = h
	}
	batchHash, err := BatchHash(hashes)
	if err != nil {
		return Commitment{}, err
	}
	tx.WriteCommitment(pathBatchPackets(batchHash), CommitOverHashes(hashes))
	tx.Emit(newEvent("batch_send", map[string]string{"batch_hash": hashAttr(batchHash)}))
	return batchHash, nil
}

// BatchAcks is MsgBatchAcks: the symmetric counterpart of
// BatchSend over already-written acknowledgements.
func (e *Engine) BatchAcks(tx *Tx, packets []Packet, acks [][]byte) (Commitment, error) {
	if len(packets) != len(acks) {
		return Commitment{}, ErrBatchFieldMismatch
	}
	if err := requireUniformChannels(packets); err != nil {
		return Commitment{}, err
	}
	hashes := make([]Commitment, len(packets))
	ackCommitments := make([]Commitment, len(packets))
	for i, p := range packets {
		h := PacketHash(p)
		if existing := tx.ReadCommitment(pathPacketAcknowledgement(h)); existing.IsZero() {
			return Commitment{}, ErrPacketCommitmentNotFound
		}
		hashes[i] = h
		ackCommitments[i] = AckCommitment(acks[i])
	}
	batchHash, err := BatchHash(hashes)
	if err != nil {
		return Commitment{}, err
	}
	tx.WriteCommitment(pathBatchReceipts(batchHash), CommitOverHashes(ackCommitments))
	tx.Emit(newEvent("batch_ack", map[string]string{"batch_hash": hashAttr(batchHash)}))
	return batchHash, nil
}

// requireUniformChannels enforces that every packet in a batch shares the
// same source/destination channel pair.
func requireUniformChannels(packets []Packet) error {
	if len(packets) == 0 {
		return nil
	}
	src, dst := packets[0].SourceChannelId, packets[0].DestinationChannelId
	for _, p := range packets[1:] {
		if p.SourceChannelId != src || p.DestinationChannelId != dst {
			return ErrBatchFieldMismatch
		}
	}
	return nil
}

// Timeout is MsgPacketTimeout: releases an in-flight
// commitment once the counterparty is proven to have passed the packet's
// timeout without a receipt ever appearing.
func (e *Engine) Timeout(tx *Tx, relayer Address, packet Packet, proofHeight Height, proof []byte) error {
	if err := e.Authorizer.RequireRelayer(relayer); err != nil {
		return err
	}
	h := PacketHash(packet)
	if existing := tx.ReadCommitment(pathPacketCommitment(h)); existing.IsZero() {
		return ErrPacketCommitmentNotFound
	}
	_, conn, err := e.resolveChannelClient(tx, packet.SourceChannelId)
	if err != nil {
		return err
	}
	counterpartyTime, err := e.Registry.GetTimestampAt(tx, conn.ClientId, proofHeight)
	if err != nil {
		return err
	}
	if counterpartyTime < packet.TimeoutTimestamp {
		return ErrTimeoutTimestampNotReached
	}
	if err := e.Registry.VerifyNonMembershipAt(tx, conn.ClientId, proofHeight, pathPacketReceipt(h), proof); err != nil {
		return err
	}
	tx.Delete(pathPacketCommitment(h))
	tx.Emit(newEvent("packet_timeout", map[string]string{
		"channel_id": strconv.FormatUint(uint64(packet.SourceChannelId), 10),
		"hash":       hashAttr(h),
		"relayer":    relayer.String(),
	}))
	owner, ok, err := e.ChannelOwner(tx, packet.SourceChannelId)
	if err != nil {
		return err
	}
	if ok {
		if err := e.Modules.lookup(PortId(owner.Bytes())).OnTimeoutPacket(tx, packet, relayer); err != nil {
			return err
		}
	}
	return nil
}
