package core

import "strconv"

// ChannelOpenInit allocates a ChannelId bound to an Open connection, and
// records caller as the owning port in the channel-owner sidecar. The owner
// is kept in a separate sidecar map so Channel records stay homogeneous.
func (e *Engine) ChannelOpenInit(tx *Tx, caller Address, connectionId ConnectionId, counterpartyPortId PortId, version string) (ChannelId, error) {
	var conn ConnectionRecord
	ok, err := tx.getJSON(pathConnection(connectionId), &conn)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrInvalidConnectionState
	}
	if conn.State != ConnectionStateOpen {
		return 0, ErrInvalidConnectionState
	}
	next, err := tx.nextId("channel")
	if err != nil {
		return 0, err
	}
	id := ChannelId(next)
	rec := ChannelRecord{
		State:              ChannelStateInit,
		ConnectionId:       connectionId,
		CounterpartyPortId: counterpartyPortId,
		Version:            version,
	}
	if err := tx.setJSON(pathChannel(id), rec); err != nil {
		return 0, err
	}
	if err := tx.setJSON(pathChannelOwner(id), caller); err != nil {
		return 0, err
	}
	tx.Emit(newEvent("channel_open_init", map[string]string{
		"channel_id":    strconv.FormatUint(uint64(id), 10),
		"connection_id": strconv.FormatUint(uint64(connectionId), 10),
	}))
	return id, nil
}

// ChannelOpenTry allocates a fresh ChannelId in TryOpen state, proving the
// counterparty already recorded its own Init for this channel pair.
func (e *Engine) ChannelOpenTry(tx *Tx, caller Address, connectionId ConnectionId, counterpartyChannelId ChannelId, counterpartyPortId PortId, version string, proofHeight Height, proof []byte) (ChannelId, error) {
	var conn ConnectionRecord
	ok, err := tx.getJSON(pathConnection(connectionId), &conn)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrInvalidConnectionState
	}
	if conn.State != ConnectionStateOpen {
		return 0, ErrInvalidConnectionState
	}
	want := ChannelRecord{
		State:                 ChannelStateInit,
		CounterpartyChannelId: 0,
		Version:               version,
	}
	value := channelCommitmentValue(want)
	if err := e.Registry.VerifyMembershipAt(tx, conn.ClientId, proofHeight, pathChannel(counterpartyChannelId), proof, value); err != nil {
		return 0, err
	}
	next, err := tx.nextId("channel")
	if err != nil {
		return 0, err
	}
	id := ChannelId(next)
	rec := ChannelRecord{
		State:                 ChannelStateTryOpen,
		ConnectionId:          connectionId,
		CounterpartyChannelId: counterpartyChannelId,
		CounterpartyPortId:    counterpartyPortId,
		Version:               version,
	}
	if err := tx.setJSON(pathChannel(id), rec); err != nil {
		return 0, err
	}
	if err := tx.setJSON(pathChannelOwner(id), caller); err != nil {
		return 0, err
	}
	tx.Emit(newEvent("channel_open_try", map[string]string{
		"channel_id": strconv.FormatUint(uint64(id), 10),
	}))
	return id, nil
}

// ChannelOpenAck transitions an Init channel to Open; caller must still be
// the recorded owner.
func (e *Engine) ChannelOpenAck(tx *Tx, caller Address, channelId ChannelId, counterpartyChannelId ChannelId, proofHeight Height, proof []byte) error {
	rec, conn, err := e.requireOwnedChannel(tx, caller, channelId)
	if err != nil {
		return err
	}
	if rec.State != ChannelStateInit {
		return ErrInvalidChannelState
	}
	want := ChannelRecord{
		State:                 ChannelStateTryOpen,
		CounterpartyChannelId: channelId,
		Version:               rec.Version,
	}
	value := channelCommitmentValue(want)
	if err := e.Registry.VerifyMembershipAt(tx, conn.ClientId, proofHeight, pathChannel(counterpartyChannelId), proof, value); err != nil {
		return err
	}
	rec.State = ChannelStateOpen
	rec.CounterpartyChannelId = counterpartyChannelId
	if err := tx.setJSON(pathChannel(channelId), rec); err != nil {
		return err
	}
	tx.Emit(newEvent("channel_open_ack", map[string]string{
		"channel_id": strconv.FormatUint(uint64(channelId), 10),
	}))
	return nil
}

// ChannelOpenConfirm transitions a TryOpen channel to Open; caller must
// still be the recorded owner.
func (e *Engine) ChannelOpenConfirm(tx *Tx, caller Address, channelId ChannelId, proofHeight Height, proof []byte) error {
	rec, conn, err := e.requireOwnedChannel(tx, caller, channelId)
	if err != nil {
		return err
	}
	if rec.State != ChannelStateTryOpen {
		return ErrInvalidChannelState
	}
	want := ChannelRecord{
		State:                 ChannelStateOpen,
		CounterpartyChannelId: channelId,
		Version:               rec.Version,
	}
	value := channelCommitmentValue(want)
	if err := e.Registry.VerifyMembershipAt(tx, conn.ClientId, proofHeight, pathChannel(rec.CounterpartyChannelId), proof, value); err != nil {
		return err
	}
	rec.State = ChannelStateOpen
	if err := tx.setJSON(pathChannel(channelId), rec); err != nil {
		return err
	}
	tx.Emit(newEvent("channel_open_confirm", map[string]string{
		"channel_id": strconv.FormatUint(uint64(channelId), 10),
	}))
	return nil
}

// GetChannel is the read-only query for a channel record.
func (e *Engine) GetChannel(tx *Tx, id ChannelId) (ChannelRecord, bool, error) {
	var rec ChannelRecord
	ok, err := tx.getJSON(pathChannel(id), &rec)
	return rec, ok, err
}

// ChannelOwner returns the port address recorded as owning channelId.
func (e *Engine) ChannelOwner(tx *Tx, channelId ChannelId) (Address, bool, error) {
	var owner Address
	ok, err := tx.getJSON(pathChannelOwner(channelId), &owner)
	return owner, ok, err
}

// requireOwnedChannel loads a channel and its connection, checking that
// caller is still the recorded owner: subsequent ChannelOpenAck/Confirm
// calls require the caller to still be the recorded owner.
func (e *Engine) requireOwnedChannel(tx *Tx, caller Address, channelId ChannelId) (ChannelRecord, ConnectionRecord, error) {
	var rec ChannelRecord
	ok, err := tx.getJSON(pathChannel(channelId), &rec)
	if err != nil {
		return ChannelRecord{}, ConnectionRecord{}, err
	}
	if !ok {
		return ChannelRecord{}, ConnectionRecord{}, ErrInvalidChannelState
	}
	owner, ok, err := e.ChannelOwner(tx, channelId)
	if err != nil {
		return ChannelRecord{}, ConnectionRecord{}, err
	}
	if !ok || owner != caller {
		return ChannelRecord{}, ConnectionRecord{}, ErrUnauthorized
	}
	var conn ConnectionRecord
	ok, err = tx.getJSON(pathConnection(rec.ConnectionId), &conn)
	if err != nil {
		return ChannelRecord{}, ConnectionRecord{}, err
	}
	if !ok {
		return ChannelRecord{}, ConnectionRecord{}, ErrInvalidConnectionState
	}
	return rec, conn, nil
}

// channelCommitmentValue hashes the fields of a ChannelRecord that the
// counterparty's record must match, mirroring connectionCommitmentValue.
func channelCommitmentValue(rec ChannelRecord) Commitment {
	return keccak256(
		[]byte("ibc-union/channel"),
		be32(uint32(rec.State)),
		be32(uint32(rec.CounterpartyChannelId)),
		[]byte(rec.Version),
	)
}
