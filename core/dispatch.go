package core

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Envelope is the tagged-union external message: a `type`
// discriminator plus a JSON payload specific to that type.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Result is what Dispatch returns on success: a correlation id for the
// request (a uuid.New() request-id) plus a type-specific result payload.
type Result struct {
	RequestId string      `json:"request_id"`
	Data      interface{} `json:"data,omitempty"`
}

// MsgRegisterClient names the wire tag for completeness but is never routed
// through Dispatch: binding a client_type string to a LightClient
// implementation hands over a Go interface value, which a JSON payload
// cannot carry. The host performs this binding directly against the
// Registry at process start (see cmd/relayerserver's main), not as a
// relayer-submitted message.
const (
	MsgRegisterClient        = "RegisterClient"
	MsgCreateClient          = "CreateClient"
	MsgUpdateClient          = "UpdateClient"
	MsgMisbehaviour          = "Misbehaviour"
	MsgConnectionOpenInit    = "ConnectionOpenInit"
	MsgConnectionOpenTry     = "ConnectionOpenTry"
	MsgConnectionOpenAck     = "ConnectionOpenAck"
	MsgConnectionOpenConfirm = "ConnectionOpenConfirm"
	MsgChannelOpenInit       = "ChannelOpenInit"
	MsgChannelOpenTry        = "ChannelOpenTry"
	MsgChannelOpenAck        = "ChannelOpenAck"
	MsgChannelOpenConfirm    = "ChannelOpenConfirm"
	MsgPacketSend            = "PacketSend"
	MsgPacketRecv            = "PacketRecv"
	MsgIntentPacketRecv      = "IntentPacketRecv"
	MsgPacketAck             = "PacketAck"
	MsgPacketTimeout         = "PacketTimeout"
	MsgWriteAcknowledgement  = "WriteAcknowledgement"
	MsgBatchSend             = "BatchSend"
	MsgBatchAcks             = "BatchAcks"
)

// Dispatch decodes env and invokes exactly one component entrypoint,
// inside its own transaction against store. On success the transaction is
// committed (writes and events become visible); on any error it is simply
// discarded, leaving store untouched: every message either commits all its
// writes and emitted events or leaves state unchanged.
func (e *Engine) Dispatch(store *Store, env Envelope) (Result, error) {
	tx := store.Begin()
	data, err := e.route(tx, env)
	if err != nil {
		tx.Rollback()
		return Result{}, err
	}
	tx.Commit()
	return Result{RequestId: uuid.NewString(), Data: data}, nil
}

func (e *Engine) route(tx *Tx, env Envelope) (interface{}, error) {
	switch env.Type {
	case MsgCreateClient:
		var m struct {
			ClientType     string  `json:"client_type"`
			ClientState    []byte  `json:"client_state"`
			ConsensusState []byte  `json:"consensus_state"`
			Height         Height  `json:"height"`
			Caller         Address `json:"caller"`
			Relayer        Address `json:"relayer"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return e.Registry.CreateClient(tx, m.ClientType, m.ClientState, m.ConsensusState, m.Height, m.Caller, m.Relayer)

	case MsgUpdateClient:
		var m struct {
			ClientId ClientId `json:"client_id"`
			Header   []byte   `json:"header"`
			Caller   Address  `json:"caller"`
			Relayer  Address  `json:"relayer"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return nil, e.Registry.UpdateClient(tx, m.ClientId, m.Header, m.Caller, m.Relayer)

	case MsgMisbehaviour:
		var m struct {
			ClientId ClientId `json:"client_id"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return nil, e.Registry.Misbehaviour(tx, m.ClientId)

	case MsgConnectionOpenInit:
		var m struct {
			ClientId             ClientId `json:"client_id"`
			CounterpartyClientId ClientId `json:"counterparty_client_id"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return e.ConnectionOpenInit(tx, m.ClientId, m.CounterpartyClientId)

	case MsgConnectionOpenTry:
		var m struct {
			ClientId                 ClientId     `json:"client_id"`
			CounterpartyClientId     ClientId     `json:"counterparty_client_id"`
			CounterpartyConnectionId ConnectionId `json:"counterparty_connection_id"`
			ProofHeight              Height       `json:"proof_height"`
			Proof                    []byte       `json:"proof"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return e.ConnectionOpenTry(tx, m.ClientId, m.CounterpartyClientId, m.CounterpartyConnectionId, m.ProofHeight, m.Proof)

	case MsgConnectionOpenAck:
		var m struct {
			ConnectionId             ConnectionId `json:"connection_id"`
			CounterpartyConnectionId ConnectionId `json:"counterparty_connection_id"`
			ProofHeight              Height       `json:"proof_height"`
			Proof                    []byte       `json:"proof"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return nil, e.ConnectionOpenAck(tx, m.ConnectionId, m.CounterpartyConnectionId, m.ProofHeight, m.Proof)

	case MsgConnectionOpenConfirm:
		var m struct {
			ConnectionId ConnectionId `json:"connection_id"`
			ProofHeight  Height       `json:"proof_height"`
			Proof        []byte       `json:"proof"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return nil, e.ConnectionOpenConfirm(tx, m.ConnectionId, m.ProofHeight, m.Proof)

	case MsgChannelOpenInit:
		var m struct {
			Caller             Address      `json:"caller"`
			ConnectionId       ConnectionId `json:"connection_id"`
			CounterpartyPortId PortId       `json:"counterparty_port_id"`
			Version            string       `json:"version"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return e.ChannelOpenInit(tx, m.Caller, m.ConnectionId, m.CounterpartyPortId, m.Version)

	case MsgChannelOpenTry:
		var m struct {
			Caller                Address      `json:"caller"`
			ConnectionId          ConnectionId `json:"connection_id"`
			CounterpartyChannelId ChannelId    `json:"counterparty_channel_id"`
			CounterpartyPortId    PortId       `json:"counterparty_port_id"`
			Version               string       `json:"version"`
			ProofHeight           Height       `json:"proof_height"`
			Proof                 []byte       `json:"proof"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return e.ChannelOpenTry(tx, m.Caller, m.ConnectionId, m.CounterpartyChannelId, m.CounterpartyPortId, m.Version, m.ProofHeight, m.Proof)

	case MsgChannelOpenAck:
		var m struct {
			Caller                Address   `json:"caller"`
			ChannelId             ChannelId `json:"channel_id"`
			CounterpartyChannelId ChannelId `json:"counterparty_channel_id"`
			ProofHeight           Height    `json:"proof_height"`
			Proof                 []byte    `json:"proof"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return nil, e.ChannelOpenAck(tx, m.Caller, m.ChannelId, m.CounterpartyChannelId, m.ProofHeight, m.Proof)

	case MsgChannelOpenConfirm:
		var m struct {
			Caller      Address   `json:"caller"`
			ChannelId   ChannelId `json:"channel_id"`
			ProofHeight Height    `json:"proof_height"`
			Proof       []byte    `json:"proof"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return nil, e.ChannelOpenConfirm(tx, m.Caller, m.ChannelId, m.ProofHeight, m.Proof)

	case MsgPacketSend:
		var m struct {
			Caller           Address   `json:"caller"`
			SourceChannelId  ChannelId `json:"source_channel_id"`
			TimeoutTimestamp Timestamp `json:"timeout_timestamp"`
			Data             []byte    `json:"data"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		packet, h, err := e.Send(tx, m.Caller, m.SourceChannelId, m.TimeoutTimestamp, m.Data)
		if err != nil {
			return nil, err
		}
		return struct {
			Packet Packet     `json:"packet"`
			Hash   Commitment `json:"hash"`
		}{packet, h}, nil

	case MsgPacketRecv:
		var m struct {
			Relayer     Address  `json:"relayer"`
			Packets     []Packet `json:"packets"`
			RelayerMsgs [][]byte `json:"relayer_msgs"`
			ProofHeight Height   `json:"proof_height"`
			Proof       []byte   `json:"proof"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return nil, e.Recv(tx, m.Relayer, m.Packets, m.RelayerMsgs, m.ProofHeight, m.Proof)

	case MsgIntentPacketRecv:
		var m struct {
			MarketMaker     Address  `json:"market_maker"`
			Packets         []Packet `json:"packets"`
			MarketMakerMsgs [][]byte `json:"market_maker_msgs"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return nil, e.IntentRecv(tx, m.MarketMaker, m.Packets, m.MarketMakerMsgs)

	case MsgPacketAck:
		var m struct {
			Relayer          Address  `json:"relayer"`
			Packets          []Packet `json:"packets"`
			Acknowledgements [][]byte `json:"acknowledgements"`
			ProofHeight      Height   `json:"proof_height"`
			Proof            []byte   `json:"proof"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return nil, e.Acknowledge(tx, m.Relayer, m.Packets, m.Acknowledgements, m.ProofHeight, m.Proof)

	case MsgPacketTimeout:
		var m struct {
			Relayer     Address `json:"relayer"`
			Packet      Packet  `json:"packet"`
			ProofHeight Height  `json:"proof_height"`
			Proof       []byte  `json:"proof"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return nil, e.Timeout(tx, m.Relayer, m.Packet, m.ProofHeight, m.Proof)

	case MsgWriteAcknowledgement:
		var m struct {
			Caller          Address `json:"caller"`
			Packet          Packet  `json:"packet"`
			Acknowledgement []byte  `json:"acknowledgement"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return nil, e.WriteAcknowledgement(tx, m.Caller, m.Packet, m.Acknowledgement)

	case MsgBatchSend:
		var m struct {
			Packets []Packet `json:"packets"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return e.BatchSend(tx, m.Packets)

	case MsgBatchAcks:
		var m struct {
			Packets          []Packet `json:"packets"`
			Acknowledgements [][]byte `json:"acknowledgements"`
		}
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return e.BatchAcks(tx, m.Packets, m.Acknowledgements)

	default:
		return nil, ErrUnknownMessageType
	}
}
