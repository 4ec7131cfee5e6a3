package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

// channelCmd groups the four-step channel handshake, layered
// over an already-Open connection.
var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "drive the channel handshake over an open connection",
}

var channelOpenInitCmd = &cobra.Command{
	Use:   "open-init [caller] [connection-id] [counterparty-port-id-hex] [version]",
	Short: "open a new channel bound to this caller's port",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		connId, err := parseUint32(args[1])
		if err != nil {
			return fmt.Errorf("connection-id: %w", err)
		}
		counterpartyPort, err := hex.DecodeString(args[2])
		if err != nil {
			return fmt.Errorf("counterparty-port-id-hex: %w", err)
		}
		payload := struct {
			Caller             string `json:"caller"`
			ConnectionId       string `json:"connection_id"`
			CounterpartyPortId []byte `json:"counterparty_port_id"`
			Version            string `json:"version"`
		}{args[0], fmt.Sprint(connId), counterpartyPort, args[3]}
		return postEnvelope("ChannelOpenInit", payload)
	},
}

var channelOpenTryCmd = &cobra.Command{
	Use:   "open-try [caller] [connection-id] [counterparty-channel-id] [counterparty-port-id-hex] [version] [proof-height] [proof-hex]",
	Short: "accept the counterparty's channel handshake attempt",
	Args:  cobra.ExactArgs(7),
	RunE: func(cmd *cobra.Command, args []string) error {
		connId, err := parseUint32(args[1])
		if err != nil {
			return fmt.Errorf("connection-id: %w", err)
		}
		counterpartyChannelId, err := parseUint32(args[2])
		if err != nil {
			return fmt.Errorf("counterparty-channel-id: %w", err)
		}
		counterpartyPort, err := hex.DecodeString(args[3])
		if err != nil {
			return fmt.Errorf("counterparty-port-id-hex: %w", err)
		}
		proofHeight, err := parseUint64(args[5])
		if err != nil {
			return fmt.Errorf("proof-height: %w", err)
		}
		proof, err := hex.DecodeString(args[6])
		if err != nil {
			return fmt.Errorf("proof-hex: %w", err)
		}
		payload := struct {
			Caller                string `json:"caller"`
			ConnectionId          string `json:"connection_id"`
			CounterpartyChannelId string `json:"counterparty_channel_id"`
			CounterpartyPortId    []byte `json:"counterparty_port_id"`
			Version               string `json:"version"`
			ProofHeight           uint64 `json:"proof_height"`
			Proof                 []byte `json:"proof"`
		}{args[0], fmt.Sprint(connId), fmt.Sprint(counterpartyChannelId), counterpartyPort, args[4], proofHeight, proof}
		return postEnvelope("ChannelOpenTry", payload)
	},
}

var channelOpenAckCmd = &cobra.Command{
	Use:   "open-ack [caller] [channel-id] [counterparty-channel-id] [proof-height] [proof-hex]",
	Short: "acknowledge the counterparty's TryOpen",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelId, err := parseUint32(args[1])
		if err != nil {
			return fmt.Errorf("channel-id: %w", err)
		}
		counterpartyChannelId, err := parseUint32(args[2])
		if err != nil {
			return fmt.Errorf("counterparty-channel-id: %w", err)
		}
		proofHeight, err := parseUint64(args[3])
		if err != nil {
			return fmt.Errorf("proof-height: %w", err)
		}
		proof, err := hex.DecodeString(args[4])
		if err != nil {
			return fmt.Errorf("proof-hex: %w", err)
		}
		payload := struct {
			Caller                string `json:"caller"`
			ChannelId             string `json:"channel_id"`
			CounterpartyChannelId string `json:"counterparty_channel_id"`
			ProofHeight           uint64 `json:"proof_height"`
			Proof                 []byte `json:"proof"`
		}{args[0], fmt.Sprint(channelId), fmt.Sprint(counterpartyChannelId), proofHeight, proof}
		return postEnvelope("ChannelOpenAck", payload)
	},
}

var channelOpenConfirmCmd = &cobra.Command{
	Use:   "open-confirm [caller] [channel-id] [proof-height] [proof-hex]",
	Short: "finish the handshake once the counterparty sees Open",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelId, err := parseUint32(args[1])
		if err != nil {
			return fmt.Errorf("channel-id: %w", err)
		}
		proofHeight, err := parseUint64(args[2])
		if err != nil {
			return fmt.Errorf("proof-height: %w", err)
		}
		proof, err := hex.DecodeString(args[3])
		if err != nil {
			return fmt.Errorf("proof-hex: %w", err)
		}
		payload := struct {
			Caller      string `json:"caller"`
			ChannelId   string `json:"channel_id"`
			ProofHeight uint64 `json:"proof_height"`
			Proof       []byte `json:"proof"`
		}{args[0], fmt.Sprint(channelId), proofHeight, proof}
		return postEnvelope("ChannelOpenConfirm", payload)
	},
}

func init() {
	channelCmd.AddCommand(channelOpenInitCmd, channelOpenTryCmd, channelOpenAckCmd, channelOpenConfirmCmd)
	RootCmd.AddCommand(channelCmd)
}
