package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

// connectionCmd groups the four-step connection handshake.
var connectionCmd = &cobra.Command{
	Use:   "connection",
	Short: "drive the connection handshake between two registered clients",
}

var connectionOpenInitCmd = &cobra.Command{
	Use:   "open-init [client-id] [counterparty-client-id]",
	Short: "start a connection handshake from this chain",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		clientId, err := parseUint32(args[0])
		if err != nil {
			return fmt.Errorf("client-id: %w", err)
		}
		counterpartyClientId, err := parseUint32(args[1])
		if err != nil {
			return fmt.Errorf("counterparty-client-id: %w", err)
		}
		payload := struct {
			ClientId             string `json:"client_id"`
			CounterpartyClientId string `json:"counterparty_client_id"`
		}{fmt.Sprint(clientId), fmt.Sprint(counterpartyClientId)}
		return postEnvelope("ConnectionOpenInit", payload)
	},
}

var connectionOpenTryCmd = &cobra.Command{
	Use:   "open-try [client-id] [counterparty-client-id] [counterparty-connection-id] [proof-height] [proof-hex]",
	Short: "accept the counterparty's handshake attempt",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		clientId, err := parseUint32(args[0])
		if err != nil {
			return fmt.Errorf("client-id: %w", err)
		}
		counterpartyClientId, err := parseUint32(args[1])
		if err != nil {
			return fmt.Errorf("counterparty-client-id: %w", err)
		}
		counterpartyConnId, err := parseUint32(args[2])
		if err != nil {
			return fmt.Errorf("counterparty-connection-id: %w", err)
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
			ClientId                 string `json:"client_id"`
			CounterpartyClientId     string `json:"counterparty_client_id"`
			CounterpartyConnectionId string `json:"counterparty_connection_id"`
			ProofHeight              uint64 `json:"proof_height"`
			Proof                    []byte `json:"proof"`
		}{fmt.Sprint(clientId), fmt.Sprint(counterpartyClientId), fmt.Sprint(counterpartyConnId), proofHeight, proof}
		return postEnvelope("ConnectionOpenTry", payload)
	},
}

var connectionOpenAckCmd = &cobra.Command{
	Use:   "open-ack [connection-id] [counterparty-connection-id] [proof-height] [proof-hex]",
	Short: "acknowledge the counterparty's TryOpen",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		connId, err := parseUint32(args[0])
		if err != nil {
			return fmt.Errorf("connection-id: %w", err)
		}
		counterpartyConnId, err := parseUint32(args[1])
		if err != nil {
			return fmt.Errorf("counterparty-connection-id: %w", err)
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
			ConnectionId             string `json:"connection_id"`
			CounterpartyConnectionId string `json:"counterparty_connection_id"`
			ProofHeight              uint64 `json:"proof_height"`
			Proof                    []byte `json:"proof"`
		}{fmt.Sprint(connId), fmt.Sprint(counterpartyConnId), proofHeight, proof}
		return postEnvelope("ConnectionOpenAck", payload)
	},
}

var connectionOpenConfirmCmd = &cobra.Command{
	Use:   "open-confirm [connection-id] [proof-height] [proof-hex]",
	Short: "finish the handshake once the counterparty sees Open",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		connId, err := parseUint32(args[0])
		if err != nil {
			return fmt.Errorf("connection-id: %w", err)
		}
		proofHeight, err := parseUint64(args[1])
		if err != nil {
			return fmt.Errorf("proof-height: %w", err)
		}
		proof, err := hex.DecodeString(args[2])
		if err != nil {
			return fmt.Errorf("proof-hex: %w", err)
		}
		payload := struct {
			ConnectionId string `json:"connection_id"`
			ProofHeight  uint64 `json:"proof_height"`
			Proof        []byte `json:"proof"`
		}{fmt.Sprint(connId), proofHeight, proof}
		return postEnvelope("ConnectionOpenConfirm", payload)
	},
}

func init() {
	connectionCmd.AddCommand(connectionOpenInitCmd, connectionOpenTryCmd, connectionOpenAckCmd, connectionOpenConfirmCmd)
	RootCmd.AddCommand(connectionCmd)
}
