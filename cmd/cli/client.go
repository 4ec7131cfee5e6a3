package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

// clientCmd groups the light-client registry message family, one command
// group per domain, matching the other subsystem command groups.
var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "register, create, update and report misbehaviour for light clients",
}

var createClientCmd = &cobra.Command{
	Use:   "create [client-type] [client-state-hex] [consensus-state-hex] [height] [caller] [relayer]",
	Short: "create a light client instance",
	Args:  cobra.ExactArgs(6),
	RunE: func(cmd *cobra.Command, args []string) error {
		clientState, err := hex.DecodeString(args[1])
		if err != nil {
			return fmt.Errorf("client-state-hex: %w", err)
		}
		consensusState, err := hex.DecodeString(args[2])
		if err != nil {
			return fmt.Errorf("consensus-state-hex: %w", err)
		}
		height, err := parseUint64(args[3])
		if err != nil {
			return fmt.Errorf("height: %w", err)
		}
		payload := struct {
			ClientType     string `json:"client_type"`
			ClientState    []byte `json:"client_state"`
			ConsensusState []byte `json:"consensus_state"`
			Height         uint64 `json:"height"`
			Caller         string `json:"caller"`
			Relayer        string `json:"relayer"`
		}{args[0], clientState, consensusState, height, args[4], args[5]}
		return postEnvelope("CreateClient", payload)
	},
}

var updateClientCmd = &cobra.Command{
	Use:   "update [client-id] [header-hex] [caller] [relayer]",
	Short: "submit a new header to an existing light client",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		clientId, err := parseUint32(args[0])
		if err != nil {
			return fmt.Errorf("client-id: %w", err)
		}
		header, err := hex.DecodeString(args[1])
		if err != nil {
			return fmt.Errorf("header-hex: %w", err)
		}
		payload := struct {
			ClientId string `json:"client_id"`
			Header   []byte `json:"header"`
			Caller   string `json:"caller"`
			Relayer  string `json:"relayer"`
		}{fmt.Sprint(clientId), header, args[2], args[3]}
		return postEnvelope("UpdateClient", payload)
	},
}

var misbehaviourCmd = &cobra.Command{
	Use:   "misbehaviour [client-id]",
	Short: "freeze a client after proof of misbehaviour",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clientId, err := parseUint32(args[0])
		if err != nil {
			return fmt.Errorf("client-id: %w", err)
		}
		payload := struct {
			ClientId string `json:"client_id"`
		}{fmt.Sprint(clientId)}
		return postEnvelope("Misbehaviour", payload)
	},
}

func init() {
	clientCmd.AddCommand(createClientCmd, updateClientCmd, misbehaviourCmd)
	RootCmd.AddCommand(clientCmd)
}
