package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// packetCmd groups the packet lifecycle message family: send,
// receive, acknowledge, time out, and their batch counterparts. Batch
// operations read their packet/message lists from a JSON file rather than
// positional args.
var packetCmd = &cobra.Command{
	Use:   "packet",
	Short: "send, receive, acknowledge and time out packets",
}

func readJSONFile(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

var packetSendCmd = &cobra.Command{
	Use:   "send [caller] [source-channel-id] [timeout-timestamp] [data-hex]",
	Short: "send a new packet over a channel",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelId, err := parseUint32(args[1])
		if err != nil {
			return fmt.Errorf("source-channel-id: %w", err)
		}
		timeout, err := parseUint64(args[2])
		if err != nil {
			return fmt.Errorf("timeout-timestamp: %w", err)
		}
		data, err := hex.DecodeString(args[3])
		if err != nil {
			return fmt.Errorf("data-hex: %w", err)
		}
		payload := struct {
			Caller           string `json:"caller"`
			SourceChannelId  string `json:"source_channel_id"`
			TimeoutTimestamp uint64 `json:"timeout_timestamp"`
			Data             []byte `json:"data"`
		}{args[0], fmt.Sprint(channelId), timeout, data}
		return postEnvelope("PacketSend", payload)
	},
}

var (
	recvPacketsFile      string
	recvRelayerMsgsFile  string
)

var packetRecvCmd = &cobra.Command{
	Use:   "recv [relayer] [proof-height] [proof-hex]",
	Short: "deliver a relayer-proven batch of packets to their destination channels",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		proofHeight, err := parseUint64(args[1])
		if err != nil {
			return fmt.Errorf("proof-height: %w", err)
		}
		proof, err := hex.DecodeString(args[2])
		if err != nil {
			return fmt.Errorf("proof-hex: %w", err)
		}
		var packets []json.RawMessage
		if err := readJSONFile(recvPacketsFile, &packets); err != nil {
			return err
		}
		var relayerMsgs [][]byte
		if recvRelayerMsgsFile != "" {
			if err := readJSONFile(recvRelayerMsgsFile, &relayerMsgs); err != nil {
				return err
			}
		} else {
			relayerMsgs = make([][]byte, len(packets))
		}
		payload := struct {
			Relayer     string            `json:"relayer"`
			Packets     []json.RawMessage `json:"packets"`
			RelayerMsgs [][]byte          `json:"relayer_msgs"`
			ProofHeight uint64            `json:"proof_height"`
			Proof       []byte            `json:"proof"`
		}{args[0], packets, relayerMsgs, proofHeight, proof}
		return postEnvelope("PacketRecv", payload)
	},
}

var intentRecvPacketsFile string
var intentRecvMsgsFile string

var packetIntentRecvCmd = &cobra.Command{
	Use:   "intent-recv [market-maker]",
	Short: "fill packets ahead of proof via a market maker's own funds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var packets []json.RawMessage
		if err := readJSONFile(intentRecvPacketsFile, &packets); err != nil {
			return err
		}
		var msgs [][]byte
		if intentRecvMsgsFile != "" {
			if err := readJSONFile(intentRecvMsgsFile, &msgs); err != nil {
				return err
			}
		} else {
			msgs = make([][]byte, len(packets))
		}
		payload := struct {
			MarketMaker     string            `json:"market_maker"`
			Packets         []json.RawMessage `json:"packets"`
			MarketMakerMsgs [][]byte          `json:"market_maker_msgs"`
		}{args[0], packets, msgs}
		return postEnvelope("IntentPacketRecv", payload)
	},
}

var ackPacketsFile string
var ackListFile string

var packetAckCmd = &cobra.Command{
	Use:   "ack [relayer] [proof-height] [proof-hex]",
	Short: "deliver proven acknowledgements back to the sending channels",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		proofHeight, err := parseUint64(args[1])
		if err != nil {
			return fmt.Errorf("proof-height: %w", err)
		}
		proof, err := hex.DecodeString(args[2])
		if err != nil {
			return fmt.Errorf("proof-hex: %w", err)
		}
		var packets []json.RawMessage
		if err := readJSONFile(ackPacketsFile, &packets); err != nil {
			return err
		}
		var acks [][]byte
		if err := readJSONFile(ackListFile, &acks); err != nil {
			return err
		}
		payload := struct {
			Relayer          string            `json:"relayer"`
			Packets          []json.RawMessage `json:"packets"`
			Acknowledgements [][]byte          `json:"acknowledgements"`
			ProofHeight      uint64            `json:"proof_height"`
			Proof            []byte            `json:"proof"`
		}{args[0], packets, acks, proofHeight, proof}
		return postEnvelope("PacketAck", payload)
	},
}

var packetTimeoutCmd = &cobra.Command{
	Use:   "timeout [relayer] [packet-file] [proof-height] [proof-hex]",
	Short: "prove a packet was never received by its deadline and refund the sender",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		var packet json.RawMessage
		if err := readJSONFile(args[1], &packet); err != nil {
			return err
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
			Relayer     string          `json:"relayer"`
			Packet      json.RawMessage `json:"packet"`
			ProofHeight uint64          `json:"proof_height"`
			Proof       []byte          `json:"proof"`
		}{args[0], packet, proofHeight, proof}
		return postEnvelope("PacketTimeout", payload)
	},
}

var writeAckCmd = &cobra.Command{
	Use:   "write-ack [caller] [packet-file] [ack-hex]",
	Short: "write an acknowledgement for a packet this port owns",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var packet json.RawMessage
		if err := readJSONFile(args[1], &packet); err != nil {
			return err
		}
		ack, err := hex.DecodeString(args[2])
		if err != nil {
			return fmt.Errorf("ack-hex: %w", err)
		}
		payload := struct {
			Caller          string          `json:"caller"`
			Packet          json.RawMessage `json:"packet"`
			Acknowledgement []byte          `json:"acknowledgement"`
		}{args[0], packet, ack}
		return postEnvelope("WriteAcknowledgement", payload)
	},
}

var batchSendPacketsFile string

var batchSendCmd = &cobra.Command{
	Use:   "batch-send",
	Short: "commit a batch of already-sent packets under one hash",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var packets []json.RawMessage
		if err := readJSONFile(batchSendPacketsFile, &packets); err != nil {
			return err
		}
		payload := struct {
			Packets []json.RawMessage `json:"packets"`
		}{packets}
		return postEnvelope("BatchSend", payload)
	},
}

var batchAcksPacketsFile string
var batchAcksListFile string

var batchAcksCmd = &cobra.Command{
	Use:   "batch-acks",
	Short: "commit a batch of acknowledgements under one hash",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var packets []json.RawMessage
		if err := readJSONFile(batchAcksPacketsFile, &packets); err != nil {
			return err
		}
		var acks [][]byte
		if err := readJSONFile(batchAcksListFile, &acks); err != nil {
			return err
		}
		payload := struct {
			Packets          []json.RawMessage `json:"packets"`
			Acknowledgements [][]byte          `json:"acknowledgements"`
		}{packets, acks}
		return postEnvelope("BatchAcks", payload)
	},
}

func init() {
	packetRecvCmd.Flags().StringVar(&recvPacketsFile, "packets", "", "path to a JSON array of packets to receive")
	packetRecvCmd.Flags().StringVar(&recvRelayerMsgsFile, "relayer-msgs", "", "path to a JSON array of base64 relayer messages, one per packet (optional)")
	_ = packetRecvCmd.MarkFlagRequired("packets")

	packetIntentRecvCmd.Flags().StringVar(&intentRecvPacketsFile, "packets", "", "path to a JSON array of packets to fill")
	packetIntentRecvCmd.Flags().StringVar(&intentRecvMsgsFile, "market-maker-msgs", "", "path to a JSON array of base64 market-maker messages, one per packet (optional)")
	_ = packetIntentRecvCmd.MarkFlagRequired("packets")

	packetAckCmd.Flags().StringVar(&ackPacketsFile, "packets", "", "path to a JSON array of acknowledged packets")
	packetAckCmd.Flags().StringVar(&ackListFile, "acks", "", "path to a JSON array of base64 acknowledgements, one per packet")
	_ = packetAckCmd.MarkFlagRequired("packets")
	_ = packetAckCmd.MarkFlagRequired("acks")

	batchSendCmd.Flags().StringVar(&batchSendPacketsFile, "packets", "", "path to a JSON array of packets")
	_ = batchSendCmd.MarkFlagRequired("packets")

	batchAcksCmd.Flags().StringVar(&batchAcksPacketsFile, "packets", "", "path to a JSON array of packets")
	batchAcksCmd.Flags().StringVar(&batchAcksListFile, "acks", "", "path to a JSON array of base64 acknowledgements, one per packet")
	_ = batchAcksCmd.MarkFlagRequired("packets")
	_ = batchAcksCmd.MarkFlagRequired("acks")

	packetCmd.AddCommand(packetSendCmd, packetRecvCmd, packetIntentRecvCmd, packetAckCmd, packetTimeoutCmd, writeAckCmd, batchSendCmd, batchAcksCmd)
	RootCmd.AddCommand(packetCmd)
}
