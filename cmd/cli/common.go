// Package cli provides one cobra command group per message family: one file
// per domain, each exporting a package-level *cobra.Command wired into
// RootCmd via init(). Every command here posts a tagged-union Envelope to
// the relayer server's dispatch surface rather than touching a core.Engine
// in-process, since a CLI invocation and the engine's persistent store
// normally live in different processes.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"union-core/pkg/utils"
)

func init() {
	_ = godotenv.Load()
}

// RootCmd is the top-level command every message-family command group
// registers itself against in its own init().
var RootCmd = &cobra.Command{
	Use:   "unioncli",
	Short: "CLI relayer client for the union-core channel/packet engine",
}

// serverAddr resolves the relayer server's base URL, defaulting to the
// address the relayerserver binary listens on unless UNION_API_ADDR_HOST
// (a host:port, without scheme) overrides it.
func serverAddr() string {
	return "http://" + utils.EnvOrDefault("UNION_API_ADDR_HOST", "localhost:8082")
}

// postEnvelope posts a tagged-union Envelope of the given type to the
// dispatch surface's POST /messages route and prints the decoded result.
func postEnvelope(msgType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	env := struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}{Type: msgType, Payload: raw}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	resp, err := http.Post(serverAddr()+"/messages", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to relayer server: %w", err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("dispatch failed: %s", bytes.TrimSpace(out))
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, out, "", "  "); err != nil {
		fmt.Println(string(out))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}

func parseUint64(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
