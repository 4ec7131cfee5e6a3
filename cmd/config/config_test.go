package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"

	"union-core/internal/testutil"
)

func TestLoadConfigDefault(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(".."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("")
	if AppConfig.Network.ListenAddr != ":8082" {
		t.Fatalf("unexpected listen addr: %s", AppConfig.Network.ListenAddr)
	}
	if len(AppConfig.LightClients.Types) != 1 || AppConfig.LightClients.Types[0] != "mock-merkle" {
		t.Fatalf("unexpected light client types: %v", AppConfig.LightClients.Types)
	}
}

func TestLoadConfigOverride(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(".."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("bootstrap")
	if AppConfig.Network.ListenAddr != ":9082" {
		t.Fatalf("expected overridden listen addr, got %s", AppConfig.Network.ListenAddr)
	}
	if len(AppConfig.Relayers.Allowlist) != 1 {
		t.Fatalf("expected one seeded relayer, got %v", AppConfig.Relayers.Allowlist)
	}
	if AppConfig.Logging.Level != "debug" {
		t.Fatalf("expected overridden logging level, got %s", AppConfig.Logging.Level)
	}
}

func TestLoadConfigSandbox(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	if err := os.Mkdir(sb.Path("config"), 0700); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	data := []byte("network:\n  listen_addr: \":1234\"\nrelayers:\n  admin: \"sandbox-admin\"\n")
	if err := sb.WriteFile("config/default.yaml", data, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(sb.Root); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("")

	if AppConfig.Network.ListenAddr != ":1234" {
		t.Fatalf("expected listen addr :1234, got %s", AppConfig.Network.ListenAddr)
	}
	if AppConfig.Relayers.Admin != "sandbox-admin" {
		t.Fatalf("expected sandbox-admin, got %s", AppConfig.Relayers.Admin)
	}
}
