package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opentron/opentron-sub001/types"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadAppliesDefaultsAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
[chain]
genesis = "genesis.json"

[storage]
data_dir = "/tmp/opentron/data"
state_data_dir = "/tmp/opentron/state"

[protocol]
seed_nodes = ["127.0.0.1:18888"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, defaultChannelSyncBatchSize, cfg.Protocol.Channel.SyncBatchSize)
	require.Equal(t, []string{"127.0.0.1:18888"}, cfg.Protocol.SeedNodes)
}

func TestLoadRejectsMissingDataDir(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
[chain]
genesis = "genesis.json"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing storage.data_dir")
	}
}

func TestLoadRejectsBadProducerKeypair(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
[storage]
data_dir = "/tmp/opentron/data"
state_data_dir = "/tmp/opentron/state"

[producer]
enable = true

[[producer.keypair]]
address = "not-hex"
private_key = "also-not-hex"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed producer keypair")
	}
}

func TestParseAddressAndPrivateKeyRoundTrip(t *testing.T) {
	addr, err := ParseAddress("0x410000000000000000000000000000000000000000")
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if addr[0] != 0x41 {
		t.Fatalf("address prefix = 0x%x, want 0x41", addr[0])
	}

	const scalarHex = "010101010101010101010101010101010101010101010101010101010101010101"
	if _, err := ParsePrivateKey(scalarHex); err == nil {
		t.Fatalf("ParsePrivateKey should reject a 33-byte scalar")
	}
	sk, err := ParsePrivateKey(scalarHex[:64])
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	if sk == nil {
		t.Fatalf("ParsePrivateKey returned nil key")
	}
}

func TestLoadGenesis(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "genesis.json", `{
		"timestamp": "2024-01-01T00:00:00Z",
		"witnesses": [
			{"address": "0x410000000000000000000000000000000000000011", "url": "http://a", "vote_count": 100}
		],
		"allocs": [
			{"address": "0x410000000000000000000000000000000000000022", "balance": 1000000}
		],
		"parameter": {"allow_tvm": true, "energy_fee": 5}
	}`)

	cfg, err := LoadGenesis(path)
	if err != nil {
		t.Fatalf("LoadGenesis: %v", err)
	}
	if len(cfg.Witnesses) != 1 {
		t.Fatalf("witnesses = %d, want 1", len(cfg.Witnesses))
	}
	if len(cfg.Allocs) != 1 {
		t.Fatalf("allocs = %d, want 1", len(cfg.Allocs))
	}
	if got := cfg.Params[types.ParamEnergyFee]; got != 5 {
		t.Fatalf("params[ParamEnergyFee] = %d, want 5", got)
	}
	if got := cfg.Params[types.ParamAllowTvm]; got != 1 {
		t.Fatalf("params[ParamAllowTvm] = %d, want 1", got)
	}
}
