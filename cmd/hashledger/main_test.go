package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pterm/pterm"

	"github.com/luca-patrignani/hashledger/config"
	"github.com/luca-patrignani/hashledger/ledger"
)

func init() {
	pterm.DisableStyling()
}

func runCommand(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// TestRunDefault verifies the default run prints the genesis and both demo blocks and
// reports a valid chain.
func TestRunDefault(t *testing.T) {
	code, out, errOut := runCommand(t)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, errOut)
	}
	for _, want := range []string{`"Genesis Block"`, `{"amount":100}`, `{"amount":50}`, "chain is valid"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %s, got:\n%s", want, out)
		}
	}
}

// TestRunJSON verifies the JSON output decodes into a chain that verifies.
func TestRunJSON(t *testing.T) {
	code, out, errOut := runCommand(t, "-json")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, errOut)
	}
	var blocks []ledger.Block
	if err := json.Unmarshal([]byte(out), &blocks); err != nil {
		t.Fatalf("failed to decode output: %v\n%s", err, out)
	}
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if err := ledger.VerifyBlocks(blocks); err != nil {
		t.Fatalf("decoded chain should verify, got %v", err)
	}
}

// TestRunTamper verifies an altered copy of the chain is reported as invalid while the
// run itself succeeds because the tampering was detected.
func TestRunTamper(t *testing.T) {
	code, out, errOut := runCommand(t, "-tamper", "1")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, errOut)
	}
	if !strings.Contains(out, "INVALID") || !strings.Contains(out, string(ledger.ReasonDigestMismatch)) {
		t.Fatalf("expected the tampered copy to be reported invalid, got:\n%s", out)
	}
}

// TestRunTamperAlreadyTamperedPayload verifies the altered copy differs from the original
// even when a block already carries the payload a tampering would produce.
func TestRunTamperAlreadyTamperedPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashledger.toml")
	content := "[[demo.blocks]]\npayload = '{\"tampered\":true}'\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	code, out, errOut := runCommand(t, "-config", path, "-tamper", "1")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, errOut)
	}
	if !strings.Contains(out, "INVALID") {
		t.Fatalf("expected the tampered copy to be reported invalid, got:\n%s", out)
	}
}

// TestTamperedPayload verifies the altered payload wraps the original.
func TestTamperedPayload(t *testing.T) {
	orig := json.RawMessage(`{"tampered":true}`)
	got := tamperedPayload(orig)
	if string(got) != `{"tampered":{"tampered":true}}` {
		t.Fatalf("unexpected payload %s", got)
	}
	if !json.Valid(got) {
		t.Fatalf("payload %s is not valid JSON", got)
	}
	if string(orig) != `{"tampered":true}` {
		t.Fatalf("original payload modified: %s", orig)
	}
}

// TestRunTamperOutOfRange verifies an out-of-range tamper position fails the run.
func TestRunTamperOutOfRange(t *testing.T) {
	if code, _, _ := runCommand(t, "-tamper", "3"); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

// TestRunConfig verifies the configured blocks are appended.
func TestRunConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashledger.toml")
	content := `
[log]
level = "error"

[[demo.blocks]]
timestamp = "T1"
payload = '{"to":"bob","amount":7}'
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	code, out, errOut := runCommand(t, "-config", path, "-json")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, errOut)
	}
	var blocks []ledger.Block
	if err := json.Unmarshal([]byte(out), &blocks); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[1].Timestamp != "T1" {
		t.Fatalf("expected timestamp T1, got %s", blocks[1].Timestamp)
	}
	var payload struct {
		To     string `json:"to"`
		Amount int    `json:"amount"`
	}
	if err := blocks[1].DecodePayload(&payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.To != "bob" || payload.Amount != 7 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

// TestRunBadConfig verifies configuration errors are reported with exit code 1.
func TestRunBadConfig(t *testing.T) {
	code, _, errOut := runCommand(t, "-config", filepath.Join(t.TempDir(), "missing.toml"))
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut, "hashledger:") {
		t.Fatalf("expected an error message, got %q", errOut)
	}
}

// TestBuildChain verifies demo blocks get sequential indices and clock timestamps.
func TestBuildChain(t *testing.T) {
	now := time.Date(2024, time.May, 4, 10, 0, 0, 0, time.UTC)
	cfg := config.Default()
	bc, err := buildChain(cfg, func() time.Time { return now }, ledger.WithStrictIndex(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	blocks := bc.Blocks()
	for i, b := range blocks {
		if b.Index != i {
			t.Fatalf("block %d has index %d", i, b.Index)
		}
		if b.Timestamp != now.Format(time.RFC3339Nano) {
			t.Fatalf("block %d has timestamp %s", i, b.Timestamp)
		}
	}
	if !bc.IsValid() {
		t.Fatal("demo chain should be valid")
	}
}

// TestShortHash verifies long hashes are abbreviated and short ones kept.
func TestShortHash(t *testing.T) {
	if got := shortHash("0"); got != "0" {
		t.Fatalf("expected 0, got %s", got)
	}
	h := strings.Repeat("ab", 32)
	if got := shortHash(h); got != "abababab…abababab" {
		t.Fatalf("unexpected short hash %s", got)
	}
}
