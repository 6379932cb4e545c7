package keys

import (
	"strings"
	"testing"
)

func TestDeriveRoleSeed_Deterministic(t *testing.T) {
	root := testSeed(0x11)
	a, err := DeriveRoleSeed(root, "navigator")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	b, err := DeriveRoleSeed(root, "navigator")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("derivation must be deterministic")
	}
	c, err := DeriveRoleSeed(root, "planner")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if string(a) == string(c) {
		t.Fatalf("different roles must derive different seeds")
	}
}

func TestDeriveRoleSeed_Rejects(t *testing.T) {
	if _, err := DeriveRoleSeed([]byte{1, 2, 3}, "navigator"); err == nil {
		t.Fatalf("expected error for short root seed")
	}
	if _, err := DeriveRoleSeed(testSeed(0x11), "bad role!"); err == nil {
		t.Fatalf("expected error for invalid role")
	}
}

func TestKeyStore_RootAndRole(t *testing.T) {
	ks, err := OpenKeyStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenKeyStore: %v", err)
	}
	sender, path, err := ks.InitializeRootKey("agent-1", testSeed(0x22), false)
	if err != nil {
		t.Fatalf("InitializeRootKey: %v", err)
	}
	if !strings.HasPrefix(sender, "ed25519:") {
		t.Fatalf("unexpected sender key %q", sender)
	}
	if _, _, err := ks.InitializeRootKey("agent-1", testSeed(0x33), false); err == nil {
		t.Fatalf("expected error overwriting existing root key")
	}

	roleKey, _, err := ks.DeriveRoleKey("agent-1", "navigator", false)
	if err != nil {
		t.Fatalf("DeriveRoleKey: %v", err)
	}
	if roleKey == sender {
		t.Fatalf("role key must differ from root key")
	}

	seed, err := ks.LoadSeed("", "agent-1", "", "")
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	if SenderKeyFromSeed(seed) != sender {
		t.Fatalf("loaded seed does not reproduce sender key")
	}

	seed2, err := ks.LoadSeed("", "", "", path)
	if err != nil {
		t.Fatalf("LoadSeed by file: %v", err)
	}
	if string(seed) != string(seed2) {
		t.Fatalf("file load mismatch")
	}
}
