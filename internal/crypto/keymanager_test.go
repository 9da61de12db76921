package crypto

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	// Private key 1 and the address it controls.
	testKeyHex     = "0000000000000000000000000000000000000000000000000000000000000001"
	testKeyAddress = "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := EncryptKey("0x"+testKeyHex, "hunter2")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	got, err := DecryptKey(blob, "hunter2")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if got != testKeyHex {
		t.Errorf("expected round-tripped key %s, got %s", testKeyHex, got)
	}

	if _, err := DecryptKey(blob, "wrong"); err == nil {
		t.Error("expected decryption with wrong password to fail")
	}
}

func TestEncryptKeyValidation(t *testing.T) {
	if _, err := EncryptKey(testKeyHex, ""); err == nil {
		t.Error("expected empty password to be rejected")
	}
	if _, err := EncryptKey("zzzz", "hunter2"); err == nil {
		t.Error("expected non-hex key to be rejected")
	}
	if _, err := EncryptKey("abcd", "hunter2"); err == nil || !strings.Contains(err.Error(), "32-byte") {
		t.Errorf("expected short key to be rejected, got %v", err)
	}
}

func TestLoadKey(t *testing.T) {
	// A raw key wins and loses its 0x prefix.
	got, err := LoadKey(KeyConfig{RawPrivateKey: "0x" + testKeyHex})
	if err != nil {
		t.Fatalf("raw key: %v", err)
	}
	if got != testKeyHex {
		t.Errorf("expected %s, got %s", testKeyHex, got)
	}

	// An encrypted keyfile resolves through DecryptKey.
	blob, err := EncryptKey(testKeyHex, "hunter2")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	path := filepath.Join(t.TempDir(), "owner.key.json")
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		t.Fatalf("write keyfile: %v", err)
	}

	got, err = LoadKey(KeyConfig{EncryptedKeyPath: path, KeyPassword: "hunter2"})
	if err != nil {
		t.Fatalf("keyfile: %v", err)
	}
	if got != testKeyHex {
		t.Errorf("expected %s from keyfile, got %s", testKeyHex, got)
	}

	// No source configured is an error.
	if _, err := LoadKey(KeyConfig{}); err == nil {
		t.Error("expected error with no key source")
	}
}

func TestAddressFromKey(t *testing.T) {
	addr, err := AddressFromKey(testKeyHex)
	if err != nil {
		t.Fatalf("address from key: %v", err)
	}
	if addr.Hex() != testKeyAddress {
		t.Errorf("expected %s, got %s", testKeyAddress, addr.Hex())
	}
}
