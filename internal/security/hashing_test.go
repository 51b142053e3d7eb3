package security

import (
	"strings"
	"testing"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(4)
	hash, err := h.HashSecret("Abcdef1!")
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	if hash == "" || hash == "Abcdef1!" {
		t.Fatalf("HashSecret returned %q", hash)
	}
	if !h.VerifySecret("Abcdef1!", hash) {
		t.Fatal("VerifySecret rejected the original secret")
	}
	if h.VerifySecret("Abcdef1?", hash) {
		t.Fatal("VerifySecret accepted a different secret")
	}
}

func TestHasher_Salted(t *testing.T) {
	h := NewHasher(4)
	a, _ := h.HashSecret("same")
	b, _ := h.HashSecret("same")
	if a == b {
		t.Fatal("two hashes of the same secret are identical")
	}
}

func TestHasher_LongSecrets(t *testing.T) {
	h := NewHasher(4)
	prefix := strings.Repeat("x", 100)
	hash, err := h.HashSecret(prefix + "tail-1")
	if err != nil {
		t.Fatalf("HashSecret long input: %v", err)
	}
	if !h.VerifySecret(prefix+"tail-1", hash) {
		t.Fatal("VerifySecret rejected long secret")
	}
	// Bytes past bcrypt's 72-byte window must still matter.
	if h.VerifySecret(prefix+"tail-2", hash) {
		t.Fatal("VerifySecret accepted a long secret differing only after byte 72")
	}
}

func TestHasher_RefreshTokenFingerprint(t *testing.T) {
	c, err := NewTestTokenCodec(nil)
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	h := NewHasher(4)
	first, _ := c.IssueRefreshToken(1)
	second, _ := c.IssueRefreshToken(1)
	fp, err := h.HashSecret(first)
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	if !h.VerifySecret(first, fp) {
		t.Fatal("fingerprint does not verify its own token")
	}
	if h.VerifySecret(second, fp) {
		t.Fatal("fingerprint verifies a different token for the same user")
	}
}

func TestHasher_VerifyBadHash(t *testing.T) {
	h := NewHasher(4)
	if h.VerifySecret("secret", "") {
		t.Error("empty hash must not verify")
	}
	if h.VerifySecret("secret", "not-a-bcrypt-hash") {
		t.Error("malformed hash must not verify")
	}
}

func TestHasher_Cost(t *testing.T) {
	if h := NewHasher(12); h.Cost != 12 {
		t.Errorf("Cost want 12, got %d", h.Cost)
	}
	if h := NewHasher(0); h.Cost != DefaultHashCost {
		t.Errorf("zero cost want %d, got %d", DefaultHashCost, h.Cost)
	}
	if h := NewHasher(2); h.Cost != 4 {
		t.Errorf("cost below minimum should clamp to 4, got %d", h.Cost)
	}
	if h := NewHasher(99); h.Cost != 31 {
		t.Errorf("cost above maximum should clamp to 31, got %d", h.Cost)
	}
}
