package password

import (
	"strings"
	"testing"
)

func TestBcryptHashAndVerify(t *testing.T) {
	h := NewBcryptHasher(WithCost(4))

	hash, err := h.Hash("password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("expected bcrypt hash prefix, got %q", hash[:4])
	}

	if err := h.Verify("password", hash); err != nil {
		t.Errorf("expected matching password to verify: %v", err)
	}
	if err := h.Verify("wrong", hash); err == nil {
		t.Error("expected mismatched password to fail")
	}
}

func TestBcryptHashTooShort(t *testing.T) {
	h := NewBcryptHasher()
	if _, err := h.Hash("abc"); err == nil {
		t.Error("expected error for password below minimum length")
	}
}

func TestBcryptHashTooLong(t *testing.T) {
	h := NewBcryptHasher()
	if _, err := h.Hash(strings.Repeat("x", 73)); err == nil {
		t.Error("expected error for password above bcrypt limit")
	}
}

func TestBcryptCostClamped(t *testing.T) {
	h := NewBcryptHasher(WithCost(99))
	if h.cost != 12 {
		t.Errorf("expected out-of-range cost to keep default 12, got %d", h.cost)
	}
}

func TestArgon2HashAndVerify(t *testing.T) {
	h := NewArgon2Hasher()

	hash, err := h.Hash("password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("expected argon2id hash prefix, got %q", hash)
	}

	if err := h.Verify("password", hash); err != nil {
		t.Errorf("expected matching password to verify: %v", err)
	}
	if err := h.Verify("wrong", hash); err == nil {
		t.Error("expected mismatched password to fail")
	}
}

func TestArgon2VerifyBadFormat(t *testing.T) {
	h := NewArgon2Hasher()
	if err := h.Verify("password", "not-a-hash"); err == nil {
		t.Error("expected error for malformed hash")
	}
}

func TestIsHash(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"bcrypt 2a", "$2a$12$abcdefghijklmnopqrstuv", true},
		{"bcrypt 2y", "$2y$10$abcdefghijklmnopqrstuv", true},
		{"argon2id", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA", true},
		{"plaintext", "password", false},
		{"empty", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsHash(tc.input); got != tc.want {
				t.Errorf("IsHash(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestNewHasherFromConfig(t *testing.T) {
	bcryptHasher := NewHasher(Config{Algorithm: AlgorithmBcrypt, BcryptCost: 4})
	if _, ok := bcryptHasher.(*BcryptHasher); !ok {
		t.Errorf("expected BcryptHasher, got %T", bcryptHasher)
	}

	argonHasher := NewHasher(Config{Algorithm: AlgorithmArgon2id})
	if _, ok := argonHasher.(*Argon2Hasher); !ok {
		t.Errorf("expected Argon2Hasher, got %T", argonHasher)
	}

	defaultHasher := NewHasher(Config{})
	if _, ok := defaultHasher.(*BcryptHasher); !ok {
		t.Errorf("expected default BcryptHasher, got %T", defaultHasher)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate: %v", err)
	}

	bad := Config{Algorithm: "md5"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unsupported algorithm")
	}

	badCost := Config{Algorithm: AlgorithmBcrypt, BcryptCost: 99}
	if err := badCost.Validate(); err == nil {
		t.Error("expected error for out-of-range cost")
	}
}
