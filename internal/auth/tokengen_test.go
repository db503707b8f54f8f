package auth

import (
	"strings"
	"testing"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if !strings.HasPrefix(token.Plaintext, "bo_") {
		t.Errorf("token should start with bo_, got: %s", token.Plaintext)
	}
	if len(token.Prefix) != TokenPrefixLen {
		t.Errorf("prefix length = %d, want %d", len(token.Prefix), TokenPrefixLen)
	}
	if !strings.Contains(token.Plaintext, token.Prefix) {
		t.Error("plaintext should contain the prefix")
	}
	if !strings.HasPrefix(token.Hash, "$argon2id$") {
		t.Errorf("hash should be argon2id PHC, got: %s", token.Hash)
	}

	// The stored hash must verify against the plaintext.
	ok, err := VerifyToken(token.Plaintext, token.Hash)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if !ok {
		t.Error("generated hash should verify against the plaintext")
	}
}

func TestGenerateToken_Unique(t *testing.T) {
	t.Parallel()

	t1, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	t2, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if t1.Plaintext == t2.Plaintext {
		t.Error("two generated tokens should differ")
	}
}

func TestParseToken(t *testing.T) {
	t.Parallel()

	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	parsed, err := ParseToken(token.Plaintext)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if parsed.Prefix != token.Prefix {
		t.Errorf("parsed prefix = %s, want %s", parsed.Prefix, token.Prefix)
	}
	if len(parsed.Secret) != TokenSecretLen {
		t.Errorf("secret length = %d, want %d", len(parsed.Secret), TokenSecretLen)
	}
}

func TestParseToken_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"wrong prefix", "pk_abc123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b"},
		{"short prefix", "bo_abc_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b"},
		{"short secret", "bo_abc123_4f8d2e1b"},
		{"uppercase hex", "bo_ABC123_4F8D2E1B9C7A5F3D2E1B9C7A5F3D2E1B"},
		{"missing parts", "bo_abc123"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseToken(tt.token); err == nil {
				t.Errorf("ParseToken(%q) should fail", tt.token)
			}
			if ValidTokenFormat(tt.token) {
				t.Errorf("ValidTokenFormat(%q) should be false", tt.token)
			}
		})
	}
}
