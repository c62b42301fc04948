package identity

import "testing"

func TestHashPasswordIsDeterministicHex(t *testing.T) {
	h1 := HashPassword("secret123")
	h2 := HashPassword("secret123")
	if h1 != h2 {
		t.Error("hash is not deterministic")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}
	if h1 == HashPassword("secret124") {
		t.Error("distinct passwords hash equal")
	}
}

func TestCheckPassword(t *testing.T) {
	u := &User{PasswordHash: HashPassword("secret123")}
	if !u.CheckPassword("secret123") {
		t.Error("correct password rejected")
	}
	if u.CheckPassword("secret124") {
		t.Error("wrong password accepted")
	}
	if u.CheckPassword("") {
		t.Error("empty password accepted")
	}
}
