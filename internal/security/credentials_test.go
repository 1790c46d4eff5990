package security

import (
	"strings"
	"testing"
)

func TestGenerateTemporaryPassword(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		pw, err := GenerateTemporaryPassword()
		if err != nil {
			t.Fatalf("GenerateTemporaryPassword: %v", err)
		}
		if len(pw) != TemporaryPasswordLength {
			t.Fatalf("len = %d, want %d", len(pw), TemporaryPasswordLength)
		}
		for _, r := range pw {
			if !strings.ContainsRune(temporaryPasswordAlphabet, r) {
				t.Fatalf("unexpected character %q in %q", r, pw)
			}
		}
		seen[pw] = true
	}
	if len(seen) < 50 {
		t.Errorf("expected 50 distinct passwords, got %d", len(seen))
	}
}
