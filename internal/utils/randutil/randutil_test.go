package randutil

import "testing"

func TestRandomStringLength(t *testing.T) {
	key, err := RandomString(32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 32 bytes, base64 without padding
	if len(key) != 43 {
		t.Fatalf("expected 43 characters, got %d", len(key))
	}
}

func TestMaskString(t *testing.T) {
	if got := MaskString("abcdefghij", 2, 3); got != "ab*****hij" {
		t.Fatalf("unexpected mask: %s", got)
	}
	if got := MaskString("abc", 2, 3); got != "abc" {
		t.Fatalf("short keys must be returned as is, got %s", got)
	}
}
