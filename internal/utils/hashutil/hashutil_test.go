package hashutil

import "testing"

func TestBlake3HashIsStable(t *testing.T) {
	a := Blake3Hash([]byte("floor plan"))
	b := Blake3Hash([]byte("floor plan"))
	if a != b {
		t.Fatalf("expected identical hashes, got %s and %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(a))
	}
	if a == Blake3Hash([]byte("floor plan 2")) {
		t.Fatal("expected different content to hash differently")
	}
}

func TestSha3256Hash(t *testing.T) {
	// SHA3-256 of the empty string
	want := "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"
	if got := Sha3256Hash(nil); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
