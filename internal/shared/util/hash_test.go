package util

import "testing"

func TestSHA256Hex(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := SHA256Hex([]byte("abc")); got != want {
		t.Fatalf("unexpected digest %s", got)
	}
	if SHA256Hex([]byte("resume")) == SHA256Hex([]byte("resume2")) {
		t.Fatalf("expected different inputs to hash differently")
	}
}
