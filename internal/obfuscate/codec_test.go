package obfuscate

import "testing"

func TestRoundTrip(t *testing.T) {
	codec, err := NewCodec("local-dev-secret")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	for _, input := range []string{"Paris", "Lyon", "", "héhé #quiz", "a,b,c"} {
		token := codec.Encode(input)
		got, err := codec.Decode(token)
		if err != nil {
			t.Fatalf("decode %q: %v", input, err)
		}
		if got != input {
			t.Fatalf("round trip mismatch: %q != %q", got, input)
		}
	}
}

func TestDeterministicEquality(t *testing.T) {
	codec, err := NewCodec("local-dev-secret")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	if codec.Encode("Lyon") != codec.Encode("Lyon") {
		t.Fatal("same plaintext must yield same token")
	}
	if codec.Encode("Lyon") == codec.Encode("Paris") {
		t.Fatal("distinct plaintexts must yield distinct tokens")
	}

	other, err := NewCodec("another-secret")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	if codec.Encode("Lyon") == other.Encode("Lyon") {
		t.Fatal("distinct keys must yield distinct tokens")
	}
}

func TestJoinedToken(t *testing.T) {
	codec, err := NewCodec("local-dev-secret")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	token := codec.EncodeAll([]string{"Paris", "Lyon"})
	if parts := SplitToken(token); len(parts) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(parts))
	}

	solutions, err := codec.DecodeAll(token)
	if err != nil {
		t.Fatalf("decode all: %v", err)
	}
	if len(solutions) != 2 || solutions[0] != "Paris" || solutions[1] != "Lyon" {
		t.Fatalf("unexpected solutions %v", solutions)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	codec, err := NewCodec("local-dev-secret")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	if _, err := codec.Decode("not!base64!!"); err == nil {
		t.Fatal("expected malformed token error")
	}
	if _, err := codec.Decode("QUJD"); err == nil {
		t.Fatal("expected short token error")
	}

	other, _ := NewCodec("another-secret")
	if _, err := codec.Decode(other.Encode("Lyon")); err == nil {
		t.Fatal("expected integrity failure for foreign key token")
	}
}

func TestEmptyPassphraseRejected(t *testing.T) {
	if _, err := NewCodec(""); err != ErrEmptyPassphrase {
		t.Fatalf("expected ErrEmptyPassphrase, got %v", err)
	}
}
