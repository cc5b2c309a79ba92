package crypto

import (
	"encoding/base64"
	"testing"
)

func testKey() string {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestSealOpenRoundTrip(t *testing.T) {
	c, err := NewMessageCipher(testKey())
	if err != nil {
		t.Fatalf("NewMessageCipher: %v", err)
	}

	token, err := c.Seal("What is photosynthesis?")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if token == "What is photosynthesis?" {
		t.Fatal("Seal returned plaintext with enabled cipher")
	}

	opened := c.Open(token)
	if opened.Passthrough {
		t.Error("round trip should not be passthrough")
	}
	if opened.Text != "What is photosynthesis?" {
		t.Errorf("Open = %q, want original text", opened.Text)
	}
}

func TestOpenLegacyPlaintext(t *testing.T) {
	c, err := NewMessageCipher(testKey())
	if err != nil {
		t.Fatalf("NewMessageCipher: %v", err)
	}

	// Rows written before encryption was enabled must decode to themselves.
	opened := c.Open("Untitled session")
	if !opened.Passthrough {
		t.Error("legacy plaintext should be passthrough")
	}
	if opened.Text != "Untitled session" {
		t.Errorf("Open = %q, want unchanged input", opened.Text)
	}
}

func TestOpenCorruptToken(t *testing.T) {
	c, err := NewMessageCipher(testKey())
	if err != nil {
		t.Fatalf("NewMessageCipher: %v", err)
	}

	corrupt := tokenPrefix + "not-base64!!!"
	opened := c.Open(corrupt)
	if !opened.Passthrough {
		t.Error("corrupt token should fall back to passthrough")
	}
	if opened.Text != corrupt {
		t.Errorf("Open = %q, want input unchanged", opened.Text)
	}
}

func TestDisabledCipher(t *testing.T) {
	c, err := NewMessageCipher("")
	if err != nil {
		t.Fatalf("NewMessageCipher: %v", err)
	}

	token, err := c.Seal("hello")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if token != "hello" {
		t.Errorf("disabled cipher Seal = %q, want passthrough", token)
	}
}

func TestMalformedKeyRejected(t *testing.T) {
	if _, err := NewMessageCipher("too-short"); err == nil {
		t.Error("malformed key should be rejected at construction")
	}
}
