package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

// tokenPrefix marks ciphertext produced by this package. Anything
// without it is treated as legacy plaintext on read.
const tokenPrefix = "enc.v1."

// Opened is the result of Open: either a decrypted value or the
// input passed through untouched (legacy rows, disabled cipher).
type Opened struct {
	Text        string
	Passthrough bool
}

// MessageCipher encrypts chat titles and message content at rest.
// A zero-value key disables it; Seal then returns input unchanged.
type MessageCipher struct {
	key     [32]byte
	enabled bool
}

// NewMessageCipher derives a cipher from a base64-encoded 32-byte key.
// An empty key yields a disabled (passthrough) cipher; a malformed key
// is an error because silently storing plaintext when encryption was
// requested is worse than failing at startup.
func NewMessageCipher(encodedKey string) (*MessageCipher, error) {
	if encodedKey == "" {
		return &MessageCipher{}, nil
	}

	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(raw))
	}

	c := &MessageCipher{enabled: true}
	copy(c.key[:], raw)
	return c, nil
}

// Seal encrypts plain text into a prefixed token string.
func (c *MessageCipher) Seal(plain string) (string, error) {
	if !c.enabled || plain == "" {
		return plain, nil
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	box := secretbox.Seal(nonce[:], []byte(plain), &nonce, &c.key)
	return tokenPrefix + base64.URLEncoding.EncodeToString(box), nil
}

// Open decrypts a token produced by Seal. Input that does not carry
// the token prefix, or that fails to decrypt, comes back as a
// Passthrough result: legacy unencrypted rows must decode to themselves.
func (c *MessageCipher) Open(stored string) Opened {
	if !c.enabled || !strings.HasPrefix(stored, tokenPrefix) {
		return Opened{Text: stored, Passthrough: true}
	}

	raw, err := base64.URLEncoding.DecodeString(strings.TrimPrefix(stored, tokenPrefix))
	if err != nil || len(raw) < 24 {
		return Opened{Text: stored, Passthrough: true}
	}

	var nonce [24]byte
	copy(nonce[:], raw[:24])

	plain, ok := secretbox.Open(nil, raw[24:], &nonce, &c.key)
	if !ok {
		return Opened{Text: stored, Passthrough: true}
	}

	return Opened{Text: string(plain)}
}
