// Package obfuscate hides quiz solutions inside client-visible payloads.
// Tokens are deterministic for a fixed key: submitting clients are checked
// by re-encoding their answer and comparing in ciphertext space, so the key
// never travels to the browser.
package obfuscate

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// Delimiter joins multiple encrypted candidates into a single token.
// base64url output never contains it.
const Delimiter = ","

var (
	ErrEmptyPassphrase  = errors.New("obfuscate: empty passphrase")
	ErrMalformedToken   = errors.New("obfuscate: malformed token")
	ErrTokenTooShort    = errors.New("obfuscate: token too short")
	ErrIntegrityFailure = errors.New("obfuscate: integrity check failed")
)

// Codec encodes and decodes short strings with a process-wide shared key.
type Codec struct {
	aead     cipher.AEAD
	nonceKey []byte
}

// NewCodec derives the cipher and nonce keys from a passphrase via HKDF.
func NewCodec(passphrase string) (*Codec, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	h := hkdf.New(sha256.New, []byte(passphrase), nil, []byte("quiz-solution-token"))
	keys := make([]byte, 64)
	if _, err := io.ReadFull(h, keys); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(keys[:32])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Codec{aead: aead, nonceKey: keys[32:]}, nil
}

// Encode returns the token for plaintext. The nonce is an HMAC of the
// plaintext, so equal inputs produce equal tokens under one key. That makes
// the scheme an obfuscator rather than semantically secure encryption,
// which is exactly what ciphertext-space answer comparison needs.
func (c *Codec) Encode(plaintext string) string {
	nonce := c.nonce(plaintext)
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(append(nonce, sealed...))
}

// Decode reverses Encode.
func (c *Codec) Decode(token string) (string, error) {
	blob, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrMalformedToken
	}
	ns := c.aead.NonceSize()
	if len(blob) < ns {
		return "", ErrTokenTooShort
	}
	plaintext, err := c.aead.Open(nil, blob[:ns], blob[ns:], nil)
	if err != nil {
		return "", ErrIntegrityFailure
	}
	return string(plaintext), nil
}

// EncodeAll encodes every candidate solution into one joined token.
func (c *Codec) EncodeAll(solutions []string) string {
	encoded := make([]string, 0, len(solutions))
	for _, s := range solutions {
		encoded = append(encoded, c.Encode(s))
	}
	return strings.Join(encoded, Delimiter)
}

// DecodeAll splits a joined token and decodes each candidate.
func (c *Codec) DecodeAll(token string) ([]string, error) {
	if token == "" {
		return nil, ErrMalformedToken
	}
	parts := strings.Split(token, Delimiter)
	decoded := make([]string, 0, len(parts))
	for _, p := range parts {
		plain, err := c.Decode(p)
		if err != nil {
			return nil, err
		}
		decoded = append(decoded, plain)
	}
	return decoded, nil
}

// SplitToken returns the individual encrypted candidates without decoding.
func SplitToken(token string) []string {
	if token == "" {
		return nil
	}
	return strings.Split(token, Delimiter)
}

func (c *Codec) nonce(plaintext string) []byte {
	mac := hmac.New(sha256.New, c.nonceKey)
	mac.Write([]byte(plaintext))
	return mac.Sum(nil)[:c.aead.NonceSize()]
}
