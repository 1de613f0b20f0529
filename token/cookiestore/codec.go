package cookiestore

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"

	"github.com/jrsteele09/go-efactura/token"
	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required length of the sealing key in bytes.
const KeySize = chacha20poly1305.KeySize

// Codec seals tokens into an opaque base64url blob and opens them again.
// The blob is authenticated, so a tampered cookie fails to open rather
// than yielding a forged token.
type Codec struct {
	key []byte
}

// NewCodec creates a Codec from a 32-byte sealing key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, errors.Errorf("[NewCodec] sealing key must be %d bytes, got %d", KeySize, len(key))
	}
	c := &Codec{key: make([]byte, KeySize)}
	copy(c.key, key)
	return c, nil
}

// Seal serializes and encrypts a token into a cookie-safe string.
func (c *Codec) Seal(tok *token.Token) (string, error) {
	plaintext, err := json.Marshal(tok)
	if err != nil {
		return "", errors.Wrap(err, "[Codec.Seal] marshalling token")
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", errors.Wrap(err, "[Codec.Seal] creating cipher")
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, "[Codec.Seal] generating nonce")
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts and deserializes a sealed blob. Any tampering, truncation,
// or key mismatch returns an error.
func (c *Codec) Open(blob string) (*token.Token, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(blob)
	if err != nil {
		return nil, errors.Wrap(err, "[Codec.Open] decoding blob")
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, errors.Wrap(err, "[Codec.Open] creating cipher")
	}

	if len(sealed) < aead.NonceSize() {
		return nil, errors.New("[Codec.Open] blob shorter than nonce")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Codec.Open] opening sealed blob")
	}

	var tok token.Token
	if err := json.Unmarshal(plaintext, &tok); err != nil {
		return nil, errors.Wrap(err, "[Codec.Open] unmarshalling token")
	}
	return &tok, nil
}
