package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// SecretCipher encrypts workspace secrets at rest with AES-GCM.
// The key is derived from the configured passphrase with SHA-256.
type SecretCipher struct {
	aead cipher.AEAD
}

// NewSecretCipher builds a cipher from a passphrase.
func NewSecretCipher(passphrase string) (*SecretCipher, error) {
	if strings.TrimSpace(passphrase) == "" {
		return nil, errors.New("encryption key is required")
	}
	key := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &SecretCipher{aead: aead}, nil
}

// Seal encrypts plaintext into a base64 token (nonce || ciphertext).
func (c *SecretCipher) Seal(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	token := make([]byte, 0, len(nonce)+len(sealed))
	token = append(token, nonce...)
	token = append(token, sealed...)
	return base64.RawURLEncoding.EncodeToString(token), nil
}

// Open decrypts a token produced by Seal.
func (c *SecretCipher) Open(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", errors.New("empty ciphertext")
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce := raw[:c.aead.NonceSize()]
	plaintext, err := c.aead.Open(nil, nonce, raw[c.aead.NonceSize():], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt secret: %w", err)
	}
	return string(plaintext), nil
}
