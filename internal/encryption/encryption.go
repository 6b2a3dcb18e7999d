// Package encryption provides authenticated field-level encryption for VPN
// key payloads stored in the database. AES-256-GCM with a 16-byte random IV;
// ciphertext, IV and tag are persisted hex encoded.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"panel-backend/internal/models"
)

const (
	keyLength = 32
	ivLength  = 16
)

// Service encrypts and decrypts single field values with a fixed key.
type Service struct {
	aead cipher.AEAD
}

// New builds a Service from a base64-encoded key. A key of the wrong length
// is a startup error, not a call-time one.
func New(base64Key string) (*Service, error) {
	if base64Key == "" {
		return nil, fmt.Errorf("encryption key is not set")
	}
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("decoding encryption key: %w", err)
	}
	if len(key) != keyLength {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", keyLength, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("initializing cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, fmt.Errorf("initializing GCM: %w", err)
	}

	return &Service{aead: aead}, nil
}

// Encrypt seals a plaintext value under a fresh random IV.
func (s *Service) Encrypt(plaintext string) (models.EncryptedField, error) {
	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return models.EncryptedField{}, fmt.Errorf("generating iv: %w", err)
	}

	sealed := s.aead.Seal(nil, iv, []byte(plaintext), nil)
	split := len(sealed) - s.aead.Overhead()

	return models.EncryptedField{
		Ciphertext: hex.EncodeToString(sealed[:split]),
		IV:         hex.EncodeToString(iv),
		Tag:        hex.EncodeToString(sealed[split:]),
	}, nil
}

// Decrypt opens a sealed field, verifying its authentication tag.
func (s *Service) Decrypt(field models.EncryptedField) (string, error) {
	ciphertext, err := hex.DecodeString(field.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}
	iv, err := hex.DecodeString(field.IV)
	if err != nil {
		return "", fmt.Errorf("decoding iv: %w", err)
	}
	tag, err := hex.DecodeString(field.Tag)
	if err != nil {
		return "", fmt.Errorf("decoding tag: %w", err)
	}

	plaintext, err := s.aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("decrypting field: %w", err)
	}
	return string(plaintext), nil
}

// DecryptField is a nil-tolerant Decrypt for optional columns.
func (s *Service) DecryptField(field *models.EncryptedField) (string, error) {
	if field == nil {
		return "", nil
	}
	return s.Decrypt(*field)
}
