// Package crypto encrypts stored mail credentials with AES-256-CBC.
// Ciphertexts are encoded as "<iv hex>:<ciphertext hex>".
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

var (
	ErrMissingKey       = errors.New("encryption key is not configured")
	ErrMalformedPayload = errors.New("malformed encrypted payload")
)

const hkdfInfo = "office-agent mail credentials"

// DeriveKey turns ENCRYPTION_KEY into a 32 byte AES key. A 64 character hex
// string is used as-is, anything else is stretched with HKDF-SHA256.
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, ErrMissingKey
	}
	if len(secret) >= 64 {
		if key, err := hex.DecodeString(secret[:64]); err == nil {
			return key, nil
		}
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// GenerateKey returns a random key suitable for ENCRYPTION_KEY
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

// Encrypt encrypts plaintext with the configured secret
func Encrypt(plaintext, secret string) (string, error) {
	key, err := DeriveKey(secret)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Callers must use the result immediately and never keep it.
func Decrypt(encoded, secret string) (string, error) {
	key, err := DeriveKey(secret)
	if err != nil {
		return "", err
	}

	ivHex, dataHex, ok := strings.Cut(encoded, ":")
	if !ok {
		return "", ErrMalformedPayload
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrMalformedPayload
	}
	data, err := hex.DecodeString(dataHex)
	if err != nil || len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return "", ErrMalformedPayload
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)

	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrMalformedPayload
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, ErrMalformedPayload
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, ErrMalformedPayload
		}
	}
	return data[:len(data)-padding], nil
}
