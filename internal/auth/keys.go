// Package auth provides password hashing and PASETO session tokens.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PASETO v4 requires a 256-bit symmetric key.
	keyLength    = 32
	keyHexLength = 64

	keyFileName = "auth.key"
)

// LoadKey returns the token key. A non-empty keyHex wins; otherwise the key
// is read from dataPath, generating and saving one on first start.
func LoadKey(keyHex, dataPath string) ([]byte, error) {
	if keyHex = strings.TrimSpace(keyHex); keyHex != "" {
		return decodeKey(keyHex)
	}
	return LoadOrGenerateKey(dataPath)
}

// LoadOrGenerateKey reads <dataPath>/auth.key, creating it with a fresh
// random key if missing. The file holds the key hex-encoded with mode 0600.
func LoadOrGenerateKey(dataPath string) ([]byte, error) {
	keyPath := filepath.Join(dataPath, keyFileName)

	//#nosec G304 -- path is derived from the configured data directory
	if raw, err := os.ReadFile(keyPath); err == nil {
		return decodeKey(strings.TrimSpace(string(raw)))
	}

	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate auth key: %w", err)
	}

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("save auth key: %w", err)
	}
	return key, nil
}

func decodeKey(keyHex string) ([]byte, error) {
	if len(keyHex) != keyHexLength {
		return nil, fmt.Errorf("invalid auth key length: expected %d hex chars, got %d", keyHexLength, len(keyHex))
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid auth key: not valid hex: %w", err)
	}
	return key, nil
}
