package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
)

// LoadOrCreateKey reads a hex-encoded secp256k1 private key from path. When
// the file does not exist a fresh key is generated and persisted with owner-
// only permissions before being returned.
func LoadOrCreateKey(path string) (*PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		decoded, err := hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("keystore: decode %s: %w", path, err)
		}
		key, err := PrivateKeyFromBytes(decoded)
		if err != nil {
			return nil, fmt.Errorf("keystore: parse %s: %w", path, err)
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	key, err := GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	encoded := hex.EncodeToString(key.Bytes())
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return nil, fmt.Errorf("keystore: write %s: %w", path, err)
	}
	return key, nil
}
