package secure

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadOrCreateKeyFile returns the passphrase stored at path, generating a
// random one (mode 0600) when the file does not exist yet. It stands in for a
// platform keychain when no passphrase is configured. The key sits unsealed
// beside the data it protects, so file permissions are the only guard.
func LoadOrCreateKeyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		passphrase := strings.TrimSpace(string(data))
		if passphrase == "" {
			return "", fmt.Errorf("key file %s is empty", path)
		}
		return passphrase, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to read key file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("failed to create key directory: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	passphrase := hex.EncodeToString(raw)

	if err := os.WriteFile(path, []byte(passphrase+"\n"), 0600); err != nil {
		return "", fmt.Errorf("failed to write key file: %w", err)
	}
	return passphrase, nil
}
