package ssh

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// KeyInfo describes a private key found on the local machine
type KeyInfo struct {
	Path        string // Full path to the key file
	Name        string // Key filename (e.g., "id_ed25519")
	Type        string // Key type (e.g., "ed25519", "rsa", "ecdsa")
	IsEncrypted bool   // True if key is passphrase-protected
}

// DiscoverSSHKeys scans ~/.ssh/ for private keys
func DiscoverSSHKeys() ([]KeyInfo, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}
	return DiscoverKeysIn(filepath.Join(homeDir, ".ssh"))
}

// DiscoverKeysIn scans dir for private keys.
// Keys are sorted by preference: ed25519, rsa, ecdsa, others.
func DiscoverKeysIn(dir string) ([]KeyInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var keys []KeyInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, ".pub") ||
			name == "known_hosts" ||
			name == "authorized_keys" ||
			name == "config" {
			continue
		}
		if !strings.HasPrefix(name, "id_") && !strings.HasSuffix(name, ".pem") {
			continue
		}

		keyInfo, err := ValidateSSHKey(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		keys = append(keys, *keyInfo)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		return keyTypePriority(keys[i].Type) < keyTypePriority(keys[j].Type)
	})

	return keys, nil
}

// keyTypePriority returns sort priority for key types (lower is better)
func keyTypePriority(keyType string) int {
	switch keyType {
	case "ed25519":
		return 1
	case "rsa":
		return 2
	case "ecdsa":
		return 3
	default:
		return 4
	}
}

// ValidateSSHKey validates a key file and returns its info
func ValidateSSHKey(path string) (*KeyInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	keyInfo := &KeyInfo{
		Path: path,
		Name: filepath.Base(path),
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		if isPassphraseError(err) {
			keyInfo.IsEncrypted = true
			keyInfo.Type = detectKeyType(data)
			return keyInfo, nil
		}
		return nil, fmt.Errorf("invalid SSH key: %w", err)
	}

	keyInfo.Type = signerKeyType(signer)
	return keyInfo, nil
}

// signerKeyType maps the public key algorithm to a short key type
func signerKeyType(signer ssh.Signer) string {
	switch t := signer.PublicKey().Type(); {
	case t == ssh.KeyAlgoED25519:
		return "ed25519"
	case t == ssh.KeyAlgoRSA:
		return "rsa"
	case strings.HasPrefix(t, "ecdsa-"):
		return "ecdsa"
	case t == "ssh-dss":
		return "dsa"
	default:
		return "unknown"
	}
}

func isPassphraseError(err error) bool {
	if _, ok := err.(*ssh.PassphraseMissingError); ok {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "passphrase") ||
		strings.Contains(errStr, "encrypted") ||
		strings.Contains(errStr, "ENCRYPTED")
}

// detectKeyType guesses the key type from PEM headers, for keys that
// cannot be parsed without a passphrase
func detectKeyType(data []byte) string {
	content := string(data)

	switch {
	case strings.Contains(content, "OPENSSH PRIVATE KEY"):
		// The OpenSSH container hides the algorithm; ed25519 is the modern default
		return "ed25519"
	case strings.Contains(content, "RSA PRIVATE KEY"):
		return "rsa"
	case strings.Contains(content, "EC PRIVATE KEY"):
		return "ecdsa"
	case strings.Contains(content, "DSA PRIVATE KEY"):
		return "dsa"
	}
	return "unknown"
}

// TryConnect attempts a single connection to a device with a specific key
func TryConnect(ctx context.Context, host, user string, port int, keyPath string, opts ...ClientOption) error {
	allOpts := append([]ClientOption{WithRetries(0), WithTimeout(10 * time.Second)}, opts...)
	client := NewClient(host, user, port, keyPath, allOpts...)
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	return client.Close()
}
