package security

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Keys are the purpose-bound secrets derived from the application secret
type Keys struct {
	CSRF    []byte
	Visitor []byte
}

// DeriveKeys expands appSecret into independent keys with HKDF-SHA256
func DeriveKeys(appSecret string) (Keys, error) {
	if appSecret == "" {
		return Keys{}, fmt.Errorf("application secret is required")
	}
	csrf, err := derive(appSecret, "changekit csrf")
	if err != nil {
		return Keys{}, err
	}
	visitor, err := derive(appSecret, "changekit visitor token")
	if err != nil {
		return Keys{}, err
	}
	return Keys{CSRF: csrf, Visitor: visitor}, nil
}

func derive(secret, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive %s key: %w", info, err)
	}
	return key, nil
}
