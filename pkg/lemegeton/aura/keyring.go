// Package aura – keyring.go stores the completion API key in the operating
// system's native keyring (Linux: Secret Service, macOS: Keychain,
// Windows: Credential Manager). Environment variables take precedence;
// the keyring is the fallback for machines without managed env.
package aura

import (
	"github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name used in the OS keyring.
	keyringService = "lemegeton"

	// keyringAPIKey is the key name for the LLM API key.
	keyringAPIKey = "api_key"
)

// SetAPIKey saves the completion API key to the OS keyring.
func SetAPIKey(value string) error {
	return keyring.Set(keyringService, keyringAPIKey, value)
}

// GetAPIKey retrieves the completion API key from the OS keyring.
func GetAPIKey() (string, error) {
	return keyring.Get(keyringService, keyringAPIKey)
}

// DeleteAPIKey removes the completion API key from the OS keyring.
func DeleteAPIKey() error {
	return keyring.Delete(keyringService, keyringAPIKey)
}

// KeyringAvailable checks if the OS keyring is accessible by doing a
// write+delete cycle with a test key.
func KeyringAvailable() bool {
	const testKey = "__lemegeton_test__"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, testKey)
	return true
}
