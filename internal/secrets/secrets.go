// Package secrets resolves API credentials from the environment, the config
// file or the OS keychain, in that order.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups jobscout's entries in the OS keychain.
const KeyringService = "jobscout"

// ErrUnknownName is returned for a secret name jobscout does not use.
var ErrUnknownName = errors.New("unknown secret name")

// envVars maps each secret name to the environment variable that overrides it.
var envVars = map[string]string{
	"adzuna_app_id":    "ADZUNA_APP_ID",
	"adzuna_app_key":   "ADZUNA_APP_KEY",
	"webshare_api_key": "WEBSHARE_API_KEY",
}

// Names lists the secret names accepted by Set, Delete and Lookup.
func Names() []string {
	names := make([]string, 0, len(envVars))
	for n := range envVars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the first non-empty value among the environment variable
// for name, configured, and the keychain entry. A missing keychain entry is
// not an error; an empty string means the secret is unset everywhere.
func Lookup(name, configured string) (string, error) {
	env, ok := envVars[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(configured); v != "" {
		return v, nil
	}

	v, err := keyring.Get(KeyringService, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s from keychain: %w", name, err)
	}
	return strings.TrimSpace(v), nil
}

// Set stores value in the keychain under name.
func Set(name, value string) error {
	if _, ok := envVars[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	if err := keyring.Set(KeyringService, name, value); err != nil {
		return fmt.Errorf("write %s to keychain: %w", name, err)
	}
	return nil
}

// Delete removes name from the keychain. Deleting an absent entry is not an error.
func Delete(name string) error {
	if _, ok := envVars[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	err := keyring.Delete(KeyringService, name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete %s from keychain: %w", name, err)
	}
	return nil
}
