package completion

import (
	"fmt"
	"os"
)

// patEnvVar is checked first for the provider token.
const patEnvVar = "CLARIFAI_PAT"

// patSettingKey is the fallback key in the settings store.
const patSettingKey = "clarifai_pat"

// SecretStore is the fallback source for the provider token when the
// environment variable is unset. The settings table satisfies this.
type SecretStore interface {
	GetSetting(key, defaultVal string) string
}

// ResolvePAT returns the personal access token for the completion provider.
// The environment variable wins; the secret store is the fallback. Both
// sources are consulted on every call so a token saved through the settings
// API takes effect without a restart.
func ResolvePAT(store SecretStore) (string, error) {
	if pat := os.Getenv(patEnvVar); pat != "" {
		return pat, nil
	}
	if store != nil {
		if pat := store.GetSetting(patSettingKey, ""); pat != "" {
			return pat, nil
		}
	}
	return "", fmt.Errorf("no personal access token configured: set the %s environment variable or save %q in settings", patEnvVar, patSettingKey)
}
