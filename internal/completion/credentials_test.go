package completion

import (
	"strings"
	"testing"
)

type stubStore map[string]string

func (s stubStore) GetSetting(key, defaultVal string) string {
	if v, ok := s[key]; ok {
		return v
	}
	return defaultVal
}

func TestResolvePAT(t *testing.T) {
	t.Run("env var wins over store", func(t *testing.T) {
		t.Setenv(patEnvVar, "env-token")
		pat, err := ResolvePAT(stubStore{patSettingKey: "stored-token"})
		if err != nil {
			t.Fatalf("ResolvePAT error: %v", err)
		}
		if pat != "env-token" {
			t.Errorf("ResolvePAT = %q, want %q", pat, "env-token")
		}
	})

	t.Run("falls back to store", func(t *testing.T) {
		t.Setenv(patEnvVar, "")
		pat, err := ResolvePAT(stubStore{patSettingKey: "stored-token"})
		if err != nil {
			t.Fatalf("ResolvePAT error: %v", err)
		}
		if pat != "stored-token" {
			t.Errorf("ResolvePAT = %q, want %q", pat, "stored-token")
		}
	})

	t.Run("neither configured", func(t *testing.T) {
		t.Setenv(patEnvVar, "")
		_, err := ResolvePAT(stubStore{})
		if err == nil {
			t.Fatal("ResolvePAT expected error, got nil")
		}
		if !strings.Contains(err.Error(), patEnvVar) {
			t.Errorf("error should mention %s, got %q", patEnvVar, err.Error())
		}
	})

	t.Run("nil store", func(t *testing.T) {
		t.Setenv(patEnvVar, "")
		if _, err := ResolvePAT(nil); err == nil {
			t.Fatal("ResolvePAT(nil) expected error, got nil")
		}
	})
}
