package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caption-studio/backend/internal/completion"
	"github.com/caption-studio/backend/internal/db"
)

func settingsTestDB(t *testing.T) *db.Database {
	t.Helper()
	database, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func getSettings(t *testing.T, h *SettingsHandler) []map[string]interface{} {
	t.Helper()
	w := httptest.NewRecorder()
	h.GetSettings(w, httptest.NewRequest("GET", "/settings", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var result []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

func settingByKey(t *testing.T, settings []map[string]interface{}, key string) map[string]interface{} {
	t.Helper()
	for _, s := range settings {
		if s["key"] == key {
			return s
		}
	}
	t.Fatalf("setting %q not in response", key)
	return nil
}

func TestGetSettingsMasksSecrets(t *testing.T) {
	database := settingsTestDB(t)
	require.NoError(t, database.SetSetting("clarifai_pat", "pat_abcdef1234"))
	require.NoError(t, database.SetSetting("default_model", "GPT-4"))

	h := NewSettingsHandler(database)
	settings := getSettings(t, h)

	pat := settingByKey(t, settings, "clarifai_pat")
	require.Equal(t, true, pat["has_value"])
	require.Equal(t, "••••••••1234", pat["value"], "secrets show only the last 4 chars")

	model := settingByKey(t, settings, "default_model")
	require.Equal(t, "GPT-4", model["value"], "non-secret values pass through")
}

func TestUpdateSettingsSkipsMaskedValues(t *testing.T) {
	database := settingsTestDB(t)
	require.NoError(t, database.SetSetting("clarifai_pat", "pat_original"))

	h := NewSettingsHandler(database)

	// Echoing the masked value back must not clobber the stored secret.
	w := httptest.NewRecorder()
	h.UpdateSettings(w, httptest.NewRequest("PUT", "/settings", strings.NewReader(`{"clarifai_pat":"••••••••inal"}`)))
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "pat_original", database.GetSetting("clarifai_pat", ""))

	// A real new value replaces it.
	w = httptest.NewRecorder()
	h.UpdateSettings(w, httptest.NewRequest("PUT", "/settings", strings.NewReader(`{"clarifai_pat":"pat_replaced"}`)))
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "pat_replaced", database.GetSetting("clarifai_pat", ""))

	// An explicit empty string clears it.
	w = httptest.NewRecorder()
	h.UpdateSettings(w, httptest.NewRequest("PUT", "/settings", strings.NewReader(`{"clarifai_pat":""}`)))
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "", database.GetSetting("clarifai_pat", "unset"))
}

func TestUpdateSettingsIgnoresUnknownKeys(t *testing.T) {
	database := settingsTestDB(t)
	h := NewSettingsHandler(database)

	w := httptest.NewRecorder()
	h.UpdateSettings(w, httptest.NewRequest("PUT", "/settings", strings.NewReader(`{"export_format":"srt"}`)))
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "", database.GetSetting("export_format", ""))
}

func TestListModelsDefaultFollowsSetting(t *testing.T) {
	database := settingsTestDB(t)
	h := NewModelsHandler(database)

	list := func() []ModelInfo {
		w := httptest.NewRecorder()
		h.ListModels(w, httptest.NewRequest("GET", "/models", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var models []ModelInfo
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &models))
		return models
	}

	models := list()
	require.Len(t, models, 5)
	for _, m := range models {
		require.Equal(t, m.Name == completion.DefaultModel, m.Default)
	}

	require.NoError(t, database.SetSetting("default_model", "GPT-3"))
	for _, m := range list() {
		require.Equal(t, m.Name == "GPT-3", m.Default)
	}

	// An unknown configured default falls back to the catalog default.
	require.NoError(t, database.SetSetting("default_model", "bard"))
	for _, m := range list() {
		require.Equal(t, m.Name == completion.DefaultModel, m.Default)
	}
}
