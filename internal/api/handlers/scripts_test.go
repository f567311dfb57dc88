package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/caption-studio/backend/internal/db"
	"github.com/caption-studio/backend/internal/db/models"
	"github.com/caption-studio/backend/internal/job"
	"github.com/caption-studio/backend/internal/storage"
)

type scriptTestEnv struct {
	db     *db.Database
	queue  *job.JobQueue
	router *chi.Mux
}

func newScriptTestEnv(t *testing.T) *scriptTestEnv {
	t.Helper()

	database, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	queue := job.NewJobQueue(database.DB())
	t.Cleanup(queue.Stop)

	exporter, err := storage.NewExporter(t.TempDir())
	require.NoError(t, err)

	h := NewScriptHandler(database, queue, exporter)

	r := chi.NewRouter()
	r.Post("/scripts", h.CreateScript)
	r.Get("/scripts", h.ListScripts)
	r.Get("/scripts/{videoID}", h.GetScript)
	r.Delete("/scripts/{videoID}", h.DeleteScript)
	r.Post("/scripts/{videoID}/format", h.FormatScript)
	r.Post("/scripts/{videoID}/metadata", h.GenerateMetadata)
	r.Get("/scripts/{videoID}/export", h.ExportScript)
	r.Get("/exports", h.ListExports)
	r.Get("/exports/{name}", h.DownloadExport)

	return &scriptTestEnv{db: database, queue: queue, router: r}
}

func (e *scriptTestEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *scriptTestEnv) seedScript(t *testing.T, s *models.Script) {
	t.Helper()
	require.NoError(t, e.db.UpsertScript(s))
}

func TestCreateScriptEnqueuesPrepare(t *testing.T) {
	env := newScriptTestEnv(t)

	w := env.do(t, "POST", "/scripts", `{"url":"https://www.youtube.com/watch?v=a4sHHnlasPQ"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var j job.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &j))
	require.Equal(t, job.JobPrepare, j.Type)
	require.Equal(t, "a4sHHnlasPQ", j.VideoID, "video ID should be extracted from the URL before enqueueing")

	stored, err := env.queue.GetJob(j.ID)
	require.NoError(t, err)
	require.Equal(t, "a4sHHnlasPQ", stored.VideoID)

	var params job.PrepareParams
	require.NoError(t, json.Unmarshal(stored.Params, &params))
	require.Equal(t, "https://www.youtube.com/watch?v=a4sHHnlasPQ", params.URL, "the original URL travels in the params")
}

func TestCreateScriptRequiresURL(t *testing.T) {
	env := newScriptTestEnv(t)

	w := env.do(t, "POST", "/scripts", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "POST", "/scripts", `not json`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetScriptNotFound(t *testing.T) {
	env := newScriptTestEnv(t)

	w := env.do(t, "GET", "/scripts/missing", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListScriptsOmitsText(t *testing.T) {
	env := newScriptTestEnv(t)
	env.seedScript(t, &models.Script{
		ID: "u1", VideoID: "vid", SourceURL: "url", Transcript: "long text",
	})

	w := env.do(t, "GET", "/scripts", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list []models.Script
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "vid", list[0].VideoID)
	require.Empty(t, list[0].Transcript)
}

func TestFormatScriptValidation(t *testing.T) {
	env := newScriptTestEnv(t)

	// No prepared script yet.
	w := env.do(t, "POST", "/scripts/vid/format", `{"model":"GPT-4"}`)
	require.Equal(t, http.StatusNotFound, w.Code)

	env.seedScript(t, &models.Script{ID: "u1", VideoID: "vid", SourceURL: "url", Transcript: "text"})

	// Unknown model is rejected before enqueueing.
	w = env.do(t, "POST", "/scripts/vid/format", `{"model":"bard"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "POST", "/scripts/vid/format", `{"model":"GPT-4"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var j job.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &j))
	require.Equal(t, job.JobFormat, j.Type)
	require.Equal(t, "vid", j.VideoID)
}

func TestGenerateMetadataRequiresFormatted(t *testing.T) {
	env := newScriptTestEnv(t)
	env.seedScript(t, &models.Script{ID: "u1", VideoID: "vid", SourceURL: "url", Transcript: "text"})

	w := env.do(t, "POST", "/scripts/vid/metadata", `{}`)
	require.Equal(t, http.StatusConflict, w.Code)

	require.NoError(t, env.db.UpdateScriptFormatted("vid", "Formatted.", "GPT-4"))

	w = env.do(t, "POST", "/scripts/vid/metadata", `{}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var j job.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &j))
	require.Equal(t, job.JobMetadata, j.Type)
}

func TestExportScript(t *testing.T) {
	env := newScriptTestEnv(t)
	env.seedScript(t, &models.Script{ID: "u1", VideoID: "vid", SourceURL: "url", Transcript: "raw words"})
	require.NoError(t, env.db.UpdateScriptFormatted("vid", "Formatted text.", "GPT-4"))

	// Default kind is the formatted script.
	w := env.do(t, "GET", "/scripts/vid/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Formatted text.", w.Body.String())
	require.Contains(t, w.Header().Get("Content-Disposition"), "vid.formatted.txt")

	w = env.do(t, "GET", "/scripts/vid/export?kind=transcript", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "raw words", w.Body.String())

	// Metadata has not been generated.
	w = env.do(t, "GET", "/scripts/vid/export?kind=metadata", "")
	require.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, "GET", "/scripts/vid/export?kind=srt", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Exports are recorded on disk.
	w = env.do(t, "GET", "/exports", "")
	require.Equal(t, http.StatusOK, w.Code)
	var entries []storage.ExportEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
}

func TestDownloadExport(t *testing.T) {
	env := newScriptTestEnv(t)
	env.seedScript(t, &models.Script{ID: "u1", VideoID: "vid", SourceURL: "url", Transcript: "raw words"})

	w := env.do(t, "GET", "/scripts/vid/export?kind=transcript", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/exports/vid.transcript.txt", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "raw words", w.Body.String())
	require.Contains(t, w.Header().Get("Content-Disposition"), "vid.transcript.txt")

	w = env.do(t, "GET", "/exports/missing.transcript.txt", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteScript(t *testing.T) {
	env := newScriptTestEnv(t)
	env.seedScript(t, &models.Script{ID: "u1", VideoID: "vid", SourceURL: "url", Transcript: "text"})

	w := env.do(t, "DELETE", "/scripts/vid", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, "DELETE", "/scripts/vid", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}
