package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/caption-studio/backend/internal/completion"
	"github.com/caption-studio/backend/internal/db"
	"github.com/caption-studio/backend/internal/job"
	"github.com/caption-studio/backend/internal/storage"
	"github.com/caption-studio/backend/internal/video"
)

type ScriptHandler struct {
	db       *db.Database
	queue    *job.JobQueue
	exporter *storage.Exporter
}

func NewScriptHandler(database *db.Database, queue *job.JobQueue, exporter *storage.Exporter) *ScriptHandler {
	return &ScriptHandler{db: database, queue: queue, exporter: exporter}
}

// CreateScript enqueues a caption fetch for a watch URL or bare video ID.
// The response is the queued job; poll it for completion.
func (h *ScriptHandler) CreateScript(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		jsonError(w, "url is required", http.StatusBadRequest)
		return
	}

	videoID := video.ExtractID(req.URL)

	j, err := h.queue.Enqueue(job.JobPrepare, videoID, job.PrepareParams{URL: req.URL})
	if err != nil {
		jsonError(w, "failed to enqueue job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponse(w, j, http.StatusAccepted)
}

// ListScripts returns all scripts without their text columns.
func (h *ScriptHandler) ListScripts(w http.ResponseWriter, r *http.Request) {
	scripts, err := h.db.ListScripts()
	if err != nil {
		jsonError(w, "failed to list scripts: "+err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, scripts, http.StatusOK)
}

// GetScript returns one script with its transcript, formatted text and metadata.
func (h *ScriptHandler) GetScript(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	script, err := h.db.GetScript(videoID)
	if err != nil {
		jsonError(w, "script not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, script, http.StatusOK)
}

// DeleteScript removes a script and its pipeline results.
func (h *ScriptHandler) DeleteScript(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	if err := h.db.DeleteScript(videoID); err != nil {
		if err == sql.ErrNoRows {
			jsonError(w, "script not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to delete script: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// FormatScript enqueues punctuation repair for a prepared script.
func (h *ScriptHandler) FormatScript(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	var req struct {
		Model string `json:"model"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	if _, err := h.db.GetScript(videoID); err != nil {
		jsonError(w, "script not found, prepare it first", http.StatusNotFound)
		return
	}
	if req.Model != "" {
		if _, err := completion.Lookup(req.Model); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	j, err := h.queue.Enqueue(job.JobFormat, videoID, job.FormatParams{Model: req.Model})
	if err != nil {
		jsonError(w, "failed to enqueue job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponse(w, j, http.StatusAccepted)
}

// GenerateMetadata enqueues title/description generation for a formatted script.
func (h *ScriptHandler) GenerateMetadata(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	var req struct {
		Model string `json:"model"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	script, err := h.db.GetScript(videoID)
	if err != nil {
		jsonError(w, "script not found, prepare it first", http.StatusNotFound)
		return
	}
	if script.Formatted == "" {
		jsonError(w, "script has not been formatted yet", http.StatusConflict)
		return
	}
	if req.Model != "" {
		if _, err := completion.Lookup(req.Model); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	j, err := h.queue.Enqueue(job.JobMetadata, videoID, job.MetadataParams{Model: req.Model})
	if err != nil {
		jsonError(w, "failed to enqueue job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponse(w, j, http.StatusAccepted)
}

// ExportScript writes one pipeline result to the export directory and serves
// it as a plain text download. The kind query parameter selects the stage,
// defaulting to the formatted script.
func (h *ScriptHandler) ExportScript(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = "formatted"
	}

	script, err := h.db.GetScript(videoID)
	if err != nil {
		jsonError(w, "script not found", http.StatusNotFound)
		return
	}

	var content string
	switch kind {
	case "transcript":
		content = script.Transcript
	case "formatted":
		content = script.Formatted
	case "metadata":
		content = script.Metadata
	default:
		jsonError(w, fmt.Sprintf("unknown export kind %q (valid: %s)", kind, strings.Join(storage.ExportKinds(), ", ")), http.StatusBadRequest)
		return
	}
	if content == "" {
		jsonError(w, fmt.Sprintf("script has no %s yet", kind), http.StatusConflict)
		return
	}

	name, err := h.exporter.Save(videoID, kind, content)
	if err != nil {
		jsonError(w, "failed to export: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write([]byte(content))
}

// ListExports returns the saved export files.
func (h *ScriptHandler) ListExports(w http.ResponseWriter, r *http.Request) {
	entries, err := h.exporter.List()
	if err != nil {
		jsonError(w, "failed to list exports: "+err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, entries, http.StatusOK)
}

// DownloadExport serves a previously saved export file by name.
func (h *ScriptHandler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		jsonError(w, "invalid export name", http.StatusBadRequest)
		return
	}

	content, err := h.exporter.Read(name)
	if err != nil {
		if os.IsNotExist(err) {
			jsonError(w, "export not found", http.StatusNotFound)
			return
		}
		if os.IsPermission(err) {
			jsonError(w, "invalid export name", http.StatusBadRequest)
			return
		}
		jsonError(w, "failed to read export: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write([]byte(content))
}
