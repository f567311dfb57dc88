package handlers

import (
	"net/http"

	"github.com/caption-studio/backend/internal/completion"
	"github.com/caption-studio/backend/internal/db"
)

// ModelInfo is the frontend-friendly model entry
type ModelInfo struct {
	Name     string `json:"name"`     // catalog name, e.g. "GPT-4"
	Provider string `json:"provider"` // hosting account, e.g. "openai"
	Default  bool   `json:"default"`
}

type ModelsHandler struct {
	database *db.Database
}

func NewModelsHandler(database *db.Database) *ModelsHandler {
	return &ModelsHandler{database: database}
}

// ListModels returns the completion model catalog. The default flag follows
// the default_model setting, falling back to the catalog default when the
// setting is absent or names an unknown model.
func (h *ModelsHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	def := h.database.GetSetting("default_model", completion.DefaultModel)
	if _, err := completion.Lookup(def); err != nil {
		def = completion.DefaultModel
	}

	models := make([]ModelInfo, 0, len(completion.Catalog()))
	for _, m := range completion.Catalog() {
		models = append(models, ModelInfo{
			Name:     m.Name,
			Provider: m.UserID,
			Default:  m.Name == def,
		})
	}

	jsonResponse(w, models, http.StatusOK)
}
