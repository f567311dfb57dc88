package completion

import (
	"fmt"
	"strings"
)

// ModelSelection identifies a hosted model: the provider account scope, the
// application scope, and the model/version pair within it.
type ModelSelection struct {
	Name      string `json:"name"`
	UserID    string `json:"user_id"`
	AppID     string `json:"app_id"`
	ModelID   string `json:"model_id"`
	VersionID string `json:"version_id"`
}

// catalog is the fixed set of models the pipeline can run against. Version
// IDs pin each model so provider-side updates cannot change behavior
// underneath a saved script.
var catalog = []ModelSelection{
	{Name: "Llama2-7b-chat", UserID: "meta", AppID: "Llama-2", ModelID: "Llama2-7b-chat", VersionID: "e52af5d6bc22445aa7a6761f327f7129"},
	{Name: "Llama2-13b-chat", UserID: "meta", AppID: "Llama-2", ModelID: "llama2-13b-chat", VersionID: "79a1af31aa8249a99602fc05687e8f40"},
	{Name: "Llama2-70b-chat", UserID: "meta", AppID: "Llama-2", ModelID: "llama2-70b-chat", VersionID: "6c27e86364ba461d98de95cddc559cb3"},
	{Name: "GPT-3", UserID: "openai", AppID: "chat-completion", ModelID: "GPT-3_5-turbo", VersionID: "8ea3880d08a74dc0b39500b99dfaa376"},
	{Name: "GPT-4", UserID: "openai", AppID: "chat-completion", ModelID: "GPT-4", VersionID: "ad16eda6ac054796bf9f348ab6733c72"},
}

// DefaultModel is used when a request does not name one.
const DefaultModel = "Llama2-7b-chat"

// Catalog returns the available models in presentation order. The returned
// slice is a copy; callers cannot reorder or rewrite the catalog.
func Catalog() []ModelSelection {
	out := make([]ModelSelection, len(catalog))
	copy(out, catalog)
	return out
}

// Names lists the catalog display names in order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, m := range catalog {
		names[i] = m.Name
	}
	return names
}

// Lookup resolves a display name against the catalog.
func Lookup(name string) (ModelSelection, error) {
	for _, m := range catalog {
		if m.Name == name {
			return m, nil
		}
	}
	return ModelSelection{}, fmt.Errorf("unknown model %q (available: %s)", name, strings.Join(Names(), ", "))
}
