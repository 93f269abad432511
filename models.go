package toolagent

import "github.com/wagiedev/toolagent-go/internal/models"

// Re-export model types from internal/models.

// Model holds metadata for a single Claude model.
type Model = models.Model

// ModelFamily groups models of the same tier.
type ModelFamily = models.Family

// Model family constants.
const (
	ModelFamilyOpus   = models.FamilyOpus
	ModelFamilySonnet = models.FamilySonnet
	ModelFamilyHaiku  = models.FamilyHaiku
)

// DefaultModel is used when no model is configured.
const DefaultModel = models.Default

// Models returns a copy of all known Claude models.
func Models() []Model {
	return models.All()
}

// ModelByID looks up a model by ID, alias, or dated prefix.
// Returns nil if no model is found.
func ModelByID(id string) *Model {
	m, ok := models.Lookup(id)
	if !ok {
		return nil
	}

	return &m
}

// ResolveModel maps an alias to its model id. Unknown names are returned
// unchanged and the empty name resolves to DefaultModel.
func ResolveModel(name string) string {
	return models.Resolve(name)
}
