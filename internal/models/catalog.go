package models

import (
	"slices"
	"strings"
)

// Default is the model used when none is configured.
const Default = "claude-sonnet-4-5"

// Family groups models of the same tier.
type Family string

const (
	FamilyOpus   Family = "opus"
	FamilySonnet Family = "sonnet"
	FamilyHaiku  Family = "haiku"
)

// Model describes one known model.
type Model struct {
	// ID is the Messages API model identifier.
	ID string
	// Family is the model tier.
	Family Family
	// Aliases are short names accepted in configuration.
	Aliases []string
	// MaxOutputTokens is the largest max_tokens the model accepts.
	MaxOutputTokens int
}

// Lookup finds a model by id, alias, or dated id
// ("claude-sonnet-4-5-20250929" matches "claude-sonnet-4-5").
func Lookup(name string) (Model, bool) {
	name = strings.TrimSpace(strings.ToLower(name))

	if i := slices.IndexFunc(known, func(m Model) bool { return m.ID == name }); i >= 0 {
		return known[i], true
	}

	if i := slices.IndexFunc(known, func(m Model) bool { return slices.Contains(m.Aliases, name) }); i >= 0 {
		return known[i], true
	}

	// Longest prefix wins so "claude-3-5-sonnet-x" never matches a shorter id.
	best := -1

	for i, m := range known {
		if strings.HasPrefix(name, m.ID+"-") && (best < 0 || len(m.ID) > len(known[best].ID)) {
			best = i
		}
	}

	if best >= 0 {
		return known[best], true
	}

	return Model{}, false
}

// Resolve returns the API id for name. Unknown names are passed through
// unchanged so new models work without a catalog update; empty means Default.
func Resolve(name string) string {
	if strings.TrimSpace(name) == "" {
		return Default
	}

	m, ok := Lookup(name)
	if !ok {
		return name
	}

	// A dated id is more specific than the catalog entry; keep it.
	if strings.HasPrefix(strings.ToLower(name), m.ID+"-") {
		return name
	}

	return m.ID
}

// OutputTokens clamps requested to the model's ceiling. Unknown models keep
// the requested value.
func OutputTokens(model string, requested int) int {
	m, ok := Lookup(model)
	if !ok || requested <= m.MaxOutputTokens {
		return requested
	}

	return m.MaxOutputTokens
}

// All returns a copy of the catalog.
func All() []Model {
	return slices.Clone(known)
}
