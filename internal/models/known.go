package models

// known lists the catalog. Only the newest model of a family carries the
// family alias.
var known = []Model{
	{ID: "claude-opus-4-1", Family: FamilyOpus, Aliases: []string{"opus"}, MaxOutputTokens: 32_000},
	{ID: "claude-sonnet-4-5", Family: FamilySonnet, Aliases: []string{"sonnet"}, MaxOutputTokens: 64_000},
	{ID: "claude-haiku-4-5", Family: FamilyHaiku, Aliases: []string{"haiku"}, MaxOutputTokens: 64_000},
	{ID: "claude-opus-4-0", Family: FamilyOpus, Aliases: []string{"claude-opus-4"}, MaxOutputTokens: 32_000},
	{ID: "claude-sonnet-4-0", Family: FamilySonnet, Aliases: []string{"claude-sonnet-4"}, MaxOutputTokens: 64_000},
	{ID: "claude-3-7-sonnet", Family: FamilySonnet, Aliases: []string{"claude-3-7-sonnet-latest"}, MaxOutputTokens: 64_000},
	{ID: "claude-3-5-sonnet", Family: FamilySonnet, Aliases: []string{"claude-3-5-sonnet-latest"}, MaxOutputTokens: 8_192},
	{ID: "claude-3-5-haiku", Family: FamilyHaiku, Aliases: []string{"claude-3-5-haiku-latest"}, MaxOutputTokens: 8_192},
}
