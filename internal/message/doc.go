// Package message provides the conversation data model: messages, their
// typed content segments, and the append-only conversation that owns them.
//
// Segments use the Anthropic Messages wire shape so a conversation can be
// sent to the model endpoint without translation.
package message
