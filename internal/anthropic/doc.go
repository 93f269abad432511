// Package anthropic is the model endpoint: a client for the Anthropic
// Messages API that turns an engine.Request into one assistant turn.
package anthropic
