// Package engine implements the turn-taking loop between the user, the
// model endpoint and the tool dispatcher.
//
// The engine has two states. In StateAwaitingUser it reads one line of input;
// in StateProcessingTurn it calls the endpoint, prints text, executes every
// tool use and, when tools ran, calls the endpoint again with their results
// without asking the user. Tool results are appended in the order of the
// tool uses that requested them, even when tools run in parallel.
//
// The conversation only grows by whole, valid exchanges: a user message is
// committed together with the assistant reply it produced, and an assistant
// message with tool uses is committed together with their results. A failed
// endpoint call commits nothing.
//
//	AwaitingUser --line--> ProcessingTurn --no tool uses--> AwaitingUser
//	                          |      ^
//	                          +------+ tool uses (bounded by MaxToolTurns)
package engine
