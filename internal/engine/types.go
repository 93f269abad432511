package engine

import (
	"context"

	"github.com/wagiedev/toolagent-go/internal/message"
)

// State is the engine's position in the turn-taking loop.
type State int32

const (
	// StateAwaitingUser means the engine waits for the next line of input.
	StateAwaitingUser State = iota
	// StateProcessingTurn means a user turn is being handled.
	StateProcessingTurn
)

func (s State) String() string {
	switch s {
	case StateAwaitingUser:
		return "awaiting_user"
	case StateProcessingTurn:
		return "processing_turn"
	default:
		return "unknown"
	}
}

// Request is one call to the model endpoint. Tools carry only the
// declarations the model may see.
type Request struct {
	System          string
	Messages        []message.Message
	Tools           []message.ToolSpec
	MaxOutputTokens int
}

// Response is one assistant turn.
type Response struct {
	// Content holds the text and tool use segments in emission order.
	Content []message.Segment
	// StopReason is reported by the endpoint, e.g. "end_turn" or "tool_use".
	StopReason string
}

// Endpoint produces assistant turns.
type Endpoint interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// InputReader yields user input one line at a time. Any error ends the
// session cleanly.
type InputReader interface {
	ReadLine(ctx context.Context) (string, error)
}

// ToolExecutor runs tool uses. dispatch.Dispatcher implements it.
type ToolExecutor interface {
	Specs() []message.ToolSpec
	Handle(ctx context.Context, use *message.ToolUseBlock) *message.ToolResultBlock
}

// Printer shows conversation output to the user.
type Printer interface {
	// Assistant prints one text segment of an assistant turn.
	Assistant(text string)
	// ToolUse reports that a tool is about to run.
	ToolUse(use *message.ToolUseBlock)
	// Notice prints a status or error line.
	Notice(text string)
}

// NopPrinter discards all output.
type NopPrinter struct{}

// Assistant implements Printer.
func (NopPrinter) Assistant(string) {}

// ToolUse implements Printer.
func (NopPrinter) ToolUse(*message.ToolUseBlock) {}

// Notice implements Printer.
func (NopPrinter) Notice(string) {}
