package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/toolagent-go/internal/errors"
	"github.com/wagiedev/toolagent-go/internal/message"
)

const (
	// DefaultMaxToolTurns bounds consecutive tool-driven endpoint calls.
	DefaultMaxToolTurns = 25
	// DefaultMaxOutputTokens is used when Config.MaxOutputTokens is zero.
	DefaultMaxOutputTokens = 1024
)

// Config tunes an Engine.
type Config struct {
	// System is the system prompt. Empty sends none.
	System string
	// MaxOutputTokens caps each assistant turn.
	MaxOutputTokens int
	// MaxToolTurns caps endpoint calls made without new user input.
	// Zero means DefaultMaxToolTurns.
	MaxToolTurns int
	// Parallelism is the number of tool uses of one turn run at once.
	// Values below 2 run them sequentially.
	Parallelism int
}

// Engine drives one conversation session.
type Engine struct {
	log      *slog.Logger
	endpoint Endpoint
	tools    ToolExecutor
	printer  Printer
	cfg      Config

	sessionID string
	conv      *message.Conversation
	state     atomic.Int32
}

// New creates an engine in StateAwaitingUser with an empty conversation.
func New(log *slog.Logger, endpoint Endpoint, tools ToolExecutor, printer Printer, cfg Config) *Engine {
	if cfg.MaxToolTurns <= 0 {
		cfg.MaxToolTurns = DefaultMaxToolTurns
	}

	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}

	if printer == nil {
		printer = NopPrinter{}
	}

	sessionID := ulid.Make().String()

	return &Engine{
		log:       log.With("component", "engine", "session_id", sessionID),
		endpoint:  endpoint,
		tools:     tools,
		printer:   printer,
		cfg:       cfg,
		sessionID: sessionID,
		conv:      message.NewConversation(),
	}
}

// SessionID returns the unique id of this session.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// State returns the current state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Messages returns a copy of the committed conversation.
func (e *Engine) Messages() []message.Message {
	return e.conv.Messages()
}

// Run reads input until the reader fails, handling each non-blank line as a
// user turn. Input termination returns nil. An endpoint failure is reported
// to the user and ends the session with the error. Other turn errors, such as
// reaching the tool turn limit, are reported and the loop continues.
func (e *Engine) Run(ctx context.Context, in InputReader) error {
	e.log.Info("Session started")

	for {
		line, err := in.ReadLine(ctx)
		if err != nil {
			e.log.Info("Session ended", "reason", err, "messages", e.conv.Len())

			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		err = e.Submit(ctx, line)
		switch {
		case err == nil, stderrors.Is(err, errors.ErrToolTurnLimit):
			continue
		case ctx.Err() != nil:
			e.log.Info("Session cancelled", "messages", e.conv.Len())

			return nil
		}

		if _, ok := stderrors.AsType[*errors.EndpointError](err); ok {
			e.printer.Notice(fmt.Sprintf("Inference error: %v", err))

			return err
		}

		e.printer.Notice(err.Error())
	}
}

// Submit handles one user turn, chaining tool-driven endpoint calls until the
// model stops requesting tools.
//
// Errors:
//   - EndpointError when the endpoint fails; nothing from the failed call
//     is committed
//   - ErrToolTurnLimit when MaxToolTurns consecutive tool-driven calls were
//     made; the conversation ends with the last tool results
func (e *Engine) Submit(ctx context.Context, text string) error {
	if !e.state.CompareAndSwap(int32(StateAwaitingUser), int32(StateProcessingTurn)) {
		return stderrors.New("engine is already processing a turn")
	}
	defer e.state.Store(int32(StateAwaitingUser))

	pending := []message.Message{message.NewUserText(text)}
	specs := e.tools.Specs()

	for toolTurns := 0; ; toolTurns++ {
		log := e.log.With("tool_turn", toolTurns)

		resp, err := e.endpoint.Complete(ctx, &Request{
			System:          e.cfg.System,
			Messages:        e.conv.With(pending...),
			Tools:           specs,
			MaxOutputTokens: e.cfg.MaxOutputTokens,
		})
		if err != nil {
			log.Error("Endpoint call failed", "error", err)

			if _, ok := stderrors.AsType[*errors.EndpointError](err); ok {
				return err
			}

			return &errors.EndpointError{Err: err}
		}

		for _, text := range message.Texts(resp.Content) {
			e.printer.Assistant(text)
		}

		uses := message.ToolUses(resp.Content)
		log.Debug("Assistant turn received",
			"segments", len(resp.Content), "tool_uses", len(uses), "stop_reason", resp.StopReason)

		if len(resp.Content) > 0 {
			pending = append(pending, message.Message{Role: message.RoleAssistant, Content: resp.Content})
		}

		if len(uses) == 0 {
			return e.commit(pending...)
		}

		// None of a malformed turn's tools run.
		if err := e.conv.Validate(pending...); err != nil {
			return e.reject(err)
		}

		results := e.runTools(ctx, uses)
		pending = append(pending, message.NewToolResults(results))

		if err := e.commit(pending...); err != nil {
			return err
		}

		pending = nil

		if toolTurns+1 > e.cfg.MaxToolTurns {
			log.Warn("Tool turn limit reached", "max_tool_turns", e.cfg.MaxToolTurns)
			e.printer.Notice(fmt.Sprintf("Stopped after %d consecutive tool turns", e.cfg.MaxToolTurns))

			return errors.ErrToolTurnLimit
		}
	}
}

func (e *Engine) commit(msgs ...message.Message) error {
	if err := e.conv.Commit(msgs...); err != nil {
		return e.reject(err)
	}

	return nil
}

func (e *Engine) reject(err error) error {
	e.log.Error("Rejected malformed assistant turn", "error", err)

	return fmt.Errorf("commit turn: %w", err)
}

// runTools executes tool uses and returns their results in the same order.
func (e *Engine) runTools(ctx context.Context, uses []*message.ToolUseBlock) []*message.ToolResultBlock {
	results := make([]*message.ToolResultBlock, len(uses))

	for _, use := range uses {
		e.printer.ToolUse(use)
	}

	if e.cfg.Parallelism < 2 || len(uses) == 1 {
		for i, use := range uses {
			results[i] = e.tools.Handle(ctx, use)
		}

		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Parallelism)

	for i, use := range uses {
		g.Go(func() error {
			results[i] = e.tools.Handle(gctx, use)

			return nil
		})
	}

	_ = g.Wait()

	return results
}
