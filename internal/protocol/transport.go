package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/wagiedev/toolagent-go/internal/errors"
	"github.com/wagiedev/toolagent-go/internal/subprocess"
)

// Launcher starts the process for one call. subprocess.Start is the default.
type Launcher func(ctx context.Context, log *slog.Logger, spec subprocess.Spec) (*subprocess.Process, error)

// StateObserver is notified of every state transition of every call.
type StateObserver func(id int64, state State)

// Option configures a Transport.
type Option func(*Transport)

// WithHandshake makes every call perform the MCP initialize handshake, using
// params as the initialize request params, before sending the real request.
func WithHandshake(params any) Option {
	return func(t *Transport) {
		t.handshake = true
		t.initParams = params
	}
}

// WithLauncher replaces the process launcher.
func WithLauncher(launch Launcher) Option {
	return func(t *Transport) {
		t.launch = launch
	}
}

// WithStateObserver registers a callback for state transitions.
func WithStateObserver(observer StateObserver) Option {
	return func(t *Transport) {
		t.observer = observer
	}
}

// Transport performs JSON-RPC calls against one service launch spec.
//
// Transport is safe for concurrent use; every call owns its own process.
type Transport struct {
	log        *slog.Logger
	spec       subprocess.Spec
	launch     Launcher
	observer   StateObserver
	handshake  bool
	initParams any
	nextID     atomic.Int64

	mu    sync.Mutex
	state State
}

// NewTransport creates a transport for the given service spec. No process is
// started until Call.
func NewTransport(log *slog.Logger, spec subprocess.Spec, opts ...Option) *Transport {
	t := &Transport{
		log:    log.With("component", "rpc_transport", "service", spec.Name),
		spec:   spec,
		launch: subprocess.Start,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Spec returns the launch spec this transport is bound to.
func (t *Transport) Spec() subprocess.Spec {
	return t.spec
}

// State returns the most recent state transition of any call.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

func (t *Transport) setState(id int64, s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()

	if t.observer != nil {
		t.observer(id, s)
	}
}

// Call launches the service, sends one request and returns its result.
//
// The child process is killed and reaped before Call returns on every path.
// A timeout of zero means the call is bounded only by ctx.
//
// Errors:
//   - ServiceUnavailableError when the process cannot be launched
//   - RPCTimeoutError (errors.Is ErrTimeout) when no response arrives in time
//   - *RPCError when the service answers with an error object
//   - RPCProtocolError when the reply is JSON but not an object, or its id
//     is missing or does not match
//
// A non-JSON reply line is returned verbatim as a JSON string, and a service
// that exits without output yields CompletedSentinel. Both rules also apply
// to the first line read during the handshake.
func (t *Transport) Call(ctx context.Context, method string, params any, timeout time.Duration) (json.RawMessage, error) {
	// The handshake request, when enabled, takes the lower id so ids
	// increase in the order requests are written.
	var initID int64
	if t.handshake {
		initID = t.nextID.Add(1)
	}

	id := t.nextID.Add(1)
	log := t.log.With("method", method, "request_id", id)

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.setState(id, StateLaunching)

	proc, err := t.launch(ctx, t.log, t.spec)
	if err != nil {
		log.Warn("Failed to launch service", "error", err)
		t.setState(id, StateErrored)

		return nil, err
	}

	defer func() {
		if closeErr := proc.Close(); closeErr != nil {
			log.Warn("Failed to terminate service process", "error", closeErr)
		}
	}()

	lines := readLines(proc)
	defer lines.stop()

	if t.handshake {
		result, responded, err := t.initialize(ctx, initID, proc, lines, log)
		if err != nil {
			return nil, t.fail(id, method, timeout, err)
		}

		// The service printed something other than a response, or nothing,
		// and exited. That output is the answer to the call.
		if !responded {
			log.Debug("Service answered without completing the handshake")
			t.setState(id, StateDelivered)

			return result, nil
		}
	}

	data, err := json.Marshal(NewRequest(id, method, params))
	if err != nil {
		t.setState(id, StateErrored)

		return nil, fmt.Errorf("marshal request: %w", err)
	}

	if err := send(proc, data, "write request"); err != nil {
		if !stderrors.Is(err, errServiceExited) {
			return nil, t.fail(id, method, timeout, err)
		}

		log.Debug("Service exited before reading the request")
	}

	// One request per process: closing stdin lets well-behaved servers exit
	// after replying.
	_ = proc.CloseInput()

	t.setState(id, StateAwaitingResponse)
	log.Debug("Request sent", "bytes", len(data))

	result, _, err := t.await(ctx, lines, id, log)
	if err != nil {
		if stderr := proc.Stderr(); stderr != "" {
			log.Debug("Service stderr at failure", "stderr", stderr)
		}

		return nil, t.fail(id, method, timeout, err)
	}

	t.setState(id, StateDelivered)
	log.Debug("Response delivered", "bytes", len(result))

	return result, nil
}

// errServiceExited reports a write to a service that has already exited.
var errServiceExited = stderrors.New("service exited")

// send writes one line to the service.
func send(proc *subprocess.Process, data []byte, reason string) error {
	if err := proc.WriteLine(data); err != nil {
		if stderrors.Is(err, syscall.EPIPE) {
			return errServiceExited
		}

		return &errors.RPCProtocolError{Reason: reason, Err: err}
	}

	return nil
}

// initialize performs the MCP handshake on an already launched process.
//
// responded is false when the service answered with a non-JSON line or
// exited without output; result then holds what Call should return.
func (t *Transport) initialize(
	ctx context.Context,
	initID int64,
	proc *subprocess.Process,
	lines *lineReader,
	log *slog.Logger,
) (result json.RawMessage, responded bool, err error) {
	data, err := json.Marshal(NewRequest(initID, "initialize", t.initParams))
	if err != nil {
		return nil, false, fmt.Errorf("marshal initialize: %w", err)
	}

	if err := send(proc, data, "write initialize"); err != nil && !stderrors.Is(err, errServiceExited) {
		return nil, false, err
	}

	result, responded, err = t.await(ctx, lines, initID, log)
	if err != nil {
		return nil, false, fmt.Errorf("initialize: %w", err)
	}

	if !responded {
		return result, false, nil
	}

	notif, err := json.Marshal(NewNotification("notifications/initialized", nil))
	if err != nil {
		return nil, false, fmt.Errorf("marshal initialized notification: %w", err)
	}

	// An exit here surfaces when the request is written.
	if err := send(proc, notif, "write initialized notification"); err != nil && !stderrors.Is(err, errServiceExited) {
		return nil, false, err
	}

	log.Debug("Handshake complete")

	return nil, true, nil
}

// await reads stdout lines until the response for id arrives. responded
// reports whether a JSON-RPC response was read, as opposed to a verbatim
// line or the sentinel for a service that exited silently.
func (t *Transport) await(ctx context.Context, lines *lineReader, id int64, log *slog.Logger) (json.RawMessage, bool, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()

		case res, ok := <-lines.ch:
			if !ok || (res.err != nil && stderrors.Is(res.err, io.EOF)) {
				log.Debug("Service exited without a response")

				return sentinelResult(), false, nil
			}

			if res.err != nil {
				return nil, false, &errors.RPCProtocolError{Reason: "read response", Err: res.err}
			}

			result, kind, err := interpret(res.line, id, log)
			if err != nil {
				return nil, false, err
			}

			if kind != lineSkipped {
				return result, kind == lineResponse, nil
			}
		}
	}
}

// lineKind classifies one stdout line.
type lineKind int

const (
	lineSkipped lineKind = iota
	lineResponse
	lineVerbatim
)

// interpret classifies one stdout line against request id. Blank lines and
// notifications are skipped. A line that is not JSON is returned verbatim.
// Any other JSON value must be a response object for id.
func interpret(line []byte, id int64, log *slog.Logger) (json.RawMessage, lineKind, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, lineSkipped, nil
	}

	if !json.Valid(trimmed) {
		log.Debug("Non-JSON response line returned verbatim", "line", string(trimmed))

		return verbatimResult(trimmed), lineVerbatim, nil
	}

	resp, err := ParseResponse(trimmed)
	if err != nil {
		return nil, lineResponse, &errors.RPCProtocolError{
			Reason:  "response is not a JSON object",
			RawData: string(trimmed),
			Err:     err,
		}
	}

	if isNull(resp.ID) {
		if resp.Method != "" {
			log.Debug("Skipping notification", "notification", resp.Method)

			return nil, lineSkipped, nil
		}

		return nil, lineResponse, &errors.RPCProtocolError{Reason: "response without id", RawData: string(trimmed)}
	}

	var got int64
	if err := json.Unmarshal(resp.ID, &got); err != nil || got != id {
		return nil, lineResponse, &errors.RPCProtocolError{
			Reason:  fmt.Sprintf("response id %s does not match request id %d", resp.ID, id),
			RawData: string(trimmed),
		}
	}

	if resp.Error != nil {
		return nil, lineResponse, resp.Error
	}

	if isNull(resp.Result) {
		return sentinelResult(), lineResponse, nil
	}

	return resp.Result, lineResponse, nil
}

// fail records the terminal state for err and maps context expiry to
// RPCTimeoutError.
func (t *Transport) fail(id int64, method string, timeout time.Duration, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		t.setState(id, StateTimedOut)
		t.log.Warn("RPC call timed out", "method", method, "request_id", id, "timeout", timeout)

		return &errors.RPCTimeoutError{Method: method, Timeout: timeout.String()}
	}

	t.setState(id, StateErrored)

	return err
}

type lineResult struct {
	line []byte
	err  error
}

// lineReader pumps stdout lines from a process into a channel so reads can
// be abandoned on timeout. The pump exits when the process is closed.
type lineReader struct {
	ch   chan lineResult
	done chan struct{}
	once sync.Once
}

func readLines(proc *subprocess.Process) *lineReader {
	r := &lineReader{
		ch:   make(chan lineResult),
		done: make(chan struct{}),
	}

	go func() {
		defer close(r.ch)

		for {
			line, err := proc.ReadLine()

			select {
			case r.ch <- lineResult{line: line, err: err}:
			case <-r.done:
				return
			}

			if err != nil {
				return
			}
		}
	}()

	return r
}

func (r *lineReader) stop() {
	r.once.Do(func() { close(r.done) })
}
