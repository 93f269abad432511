package mcptest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/wagiedev/toolagent-go/internal/subprocess"
)

const (
	modeEnv   = "TOOLAGENT_MCPTEST_MODE"
	launchEnv = "TOOLAGENT_MCPTEST_LAUNCH_LOG"
)

// Mode selects how the fake service replies.
type Mode string

const (
	// ModeServer answers initialize, tools/list and tools/call correctly.
	ModeServer Mode = "server"
	// ModeError answers every request with a JSON-RPC error object.
	ModeError Mode = "error"
	// ModeStringError answers every request with an error member that is a
	// bare string instead of an error object.
	ModeStringError Mode = "string-error"
	// ModeMissingID answers without an id field.
	ModeMissingID Mode = "missing-id"
	// ModeWrongID answers with an id that does not match the request.
	ModeWrongID Mode = "wrong-id"
	// ModePlainText prints a non-JSON line.
	ModePlainText Mode = "plain-text"
	// ModeSilent exits without writing anything.
	ModeSilent Mode = "silent"
	// ModeHang never answers.
	ModeHang Mode = "hang"
	// ModeNotifyFirst emits a notification before answering like ModeServer.
	ModeNotifyFirst Mode = "notify-first"
)

// PlainTextOutput is the line printed in ModePlainText.
const PlainTextOutput = "plain text from a non-conforming server"

// ErrorMessage is the error message returned in ModeError.
const ErrorMessage = "operation exploded"

// Main runs the fake service and exits when the process was started by
// Spec. It returns immediately otherwise. Call it first in TestMain.
func Main() {
	mode := os.Getenv(modeEnv)
	if mode == "" {
		return
	}

	if path := os.Getenv(launchEnv); path != "" {
		recordLaunch(path)
	}

	serve(Mode(mode))
	os.Exit(0)
}

// Spec returns a launch spec that re-executes the test binary as a fake
// service in the given mode.
func Spec(t *testing.T, name string, mode Mode) subprocess.Spec {
	t.Helper()

	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("resolve test executable: %v", err)
	}

	return subprocess.Spec{
		Name: name,
		Argv: []string{exe, "-test.run=^$"},
		Env:  map[string]string{modeEnv: string(mode)},
	}
}

// CountingSpec is like Spec but every launch appends a line to a file in
// t.TempDir(). The returned function reports the number of launches so far.
func CountingSpec(t *testing.T, name string, mode Mode) (subprocess.Spec, func() int) {
	t.Helper()

	spec := Spec(t, name, mode)
	path := t.TempDir() + "/launches"
	spec.Env[launchEnv] = path

	return spec, func() int {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0
		}

		return strings.Count(string(data), "\n")
	}
}

func recordLaunch(path string) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = fmt.Fprintln(f, os.Getpid())
}

type request struct {
	ID     *int64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

func serve(mode Mode) {
	switch mode {
	case ModeSilent:
		return
	case ModeHang:
		time.Sleep(time.Minute)

		return
	case ModePlainText:
		fmt.Println(PlainTextOutput)

		return
	}

	initialized := false
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		var req request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}

		if req.ID == nil {
			if req.Method == "notifications/initialized" {
				initialized = true
			}

			continue
		}

		switch mode {
		case ModeError:
			write(map[string]any{
				"jsonrpc": "2.0",
				"id":      *req.ID,
				"error":   map[string]any{"code": -32000, "message": ErrorMessage},
			})
		case ModeStringError:
			write(map[string]any{"jsonrpc": "2.0", "id": *req.ID, "error": ErrorMessage})
		case ModeMissingID:
			write(map[string]any{"jsonrpc": "2.0", "result": map[string]any{}})
		case ModeWrongID:
			write(map[string]any{"jsonrpc": "2.0", "id": *req.ID + 100, "result": map[string]any{}})
		case ModeNotifyFirst:
			write(map[string]any{
				"jsonrpc": "2.0",
				"method":  "notifications/message",
				"params":  map[string]any{"level": "info", "data": "starting"},
			})
			write(map[string]any{"jsonrpc": "2.0", "id": *req.ID, "result": reply(req, initialized)})
		default:
			write(map[string]any{"jsonrpc": "2.0", "id": *req.ID, "result": reply(req, initialized)})
		}
	}
}

func reply(req request, initialized bool) any {
	switch req.Method {
	case "initialize":
		return map[string]any{
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": "mcptest", "version": "0.0.1"},
		}
	case "tools/list":
		return map[string]any{"tools": Tools()}
	case "tools/call":
		var params struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		}

		_ = json.Unmarshal(req.Params, &params)

		return callResult(params.Name, params.Arguments, initialized)
	case "ping":
		return nil
	default:
		return map[string]any{}
	}
}

// Tools is the catalog advertised by ModeServer.
func Tools() []map[string]any {
	return []map[string]any{
		{
			"name":        "foo",
			"description": "Return ok",
			"inputSchema": map[string]any{
				"type":       "object",
				"properties": map[string]any{"a": map[string]any{"type": "integer"}},
			},
		},
		{
			"name":        "read_text",
			"description": "Read a text file",
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{"type": "string", "description": "File to read"},
				},
				"required": []string{"path"},
			},
		},
		{
			"name":        "fail",
			"description": "Always reports a tool error",
		},
	}
}

func callResult(name string, args map[string]any, initialized bool) any {
	switch name {
	case "foo":
		// Deliberately minimal content item, as some servers omit "type".
		return map[string]any{"content": []map[string]any{{"text": "ok"}}}
	case "fail":
		return map[string]any{
			"content": []map[string]any{{"type": "text", "text": "it broke"}},
			"isError": true,
		}
	case "whoami":
		return map[string]any{
			"content": []map[string]any{{"type": "text", "text": fmt.Sprintf("initialized=%t", initialized)}},
		}
	default:
		encoded, _ := json.Marshal(args)

		return map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": name},
				{"type": "text", "text": string(encoded)},
			},
		}
	}
}

func write(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}

	_, _ = os.Stdout.Write(append(data, '\n'))
}
