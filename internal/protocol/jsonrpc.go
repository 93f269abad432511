package protocol

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// jsonrpcVersion is the JSON-RPC protocol version used by MCP.
const jsonrpcVersion = "2.0"

// CompletedSentinel is returned as the result of a call whose service
// produced no output at all.
const CompletedSentinel = "Operation completed successfully"

// Request is a JSON-RPC 2.0 request message.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// NewRequest creates a JSON-RPC 2.0 request.
func NewRequest(id int64, method string, params any) *Request {
	return &Request{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Method:  method,
		Params:  params,
	}
}

// Notification is a JSON-RPC 2.0 notification (no id, no response expected).
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// NewNotification creates a JSON-RPC 2.0 notification.
func NewNotification(method string, params any) *Notification {
	return &Notification{
		JSONRPC: jsonrpcVersion,
		Method:  method,
		Params:  params,
	}
}

// Response is one JSON object read from a service. Members are decoded
// loosely so that malformed replies can still be classified: ID is the raw
// id member (nil when absent) and Error is set whenever an error member is
// present and not null, whatever its shape.
type Response struct {
	ID     json.RawMessage
	Method string
	Result json.RawMessage
	Error  *RPCError
}

// ParseResponse decodes a JSON object into a Response. Any other JSON value
// is an error.
func ParseResponse(data []byte) (*Response, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}

	if members == nil {
		return nil, stderrors.New("null is not a JSON object")
	}

	resp := &Response{
		ID:     members["id"],
		Result: members["result"],
	}

	if raw, ok := members["method"]; ok {
		_ = json.Unmarshal(raw, &resp.Method)
	}

	if raw, ok := members["error"]; ok && !isNull(raw) {
		resp.Error = decodeRPCError(raw)
	}

	return resp, nil
}

// decodeRPCError reads an error member. A well-formed error object keeps its
// code and message; a bare string becomes the message; anything else is
// kept as raw text.
func decodeRPCError(raw json.RawMessage) *RPCError {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil || members == nil {
		var msg string
		if json.Unmarshal(raw, &msg) != nil {
			msg = string(raw)
		}

		return &RPCError{Message: msg}
	}

	rpcErr := &RPCError{}

	// A non-integer code is left at zero.
	_ = json.Unmarshal(members["code"], &rpcErr.Code)

	if msg, ok := members["message"]; ok && json.Unmarshal(msg, &rpcErr.Message) != nil {
		rpcErr.Message = string(msg)
	}

	if data, ok := members["data"]; ok {
		rpcErr.Data = data
	}

	return rpcErr
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// RPCError is a JSON-RPC 2.0 error object returned by a service.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Unknown MCP error"
	}

	return fmt.Sprintf("MCP server error %d: %s", e.Code, msg)
}

// sentinelResult returns CompletedSentinel encoded as a JSON string.
func sentinelResult() json.RawMessage {
	data, _ := json.Marshal(CompletedSentinel)

	return data
}

// verbatimResult wraps a non-JSON line as a JSON string result.
func verbatimResult(line []byte) json.RawMessage {
	data, _ := json.Marshal(string(line))

	return data
}
