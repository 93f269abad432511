package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Block type constants.
const (
	BlockTypeText       = "text"
	BlockTypeToolUse    = "tool_use"
	BlockTypeToolResult = "tool_result"
)

// ErrUnknownBlockType indicates a content block type the agent does not model.
// Callers should skip these blocks rather than treating them as fatal.
var ErrUnknownBlockType = errors.New("unknown content block type")

// Segment is one typed unit of message content.
type Segment interface {
	BlockType() string
}

// Compile-time verification that all segment types implement Segment.
var (
	_ Segment = (*TextBlock)(nil)
	_ Segment = (*ToolUseBlock)(nil)
	_ Segment = (*ToolResultBlock)(nil)
)

// TextBlock contains plain text content.
type TextBlock struct {
	Text string `json:"text"`
}

// BlockType implements the Segment interface.
func (b *TextBlock) BlockType() string { return BlockTypeText }

// MarshalJSON implements json.Marshaler.
func (b *TextBlock) MarshalJSON() ([]byte, error) {
	type alias TextBlock

	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{BlockTypeText, (*alias)(b)})
}

// ToolUseBlock represents the model asking for a tool invocation.
type ToolUseBlock struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// BlockType implements the Segment interface.
func (b *ToolUseBlock) BlockType() string { return BlockTypeToolUse }

// MarshalJSON implements json.Marshaler. A nil input is sent as an empty
// object because the endpoint rejects null tool input.
func (b *ToolUseBlock) MarshalJSON() ([]byte, error) {
	input := b.Input
	if input == nil {
		input = map[string]any{}
	}

	return json.Marshal(struct {
		Type  string         `json:"type"`
		ID    string         `json:"id"`
		Name  string         `json:"name"`
		Input map[string]any `json:"input"`
	}{BlockTypeToolUse, b.ID, b.Name, input})
}

// ToolResultBlock contains the result of a tool execution.
//
//nolint:tagliatelle // Messages API uses snake_case
type ToolResultBlock struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

// BlockType implements the Segment interface.
func (b *ToolResultBlock) BlockType() string { return BlockTypeToolResult }

// MarshalJSON implements json.Marshaler.
func (b *ToolResultBlock) MarshalJSON() ([]byte, error) {
	type alias ToolResultBlock

	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{BlockTypeToolResult, (*alias)(b)})
}

// UnmarshalJSON implements json.Unmarshaler for ToolResultBlock.
// Handles both string content and an array of text blocks.
func (b *ToolResultBlock) UnmarshalJSON(data []byte) error {
	var aux struct {
		ToolUseID string          `json:"tool_use_id"`
		Content   json.RawMessage `json:"content,omitempty"`
		IsError   bool            `json:"is_error,omitempty"`
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	b.ToolUseID = aux.ToolUseID
	b.IsError = aux.IsError
	b.Content = ""

	if len(aux.Content) == 0 || string(aux.Content) == "null" {
		return nil
	}

	var text string
	if err := json.Unmarshal(aux.Content, &text); err == nil {
		b.Content = text

		return nil
	}

	var blocks []TextBlock
	if err := json.Unmarshal(aux.Content, &blocks); err != nil {
		return fmt.Errorf("tool_result content: %w", err)
	}

	parts := make([]string, 0, len(blocks))
	for _, blk := range blocks {
		parts = append(parts, blk.Text)
	}

	b.Content = strings.Join(parts, "\n")

	return nil
}

// UnmarshalSegment unmarshals a single content block from JSON.
// Blocks of unmodelled types return ErrUnknownBlockType.
func UnmarshalSegment(data []byte) (Segment, error) {
	var typeHolder struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(data, &typeHolder); err != nil {
		return nil, err
	}

	switch typeHolder.Type {
	case BlockTypeText:
		var block TextBlock
		if err := json.Unmarshal(data, &block); err != nil {
			return nil, err
		}

		return &block, nil
	case BlockTypeToolUse:
		var block ToolUseBlock
		if err := json.Unmarshal(data, &block); err != nil {
			return nil, err
		}

		return &block, nil
	case BlockTypeToolResult:
		var block ToolResultBlock
		if err := json.Unmarshal(data, &block); err != nil {
			return nil, err
		}

		return &block, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, typeHolder.Type)
	}
}

// ToolUses returns the tool use segments in emission order.
func ToolUses(segments []Segment) []*ToolUseBlock {
	var uses []*ToolUseBlock

	for _, s := range segments {
		if tu, ok := s.(*ToolUseBlock); ok {
			uses = append(uses, tu)
		}
	}

	return uses
}

// Texts returns the text of every text segment in emission order.
func Texts(segments []Segment) []string {
	var texts []string

	for _, s := range segments {
		if tb, ok := s.(*TextBlock); ok {
			texts = append(texts, tb.Text)
		}
	}

	return texts
}
