package message

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Role identifies the author of a message.
type Role string

const (
	// RoleUser marks input from the user, including tool results.
	RoleUser Role = "user"
	// RoleAssistant marks output from the model.
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation.
type Message struct {
	Role    Role      `json:"role"`
	Content []Segment `json:"content"`
}

// NewUserText creates a user message with a single text segment.
func NewUserText(text string) Message {
	return Message{
		Role:    RoleUser,
		Content: []Segment{&TextBlock{Text: text}},
	}
}

// NewToolResults creates a user message carrying tool results.
func NewToolResults(results []*ToolResultBlock) Message {
	content := make([]Segment, 0, len(results))
	for _, r := range results {
		content = append(content, r)
	}

	return Message{Role: RoleUser, Content: content}
}

// UnmarshalJSON implements json.Unmarshaler.
// Accepts both string content and an array of content blocks.
func (m *Message) UnmarshalJSON(data []byte) error {
	var aux struct {
		Role    Role            `json:"role"`
		Content json.RawMessage `json:"content"`
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	m.Role = aux.Role
	m.Content = nil

	var text string
	if err := json.Unmarshal(aux.Content, &text); err == nil {
		m.Content = []Segment{&TextBlock{Text: text}}

		return nil
	}

	var rawBlocks []json.RawMessage
	if err := json.Unmarshal(aux.Content, &rawBlocks); err != nil {
		return err
	}

	m.Content = make([]Segment, 0, len(rawBlocks))

	for _, raw := range rawBlocks {
		seg, err := UnmarshalSegment(raw)
		if err != nil {
			return err
		}

		m.Content = append(m.Content, seg)
	}

	return nil
}

// ToolSpec is the endpoint-facing description of a tool. It never carries
// the tool's implementation.
//
//nolint:tagliatelle // Messages API uses snake_case
type ToolSpec struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

// Conversation is the ordered, append-only message history of one session.
// Messages are never reordered or mutated once committed.
//
// Conversation is not safe for concurrent use; it is owned by a single engine.
type Conversation struct {
	messages   []Message
	toolUseIDs map[string]struct{}
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{toolUseIDs: make(map[string]struct{}, 16)}
}

// Len returns the number of committed messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Messages returns a copy of the committed messages.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)

	return out
}

// With returns a copy of the committed messages followed by pending ones,
// without committing anything.
func (c *Conversation) With(pending ...Message) []Message {
	out := make([]Message, 0, len(c.messages)+len(pending))
	out = append(out, c.messages...)

	return append(out, pending...)
}

// Commit validates and appends messages atomically: either every message
// is appended or none is.
//
// Validation rules:
//   - roles must be user or assistant
//   - tool uses may only appear in assistant messages and ids must be unique
//   - tool results may only appear in user messages and must reference a
//     tool use id from an earlier assistant message
func (c *Conversation) Commit(msgs ...Message) error {
	seen, err := c.check(msgs)
	if err != nil {
		return err
	}

	c.messages = append(c.messages, msgs...)
	for id := range seen {
		c.toolUseIDs[id] = struct{}{}
	}

	return nil
}

// Validate reports whether Commit would accept msgs, without appending.
func (c *Conversation) Validate(msgs ...Message) error {
	_, err := c.check(msgs)

	return err
}

// check applies the Commit rules and returns the tool use ids msgs add.
func (c *Conversation) check(msgs []Message) (map[string]struct{}, error) {
	seen := make(map[string]struct{}, 4)

	known := func(id string) bool {
		if _, ok := c.toolUseIDs[id]; ok {
			return true
		}

		_, ok := seen[id]

		return ok
	}

	for i, msg := range msgs {
		if msg.Role != RoleUser && msg.Role != RoleAssistant {
			return nil, fmt.Errorf("message %d: invalid role %q", i, msg.Role)
		}

		for _, seg := range msg.Content {
			switch s := seg.(type) {
			case *ToolUseBlock:
				if msg.Role != RoleAssistant {
					return nil, fmt.Errorf("message %d: tool_use in %s message", i, msg.Role)
				}

				if s.ID == "" {
					return nil, errors.New("tool_use without id")
				}

				if known(s.ID) {
					return nil, fmt.Errorf("duplicate tool_use id %q", s.ID)
				}

				seen[s.ID] = struct{}{}
			case *ToolResultBlock:
				if msg.Role != RoleUser {
					return nil, fmt.Errorf("message %d: tool_result in %s message", i, msg.Role)
				}

				if !known(s.ToolUseID) {
					return nil, fmt.Errorf("tool_result references unknown tool_use id %q", s.ToolUseID)
				}
			case nil:
				return nil, fmt.Errorf("message %d: nil segment", i)
			}
		}
	}

	return seen, nil
}
