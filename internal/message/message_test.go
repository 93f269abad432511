package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentMarshalJSON(t *testing.T) {
	t.Run("text block carries its type", func(t *testing.T) {
		data, err := json.Marshal(&TextBlock{Text: "hello"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"text","text":"hello"}`, string(data))
	})

	t.Run("tool use with nil input encodes empty object", func(t *testing.T) {
		data, err := json.Marshal(&ToolUseBlock{ID: "t1", Name: "foo"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"tool_use","id":"t1","name":"foo","input":{}}`, string(data))
	})

	t.Run("tool result omits is_error when false", func(t *testing.T) {
		data, err := json.Marshal(&ToolResultBlock{ToolUseID: "t1", Content: "ok"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"tool_result","tool_use_id":"t1","content":"ok"}`, string(data))
	})
}

func TestUnmarshalSegment(t *testing.T) {
	t.Run("tool use", func(t *testing.T) {
		seg, err := UnmarshalSegment([]byte(`{"type":"tool_use","id":"t1","name":"foo","input":{"a":1}}`))
		require.NoError(t, err)

		tu, ok := seg.(*ToolUseBlock)
		require.True(t, ok)
		assert.Equal(t, "t1", tu.ID)
		assert.Equal(t, "foo", tu.Name)
		assert.Equal(t, map[string]any{"a": float64(1)}, tu.Input)
	})

	t.Run("tool result with block content", func(t *testing.T) {
		seg, err := UnmarshalSegment([]byte(
			`{"type":"tool_result","tool_use_id":"t1","content":[{"type":"text","text":"a"},{"type":"text","text":"b"}],"is_error":true}`,
		))
		require.NoError(t, err)

		tr, ok := seg.(*ToolResultBlock)
		require.True(t, ok)
		assert.Equal(t, "a\nb", tr.Content)
		assert.True(t, tr.IsError)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := UnmarshalSegment([]byte(`{"type":"thinking","thinking":"hmm"}`))
		require.ErrorIs(t, err, ErrUnknownBlockType)
	})
}

func TestMessageUnmarshalJSON(t *testing.T) {
	t.Run("string content", func(t *testing.T) {
		var msg Message
		require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":"list files"}`), &msg))

		assert.Equal(t, RoleUser, msg.Role)
		assert.Equal(t, []string{"list files"}, Texts(msg.Content))
	})

	t.Run("block content keeps order", func(t *testing.T) {
		var msg Message
		require.NoError(t, json.Unmarshal([]byte(`{"role":"assistant","content":[
			{"type":"text","text":"looking"},
			{"type":"tool_use","id":"a","name":"x","input":{}},
			{"type":"tool_use","id":"b","name":"y","input":{}}
		]}`), &msg))

		require.Len(t, msg.Content, 3)
		uses := ToolUses(msg.Content)
		require.Len(t, uses, 2)
		assert.Equal(t, "a", uses[0].ID)
		assert.Equal(t, "b", uses[1].ID)
	})
}

func TestConversationCommit(t *testing.T) {
	assistant := Message{
		Role: RoleAssistant,
		Content: []Segment{
			&TextBlock{Text: "checking"},
			&ToolUseBlock{ID: "t1", Name: "list_directory", Input: map[string]any{"path": "."}},
		},
	}

	t.Run("user, assistant and results commit in order", func(t *testing.T) {
		conv := NewConversation()

		require.NoError(t, conv.Commit(NewUserText("list files"), assistant))
		require.NoError(t, conv.Commit(NewToolResults([]*ToolResultBlock{{ToolUseID: "t1", Content: "a.txt"}})))

		msgs := conv.Messages()
		require.Len(t, msgs, 3)
		assert.Equal(t, RoleUser, msgs[0].Role)
		assert.Equal(t, RoleAssistant, msgs[1].Role)
		assert.Equal(t, RoleUser, msgs[2].Role)
	})

	t.Run("unknown tool_use id is rejected atomically", func(t *testing.T) {
		conv := NewConversation()

		err := conv.Commit(NewUserText("hi"), NewToolResults([]*ToolResultBlock{{ToolUseID: "nope"}}))
		require.Error(t, err)
		assert.Equal(t, 0, conv.Len())
	})

	t.Run("duplicate tool_use id is rejected", func(t *testing.T) {
		conv := NewConversation()
		require.NoError(t, conv.Commit(NewUserText("hi"), assistant))

		err := conv.Commit(assistant)
		require.Error(t, err)
		assert.Equal(t, 2, conv.Len())
	})

	t.Run("tool use in user message is rejected", func(t *testing.T) {
		conv := NewConversation()

		err := conv.Commit(Message{Role: RoleUser, Content: []Segment{&ToolUseBlock{ID: "x"}}})
		require.Error(t, err)
	})

	t.Run("invalid role", func(t *testing.T) {
		conv := NewConversation()

		err := conv.Commit(Message{Role: "system"})
		require.Error(t, err)
	})
}

func TestConversationIsolation(t *testing.T) {
	conv := NewConversation()
	require.NoError(t, conv.Commit(NewUserText("one")))

	pending := conv.With(NewUserText("two"))
	require.Len(t, pending, 2)
	assert.Equal(t, 1, conv.Len())

	msgs := conv.Messages()
	msgs[0] = NewUserText("mutated")
	assert.Equal(t, []string{"one"}, Texts(conv.Messages()[0].Content))
}

func TestConversationValidate(t *testing.T) {
	conv := NewConversation()

	turn := []Message{
		NewUserText("go"),
		{Role: RoleAssistant, Content: []Segment{
			&ToolUseBlock{ID: "t1", Name: "a"},
			&ToolUseBlock{ID: "t1", Name: "b"},
		}},
	}

	require.Error(t, conv.Validate(turn...))
	assert.Zero(t, conv.Len())

	valid := []Message{
		NewUserText("go"),
		{Role: RoleAssistant, Content: []Segment{&ToolUseBlock{ID: "t2", Name: "a"}}},
	}

	require.NoError(t, conv.Validate(valid...))
	assert.Zero(t, conv.Len(), "Validate never appends")

	// The ids seen during validation are not remembered.
	require.NoError(t, conv.Commit(valid...))
	assert.Equal(t, 2, conv.Len())
}
