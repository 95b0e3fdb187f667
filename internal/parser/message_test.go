package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLastCodexMessage(t *testing.T) {
	output := `{"type":"thread.started","thread_id":"t1"}
{"type":"item.completed","item":{"type":"reasoning","text":"thinking"}}
{"type":"item.completed","item":{"type":"agent_message","text":"first draft"}}
not json at all
{"type":"item.completed","item":{"type":"command_execution","command":"ls"}}
{"type":"item.completed","item":{"type":"agent_message","text":"final answer"}}
{"type":"turn.completed","usage":{"input_tokens":10}}`

	msg, ok := LastCodexMessage(output)
	assert.True(t, ok)
	assert.Equal(t, "final answer", msg)

	_, ok = LastCodexMessage(`{"type":"turn.completed"}`)
	assert.False(t, ok)
}

func TestLastStreamMessage(t *testing.T) {
	t.Run("result event wins", func(t *testing.T) {
		output := `{"type":"system","subtype":"init"}
{"type":"assistant","message":{"content":[{"type":"text","text":"Looking"},{"type":"tool_use","name":"Read"}]}}
{"type":"assistant","message":{"content":[{"type":"text","text":"Done: "},{"type":"text","text":"all good"}]}}
{"type":"result","result":"Done: all good"}`
		msg, ok := LastStreamMessage(output)
		assert.True(t, ok)
		assert.Equal(t, "Done: all good", msg)
	})

	t.Run("assistant text without result", func(t *testing.T) {
		output := `{"type":"assistant","message":{"content":[{"type":"text","text":"a"}]}}
{broken
{"type":"assistant","message":{"content":[{"type":"text","text":"b"}]}}`
		msg, ok := LastStreamMessage(output)
		assert.True(t, ok)
		assert.Equal(t, "b", msg)
	})
}

func TestLastMessage_FallsBackToRawOutput(t *testing.T) {
	assert.Equal(t, "plain answer", LastMessage(FormatText, "\n  plain answer \n"))
	assert.Equal(t, "garbage output", LastMessage(FormatCodexJSONL, "garbage output\n"))
	assert.Equal(t, "hello", LastMessage(FormatStreamJSON, `{"type":"result","result":"  hello  "}`))
}
