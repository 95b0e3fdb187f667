package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodexForgeBR/ccg/internal/rpi"
	"github.com/CodexForgeBR/ccg/internal/state"
	"github.com/CodexForgeBR/ccg/internal/tools"
)

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type reply struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type callResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError"`
}

// session drives Serve through pipes, one JSON-RPC line per request.
type session struct {
	t       *testing.T
	in      *io.PipeWriter
	replies chan reply
	nextID  int
}

func start(t *testing.T, dir string) *session {
	t.Helper()
	h := tools.New(tools.Config{WorkDir: dir})

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, New(h, Info{Name: "ccg", Version: "test"}), inR, outW)
		outW.Close()
	}()

	s := &session{t: t, in: inW, replies: make(chan reply, 256)}
	go func() {
		defer close(s.replies)
		sc := bufio.NewScanner(outR)
		sc.Buffer(make([]byte, 64*1024), 16<<20)
		for sc.Scan() {
			var r reply
			if json.Unmarshal(sc.Bytes(), &r) == nil && len(r.ID) > 0 && string(r.ID) != "null" {
				s.replies <- r
			}
		}
	}()

	t.Cleanup(func() {
		inW.Close()
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	})

	s.send("initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "1"},
	})
	s.await(1)
	s.notify("notifications/initialized")
	return s
}

func (s *session) write(msg map[string]any) {
	s.t.Helper()
	msg["jsonrpc"] = "2.0"
	data, err := json.Marshal(msg)
	require.NoError(s.t, err)
	_, err = s.in.Write(append(data, '\n'))
	require.NoError(s.t, err)
}

// send writes a request and returns its id.
func (s *session) send(method string, params any) string {
	s.t.Helper()
	s.nextID++
	msg := map[string]any{"id": s.nextID, "method": method}
	if params != nil {
		msg["params"] = params
	}
	s.write(msg)
	return fmt.Sprint(s.nextID)
}

func (s *session) notify(method string) {
	s.t.Helper()
	s.write(map[string]any{"method": method})
}

func (s *session) call(name string, args map[string]any) string {
	s.t.Helper()
	return s.send("tools/call", map[string]any{"name": name, "arguments": args})
}

// await collects n replies keyed by id.
func (s *session) await(n int) map[string]reply {
	s.t.Helper()
	got := map[string]reply{}
	deadline := time.After(10 * time.Second)
	for len(got) < n {
		select {
		case r, ok := <-s.replies:
			require.True(s.t, ok, "server closed its output")
			got[string(r.ID)] = r
		case <-deadline:
			s.t.Fatalf("got %d of %d replies", len(got), n)
		}
	}
	return got
}

func (s *session) result(r reply) callResult {
	s.t.Helper()
	require.Nil(s.t, r.Error)
	var res callResult
	require.NoError(s.t, json.Unmarshal(r.Result, &res))
	require.NotEmpty(s.t, res.Content)
	return res
}

func TestServe_Initialize(t *testing.T) {
	s := start(t, t.TempDir())

	id := s.send("initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "1"},
	})
	r := s.await(1)[id]
	require.Nil(t, r.Error)

	var init struct {
		ProtocolVersion string         `json:"protocolVersion"`
		Capabilities    map[string]any `json:"capabilities"`
		ServerInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"serverInfo"`
	}
	require.NoError(t, json.Unmarshal(r.Result, &init))
	assert.Equal(t, "2024-11-05", init.ProtocolVersion)
	assert.Contains(t, init.Capabilities, "tools")
	assert.Equal(t, "ccg", init.ServerInfo.Name)
	assert.Equal(t, "test", init.ServerInfo.Version)
}

func TestServe_ListAndCall(t *testing.T) {
	s := start(t, t.TempDir())

	listID := s.send("tools/list", nil)
	callID := s.call("rpi_state_write", map[string]any{"action": "init", "change_name": "<checkout>"})
	replies := s.await(2)

	var list struct {
		Tools []struct {
			Name        string `json:"name"`
			InputSchema struct {
				Type     string   `json:"type"`
				Required []string `json:"required"`
			} `json:"inputSchema"`
		} `json:"tools"`
	}
	require.Nil(t, replies[listID].Error)
	require.NoError(t, json.Unmarshal(replies[listID].Result, &list))
	byName := map[string][]string{}
	for _, tl := range list.Tools {
		assert.Equal(t, "object", tl.InputSchema.Type, tl.Name)
		byName[tl.Name] = tl.InputSchema.Required
	}
	assert.Contains(t, byName, "ask_gemini")
	assert.Contains(t, byName, "team_dispatch")
	assert.Equal(t, []string{"action"}, byName["rpi_state_write"])

	res := s.result(replies[callID])
	assert.False(t, res.IsError)
	assert.Equal(t, "text", res.Content[0].Type)
	assert.Contains(t, res.Content[0].Text, `"success": true`)
	assert.Contains(t, res.Content[0].Text, `"changeName": "<checkout>"`)
}

func TestServe_ToolErrorsAreResults(t *testing.T) {
	s := start(t, t.TempDir())

	id := s.call("rpi_state_write", map[string]any{"action": "transition", "phase": "review"})
	res := s.result(s.await(1)[id])
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content[0].Text, `"error":`)
}

func TestServe_UnknownMethod(t *testing.T) {
	s := start(t, t.TempDir())

	id := s.send("bogus/method", nil)
	r := s.await(1)[id]
	require.NotNil(t, r.Error)
	assert.Equal(t, -32601, r.Error.Code)
}

func TestServe_ConcurrentStateWritesAreSerialized(t *testing.T) {
	dir := t.TempDir()
	s := start(t, dir)

	id := s.call("rpi_state_write", map[string]any{"action": "init", "change_name": "load"})
	require.False(t, s.result(s.await(1)[id]).IsError)

	const n = 40
	for i := range n {
		s.call("rpi_state_write", map[string]any{
			"action": "constraint", "type": "hard", "source": "user", "description": fmt.Sprintf("constraint %d", i),
		})
	}
	for rid, r := range s.await(n) {
		assert.False(t, s.result(r).IsError, "call %s", rid)
	}

	store, err := state.NewOSStore(dir)
	require.NoError(t, err)
	constraints := rpi.NewEngine(store).Constraints("")
	require.Len(t, constraints, n)
	ids := map[string]bool{}
	for _, c := range constraints {
		ids[c.ID] = true
	}
	assert.Len(t, ids, n)
	assert.True(t, ids["C001"])
	assert.True(t, ids[fmt.Sprintf("C%03d", n)])
}
