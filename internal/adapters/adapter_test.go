package adapters

import (
	"testing"
	"time"

	"github.com/canopy-docs/canopy/internal/core"
	"github.com/stretchr/testify/require"
)

func TestNormalizeInputTokens(t *testing.T) {
	require.Equal(t, 80, NormalizeInputTokens(100, 20))
	require.Equal(t, 0, NormalizeInputTokens(100, 150))
	require.Equal(t, 0, NormalizeInputTokens(0, 0))
}

func TestDedupFragments(t *testing.T) {
	require.Equal(t, "a\nb", dedupFragments([]string{"a", "a", "b", "", "b"}))
	require.Equal(t, "", dedupFragments(nil))
}

func TestClaudeAdapter_ParseResponse_Stable(t *testing.T) {
	a := NewClaude("")
	stdout := []byte(`{"type":"result","subtype":"success","result":"# Docs\n\nbody","model":"claude-sonnet-4-5","usage":{"input_tokens":500,"cache_read_input_tokens":300,"output_tokens":120}}`)

	resp, err := a.ParseResponse(stdout, time.Second, 0)
	require.NoError(t, err)
	require.Equal(t, "# Docs\n\nbody", resp.Text)
	require.Equal(t, "claude-sonnet-4-5", resp.Model)
	require.Equal(t, 200, resp.InputTokens)
	require.Equal(t, 120, resp.OutputTokens)
}

func TestClaudeAdapter_ParseResponse_InBandError(t *testing.T) {
	a := NewClaude("")
	stdout := []byte(`{"type":"result","subtype":"error","error":"rate limited"}`)

	_, err := a.ParseResponse(stdout, time.Second, 0)
	require.Error(t, err)
	require.True(t, core.IsCategory(err, core.ErrCatSubprocess))
}

func TestClaudeAdapter_ParseResponse_Malformed(t *testing.T) {
	a := NewClaude("")
	_, err := a.ParseResponse([]byte("not json"), time.Second, 0)
	require.Error(t, err)
	require.True(t, core.IsCategory(err, core.ErrCatParse))
}

func TestGeminiAdapter_ParseResponse_Stream(t *testing.T) {
	a := NewGemini("")
	stdout := []byte(`{"type":"content","text":"Hello "}
{"type":"content","text":"world"}
{"type":"content","text":"world"}
{"type":"final","model":"gemini-2.5-pro","usageMetadata":{"promptTokenCount":400,"cachedContentTokenCount":100,"candidatesTokenCount":50}}
`)

	resp, err := a.ParseResponse(stdout, time.Second, 0)
	require.NoError(t, err)
	require.Equal(t, "Hello \nworld", resp.Text)
	require.Equal(t, "gemini-2.5-pro", resp.Model)
	require.Equal(t, 300, resp.InputTokens)
	require.Equal(t, 50, resp.OutputTokens)
}

func TestGeminiAdapter_ParseResponse_NoEvents(t *testing.T) {
	a := NewGemini("")
	_, err := a.ParseResponse([]byte("\n\n"), time.Second, 0)
	require.Error(t, err)
	require.True(t, core.IsCategory(err, core.ErrCatParse))
}

func TestGeminiAdapter_ParseResponse_InBandError(t *testing.T) {
	a := NewGemini("")
	stdout := []byte(`{"type":"error","error":{"message":"quota exceeded"}}`)
	_, err := a.ParseResponse(stdout, time.Second, 0)
	require.Error(t, err)
	require.True(t, core.IsCategory(err, core.ErrCatSubprocess))
}

func TestCodexAdapter_ParseResponse_ShapeOne(t *testing.T) {
	a := NewCodex("")
	stdout := []byte(`{"msg":{"type":"agent_message","message":"hello from codex","model":"o4-mini","usage":{"input_tokens":100,"cached_input_tokens":10,"output_tokens":20}}}`)

	resp, err := a.ParseResponse(stdout, time.Second, 0)
	require.NoError(t, err)
	require.Equal(t, "hello from codex", resp.Text)
	require.Equal(t, "o4-mini", resp.Model)
	require.Equal(t, 90, resp.InputTokens)
	require.Equal(t, 20, resp.OutputTokens)
}

func TestCodexAdapter_ParseResponse_ShapeThree(t *testing.T) {
	a := NewCodex("")
	stdout := []byte(`{"type":"item.completed","item":{"type":"agent_message","content":[{"text":"part one"},{"text":" part two"}]}}`)

	resp, err := a.ParseResponse(stdout, time.Second, 0)
	require.NoError(t, err)
	require.Equal(t, "part one part two", resp.Text)
}

func TestCodexAdapter_ParseResponse_UnknownShape(t *testing.T) {
	a := NewCodex("")
	stdout := []byte(`{"unrelated":"field"}`)
	_, err := a.ParseResponse(stdout, time.Second, 0)
	require.Error(t, err)
	require.True(t, core.IsCategory(err, core.ErrCatParse))
}

func TestGenericAdapter_ParseResponse(t *testing.T) {
	a := NewCopilot("")
	resp, err := a.ParseResponse([]byte("  plain text reply  \n"), time.Second, 0)
	require.NoError(t, err)
	require.Equal(t, "plain text reply", resp.Text)
}

func TestGenericAdapter_ParseResponse_Empty(t *testing.T) {
	a := NewOpenCode("")
	_, err := a.ParseResponse([]byte("   "), time.Second, 0)
	require.Error(t, err)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nonexistent")
	require.Error(t, err)
	require.True(t, core.IsCategory(err, core.ErrCatCLINotFound))
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	names := r.Names()
	require.Contains(t, names, core.AgentClaude)
	require.Contains(t, names, core.AgentGemini)
	require.Contains(t, names, core.AgentCodex)
}

func TestRegistry_Configure_InvalidatesCache(t *testing.T) {
	r := NewRegistry()
	a1, err := r.Get(core.AgentClaude)
	require.NoError(t, err)
	r.Configure(core.AgentClaude, "/custom/path/claude")
	a2, err := r.Get(core.AgentClaude)
	require.NoError(t, err)
	require.NotSame(t, a1, a2)
	require.Equal(t, "/custom/path/claude", a2.CLICommand())
}
