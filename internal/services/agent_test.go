package services

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"

	"alfredoptarigan/agentic-curie/internal/models"
	"alfredoptarigan/agentic-curie/internal/repositories"
)

func newTestAgent(f *toolFixture, rounds int) (ChatAgent, repositories.SessionRepository) {
	sessions := repositories.NewMemorySessionRepository(time.Hour, 10)
	return NewChatAgent(f.llm, f.toolbox, f.files, sessions, rounds, nil), sessions
}

func callTurn(name string, args map[string]any) func([]*genai.Content) (*genai.Content, error) {
	return func([]*genai.Content) (*genai.Content, error) {
		return genai.NewContentFromFunctionCall(name, args, genai.RoleModel), nil
	}
}

func textTurn(text string) func([]*genai.Content) (*genai.Content, error) {
	return func([]*genai.Content) (*genai.Content, error) {
		return genai.NewContentFromText(text, genai.RoleModel), nil
	}
}

func TestChatRunsMergeTool(t *testing.T) {
	f := newToolFixture(t, false)
	a := f.save(t, "A.txt", []byte("hello world"))
	b := f.save(t, "B.txt", []byte("foo bar"))

	f.llm.turns = append(f.llm.turns,
		callTurn(ToolMergeDocuments, map[string]any{"file_ids": []any{a, b}}),
		textTurn("Your merged document is ready."),
	)
	agent, sessions := newTestAgent(f, 5)

	resp, err := agent.Chat(context.Background(), models.ChatRequest{
		Message:       "merge these",
		AttachmentIDs: []string{a, b, "unknown"},
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultSessionID, resp.SessionID)
	assert.Equal(t, "Your merged document is ready.", resp.Final)
	require.Len(t, resp.ToolCalls, 2)
	assert.Equal(t, "call", resp.ToolCalls[0].Type)
	assert.Equal(t, ToolMergeDocuments, resp.ToolCalls[0].Tool)
	assert.Contains(t, resp.ToolCalls[0].Arguments, a)
	assert.Equal(t, "output", resp.ToolCalls[1].Type)
	assert.True(t, strings.HasPrefix(resp.ToolCalls[1].Output, "Document generated successfully. Download: /api/files/"))

	firstTurn := f.llm.histories[0]
	require.Len(t, firstTurn, 2)
	note := firstTurn[0].Parts[0].Text
	assert.Contains(t, note, a+" :: A.txt (")
	assert.Contains(t, note, b+" :: B.txt (")
	assert.NotContains(t, note, "unknown")
	assert.Equal(t, "merge these", firstTurn[1].Parts[0].Text)

	history, err := sessions.Load(context.Background(), DefaultSessionID)
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.Equal(t, ToolMergeDocuments, history[3].Parts[0].FunctionResponse.Name)
	assert.Equal(t, true, history[3].Parts[0].FunctionResponse.Response["ok"])
}

func TestChatKeepsSessionHistory(t *testing.T) {
	f := newToolFixture(t, false)
	f.llm.turns = append(f.llm.turns, textTurn("hi"), textTurn("again"))
	agent, _ := newTestAgent(f, 3)
	ctx := context.Background()

	_, err := agent.Chat(ctx, models.ChatRequest{Message: "one", SessionID: "s1"})
	require.NoError(t, err)
	resp, err := agent.Chat(ctx, models.ChatRequest{Message: "two", SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, "again", resp.Final)
	assert.Empty(t, resp.ToolCalls)
	require.Len(t, f.llm.histories, 2)
	assert.Len(t, f.llm.histories[1], 3)
}

func TestChatToolFailureIsReported(t *testing.T) {
	f := newToolFixture(t, false)
	only := f.save(t, "a.txt", []byte("a"))
	f.llm.turns = append(f.llm.turns,
		callTurn(ToolMergeDocuments, map[string]any{"file_ids": []any{only}}),
		textTurn("Please upload one more file."),
	)
	agent, sessions := newTestAgent(f, 5)

	resp, err := agent.Chat(context.Background(), models.ChatRequest{Message: "merge"})
	require.NoError(t, err)
	assert.Equal(t, "Please provide at least two file_ids.", resp.ToolCalls[1].Output)

	history, err := sessions.Load(context.Background(), DefaultSessionID)
	require.NoError(t, err)
	assert.Equal(t, string(KindMissingInput), history[2].Parts[0].FunctionResponse.Response["error_kind"])
}

func TestChatStopsAfterMaxRounds(t *testing.T) {
	f := newToolFixture(t, false)
	resume := f.save(t, "cv.txt", []byte("Go"))
	loop := callTurn(ToolResumeMatch, map[string]any{"resume_ids": []any{resume}, "jd_text": "Go dev"})
	f.llm.turns = append(f.llm.turns, loop, loop, loop)
	agent, _ := newTestAgent(f, 2)

	resp, err := agent.Chat(context.Background(), models.ChatRequest{Message: "rank"})
	require.NoError(t, err)
	assert.Len(t, resp.ToolCalls, 4)
	assert.True(t, strings.HasPrefix(resp.Final, "Resume matching completed for 1 resume(s)."))
}

func TestChatUnknownTool(t *testing.T) {
	f := newToolFixture(t, false)
	f.llm.turns = append(f.llm.turns, callTurn("delete_everything", nil), textTurn("ok"))
	agent, _ := newTestAgent(f, 3)

	resp, err := agent.Chat(context.Background(), models.ChatRequest{Message: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Unknown tool: delete_everything", resp.ToolCalls[1].Output)
}

func TestChatMissingCredential(t *testing.T) {
	f := newToolFixture(t, false)
	f.llm.configured = false
	agent, _ := newTestAgent(f, 3)

	_, err := agent.Chat(context.Background(), models.ChatRequest{Message: "x"})
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestToolDeclarationsFollowIndex(t *testing.T) {
	without := newToolFixture(t, false)
	a := NewChatAgent(without.llm, without.toolbox, without.files, repositories.NewMemorySessionRepository(0, 0), 1, nil).(*agent)
	assert.Len(t, a.toolDeclarations()[0].FunctionDeclarations, 2)

	with := newToolFixture(t, true)
	a = NewChatAgent(with.llm, with.toolbox, with.files, repositories.NewMemorySessionRepository(0, 0), 1, nil).(*agent)
	assert.Len(t, a.toolDeclarations()[0].FunctionDeclarations, 3)
}

func TestTraceArguments(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	assert.Equal(t, `{"file_ids":["a","b"]}`, traceArguments(map[string]any{"file_ids": []any{"a", "b"}}, log))
	assert.Equal(t, "{}", traceArguments(nil, log))
	assert.Equal(t, 0, logs.Len())

	assert.Equal(t, "{}", traceArguments(map[string]any{"limit": math.Inf(1)}, log))
	assert.Equal(t, 1, logs.FilterMessageSnippet("Failed to encode tool arguments").Len())
}
