package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/agentic-curie/internal/models"
	"alfredoptarigan/agentic-curie/internal/repositories"
	"alfredoptarigan/agentic-curie/internal/services"
)

type recordingAgent struct {
	requests []models.ChatRequest
	resp     *models.ChatResponse
}

func (a *recordingAgent) Chat(_ context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	a.requests = append(a.requests, req)
	return a.resp, nil
}

func newChatSession(t *testing.T, agent services.ChatAgent) (*chatSession, *bytes.Buffer) {
	t.Helper()
	blobs, err := services.NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &chatSession{
		agent:     agent,
		files:     repositories.NewFileRepository(blobs, time.Hour, 10, nil),
		sessionID: "cli",
		out:       out,
	}, out
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "summarize", "match", "chat", "mcp", "index"} {
		assert.True(t, names[want], want)
	}
}

func TestReadNamedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte("resume"), 0o644))

	files, err := readNamedFiles([]string{path})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "cv.txt", files[0].Filename)
	assert.Equal(t, []byte("resume"), files[0].Data)

	_, err = readNamedFiles([]string{filepath.Join(dir, "missing.txt")})
	assert.Error(t, err)
}

func TestWriteOutputCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "out.csv")
	require.NoError(t, writeOutput(path, []byte("a,b\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}

func TestChatSession_AttachThenSend(t *testing.T) {
	agent := &recordingAgent{resp: &models.ChatResponse{
		Final: "Done.",
		ToolCalls: []models.ToolTrace{
			{Type: "call", Tool: services.ToolMergeDocuments, Arguments: `{"file_ids":["a","b"]}`},
			{Type: "output", Output: "Document generated successfully. Download: /api/files/x/download"},
		},
	}}
	session, out := newChatSession(t, agent)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha"), 0o644))
	require.NoError(t, session.handle(ctx, "/attach "+path))
	require.Len(t, session.pending, 1)

	require.NoError(t, session.handle(ctx, "merge these"))
	require.Len(t, agent.requests, 1)
	assert.Equal(t, "merge these", agent.requests[0].Message)
	assert.Equal(t, "cli", agent.requests[0].SessionID)
	assert.Len(t, agent.requests[0].AttachmentIDs, 1)
	assert.Empty(t, session.pending)

	assert.Contains(t, out.String(), "attached a.txt")
	assert.Contains(t, out.String(), "Document generated successfully")
	assert.Contains(t, out.String(), "curie: Done.")
}

func TestChatSession_Commands(t *testing.T) {
	agent := &recordingAgent{}
	session, out := newChatSession(t, agent)
	ctx := context.Background()

	assert.NoError(t, session.handle(ctx, "   "))
	assert.NoError(t, session.handle(ctx, "/files"))
	assert.Contains(t, out.String(), "no stored files")
	assert.ErrorIs(t, session.handle(ctx, "/exit"), errExit)
	assert.Error(t, session.handle(ctx, "/attach /does/not/exist"))
	assert.Empty(t, agent.requests)
}
