package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/agentic-curie/internal/models"
	"alfredoptarigan/agentic-curie/internal/repositories"
	"alfredoptarigan/agentic-curie/internal/services"
)

type fakeSummarizer struct {
	calls int
	err   error
}

func (f *fakeSummarizer) Summarize(_ context.Context, files []models.NamedFile, _ string) (*models.SummaryResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	doc, err := services.WriteDocx("merged")
	if err != nil {
		return nil, err
	}
	sources := make([]string, 0, len(files))
	for _, file := range files {
		sources = append(sources, file.Filename)
	}
	return &models.SummaryResult{
		Text:     "merged",
		Document: doc,
		Tokens:   models.TokenStats{InputTokens: 10, OutputTokens: 2, TotalTokens: 12},
		Sources:  sources,
	}, nil
}

type fakeMatcher struct{}

func (fakeMatcher) Match(_ context.Context, _ string, resumes []models.NamedFile) ([]models.MatchResult, error) {
	out := make([]models.MatchResult, 0, len(resumes))
	for _, r := range resumes {
		out = append(out, models.MatchResult{Name: r.Filename, Score: 70, Summary: "fit"})
	}
	return out, nil
}

type fixture struct {
	server     *Server
	files      repositories.FileRepository
	summarizer *fakeSummarizer
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	blobs, err := services.NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	log := zap.NewNop()
	files := repositories.NewFileRepository(blobs, time.Hour, 10, log)
	summarizer := &fakeSummarizer{}
	toolbox := services.NewToolbox(files, summarizer, fakeMatcher{}, services.NewTextExtractor(log), nil, log)

	server, err := NewServer(toolbox, files, opts, log)
	require.NoError(t, err)

	return &fixture{server: server, files: files, summarizer: summarizer}
}

func (f *fixture) save(t *testing.T, name, data string) string {
	t.Helper()
	file, err := f.files.Save(context.Background(), []byte(data), name, "")
	require.NoError(t, err)
	return file.ID
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestNewServer(t *testing.T) {
	t.Run("nil toolbox returns error", func(t *testing.T) {
		server, err := NewServer(nil, nil, Options{}, nil)
		assert.ErrorIs(t, err, ErrMissingToolbox)
		assert.Nil(t, server)
	})

	t.Run("nil files returns error", func(t *testing.T) {
		toolbox := services.NewToolbox(nil, nil, nil, nil, nil, nil)
		_, err := NewServer(toolbox, nil, Options{}, nil)
		assert.ErrorIs(t, err, ErrMissingFiles)
	})

	t.Run("http handler is available", func(t *testing.T) {
		f := newFixture(t, Options{})
		assert.NotNil(t, f.server.HTTPHandler())
	})
}

func TestServer_handleMerge(t *testing.T) {
	ctx := context.Background()

	t.Run("merges stored files", func(t *testing.T) {
		f := newFixture(t, Options{})
		a := f.save(t, "a.txt", "alpha")
		b := f.save(t, "b.txt", "beta")

		res, out, err := f.server.handleMerge(ctx, nil, MergeInput{FileIDs: []string{a, b}})
		require.NoError(t, err)

		assert.True(t, out.OK)
		assert.False(t, res.IsError)
		assert.Equal(t, services.MergeOutputFilename, out.Filename)
		assert.Equal(t, services.DownloadURL(out.FileID), out.DownloadURL)
		require.NotNil(t, out.Tokens)
		assert.Equal(t, 12, out.Tokens.TotalTokens)
		assert.Contains(t, resultText(t, res), "Document generated successfully")
		assert.Equal(t, 1, f.summarizer.calls)
	})

	t.Run("single file is rejected", func(t *testing.T) {
		f := newFixture(t, Options{})
		a := f.save(t, "a.txt", "alpha")

		res, out, err := f.server.handleMerge(ctx, nil, MergeInput{FileIDs: []string{a}})
		require.NoError(t, err)

		assert.False(t, out.OK)
		assert.True(t, res.IsError)
		assert.Equal(t, string(services.KindMissingInput), out.ErrorKind)
		assert.Equal(t, "Please provide at least two file_ids.", resultText(t, res))
		assert.Zero(t, f.summarizer.calls)
	})

	t.Run("unknown id is reported", func(t *testing.T) {
		f := newFixture(t, Options{})
		a := f.save(t, "a.txt", "alpha")

		_, out, err := f.server.handleMerge(ctx, nil, MergeInput{FileIDs: []string{a, "nope"}})
		require.NoError(t, err)
		assert.Equal(t, string(services.KindNotFound), out.ErrorKind)
		assert.Equal(t, "File ID not found: nope", out.Message)
	})
}

func TestServer_handleMatch(t *testing.T) {
	f := newFixture(t, Options{})
	r1 := f.save(t, "jane.txt", "Jane")
	r2 := f.save(t, "john.txt", "John")

	res, out, err := f.server.handleMatch(context.Background(), nil, MatchInput{
		ResumeIDs: []string{r1, r2},
		JDText:    "Go engineer",
	})
	require.NoError(t, err)

	assert.True(t, out.OK)
	assert.False(t, res.IsError)
	assert.Equal(t, services.MatchOutputFilename, out.Filename)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "jane.txt", out.Results[0].Name)
	assert.Equal(t, 70, out.Results[0].Score)
	assert.Contains(t, out.Message, "2 resume(s)")
}

func TestServer_handleAddFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{AllowLocalFiles: true})

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	res, out, err := f.server.handleAddFile(ctx, nil, AddFileInput{Path: path})
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.False(t, res.IsError)
	assert.Equal(t, "notes.txt", out.Filename)

	data, err := f.files.Read(ctx, out.FileID)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	res, out, err = f.server.handleAddFile(ctx, nil, AddFileInput{Path: filepath.Join(t.TempDir(), "missing.txt")})
	require.NoError(t, err)
	assert.False(t, out.OK)
	assert.True(t, res.IsError)
	assert.Equal(t, string(services.KindReadFailed), out.ErrorKind)
}
