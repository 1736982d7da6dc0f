package mcpserver

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"alfredoptarigan/agentic-curie/internal/models"
	"alfredoptarigan/agentic-curie/internal/services"
)

const ToolAddFile = "add_file"

type MergeInput struct {
	FileIDs    []string `json:"file_ids" jsonschema:"ids of two or more stored documents to merge"`
	TemplateID string   `json:"template_id,omitempty" jsonschema:"id of a stored .docx whose structure the output should follow"`
}

type MatchInput struct {
	ResumeIDs []string `json:"resume_ids" jsonschema:"ids of the stored resumes to score"`
	JDText    string   `json:"jd_text,omitempty" jsonschema:"job description text"`
	JDFileID  string   `json:"jd_file_id,omitempty" jsonschema:"id of a stored job description file, used when jd_text is empty"`
}

type AddFileInput struct {
	Path string `json:"path" jsonschema:"path of a local file to add to the file store"`
}

type ScoreOutput struct {
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Summary string `json:"summary,omitempty"`
}

// ToolOutput is the structured result shared by every tool.
type ToolOutput struct {
	OK          bool               `json:"ok"`
	Message     string             `json:"message"`
	ErrorKind   string             `json:"error_kind,omitempty"`
	FileID      string             `json:"file_id,omitempty"`
	Filename    string             `json:"filename,omitempty"`
	DownloadURL string             `json:"download_url,omitempty"`
	Tokens      *models.TokenStats `json:"tokens,omitempty"`
	Results     []ScoreOutput      `json:"results,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        services.ToolMergeDocuments,
		Description: "Merge two or more stored documents into one summarized .docx, optionally following a .docx template.",
	}, s.handleMerge)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        services.ToolResumeMatch,
		Description: "Score stored resumes against a job description and produce a CSV report.",
	}, s.handleMatch)

	if s.opts.AllowLocalFiles {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        ToolAddFile,
			Description: "Add a local file to the file store and return its id for use with the other tools.",
		}, s.handleAddFile)
	}
}

func (s *Server) handleMerge(ctx context.Context, _ *mcp.CallToolRequest, input MergeInput) (*mcp.CallToolResult, ToolOutput, error) {
	outcome := s.tools.MergeDocuments(ctx, input.FileIDs, input.TemplateID)
	return s.respond(outcome)
}

func (s *Server) handleMatch(ctx context.Context, _ *mcp.CallToolRequest, input MatchInput) (*mcp.CallToolResult, ToolOutput, error) {
	outcome := s.tools.MatchResumes(ctx, input.ResumeIDs, input.JDText, input.JDFileID)
	return s.respond(outcome)
}

func (s *Server) handleAddFile(ctx context.Context, _ *mcp.CallToolRequest, input AddFileInput) (*mcp.CallToolResult, ToolOutput, error) {
	data, err := os.ReadFile(input.Path)
	if err != nil {
		return textResult(fmt.Sprintf("Could not read %s: %v", input.Path, err), true),
			ToolOutput{Message: err.Error(), ErrorKind: string(services.KindReadFailed)}, nil
	}

	file, err := s.files.Save(ctx, data, filepath.Base(input.Path), mime.TypeByExtension(filepath.Ext(input.Path)))
	if err != nil {
		return textResult(fmt.Sprintf("Could not store %s: %v", input.Path, err), true),
			ToolOutput{Message: err.Error(), ErrorKind: string(services.KindSaveFailed)}, nil
	}

	msg := fmt.Sprintf("Stored %s as %s", file.Filename, file.ID)
	return textResult(msg, false), ToolOutput{
		OK:       true,
		Message:  msg,
		FileID:   file.ID,
		Filename: file.Filename,
	}, nil
}

func (s *Server) respond(outcome services.Outcome) (*mcp.CallToolResult, ToolOutput, error) {
	out := toolOutput(outcome)
	if !out.OK {
		s.logger.Warn("⚠️  MCP tool failed",
			zap.String("tool", outcome.Tool),
			zap.String("kind", string(outcome.Kind)),
			zap.String("detail", outcome.Detail))
	}
	return textResult(out.Message, !out.OK), out, nil
}

func toolOutput(o services.Outcome) ToolOutput {
	out := ToolOutput{
		OK:          o.OK(),
		Message:     o.Message(),
		ErrorKind:   string(o.Kind),
		DownloadURL: o.DownloadURL,
		Tokens:      o.Tokens,
	}
	if o.File != nil {
		out.FileID = o.File.ID
		out.Filename = o.File.Filename
	}
	for _, r := range o.Results {
		out.Results = append(out.Results, ScoreOutput{Name: r.Name, Score: r.Score, Summary: r.Summary})
	}
	return out
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: isError,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
