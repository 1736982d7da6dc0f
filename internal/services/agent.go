package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/agentic-curie/internal/logger"
	"alfredoptarigan/agentic-curie/internal/models"
	"alfredoptarigan/agentic-curie/internal/repositories"
)

const DefaultSessionID = "default"

const agentInstructions = `You are a helpful chat assistant. If the user asks to merge/summarize/combine multiple uploaded documents into one, use the merge_documents tool. If the user asks to match, rank or score resumes against a job description, use the resume_match tool.
The user may upload files in the same turn; the backend provides a system note listing uploaded file IDs and names. Only call merge_documents if you have at least two file IDs. Only call resume_match if you have at least one resume file ID and a job description, given either as text or as a file ID.
If not enough files are available, ask the user to upload more. When a tool returns a download link, share it with the user.`

const searchInstructions = `
Use the search_documents tool to look up passages in uploaded documents when the user asks a question about their content.`

const roundsExhaustedReply = "I could not finish the request within the allowed number of tool calls."

type ChatAgent interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
}

type agent struct {
	llm       GeminiService
	tools     *Toolbox
	files     repositories.FileRepository
	sessions  repositories.SessionRepository
	maxRounds int
	logger    *zap.Logger
}

func NewChatAgent(
	llm GeminiService,
	tools *Toolbox,
	files repositories.FileRepository,
	sessions repositories.SessionRepository,
	maxRounds int,
	log *zap.Logger,
) ChatAgent {
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &agent{
		llm:       llm,
		tools:     tools,
		files:     files,
		sessions:  sessions,
		maxRounds: maxRounds,
		logger:    logger.OrNop(log),
	}
}

type mergeArgs struct {
	FileIDs    []string `mapstructure:"file_ids"`
	TemplateID string   `mapstructure:"template_id"`
}

type resumeMatchArgs struct {
	ResumeIDs []string `mapstructure:"resume_ids"`
	JDText    string   `mapstructure:"jd_text"`
	JDFileID  string   `mapstructure:"jd_file_id"`
}

type searchArgs struct {
	Query   string   `mapstructure:"query"`
	FileIDs []string `mapstructure:"file_ids"`
	Limit   int      `mapstructure:"limit"`
}

// Chat runs one user turn: the model may call tools for up to maxRounds
// rounds before it has to answer in text.
func (a *agent) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	log := a.logger.With(zap.String(logger.FieldSession, sessionID))

	history, err := a.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if note := a.attachmentNote(ctx, req.AttachmentIDs); note != "" {
		history = append(history, genai.NewContentFromText(note, genai.RoleUser))
	}
	history = append(history, genai.NewContentFromText(req.Message, genai.RoleUser))

	system := agentInstructions
	if a.tools.SearchEnabled() {
		system += searchInstructions
	}
	tools := a.toolDeclarations()

	resp := &models.ChatResponse{SessionID: sessionID, ToolCalls: []models.ToolTrace{}}
	var lastOutput string

	for round := 0; round < a.maxRounds; round++ {
		content, err := a.llm.GenerateTurn(ctx, system, history, tools)
		if err != nil {
			return nil, err
		}
		history = append(history, content)

		calls := functionCalls(content)
		if len(calls) == 0 {
			resp.Final = contentText(content)
			break
		}

		responses := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			args := traceArguments(call.Args, log)
			resp.ToolCalls = append(resp.ToolCalls, models.ToolTrace{Type: "call", Tool: call.Name, Arguments: args})
			log.Info("🔧 Tool call", zap.String("tool", call.Name), zap.String("arguments", args))

			outcome := a.dispatch(ctx, call)
			lastOutput = outcome.Message()
			resp.ToolCalls = append(resp.ToolCalls, models.ToolTrace{Type: "output", Output: lastOutput})
			if !outcome.OK() {
				log.Warn("⚠️  Tool failed", zap.String("tool", call.Name), zap.String("kind", string(outcome.Kind)))
			}

			part := genai.NewPartFromFunctionResponse(call.Name, outcome.Payload())
			part.FunctionResponse.ID = call.ID
			responses = append(responses, part)
		}
		history = append(history, genai.NewContentFromParts(responses, genai.RoleUser))
	}

	if resp.Final == "" {
		resp.Final = lastOutput
		if resp.Final == "" {
			resp.Final = roundsExhaustedReply
		}
	}

	if err := a.sessions.Save(ctx, sessionID, history); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return resp, nil
}

func (a *agent) attachmentNote(ctx context.Context, ids []string) string {
	var lines []string
	for _, id := range compactIDs(ids) {
		meta, err := a.files.Get(ctx, id)
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s :: %s (%s)", id, meta.Filename, meta.ContentType))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Uploaded files available this turn:\n" + strings.Join(lines, "\n")
}

func (a *agent) dispatch(ctx context.Context, call *genai.FunctionCall) Outcome {
	switch call.Name {
	case ToolMergeDocuments:
		var args mergeArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return failure(call.Name, KindMissingInput, "Invalid arguments: %v", err)
		}
		return a.tools.MergeDocuments(ctx, args.FileIDs, args.TemplateID)
	case ToolResumeMatch:
		var args resumeMatchArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return failure(call.Name, KindMissingInput, "Invalid arguments: %v", err)
		}
		return a.tools.MatchResumes(ctx, args.ResumeIDs, args.JDText, args.JDFileID)
	case ToolSearchDocuments:
		var args searchArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return failure(call.Name, KindMissingInput, "Invalid arguments: %v", err)
		}
		return a.tools.SearchDocuments(ctx, args.Query, args.FileIDs, args.Limit)
	default:
		return failure(call.Name, KindMissingInput, "Unknown tool: %s", call.Name)
	}
}

// traceArguments renders tool call arguments for the trace, falling back to
// "{}" when they cannot be encoded.
func traceArguments(args map[string]any, log *zap.Logger) string {
	if len(args) == 0 {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		log.Warn("⚠️  Failed to encode tool arguments for trace", zap.Error(err))
		return "{}"
	}
	return string(data)
}

func decodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(args)
}

func (a *agent) toolDeclarations() []*genai.Tool {
	stringList := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}

	declarations := []*genai.FunctionDeclaration{
		{
			Name:        ToolMergeDocuments,
			Description: "Merge/summarize 2+ uploaded documents (PDF/DOCX/text) into a single .docx and return a download link.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"file_ids":    {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "IDs of uploaded files, at least two."},
					"template_id": {Type: genai.TypeString, Description: "Optional ID of a .docx template whose text acts as layout instructions."},
				},
				Required: []string{"file_ids"},
			},
		},
		{
			Name:        ToolResumeMatch,
			Description: "Score uploaded resumes against a job description and return a CSV report download link.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"resume_ids": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "IDs of uploaded resumes."},
					"jd_text":    {Type: genai.TypeString, Description: "Job description text."},
					"jd_file_id": {Type: genai.TypeString, Description: "ID of an uploaded job description file, used when jd_text is empty."},
				},
				Required: []string{"resume_ids"},
			},
		},
	}

	if a.tools.SearchEnabled() {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        ToolSearchDocuments,
			Description: "Find passages in uploaded documents relevant to a question.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"query":    {Type: genai.TypeString},
					"file_ids": stringList,
					"limit":    {Type: genai.TypeInteger},
				},
				Required: []string{"query"},
			},
		})
	}

	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

func functionCalls(content *genai.Content) []*genai.FunctionCall {
	var calls []*genai.FunctionCall
	for _, part := range content.Parts {
		if part != nil && part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}

func contentText(content *genai.Content) string {
	var texts []string
	for _, part := range content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			texts = append(texts, part.Text)
		}
	}
	return strings.TrimSpace(strings.Join(texts, ""))
}
