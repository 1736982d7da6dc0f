package services

import (
	"fmt"

	"alfredoptarigan/agentic-curie/internal/models"
)

type ErrorKind string

const (
	KindMissingInput      ErrorKind = "missing_input"
	KindNotFound          ErrorKind = "not_found"
	KindInvalidTemplate   ErrorKind = "invalid_template"
	KindMissingCredential ErrorKind = "missing_credential"
	KindNoReadableInput   ErrorKind = "no_readable_input"
	KindReadFailed        ErrorKind = "read_failed"
	KindPipelineFailed    ErrorKind = "pipeline_failed"
	KindSaveFailed        ErrorKind = "save_failed"
)

const (
	ToolMergeDocuments  = "merge_documents"
	ToolResumeMatch     = "resume_match"
	ToolSearchDocuments = "search_documents"
)

// Outcome is the result of one tool invocation: either a success payload or
// an error kind with a human readable detail.
type Outcome struct {
	Tool        string
	Kind        ErrorKind
	Detail      string
	File        *models.StoredFile
	DownloadURL string
	Tokens      *models.TokenStats
	Results     []models.MatchResult
	Context     string
}

func DownloadURL(fileID string) string {
	return fmt.Sprintf("/api/files/%s/download", fileID)
}

func failure(tool string, kind ErrorKind, format string, args ...any) Outcome {
	return Outcome{Tool: tool, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func (o Outcome) OK() bool {
	return o.Kind == ""
}

// Message renders the outcome the way the chat UI shows it.
func (o Outcome) Message() string {
	if !o.OK() {
		return o.Detail
	}

	switch o.Tool {
	case ToolMergeDocuments:
		return fmt.Sprintf("Document generated successfully. Download: %s", o.DownloadURL)
	case ToolResumeMatch:
		return fmt.Sprintf("Resume matching completed for %d resume(s). Download: %s", len(o.Results), o.DownloadURL)
	case ToolSearchDocuments:
		return o.Context
	default:
		return "Done."
	}
}

// Payload is the structured form handed back to the model as a function
// response.
func (o Outcome) Payload() map[string]any {
	payload := map[string]any{
		"ok":      o.OK(),
		"message": o.Message(),
	}
	if !o.OK() {
		payload["error_kind"] = string(o.Kind)
		return payload
	}
	if o.File != nil {
		payload["file_id"] = o.File.ID
		payload["filename"] = o.File.Filename
	}
	if o.DownloadURL != "" {
		payload["download_url"] = o.DownloadURL
	}
	if o.Tokens != nil {
		payload["tokens"] = map[string]any{
			"input_tokens":  o.Tokens.InputTokens,
			"output_tokens": o.Tokens.OutputTokens,
			"total_tokens":  o.Tokens.TotalTokens,
		}
	}
	if len(o.Results) > 0 {
		rows := make([]map[string]any, 0, len(o.Results))
		for _, r := range o.Results {
			rows = append(rows, map[string]any{"name": r.Name, "score": r.Score})
		}
		payload["results"] = rows
	}
	return payload
}
