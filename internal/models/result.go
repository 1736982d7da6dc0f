package models

type UploadResponse struct {
	Files []StoredFile `json:"files"`
}

type ChatRequest struct {
	Message       string   `json:"message"`
	SessionID     string   `json:"session_id,omitempty"`
	AttachmentIDs []string `json:"attachment_ids,omitempty"`
}

// ToolTrace is one entry of the tool invocation trace returned to the chat UI.
type ToolTrace struct {
	Type      string `json:"type"`
	Tool      string `json:"tool,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Output    string `json:"output,omitempty"`
}

type ChatResponse struct {
	Final     string      `json:"final"`
	SessionID string      `json:"session_id"`
	ToolCalls []ToolTrace `json:"tool_calls"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
