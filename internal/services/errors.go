package services

import "errors"

var (
	ErrMissingCredential = errors.New("gemini api key is not configured")
	ErrNoReadableInputs  = errors.New("no readable input documents")
	ErrUnreadableInput   = errors.New("input document has no extractable text")
	ErrInvalidTemplate   = errors.New("template must be a .docx document")
)
