package models

import (
	"path/filepath"
	"strings"
	"time"
)

const DefaultContentType = "application/octet-stream"

// StoredFile is the metadata of an uploaded or generated file. The payload
// lives in a blob store under Key.
type StoredFile struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Key         string    `json:"-"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// Ext returns the lower-cased filename extension including the dot.
func (f *StoredFile) Ext() string {
	return strings.ToLower(filepath.Ext(f.Filename))
}

// MediaType returns the stored content type or the generic binary type.
func (f *StoredFile) MediaType() string {
	if strings.TrimSpace(f.ContentType) == "" {
		return DefaultContentType
	}
	return f.ContentType
}

// NamedFile is a payload paired with its original filename, the unit the
// pipelines work on.
type NamedFile struct {
	Filename string
	Data     []byte
}
