package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenStatsAdd(t *testing.T) {
	var stats TokenStats
	stats.Add(10, 4)
	stats.Add(-3, 2)
	stats.Merge(TokenStats{InputTokens: 1, OutputTokens: 1})

	assert.Equal(t, 11, stats.InputTokens)
	assert.Equal(t, 7, stats.OutputTokens)
	assert.Equal(t, stats.InputTokens+stats.OutputTokens, stats.TotalTokens)
}

func TestStoredFileMediaType(t *testing.T) {
	f := StoredFile{Filename: "README"}
	assert.Equal(t, DefaultContentType, f.MediaType())
	assert.Equal(t, "", f.Ext())

	f = StoredFile{Filename: "Report.DOCX", ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"}
	assert.Equal(t, ".docx", f.Ext())
	assert.Equal(t, f.ContentType, f.MediaType())
}

func TestUnreadableResult(t *testing.T) {
	r := UnreadableResult("cv.pdf")
	assert.Equal(t, 0, r.Score)
	assert.Equal(t, []string{UnreadableMarker}, r.Gaps)
	assert.Equal(t, "cv.pdf", r.Name)
}
