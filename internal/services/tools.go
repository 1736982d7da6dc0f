package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/agentic-curie/internal/logger"
	"alfredoptarigan/agentic-curie/internal/models"
	"alfredoptarigan/agentic-curie/internal/repositories"
)

const (
	MergeOutputFilename = "Document_Generator_Output.docx"
	MatchOutputFilename = "Resume_Match_Results.csv"
	defaultSearchLimit  = 5
)

// Toolbox exposes the pipelines as agent tools addressed by file id.
type Toolbox struct {
	files      repositories.FileRepository
	summarizer Summarizer
	matcher    Matcher
	extractor  TextExtractor
	index      DocumentIndex
	logger     *zap.Logger
}

// NewToolbox wires the tools. index may be nil when the document index is
// disabled.
func NewToolbox(
	files repositories.FileRepository,
	summarizer Summarizer,
	matcher Matcher,
	extractor TextExtractor,
	index DocumentIndex,
	log *zap.Logger,
) *Toolbox {
	return &Toolbox{
		files:      files,
		summarizer: summarizer,
		matcher:    matcher,
		extractor:  extractor,
		index:      index,
		logger:     logger.OrNop(log),
	}
}

func (t *Toolbox) SearchEnabled() bool {
	return t.index != nil
}

// MergeDocuments summarizes two or more stored files into one .docx,
// optionally arranged by a .docx template.
func (t *Toolbox) MergeDocuments(ctx context.Context, fileIDs []string, templateID string) Outcome {
	const tool = ToolMergeDocuments
	fileIDs = compactIDs(fileIDs)
	if len(fileIDs) < 2 {
		return failure(tool, KindMissingInput, "Please provide at least two file_ids.")
	}

	inputs, out, ok := t.loadFiles(ctx, tool, fileIDs)
	if !ok {
		return out
	}

	var instructions string
	if templateID = strings.TrimSpace(templateID); templateID != "" {
		meta, err := t.files.Get(ctx, templateID)
		if err != nil {
			return failure(tool, KindNotFound, "Template ID not found: %s", templateID)
		}
		if meta.Ext() != ".docx" {
			return failure(tool, KindInvalidTemplate, "Template must be a .docx file.")
		}
		data, err := t.files.Read(ctx, templateID)
		if err != nil {
			t.logger.Error("❌ Failed reading template", zap.String("file_id", templateID), zap.Error(err))
			return failure(tool, KindReadFailed, "Error reading template %s: %v", templateID, err)
		}
		instructions, err = t.extractor.TemplateInstructions(data)
		if err != nil {
			return failure(tool, KindInvalidTemplate, "Template must be a .docx file.")
		}
	}

	result, err := t.summarizer.Summarize(ctx, inputs, instructions)
	if err != nil {
		t.logger.Error("❌ Summarization pipeline failed", zap.Error(err))
		return pipelineFailure(tool, "Summarization failed", err)
	}

	saved, err := t.files.Save(ctx, result.Document, MergeOutputFilename, DocxContentType)
	if err != nil {
		t.logger.Error("❌ Failed saving generated document", zap.Error(err))
		return failure(tool, KindSaveFailed, "Failed to save generated document: %v", err)
	}

	tokens := result.Tokens
	return Outcome{
		Tool:        tool,
		File:        saved,
		DownloadURL: DownloadURL(saved.ID),
		Tokens:      &tokens,
	}
}

// MatchResumes scores stored resumes against a JD given as text or as a
// stored file, and saves the CSV report.
func (t *Toolbox) MatchResumes(ctx context.Context, resumeIDs []string, jdText, jdFileID string) Outcome {
	const tool = ToolResumeMatch
	resumeIDs = compactIDs(resumeIDs)
	if len(resumeIDs) == 0 {
		return failure(tool, KindMissingInput, "Please provide at least one resume file id.")
	}

	jd := strings.TrimSpace(jdText)
	if jd == "" && strings.TrimSpace(jdFileID) != "" {
		meta, err := t.files.Get(ctx, jdFileID)
		if err != nil {
			return failure(tool, KindNotFound, "JD file ID not found: %s", jdFileID)
		}
		data, err := t.files.Read(ctx, jdFileID)
		if err != nil {
			return failure(tool, KindReadFailed, "Error reading file %s: %v", jdFileID, err)
		}
		jd = strings.TrimSpace(t.extractor.ExtractText(meta.Filename, data))
		if jd == "" {
			return failure(tool, KindNoReadableInput, "The job description file has no readable text.")
		}
	}
	if jd == "" {
		return failure(tool, KindMissingInput, "Please provide the job description as text or as an uploaded file.")
	}

	resumes, out, ok := t.loadFiles(ctx, tool, resumeIDs)
	if !ok {
		return out
	}

	results, err := t.matcher.Match(ctx, jd, resumes)
	if err != nil {
		t.logger.Error("❌ Resume matching failed", zap.Error(err))
		return pipelineFailure(tool, "Resume matching failed", err)
	}

	report, err := ResultsCSV(results)
	if err != nil {
		return failure(tool, KindPipelineFailed, "Resume matching failed: %v", err)
	}

	saved, err := t.files.Save(ctx, report, MatchOutputFilename, CSVContentType)
	if err != nil {
		t.logger.Error("❌ Failed saving match report", zap.Error(err))
		return failure(tool, KindSaveFailed, "Failed to save match report: %v", err)
	}

	return Outcome{
		Tool:        tool,
		File:        saved,
		DownloadURL: DownloadURL(saved.ID),
		Results:     results,
	}
}

// SearchDocuments looks up indexed passages relevant to query.
func (t *Toolbox) SearchDocuments(ctx context.Context, query string, fileIDs []string, limit int) Outcome {
	const tool = ToolSearchDocuments
	if t.index == nil {
		return failure(tool, KindMissingInput, "Document search is not enabled.")
	}
	if strings.TrimSpace(query) == "" {
		return failure(tool, KindMissingInput, "Please provide a search query.")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	hits, err := t.index.Search(ctx, query, compactIDs(fileIDs), limit)
	if err != nil {
		t.logger.Error("❌ Document search failed", zap.Error(err))
		return pipelineFailure(tool, "Document search failed", err)
	}

	return Outcome{Tool: tool, Context: FormatSearchContext(hits)}
}

func (t *Toolbox) loadFiles(ctx context.Context, tool string, ids []string) ([]models.NamedFile, Outcome, bool) {
	inputs := make([]models.NamedFile, 0, len(ids))
	for _, id := range ids {
		meta, err := t.files.Get(ctx, id)
		if err != nil {
			return nil, failure(tool, KindNotFound, "File ID not found: %s", id), false
		}
		data, err := t.files.Read(ctx, id)
		if err != nil {
			t.logger.Error("❌ Failed reading file", zap.String("file_id", id), zap.Error(err))
			return nil, failure(tool, KindReadFailed, "Error reading file %s: %v", id, err), false
		}
		inputs = append(inputs, models.NamedFile{Filename: meta.Filename, Data: data})
	}
	return inputs, Outcome{}, true
}

func pipelineFailure(tool, prefix string, err error) Outcome {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return failure(tool, KindMissingCredential, "The Gemini API key is not configured.")
	case errors.Is(err, ErrNoReadableInputs), errors.Is(err, ErrUnreadableInput):
		return failure(tool, KindNoReadableInput, "%s: %v", prefix, err)
	default:
		return failure(tool, KindPipelineFailed, "%s: %v", prefix, err)
	}
}

func compactIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
