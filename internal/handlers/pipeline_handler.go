package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/agentic-curie/internal/logger"
	"alfredoptarigan/agentic-curie/internal/models"
	"alfredoptarigan/agentic-curie/internal/services"
)

// PipelineHandler runs the pipelines directly on uploaded files without
// going through the file store.
type PipelineHandler struct {
	summarizer  services.Summarizer
	matcher     services.Matcher
	extractor   services.TextExtractor
	maxFileSize int64
	logger      *zap.Logger
}

func NewPipelineHandler(
	summarizer services.Summarizer,
	matcher services.Matcher,
	extractor services.TextExtractor,
	maxFileSize int64,
	log *zap.Logger,
) *PipelineHandler {
	return &PipelineHandler{
		summarizer:  summarizer,
		matcher:     matcher,
		extractor:   extractor,
		maxFileSize: maxFileSize,
		logger:      logger.OrNop(log),
	}
}

// HandleSummarize handles POST /api/summarize
func (h *PipelineHandler) HandleSummarize(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "failed to parse multipart form")
	}

	if len(form.File["files"]) < 2 {
		return errorJSON(c, fiber.StatusBadRequest, "Upload at least 2 documents.")
	}

	inputs, err := readUploads(form.File["files"], h.maxFileSize)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	var instructions string
	if templates := form.File["template"]; len(templates) > 0 {
		data, err := readUpload(templates[0], h.maxFileSize)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		instructions, err = h.extractor.TemplateInstructions(data)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "Template must be a .docx file.")
		}
	}

	result, err := h.summarizer.Summarize(c.UserContext(), inputs, instructions)
	if err != nil {
		h.logger.Error("❌ Summarization failed", zap.Error(err))
		return errorJSON(c, errorStatus(err), "Summarization failed: "+err.Error())
	}

	c.Set(fiber.HeaderContentType, services.DocxContentType)
	c.Set(fiber.HeaderContentDisposition, attachmentHeader(services.MergeOutputFilename))
	setTokenHeaders(c, result.Tokens)
	return c.Send(result.Document)
}

// HandleMatch handles POST /api/match
func (h *PipelineHandler) HandleMatch(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "failed to parse multipart form")
	}

	if len(form.File["resumes"]) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, "Upload at least 1 resume.")
	}

	resumes, err := readUploads(form.File["resumes"], h.maxFileSize)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	var jd string
	if values := form.Value["jd_text"]; len(values) > 0 {
		jd = strings.TrimSpace(values[0])
	}
	if jdFiles := form.File["jd"]; jd == "" && len(jdFiles) > 0 {
		data, err := readUpload(jdFiles[0], h.maxFileSize)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		jd = strings.TrimSpace(h.extractor.ExtractText(jdFiles[0].Filename, data))
	}
	if jd == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Provide the job description as jd_text or as a readable jd file.")
	}

	results, err := h.matcher.Match(c.UserContext(), jd, resumes)
	if err != nil {
		h.logger.Error("❌ Resume matching failed", zap.Error(err))
		return errorJSON(c, errorStatus(err), "Resume matching failed: "+err.Error())
	}

	report, err := services.ResultsCSV(results)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	c.Set(fiber.HeaderContentType, services.CSVContentType)
	c.Set(fiber.HeaderContentDisposition, attachmentHeader(services.MatchOutputFilename))
	return c.Send(report)
}

func setTokenHeaders(c *fiber.Ctx, tokens models.TokenStats) {
	c.Set("X-Token-Input", strconv.Itoa(tokens.InputTokens))
	c.Set("X-Token-Output", strconv.Itoa(tokens.OutputTokens))
	c.Set("X-Token-Total", strconv.Itoa(tokens.TotalTokens))
}
