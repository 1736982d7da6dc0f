package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/agentic-curie/internal/logger"
	"alfredoptarigan/agentic-curie/internal/models"
	"alfredoptarigan/agentic-curie/internal/repositories"
	"alfredoptarigan/agentic-curie/internal/services"
)

type FileHandler struct {
	files       repositories.FileRepository
	index       services.DocumentIndex
	maxFileSize int64
	logger      *zap.Logger
}

// NewFileHandler builds the file endpoints. index may be nil.
func NewFileHandler(
	files repositories.FileRepository,
	index services.DocumentIndex,
	maxFileSize int64,
	log *zap.Logger,
) *FileHandler {
	return &FileHandler{
		files:       files,
		index:       index,
		maxFileSize: maxFileSize,
		logger:      logger.OrNop(log),
	}
}

// HandleUpload handles POST /api/files/upload
func (h *FileHandler) HandleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "failed to parse multipart form")
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, "No files uploaded.")
	}

	inputs, err := readUploads(headers, h.maxFileSize)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	saved := make([]models.StoredFile, 0, len(inputs))
	for i, in := range inputs {
		file, err := h.files.Save(ctx, in.Data, in.Filename, headers[i].Header.Get(fiber.HeaderContentType))
		if err != nil {
			h.logger.Error("❌ Failed to save upload", zap.String("filename", in.Filename), zap.Error(err))
			return errorJSON(c, fiber.StatusInternalServerError, fmt.Sprintf("failed to save %s: %v", in.Filename, err))
		}

		if h.index != nil {
			if _, err := h.index.IndexFile(ctx, file, in.Data); err != nil {
				h.logger.Warn("⚠️  Failed to index upload", zap.String("file_id", file.ID), zap.Error(err))
			}
		}

		saved = append(saved, *file)
	}

	return c.Status(fiber.StatusCreated).JSON(models.UploadResponse{Files: saved})
}

// HandleList handles GET /api/files
func (h *FileHandler) HandleList(c *fiber.Ctx) error {
	files, err := h.files.List(c.UserContext())
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(models.UploadResponse{Files: files})
}

// HandleDownload handles GET /api/files/:id/download
func (h *FileHandler) HandleDownload(c *fiber.Ctx) error {
	id := c.Params("id")
	ctx := c.UserContext()

	meta, err := h.files.Get(ctx, id)
	if err != nil {
		return errorJSON(c, errorStatus(err), "File not found")
	}

	data, err := h.files.Read(ctx, id)
	if err != nil {
		return errorJSON(c, errorStatus(err), err.Error())
	}

	c.Set(fiber.HeaderContentType, meta.MediaType())
	c.Set(fiber.HeaderContentDisposition, attachmentHeader(meta.Filename))
	return c.Send(data)
}

// HandleDelete handles DELETE /api/files/:id
func (h *FileHandler) HandleDelete(c *fiber.Ctx) error {
	id := c.Params("id")
	ctx := c.UserContext()

	if err := h.files.Delete(ctx, id); err != nil {
		return errorJSON(c, errorStatus(err), "File not found")
	}

	if h.index != nil {
		if err := h.index.Remove(ctx, id); err != nil {
			h.logger.Warn("⚠️  Failed to remove file from index", zap.String("file_id", id), zap.Error(err))
		}
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func readUploads(headers []*multipart.FileHeader, maxFileSize int64) ([]models.NamedFile, error) {
	out := make([]models.NamedFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readUpload(fh, maxFileSize)
		if err != nil {
			return nil, err
		}
		out = append(out, models.NamedFile{Filename: fh.Filename, Data: data})
	}
	return out, nil
}

func readUpload(fh *multipart.FileHeader, maxFileSize int64) ([]byte, error) {
	if maxFileSize > 0 && fh.Size > maxFileSize {
		return nil, fmt.Errorf("%s is too large. Max size: %d bytes", fh.Filename, maxFileSize)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file %s: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file %s: %w", fh.Filename, err)
	}
	return data, nil
}

func attachmentHeader(filename string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, strings.ReplaceAll(filename, `"`, ""))
}
