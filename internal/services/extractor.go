package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"alfredoptarigan/agentic-curie/internal/logger"
)

// TextExtractor turns uploaded payloads into plain text. Extraction is best
// effort: unreadable input yields an empty string, never an error.
type TextExtractor interface {
	ExtractText(filename string, data []byte) string
	TemplateInstructions(data []byte) (string, error)
}

type textExtractor struct {
	logger *zap.Logger
}

func NewTextExtractor(log *zap.Logger) TextExtractor {
	return &textExtractor{logger: logger.OrNop(log)}
}

// ExtractText implements TextExtractor.
func (e *textExtractor) ExtractText(filename string, data []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err := extractPDF(data)
		if err != nil {
			e.logger.Warn("⚠️  Failed to extract PDF text", zap.String("filename", filename), zap.Error(err))
			return ""
		}
		return text
	case ".docx":
		paragraphs, err := docxParagraphs(data)
		if err != nil {
			e.logger.Warn("⚠️  Failed to extract DOCX text", zap.String("filename", filename), zap.Error(err))
			return ""
		}
		var kept []string
		for _, p := range paragraphs {
			if p != "" {
				kept = append(kept, p)
			}
		}
		return strings.Join(kept, "\n")
	default:
		return strings.ToValidUTF8(string(data), "")
	}
}

// TemplateInstructions returns every paragraph of a .docx layout document,
// blank ones included, so the ordering of the template survives.
func (e *textExtractor) TemplateInstructions(data []byte) (string, error) {
	paragraphs, err := docxParagraphs(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	return strings.Join(paragraphs, "\n"), nil
}

func extractPDF(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var pages []string
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil || pageText == "" {
			continue
		}
		pages = append(pages, pageText)
	}

	return strings.Join(pages, "\n"), nil
}

type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Inner []byte `xml:",innerxml"`
}

// text concatenates every w:t in the paragraph in document order, including
// runs nested in hyperlinks, insertions and smart tags.
func (p docxParagraph) text() (string, error) {
	var b strings.Builder
	decoder := xml.NewDecoder(bytes.NewReader(p.Inner))
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inText = t.Name.Local == "t"
		case xml.EndElement:
			inText = false
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
}

func docxParagraphs(data []byte) ([]string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx archive: %w", err)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open document.xml: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read document.xml: %w", err)
		}

		var doc docxDocument
		if err := xml.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse document.xml: %w", err)
		}

		paragraphs := make([]string, 0, len(doc.Body.Paragraphs))
		for _, para := range doc.Body.Paragraphs {
			text, err := para.text()
			if err != nil {
				return nil, fmt.Errorf("failed to parse paragraph: %w", err)
			}
			paragraphs = append(paragraphs, text)
		}
		return paragraphs, nil
	}

	return nil, fmt.Errorf("word/document.xml not found")
}
