package services

type TextChunker interface {
	ChunkText(text string, size int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText implements TextChunker. Windows are size runes wide and advance
// by max(1, size-overlap); the last window is clipped to the end of text.
func (tc *textChunker) ChunkText(text string, size int, overlap int) []string {
	return ChunkText(text, size, overlap)
}

func ChunkText(text string, size int, overlap int) []string {
	if size < 1 {
		size = 1
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	step := size - overlap
	if step < 1 {
		step = 1
	}

	chunks := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks
}
