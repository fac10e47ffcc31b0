// Package processor splits extracted document text into chunks for the
// document-chat index.
package processor

type ProcessorConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize <= 0 {
		config.ChunkSize = 500
	}
	if config.ChunkOverlap < 0 || config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = 50
	}
	return Processor{config: config}
}

// Chunk splits text into fixed-size character windows with overlap. The last
// window may be shorter; empty text yields no chunks.
func (p Processor) Chunk(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	size := p.config.ChunkSize
	step := size - p.config.ChunkOverlap

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
