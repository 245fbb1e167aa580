package chunking

import "strings"

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 100
)

var boundaries = []string{"\n\n", "\n", ". ", " "}

// Splitter cuts text into rune windows of at most ChunkSize, preferring to end
// a window on a paragraph, line, sentence or word boundary in its second half.
// Consecutive windows share Overlap runes.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	out := make([]string, 0, len(runes)/s.ChunkSize+1)
	for start := 0; start < len(runes); {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = start + cutPoint(runes[start:end])
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - s.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

// cutPoint returns the window length to keep, ending right after the last
// boundary found in the second half of window, or the full window.
func cutPoint(window []rune) int {
	half := len(window) / 2
	text := string(window)
	for _, sep := range boundaries {
		idx := strings.LastIndex(text, sep)
		if idx < 0 {
			continue
		}
		cut := len([]rune(text[:idx])) + len([]rune(sep))
		if cut > half {
			return cut
		}
	}
	return len(window)
}
