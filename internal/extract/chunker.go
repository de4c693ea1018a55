package extract

// SplitText splits content into substrings of at most maxSize characters,
// covering the input contiguously with no gaps or overlaps. Splitting is
// purely positional; embedding models tolerate mid-word cuts better than the
// pipeline tolerates lossy chunking. Empty input yields no chunks.
func SplitText(content string, maxSize int) []string {
	if maxSize <= 0 || content == "" {
		return nil
	}
	chunks := make([]string, 0, (len(content)+maxSize-1)/maxSize)
	for start := 0; start < len(content); start += maxSize {
		end := start + maxSize
		if end > len(content) {
			end = len(content)
		}
		chunks = append(chunks, content[start:end])
	}
	return chunks
}
