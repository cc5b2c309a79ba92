package utils

// SplitText cuts text into chunks of at most chunkSize runes, with the
// last 'overlap' runes of each chunk repeated at the start of the next
// so sentences spanning a boundary stay retrievable. Plain rune slicing,
// no token awareness.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	totalLen := len(runes)
	if totalLen <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // degenerate overlap, fall back to disjoint chunks
	}

	var chunks []string
	for i := 0; i < totalLen; i += step {
		end := i + chunkSize
		if end > totalLen {
			end = totalLen
		}

		chunks = append(chunks, string(runes[i:end]))

		if end == totalLen {
			break
		}
	}

	return chunks
}
