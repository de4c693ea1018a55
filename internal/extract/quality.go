package extract

// IsReadableText reports whether a candidate string looks like real language
// rather than an extraction artifact. It requires a minimum length, a
// dominant share of printable ASCII, and at least one run of three
// consecutive letters (hex dumps and punctuation soup pass the ratio check
// but fail the word-shape check).
func IsReadableText(content string) bool {
	runes := []rune(content)
	if len(runes) < 10 {
		return false
	}
	printable := 0
	for _, r := range runes {
		if r >= 0x20 && r <= 0x7e {
			printable++
		}
	}
	ratio := float64(printable) / float64(len(runes))
	return ratio > 0.7 && hasLetterRun(content, 3)
}

func hasLetterRun(s string, n int) bool {
	run := 0
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}
