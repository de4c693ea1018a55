package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Raw PDF content is scanned without a full parser: literal strings next to
// show-text operators, show-text arrays, block-text regions and content
// streams cover the overwhelming majority of uncompressed text PDFs.
var (
	reLiteralTj = regexp.MustCompile(`\(([^)\\]*(?:\\.[^)\\]*)*)\)\s*Tj`)
	reLiteral   = regexp.MustCompile(`\(([^)\\]*(?:\\.[^)\\]*)*)\)`)
	reShowArray = regexp.MustCompile(`(?s)\[(.*?)\]\s*TJ`)
	reBlockText = regexp.MustCompile(`(?s)BT(.*?)ET`)
	reStream    = regexp.MustCompile(`(?s)stream[\r\n](.*?)[\r\n]endstream`)
	reParen     = regexp.MustCompile(`\(([^)]+)\)`)
	reSpaces    = regexp.MustCompile(`\s+`)
	reNumeric   = regexp.MustCompile(`^[\d.]+$`)
)

// minPatternLen is the acceptance threshold for a single pattern heuristic.
const minPatternLen = 100

// PatternExtractor recovers text from raw PDF bytes through a fixed sequence
// of syntactic heuristics. Each heuristic is independent; the first one whose
// output exceeds minPatternLen wins.
type PatternExtractor struct{}

func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

type patternFunc struct {
	method Method
	run    func(string) string
}

// Extract returns the recovered text and the heuristic that produced it,
// or ErrNoText when every heuristic comes up short.
func (e *PatternExtractor) Extract(ctx context.Context, data []byte) (string, Method, error) {
	logger := logutil.GetLogger(ctx)
	pdf := binaryString(data)

	heuristics := []patternFunc{
		{MethodPatternTextObject, extractTextObjects},
		{MethodPatternMarker, extractBetweenMarkers},
		{MethodPatternStream, extractStreamObjects},
		{MethodPatternReadableASCII, extractReadableASCII},
	}
	for _, h := range heuristics {
		text := h.run(pdf)
		if len(text) > minPatternLen {
			logger.Debug("pdf pattern heuristic accepted",
				zap.String("method", string(h.method)),
				zap.Int("chars", len(text)),
			)
			return text, h.method, nil
		}
	}
	return "", "", ErrNoText
}

// extractTextObjects collects literal strings tied to show-text operators
// anywhere in the file: (text) Tj, bare (text), [(a) -12 (b)] TJ arrays and
// BT..ET block contents.
func extractTextObjects(pdf string) string {
	var chunks []string

	for _, m := range reLiteralTj.FindAllStringSubmatch(pdf, -1) {
		if text := unescapePDFString(m[1]); len(text) > 2 {
			chunks = append(chunks, text)
		}
	}
	for _, m := range reLiteral.FindAllStringSubmatch(pdf, -1) {
		if text := unescapePDFString(m[1]); len(text) > 2 {
			chunks = append(chunks, text)
		}
	}
	for _, m := range reShowArray.FindAllStringSubmatch(pdf, -1) {
		for _, inner := range reParen.FindAllStringSubmatch(m[1], -1) {
			if text := unescapePDFString(inner[1]); len(text) > 1 {
				chunks = append(chunks, text)
			}
		}
	}
	for _, m := range reBlockText.FindAllStringSubmatch(pdf, -1) {
		if text := unescapePDFString(m[1]); len(text) > 2 {
			chunks = append(chunks, text)
		}
	}
	return collapseSpaces(strings.Join(chunks, " "))
}

// extractBetweenMarkers restricts the scan to BT..ET regions, which cuts the
// false positives that non-text PDF structures produce in a whole-file pass.
func extractBetweenMarkers(pdf string) string {
	var chunks []string

	for _, block := range reBlockText.FindAllStringSubmatch(pdf, -1) {
		for _, m := range reLiteral.FindAllStringSubmatch(block[1], -1) {
			text := unescapePDFString(m[1])
			if len(text) > 1 && hasLetter(text) {
				chunks = append(chunks, text)
			}
		}
		for _, arr := range reShowArray.FindAllStringSubmatch(block[1], -1) {
			for _, inner := range reParen.FindAllStringSubmatch(arr[1], -1) {
				if text := unescapePDFString(inner[1]); len(text) > 1 {
					chunks = append(chunks, text)
				}
			}
		}
	}
	return collapseSpaces(strings.Join(chunks, " "))
}

// extractStreamObjects scans stream..endstream bodies. Literal strings are
// preferred; when a stream holds none, the printable remainder is kept if it
// still looks like language.
func extractStreamObjects(pdf string) string {
	var chunks []string

	for _, m := range reStream.FindAllStringSubmatch(pdf, -1) {
		body := m[1]
		literals := reLiteral.FindAllStringSubmatch(body, -1)
		if len(literals) > 0 {
			for _, lit := range literals {
				text := unescapePDFString(lit[1])
				if len(text) > 2 && hasLetter(text) {
					chunks = append(chunks, text)
				}
			}
			continue
		}
		readable := collapseSpaces(stripNonPrintable(body))
		if len(readable) > 20 && hasLetter(readable) {
			chunks = append(chunks, readable)
		}
	}
	return collapseSpaces(strings.Join(chunks, " "))
}

// extractReadableASCII is the last-resort signal-from-noise pass: strip
// everything outside printable ASCII and keep only word-shaped tokens.
func extractReadableASCII(pdf string) string {
	var words []string

	for _, word := range strings.Fields(stripNonPrintable(pdf)) {
		if len(word) < 2 || !hasLetter(word) {
			continue
		}
		if reNumeric.MatchString(word) {
			continue
		}
		// obj/endobj and friends are PDF structure, not content.
		if strings.Contains(word, "obj") {
			continue
		}
		words = append(words, word)
	}
	return collapseSpaces(strings.Join(words, " "))
}

// unescapePDFString resolves PDF literal-string escapes: the named escapes,
// escaped delimiters and backslash, and octal character codes.
func unescapePDFString(raw string) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case '(':
			sb.WriteByte('(')
		case ')':
			sb.WriteByte(')')
		case '\\':
			sb.WriteByte('\\')
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for d := 0; d < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; d++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return strings.TrimSpace(collapseSpaces(sb.String()))
}

// binaryString maps each input byte to the rune of the same value so byte
// patterns survive the trip through Go's UTF-8 regexp engine.
func binaryString(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		sb.WriteRune(rune(b))
	}
	return sb.String()
}

func stripNonPrintable(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r >= 0x20 && r <= 0x7e || r == '\n' || r == '\r' || r == '\t' {
			sb.WriteRune(r)
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

func hasLetter(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}
