package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynthesizeBloodTest(t *testing.T) {
	src := &Source{
		Title:    "Hemograma completo 2024",
		FileName: "hemograma_12345678.pdf",
		MimeType: "application/pdf",
		Data:     make([]byte, 2048),
	}
	out := Synthesize(src)
	assert.NotEmpty(t, out)
	assert.Contains(t, out, "Hemograma completo 2024")
	assert.Contains(t, out, "blood test (hemograma)")
	assert.Contains(t, out, "Complete Blood Count (CBC) results")
	assert.Contains(t, out, "hemograma")
	assert.Contains(t, out, "12345678")
	assert.Contains(t, out, "manual review")
}

func TestSynthesizeDocTypeNote(t *testing.T) {
	src := &Source{
		Title:    "Quarterly evaluation",
		FileName: "eval.pdf",
		DocType:  "Assessment Report",
	}
	out := Synthesize(src)
	assert.Contains(t, out, "detailed evaluation of the patient's condition")
}

func TestSynthesizeEmptyMetadata(t *testing.T) {
	out := Synthesize(&Source{})
	assert.NotEmpty(t, out)
	assert.True(t, strings.HasPrefix(out, "Medical Document: Medical Document"))
}

func TestGenericFallback(t *testing.T) {
	out := GenericFallback(&Source{Title: "Scan results", MimeType: "image/png"})
	assert.Contains(t, out, "Scan results")
	assert.Contains(t, out, "image/png")
	assert.Contains(t, out, "manual review")
}

func TestGenericFallbackDefaults(t *testing.T) {
	out := GenericFallback(&Source{FileName: "upload.bin"})
	assert.Contains(t, out, "upload.bin")
	assert.Contains(t, out, "Unknown")
}
