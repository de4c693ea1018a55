package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPDFWithTextObjects() []byte {
	var sb strings.Builder
	sb.WriteString("%PDF-1.4\n1 0 obj\n<< /Type /Page >>\nendobj\n")
	sb.WriteString("BT\n/F1 12 Tf\n")
	lines := []string{
		"Patient Name: Maria Lopez",
		"Hemoglobin 12.4 mg/dL reference 12.0 - 16.0",
		"White Blood Cells 6.8 thousand/uL",
		"Platelets 250 thousand/uL",
		"Collected on 2024-03-15 at Central Laboratory",
	}
	for _, line := range lines {
		sb.WriteString("(" + line + ") Tj\n")
	}
	sb.WriteString("ET\nendobj\n%%EOF")
	return []byte(sb.String())
}

func TestPatternExtractorTextObjects(t *testing.T) {
	ex := NewPatternExtractor()
	text, method, err := ex.Extract(context.Background(), buildPDFWithTextObjects())
	require.NoError(t, err)
	assert.Equal(t, MethodPatternTextObject, method)
	assert.Contains(t, text, "Patient Name: Maria Lopez")
	assert.Contains(t, text, "12.4 mg/dL")
	assert.True(t, IsReadableText(text))
}

func TestPatternExtractorShowArray(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("%PDF-1.4\nBT\n")
	sb.WriteString("[(Glucose fasting result) -12 (98 mg/dL within range)] TJ\n")
	sb.WriteString("[(Cholesterol total measured) -8 (182 mg/dL desirable level)] TJ\n")
	sb.WriteString("[(Triglycerides measured today) -4 (110 mg/dL normal finding)] TJ\n")
	sb.WriteString("ET\n%%EOF")

	ex := NewPatternExtractor()
	text, _, err := ex.Extract(context.Background(), []byte(sb.String()))
	require.NoError(t, err)
	assert.Contains(t, text, "Glucose fasting result")
	assert.Contains(t, text, "182 mg/dL")
}

func TestPatternExtractorNoText(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0xff, 0xfe, 0x10, 0x80, 0x90}
	ex := NewPatternExtractor()
	_, _, err := ex.Extract(context.Background(), data)
	assert.ErrorIs(t, err, ErrNoText)
}

func TestUnescapePDFString(t *testing.T) {
	assert.Equal(t, "line one\nline two", unescapePDFString(`line one\nline two`))
	assert.Equal(t, "(nested)", unescapePDFString(`\(nested\)`))
	assert.Equal(t, `back\slash`, unescapePDFString(`back\\slash`))
	// \101 is octal for 'A', \54 for ','
	assert.Equal(t, "A,B", unescapePDFString(`\101\54B`))
}

func TestBinaryStringPreservesByteValues(t *testing.T) {
	data := []byte{0x28, 0x41, 0x29, 0xff, 0x00}
	s := binaryString(data)
	runes := []rune(s)
	require.Len(t, runes, len(data))
	for i, b := range data {
		assert.Equal(t, rune(b), runes[i])
	}
}

func TestExtractReadableASCIIFiltersStructure(t *testing.T) {
	in := "1 0 obj endobj 12345 3.14 xx Laboratory Report hemoglobin value stable"
	out := extractReadableASCII(in)
	assert.Contains(t, out, "Laboratory Report")
	assert.Contains(t, out, "hemoglobin")
	assert.NotContains(t, out, "endobj")
	assert.NotContains(t, out, "12345")
}
