package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsReadableTextAccepts(t *testing.T) {
	assert.True(t, IsReadableText("Hemoglobin 12.4 mg/dL within normal range"))
	assert.True(t, IsReadableText("Patient presented with mild symptoms on 2024-03-15."))
}

func TestIsReadableTextRejectsShort(t *testing.T) {
	assert.False(t, IsReadableText(""))
	assert.False(t, IsReadableText("abc def"))
}

func TestIsReadableTextRejectsBinaryRatio(t *testing.T) {
	// mostly control characters, printable ratio well under 0.7
	garbage := strings.Repeat("\x01\x02\x03a", 20)
	assert.False(t, IsReadableText(garbage))
}

func TestIsReadableTextRejectsNoLetterRun(t *testing.T) {
	// printable but no three consecutive letters anywhere
	assert.False(t, IsReadableText("12 34 56 78 90 a1 b2 c3 d4 e5 f6"))
}
