package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextSizes(t *testing.T) {
	content := strings.Repeat("x", 4500)
	chunks := SplitText(content, 1000)
	require.Len(t, chunks, 5)
	for i := 0; i < 4; i++ {
		assert.Len(t, chunks[i], 1000)
	}
	assert.Len(t, chunks[4], 500)
}

func TestSplitTextRoundTrip(t *testing.T) {
	content := strings.Repeat("medical record entry ", 137)
	chunks := SplitText(content, 256)
	assert.Equal(t, content, strings.Join(chunks, ""))
}

func TestSplitTextSmallInput(t *testing.T) {
	chunks := SplitText("short", 1000)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short", chunks[0])
}

func TestSplitTextEmpty(t *testing.T) {
	assert.Empty(t, SplitText("", 1000))
	assert.Empty(t, SplitText("anything", 0))
}
