package textsplitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name         string
		provider     string
		chunkSize    int
		chunkOverlap int
		wantErr      bool
	}{
		{name: "default provider", provider: "", chunkSize: 1000, chunkOverlap: 200},
		{name: "recursive", provider: "recursive", chunkSize: 1000, chunkOverlap: 200},
		{name: "character", provider: "character", chunkSize: 500, chunkOverlap: 0},
		{name: "zero chunk size", provider: "recursive", chunkSize: 0, chunkOverlap: 0, wantErr: true},
		{name: "overlap equals size", provider: "recursive", chunkSize: 100, chunkOverlap: 100, wantErr: true},
		{name: "unknown provider", provider: "semantic", chunkSize: 100, chunkOverlap: 10, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.provider, tt.chunkSize, tt.chunkOverlap)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestRecursiveSplitterShortText(t *testing.T) {
	s := NewRecursiveSplitter(1000, 200)
	chunks := s.SplitText("iPhone 15 Pro Max 256GB, giá 29.990.000 VND.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "iPhone 15 Pro Max 256GB, giá 29.990.000 VND.", chunks[0])
}

func TestRecursiveSplitterEmptyText(t *testing.T) {
	s := NewRecursiveSplitter(1000, 200)
	assert.Nil(t, s.SplitText(""))
	assert.Nil(t, s.SplitText("   \n\n  "))
}

func TestRecursiveSplitterBoundsChunkSize(t *testing.T) {
	paragraphs := make([]string, 20)
	for i := range paragraphs {
		paragraphs[i] = strings.Repeat("pin 5000mAh sạc nhanh 45W ", 4)
	}
	text := strings.Join(paragraphs, "\n\n")

	s := NewRecursiveSplitter(300, 50)
	chunks := s.SplitText(text)
	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.LessOrEqualf(t, len([]rune(chunk)), 300, "chunk %d exceeds chunk size", i)
		assert.NotEmpty(t, chunk)
	}
}

func TestRecursiveSplitterPrefersParagraphBoundaries(t *testing.T) {
	text := "Màn hình 6.7 inch AMOLED.\n\nCamera chính 200MP chống rung quang học.\n\nPin 5000mAh."
	s := NewRecursiveSplitter(40, 0)
	chunks := s.SplitText(text)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.NotContains(t, chunk, "\n\n")
	}
}

func TestRecursiveSplitterCoversAllContent(t *testing.T) {
	text := strings.Repeat("thông số kỹ thuật chi tiết ", 100)
	s := NewRecursiveSplitter(200, 40)
	chunks := s.SplitText(text)
	require.NotEmpty(t, chunks)

	joined := strings.Join(chunks, " ")
	assert.Contains(t, joined, "thông số kỹ thuật chi tiết")
	// Overlap means the joined output is at least as long as the input.
	assert.GreaterOrEqual(t, len(joined), len(strings.TrimSpace(text))-len(chunks)*2)
}

func TestHardSplitNoSeparators(t *testing.T) {
	text := strings.Repeat("x", 250)
	s := NewRecursiveSplitter(100, 20)
	chunks := s.SplitText(text)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100)
	}
	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	assert.GreaterOrEqual(t, total, 250)
}

func TestTokenSplitter(t *testing.T) {
	s, err := NewTokenSplitter(20, 5)
	require.NoError(t, err)

	text := strings.Repeat("so sánh giá điện thoại Samsung Galaxy ", 30)
	chunks := s.SplitText(text)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk)
	}

	assert.Nil(t, s.SplitText(""))
}
