// Package textsplitter chunks page text before indexing. Two providers are
// available: a recursive character splitter that prefers paragraph and
// sentence boundaries, and a token splitter that windows over BPE tokens.
package textsplitter

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Splitter breaks a text into chunks bounded by the configured chunk size.
type Splitter interface {
	SplitText(text string) []string
}

// New creates a splitter for the given provider name. Supported providers:
// recursive (default), character, token.
func New(provider string, chunkSize, chunkOverlap int) (Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("splitter chunk_size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("splitter chunk_overlap must be in [0, chunk_size), got %d", chunkOverlap)
	}
	switch strings.ToLower(provider) {
	case "", "recursive":
		return NewRecursiveSplitter(chunkSize, chunkOverlap), nil
	case "character":
		return &RecursiveSplitter{
			chunkSize:    chunkSize,
			chunkOverlap: chunkOverlap,
			separators:   []string{"\n\n", ""},
		}, nil
	case "token":
		return NewTokenSplitter(chunkSize, chunkOverlap)
	default:
		return nil, fmt.Errorf("unknown splitter provider: %s", provider)
	}
}

// RecursiveSplitter splits on the coarsest separator that keeps pieces under
// the chunk size, recursing to finer separators for oversized pieces, then
// merges adjacent pieces back together with overlap.
type RecursiveSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewRecursiveSplitter builds a recursive character splitter with the default
// separator ladder: paragraph, line, sentence, word.
func NewRecursiveSplitter(chunkSize, chunkOverlap int) *RecursiveSplitter {
	return &RecursiveSplitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   []string{"\n\n", "\n", ". ", " ", ""},
	}
}

func (s *RecursiveSplitter) SplitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	separator := ""
	var remaining []string
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			remaining = separators[i+1:]
			break
		}
	}

	var pieces []string
	if separator == "" {
		return s.hardSplit(text)
	}
	pieces = strings.Split(text, separator)

	var chunks []string
	var fitting []string
	for _, piece := range pieces {
		if len([]rune(piece))+len(separator) <= s.chunkSize {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			chunks = append(chunks, s.merge(fitting, separator)...)
			fitting = nil
		}
		if len(remaining) == 0 {
			chunks = append(chunks, s.hardSplit(piece)...)
		} else {
			chunks = append(chunks, s.split(piece, remaining)...)
		}
	}
	if len(fitting) > 0 {
		chunks = append(chunks, s.merge(fitting, separator)...)
	}
	return chunks
}

// merge joins consecutive pieces into chunks up to the chunk size, carrying
// trailing pieces forward so adjacent chunks overlap by roughly chunkOverlap
// characters.
func (s *RecursiveSplitter) merge(pieces []string, separator string) []string {
	sepLen := len([]rune(separator))
	var chunks []string
	var window []string
	total := 0
	for _, piece := range pieces {
		pieceLen := len([]rune(piece))
		if total+pieceLen+sepLen > s.chunkSize && len(window) > 0 {
			if chunk := strings.TrimSpace(strings.Join(window, separator)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.chunkOverlap && len(window) > 0 {
				total -= len([]rune(window[0])) + sepLen
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += pieceLen + sepLen
	}
	if chunk := strings.TrimSpace(strings.Join(window, separator)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// hardSplit cuts a text with no usable separator into fixed-size rune windows.
func (s *RecursiveSplitter) hardSplit(text string) []string {
	runes := []rune(text)
	step := s.chunkSize - s.chunkOverlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// TokenSplitter windows over BPE token ids so chunk size bounds the token
// count rather than the character count.
type TokenSplitter struct {
	encoding     *tiktoken.Tiktoken
	chunkSize    int
	chunkOverlap int
}

// NewTokenSplitter builds a token splitter over the cl100k_base encoding.
func NewTokenSplitter(chunkSize, chunkOverlap int) (*TokenSplitter, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load token encoding: %w", err)
	}
	return &TokenSplitter{
		encoding:     encoding,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}, nil
}

func (s *TokenSplitter) SplitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	ids := s.encoding.Encode(text, nil, nil)
	step := s.chunkSize - s.chunkOverlap
	var chunks []string
	for start := 0; start < len(ids); start += step {
		end := start + s.chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		if chunk := strings.TrimSpace(s.encoding.Decode(ids[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(ids) {
			break
		}
	}
	return chunks
}
