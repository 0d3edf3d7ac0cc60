// Package chunker provides deterministic paragraph-aware text chunking.
//
// Text is split on blank lines into paragraphs, which are greedily packed
// into chunks of a character budget derived from an approximate token
// count. Paragraphs larger than the budget are sliced by a fixed-stride
// sliding window so adjacent slices share an overlap region.
package chunker

import (
	"regexp"
	"strings"
)

// DefaultMaxTokens is the default approximate token budget per chunk.
const DefaultMaxTokens = 800

// DefaultOverlapTokens is the default approximate token overlap between
// adjacent window slices of an oversized paragraph.
const DefaultOverlapTokens = 100

// charsPerToken is the approximation used to convert a token budget into
// a character budget.
const charsPerToken = 4

// minChunkChars is the floor for the character budget, so tiny token
// budgets still produce usable chunks.
const minChunkChars = 100

var paragraphSplit = regexp.MustCompile(`\r?\n\r?\n`)

// Chunker splits text into character-budgeted chunks.
type Chunker struct {
	maxTokens     int
	overlapTokens int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxTokens sets the approximate token budget per chunk.
func WithMaxTokens(n int) Option {
	return func(c *Chunker) {
		c.maxTokens = n
	}
}

// WithOverlapTokens sets the approximate token overlap between adjacent
// window slices.
func WithOverlapTokens(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlapTokens = n
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxTokens:     DefaultMaxTokens,
		overlapTokens: DefaultOverlapTokens,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Chunk splits text using the chunker's configured budgets.
func (c *Chunker) Chunk(text string) []string {
	return ChunkByApproxTokens(text, c.maxTokens, c.overlapTokens)
}

// ChunkByApproxTokens splits text into chunks of roughly maxTokens tokens,
// approximated as four characters per token.
//
// Paragraphs (separated by blank lines) are packed greedily: a paragraph
// joins the current chunk when it fits within the character budget,
// otherwise the chunk is flushed and a new one starts. A paragraph larger
// than the whole budget is sliced by a sliding window whose stride is the
// budget minus the overlap, so adjacent slices share overlapTokens worth
// of text. A non-positive maxTokens yields no chunks. The same input with
// the same budgets always yields the same chunks.
func ChunkByApproxTokens(text string, maxTokens, overlapTokens int) []string {
	if maxTokens <= 0 {
		return nil
	}

	maxChars := maxTokens * charsPerToken
	if maxChars < minChunkChars {
		maxChars = minChunkChars
	}

	overlapChars := overlapTokens * charsPerToken
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars > maxChars-1 {
		overlapChars = maxChars - 1
	}

	stride := maxChars - overlapChars
	if stride < 1 {
		stride = 1
	}

	paragraphs := splitParagraphs(text)

	chunks := make([]string, 0, len(text)/stride+2)
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimRight(current.String(), "\r\n"))
			current.Reset()
		}
	}

	for _, para := range paragraphs {
		p := strings.TrimSpace(para)
		if p == "" {
			continue
		}

		// Whole paragraph fits in the current chunk.
		if current.Len()+len(p)+1 <= maxChars {
			if current.Len() > 0 {
				current.WriteByte('\n')
			}
			current.WriteString(p)
			continue
		}

		flush()

		// Paragraph fits alone.
		if len(p) <= maxChars {
			current.WriteString(p)
			continue
		}

		// Slide a fixed-size window over the paragraph.
		start := 0
		for start < len(p) {
			n := maxChars
			if rem := len(p) - start; rem < n {
				n = rem
			}
			chunks = append(chunks, p[start:start+n])
			if start+n >= len(p) {
				break
			}
			start += stride
		}
	}

	flush()

	return chunks
}

// splitParagraphs splits text on blank lines, dropping whitespace-only
// paragraphs. Text with no blank lines is a single paragraph.
func splitParagraphs(text string) []string {
	parts := paragraphSplit.Split(text, -1)

	paragraphs := parts[:0]
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			paragraphs = append(paragraphs, part)
		}
	}

	if len(paragraphs) == 0 {
		return []string{text}
	}

	return paragraphs
}
