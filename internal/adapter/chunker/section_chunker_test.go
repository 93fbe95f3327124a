package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumerag/internal/domain"
)

func TestSectionChunker_OneChunkPerSection(t *testing.T) {
	c := NewSectionChunker(1000, 150)

	chunks := c.Segment("Skills\nGo, Rust\n\nExperience\nBuilt a scheduler.", "a.txt")

	require.Len(t, chunks, 2)
	assert.Equal(t, "a.txt:0000", chunks[0].ID)
	assert.Equal(t, "a.txt:0001", chunks[1].ID)
	assert.Equal(t, "Skills", chunks[0].Section)
	assert.Equal(t, "Go, Rust", chunks[0].Text)
	assert.Equal(t, "Experience", chunks[1].Section)
	assert.Equal(t, "Built a scheduler.", chunks[1].Text)
	for i, ch := range chunks {
		assert.Equal(t, "a.txt", ch.DocName)
		assert.Equal(t, i, ch.Sequence)
	}
}

func TestSectionChunker_Empty(t *testing.T) {
	c := NewSectionChunker(100, 10)

	assert.Empty(t, c.Segment("", "doc"))
	assert.Empty(t, c.Segment(" \n\t\r\n ", "doc"))
}

func TestSectionChunker_NoHeadersIsBody(t *testing.T) {
	c := NewSectionChunker(1000, 100)

	chunks := c.Segment("Jane Doe\nBackend developer\n\nLikes distributed systems.", "jane.txt")

	require.Len(t, chunks, 1)
	assert.Equal(t, domain.DefaultSection, chunks[0].Section)
	assert.Equal(t, "Jane Doe\nBackend developer\n\nLikes distributed systems.", chunks[0].Text)
}

func TestSectionChunker_HeaderMatching(t *testing.T) {
	c := NewSectionChunker(1000, 0)

	text := "Intro line\n  WORK   EXPERIENCE  \nAcme Corp\nSkills and hobbies\nmore"
	chunks := c.Segment(text, "d")

	require.Len(t, chunks, 2)
	assert.Equal(t, domain.DefaultSection, chunks[0].Section)
	assert.Equal(t, "Intro line", chunks[0].Text)
	// Header keywords inside a longer line do not start a section.
	assert.Equal(t, "WORK EXPERIENCE", chunks[1].Section)
	assert.Equal(t, "Acme Corp\nSkills and hobbies\nmore", chunks[1].Text)
}

func TestSectionChunker_PacksWithOverlap(t *testing.T) {
	c := NewSectionChunker(40, 10)

	paras := []string{
		"first paragraph is here.",
		"second paragraph text.",
		"third one closes it.",
	}
	chunks := c.Segment(strings.Join(paras, "\n\n"), "doc")

	require.GreaterOrEqual(t, len(chunks), 2)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Text)), 40, "chunk %q too long", ch.Text)
	}
	// The chunk after a boundary starts with the tail of the previous chunk.
	prev := chunks[0].Text
	tail := strings.TrimSpace(prev[len(prev)-10:])
	assert.True(t, strings.HasPrefix(chunks[1].Text, tail), "expected %q to start with %q", chunks[1].Text, tail)
}

func TestSectionChunker_HardSplitsLongParagraph(t *testing.T) {
	c := NewSectionChunker(10, 4)

	chunks := c.Segment("abcdefghijklmnopqrstuvwxyz", "doc")

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	assert.Equal(t, []string{"abcdefghij", "ghijklmnop", "mnopqrstuv", "stuvwxyz"}, texts)
}

func TestSectionChunker_HardSplitOverlapNotSmallerThanMax(t *testing.T) {
	c := NewSectionChunker(5, 9)

	chunks := c.Segment("abcdefghijkl", "doc")

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	assert.Equal(t, []string{"abcde", "fghij", "kl"}, texts)
}

func TestSectionChunker_SequenceSpansSections(t *testing.T) {
	c := NewSectionChunker(20, 0)

	text := "Summary\naaaa aaaa aaaa\n\nbbbb bbbb bbbb\n\nSkills\ncccc"
	chunks := c.Segment(text, "r.md")

	require.Len(t, chunks, 3)
	for i, ch := range chunks {
		assert.Equal(t, domain.ChunkID("r.md", i), ch.ID)
	}
	assert.Equal(t, "Summary", chunks[1].Section)
	assert.Equal(t, "Skills", chunks[2].Section)
}

func TestSectionChunker_ContainsOriginalContent(t *testing.T) {
	c := NewSectionChunker(60, 15)

	text := "Summary\r\nSeasoned   engineer\twith a\n\n\n\n\nfocus on reliability.\n\n" +
		"Experience\nAcme: built billing pipelines in Go.\n\nGlobex: ran Kubernetes clusters for 200 services.\n\n" +
		"Skills\nGo, Rust, Terraform, PostgreSQL, Kafka, gRPC, Prometheus, Grafana, Helm"
	chunks := c.Segment(text, "doc")

	var joined strings.Builder
	for _, ch := range chunks {
		joined.WriteString(ch.Text)
		joined.WriteString("\n")
	}
	all := joined.String()

	for _, line := range strings.Split(Normalize(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || IsSectionHeader(line) {
			continue
		}
		// Hard-split lines may straddle windows; every window-sized piece must survive.
		for start := 0; start < len(line); start += 30 {
			end := start + 30
			if end > len(line) {
				end = len(line)
			}
			assert.Contains(t, all, line[start:end])
		}
	}
}

func TestNormalize(t *testing.T) {
	in := "  a\t\t b\r\n\r\n\r\n\r\nc\rd  "
	assert.Equal(t, "a b\n\nc\nd", Normalize(in))
}

func TestNewSectionChunker_Defaults(t *testing.T) {
	c := NewSectionChunker(0, 0)
	assert.Equal(t, DefaultMaxChars, c.maxChars)
	assert.Equal(t, DefaultOverlapChars, c.overlapChars)
}
