package chunker

import (
	"regexp"
	"strings"

	"resumerag/internal/domain"
)

const (
	DefaultMaxChars     = 1200
	DefaultOverlapChars = 150
)

// sectionHeaders is the vocabulary of resume headers that start a new section
// when they make up a whole line.
var sectionHeaders = headerSet(
	"summary", "experience", "work experience", "projects", "skills", "education",
	"certifications", "certificates", "publications", "achievements", "languages", "interests",
)

func headerSet(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

var (
	horizontalSpace = regexp.MustCompile(`[ \t]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// SectionChunker packs paragraphs of each resume section into chunks of at
// most maxChars runes, carrying overlapChars runes of context between
// consecutive chunks.
type SectionChunker struct {
	maxChars     int
	overlapChars int
}

func NewSectionChunker(maxChars, overlapChars int) *SectionChunker {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
		if overlapChars <= 0 {
			overlapChars = DefaultOverlapChars
		}
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	return &SectionChunker{
		maxChars:     maxChars,
		overlapChars: overlapChars,
	}
}

type section struct {
	title string
	body  string
}

// Segment splits text into ordered chunks whose ids are scoped to docName.
func (c *SectionChunker) Segment(text, docName string) []domain.Chunk {
	text = Normalize(text)
	if text == "" {
		return nil
	}

	sections := splitSections(text)
	if len(sections) == 0 {
		sections = []section{{title: domain.DefaultSection, body: text}}
	}

	var chunks []domain.Chunk
	emit := func(title, body string) {
		seq := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:       domain.ChunkID(docName, seq),
			Text:     body,
			DocName:  docName,
			Section:  title,
			Sequence: seq,
		})
	}

	for _, sec := range sections {
		var buf []rune
		for _, p := range paragraphs(sec.body) {
			para := []rune(p)

			if len(buf) == 0 {
				if len(para) <= c.maxChars {
					buf = para
					continue
				}
				for _, piece := range c.hardSplit(para) {
					emit(sec.title, piece)
				}
				continue
			}

			candidate := joinParagraphs(buf, para)
			if len(candidate) <= c.maxChars {
				buf = candidate
				continue
			}

			emit(sec.title, string(buf))
			if len(para) > c.maxChars {
				for _, piece := range c.hardSplit(para) {
					emit(sec.title, piece)
				}
				buf = nil
				continue
			}
			buf = c.seed(buf, para)
		}
		if len(buf) > 0 {
			emit(sec.title, string(buf))
		}
	}

	return chunks
}

// seed starts the next buffer with the tail of the emitted chunk, shortened
// as needed so the buffer stays within maxChars.
func (c *SectionChunker) seed(prev, para []rune) []rune {
	tailLen := c.overlapChars
	if tailLen > len(prev) {
		tailLen = len(prev)
	}
	if room := c.maxChars - len(para) - 2; tailLen > room {
		tailLen = room
	}
	if tailLen <= 0 {
		return para
	}
	tail := []rune(strings.TrimSpace(string(prev[len(prev)-tailLen:])))
	if len(tail) == 0 {
		return para
	}
	return joinParagraphs(tail, para)
}

func (c *SectionChunker) hardSplit(para []rune) []string {
	step := c.maxChars - c.overlapChars
	if step <= 0 {
		step = c.maxChars
	}

	var pieces []string
	for start := 0; start < len(para); start += step {
		end := start + c.maxChars
		if end > len(para) {
			end = len(para)
		}
		pieces = append(pieces, string(para[start:end]))
		if end == len(para) {
			break
		}
	}
	return pieces
}

func joinParagraphs(a, b []rune) []rune {
	out := make([]rune, 0, len(a)+2+len(b))
	out = append(out, a...)
	out = append(out, '\n', '\n')
	return append(out, b...)
}

// Normalize unifies line endings, collapses horizontal whitespace and runs of
// blank lines, and trims the result.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// IsSectionHeader reports whether line is a recognised section header.
func IsSectionHeader(line string) bool {
	_, ok := sectionHeaders[strings.ToLower(strings.Join(strings.Fields(line), " "))]
	return ok
}

func splitSections(text string) []section {
	var (
		sections []section
		title    = domain.DefaultSection
		current  []string
	)

	flush := func() {
		body := strings.TrimSpace(strings.Join(current, "\n"))
		if body != "" {
			sections = append(sections, section{title: title, body: body})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && IsSectionHeader(line) {
			flush()
			title = line
			current = nil
			continue
		}
		current = append(current, line)
	}
	flush()

	return sections
}

func paragraphs(body string) []string {
	parts := strings.Split(body, "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
