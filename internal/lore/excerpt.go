package lore

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Chunk is a piece of lore with its section context.
type Chunk struct {
	Content     string
	Position    int
	HeadingPath string
}

// ChunkConfig defines chunking parameters.
type ChunkConfig struct {
	// MaxSize: larger sections split at paragraphs, then sentences
	MaxSize int
}

// DefaultChunkConfig returns the sizes used for prompts.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{MaxSize: 1000}
}

// Split splits lore into chunks along section boundaries, then paragraph and sentence boundaries.
func Split(lore string, config ChunkConfig) []Chunk {
	if strings.TrimSpace(lore) == "" {
		return nil
	}

	preamble, sections := parseSections(lore)
	if preamble != "" {
		sections = append([]Section{{Content: preamble}}, sections...)
	}
	return chunkBySections(sections, config)
}

// Excerpt returns at most budget bytes of lore for a prompt. Whole chunks are kept in order; when
// lore has to be cut, the chunks of every section get a share before any section gets a second one.
func Excerpt(lore string, budget int) string {
	lore = strings.TrimSpace(lore)
	if budget <= 0 || len(lore) <= budget {
		return lore
	}

	chunks := Split(lore, DefaultChunkConfig())
	keep := make([]bool, len(chunks))
	used := 0

	// First pass: the first chunk of each section. Second pass: everything else in order.
	for pass := 0; pass < 2; pass++ {
		seen := make(map[string]bool)
		for i, c := range chunks {
			first := !seen[c.HeadingPath]
			seen[c.HeadingPath] = true
			if keep[i] || (pass == 0 && !first) {
				continue
			}
			size := len(c.Content) + len(heading(c)) + 2
			if used+size > budget {
				continue
			}
			keep[i] = true
			used += size
		}
	}

	if used == 0 {
		return cut(lore, budget)
	}

	var b strings.Builder
	lastPath := ""
	for i, c := range chunks {
		if !keep[i] {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if c.HeadingPath != lastPath {
			if h := heading(c); h != "" {
				b.WriteString(h)
			}
			lastPath = c.HeadingPath
		}
		b.WriteString(c.Content)
	}
	return b.String()
}

// cut truncates s to at most n bytes without splitting a rune.
func cut(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func heading(c Chunk) string {
	if c.HeadingPath == "" {
		return ""
	}
	return c.HeadingPath + "\n"
}

// chunkBySections creates chunks from sections, skipping empty ones.
func chunkBySections(sections []Section, config ChunkConfig) []Chunk {
	var chunks []Chunk
	position := 0

	for _, section := range sections {
		content := strings.TrimSpace(section.Content)
		if content == "" {
			continue
		}

		if len(content) <= config.MaxSize {
			chunks = append(chunks, Chunk{Content: content, Position: position, HeadingPath: section.Path})
			position++
			continue
		}

		for _, p := range chunkByParagraphs(content, config) {
			chunks = append(chunks, Chunk{Content: p, Position: position, HeadingPath: section.Path})
			position++
		}
	}
	return chunks
}

// chunkByParagraphs splits content by paragraph boundaries.
func chunkByParagraphs(content string, config ChunkConfig) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+2+len(para) > config.MaxSize {
			flush()
		}

		// A paragraph longer than the max is split by sentences.
		if len(para) > config.MaxSize {
			chunks = append(chunks, chunkBySentences(para, config.MaxSize)...)
			continue
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// chunkBySentences groups sentences into chunks of at most size bytes where possible.
func chunkBySentences(text string, size int) []string {
	var chunks []string
	var current strings.Builder

	for _, sentence := range splitSentences(text) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+1+len(sentence) > size {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}

	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

// splitSentences splits text into sentences.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)

		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		// Initials like "J."
		if i > 1 && unicode.IsUpper(runes[i-1]) {
			continue
		}
		sentences = append(sentences, current.String())
		current.Reset()
	}

	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}
