package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultTargetWords = 300
	DefaultOverlapHint = 50

	// sentences this short (in runes, after trimming) are dropped as noise
	minSentenceLen = 10
)

// SentenceChunker packs sentences into word-bounded chunks. Consecutive
// chunks share exactly one sentence: the last sentence of a chunk is
// repeated as the first sentence of the next.
type SentenceChunker struct {
	targetWords int
	overlapHint int
}

func NewSentenceChunker(targetWords, overlapHint int) *SentenceChunker {
	if targetWords <= 0 {
		targetWords = DefaultTargetWords
	}
	if overlapHint < 0 {
		overlapHint = DefaultOverlapHint
	}
	return &SentenceChunker{
		targetWords: targetWords,
		overlapHint: overlapHint,
	}
}

func (c *SentenceChunker) TargetWords() int { return c.targetWords }

// OverlapHint is informational; the carried overlap is always one sentence.
func (c *SentenceChunker) OverlapHint() int { return c.overlapHint }

func (c *SentenceChunker) Chunk(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return []string{trimmed}
	}

	var chunks []string
	var current []string
	currentWords := 0

	for _, sentence := range sentences {
		words := WordCount(sentence)

		if currentWords+words > c.targetWords && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))

			last := current[len(current)-1]
			current = []string{last}
			currentWords = WordCount(last)
		}

		current = append(current, sentence)
		currentWords += words
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	if len(chunks) == 0 {
		return []string{trimmed}
	}
	return chunks
}

// SplitSentences breaks text after '.', '!' or '?' followed by whitespace.
// Sentences of ten runes or fewer are discarded.
func SplitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var sentences []string
	keep := func(s string) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > minSentenceLen {
			sentences = append(sentences, s)
		}
	}

	start := 0
	var prev rune
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) && isTerminal(prev) {
			keep(text[start:i])
			// consume the whole whitespace run
			j := i
			for j < len(text) {
				r2, s2 := utf8.DecodeRuneInString(text[j:])
				if !unicode.IsSpace(r2) {
					break
				}
				j += s2
			}
			start = j
			prev = ' '
			i = j
			continue
		}
		prev = r
		i += size
	}
	keep(text[start:])

	return sentences
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
