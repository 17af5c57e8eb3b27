// Package document implements the sentence/word content model shared by the
// Name Server and the Storage Server boundary contract: a file is an ordered
// sequence of sentences, each an ordered sequence of whitespace-delimited
// words.
package document

import "strings"

// MaxSentences is the maximum number of sentences addressable in a file
// (indices are 0-based, so valid indices are [0, MaxSentences)).
const MaxSentences = 1000

// MaxWords is the maximum number of words addressable in a single sentence.
const MaxWords = 100

// Document is a parsed file: an ordered list of sentences.
type Document struct {
	Sentences []Sentence
}

// Sentence is an ordered list of words.
type Sentence struct {
	Words []string
}

// Counts summarizes a document for FileEntry metadata (word/char counts).
type Counts struct {
	Words int
	Chars int
}

// isDelimiter reports whether r ends a sentence.
func isDelimiter(r byte) bool {
	return r == '.' || r == '!' || r == '?'
}

// Parse splits raw text into sentences and words.
//
// Sentence boundaries are `.`, `!`, or `?` followed by optional whitespace;
// this is the canonical split form. An abbreviation like "U.S." splits into
// extra sentences -- the split is taken at face value, with no attempt to
// detect abbreviations or otherwise preserve the author's original
// whitespace. Round-tripping Parse/Serialize is only guaranteed to be the
// identity for text that Serialize itself produced.
func Parse(text string) *Document {
	doc := &Document{}
	var cur strings.Builder

	flush := func() {
		trimmed := strings.TrimSpace(cur.String())
		cur.Reset()
		if trimmed == "" {
			return
		}
		words := strings.Fields(trimmed)
		doc.Sentences = append(doc.Sentences, Sentence{Words: words})
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		cur.WriteByte(c)
		if isDelimiter(c) {
			// consume trailing whitespace as part of the delimiter, not the
			// next sentence
			for i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\t' || text[i+1] == '\n' || text[i+1] == '\r') {
				i++
			}
			flush()
		}
	}
	flush()

	return doc
}

// Serialize renders the document back to text: sentences are joined with
// a single space, and each sentence's words are space-joined. The
// serializer always inserts a space between adjacent sentences, even if the
// original text had none. This is the canonical form: Parse(Serialize(d))
// reproduces d exactly for any d that Parse produced.
func Serialize(doc *Document) string {
	parts := make([]string, 0, len(doc.Sentences))
	for _, s := range doc.Sentences {
		parts = append(parts, strings.Join(s.Words, " "))
	}
	return strings.Join(parts, " ")
}

// CountSentence computes word/char counts for a single sentence.
func CountSentence(s Sentence) Counts {
	c := Counts{Words: len(s.Words)}
	for _, w := range s.Words {
		c.Chars += len(w)
	}
	return c
}

// Count computes word/char counts across the whole document.
func Count(doc *Document) Counts {
	var total Counts
	for _, s := range doc.Sentences {
		sc := CountSentence(s)
		total.Words += sc.Words
		total.Chars += sc.Chars
	}
	return total
}

// SetWord replaces the word at (sentenceIdx, wordIdx), growing the sentence
// if wordIdx lands exactly at its current length (append), or growing the
// document if sentenceIdx lands exactly at its current length (new
// sentence). Returns false if the index is out of range in a way that would
// leave a gap, or exceeds the documented bounds.
func (d *Document) SetWord(sentenceIdx, wordIdx int, word string) bool {
	if sentenceIdx < 0 || sentenceIdx >= MaxSentences || wordIdx < 0 || wordIdx >= MaxWords {
		return false
	}
	if sentenceIdx > len(d.Sentences) {
		return false
	}
	if sentenceIdx == len(d.Sentences) {
		d.Sentences = append(d.Sentences, Sentence{})
	}
	s := &d.Sentences[sentenceIdx]
	if wordIdx > len(s.Words) {
		return false
	}
	if wordIdx == len(s.Words) {
		s.Words = append(s.Words, word)
		return true
	}
	s.Words[wordIdx] = word
	return true
}

// SentenceInRange reports whether idx addresses an existing sentence.
func (d *Document) SentenceInRange(idx int) bool {
	return idx >= 0 && idx < len(d.Sentences)
}

// WordInRange reports whether idx addresses an existing word within
// sentence sentenceIdx. Assumes SentenceInRange(sentenceIdx).
func (d *Document) WordInRange(sentenceIdx, idx int) bool {
	return idx >= 0 && idx < len(d.Sentences[sentenceIdx].Words)
}
