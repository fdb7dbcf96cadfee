package textsplit

import (
	"strings"
	"unicode/utf8"
)

// separators order the boundary ladder: paragraph, line, sentence, word.
// An empty separator means a hard cut at the size limit.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter breaks long text into size-bounded pieces at natural boundaries,
// carrying an overlap of whole boundary pieces between consecutive chunks.
// Separators stay attached to the preceding piece, so the concatenation of
// all pieces before merging reproduces the input exactly.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize - 1
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Split returns the text as ordered sub-chunks. Each sub-chunk is at most
// chunkSize runes; each sub-chunk after the first starts with the trailing
// pieces of its predecessor up to chunkOverlap runes.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= s.chunkSize {
		return []string{text}
	}
	atoms := s.decompose(text, 0)
	return s.merge(atoms)
}

// decompose splits text into pieces no longer than chunkSize, trying each
// separator in turn and hard-cutting as the last resort.
func (s *Splitter) decompose(text string, sepIdx int) []string {
	if utf8.RuneCountInString(text) <= s.chunkSize {
		return []string{text}
	}
	for ; sepIdx < len(separators); sepIdx++ {
		sep := separators[sepIdx]
		if sep == "" {
			return s.hardCut(text)
		}
		pieces := strings.SplitAfter(text, sep)
		if len(pieces) == 1 {
			continue
		}
		var atoms []string
		for _, piece := range pieces {
			if piece == "" {
				continue
			}
			if utf8.RuneCountInString(piece) <= s.chunkSize {
				atoms = append(atoms, piece)
			} else {
				atoms = append(atoms, s.decompose(piece, sepIdx+1)...)
			}
		}
		return atoms
	}
	return s.hardCut(text)
}

// hardCut slices text into consecutive runs of at most chunkSize runes.
func (s *Splitter) hardCut(text string) []string {
	var atoms []string
	runes := []rune(text)
	for start := 0; start < len(runes); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		atoms = append(atoms, string(runes[start:end]))
	}
	return atoms
}

// merge packs pieces into chunks up to chunkSize runes. When a chunk is
// emitted, trailing pieces totaling at most chunkOverlap runes carry over to
// start the next chunk.
func (s *Splitter) merge(atoms []string) []string {
	var chunks []string
	var current []string
	currentLen := 0

	for _, atom := range atoms {
		atomLen := utf8.RuneCountInString(atom)
		if currentLen+atomLen > s.chunkSize && currentLen > 0 {
			chunks = append(chunks, strings.Join(current, ""))
			for currentLen > s.chunkOverlap || (currentLen+atomLen > s.chunkSize && currentLen > 0) {
				currentLen -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, atom)
		currentLen += atomLen
	}
	if currentLen > 0 {
		chunks = append(chunks, strings.Join(current, ""))
	}
	return chunks
}
