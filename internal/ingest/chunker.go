package ingest

import (
	"regexp"
	"strings"
)

// Sentence boundary: terminal punctuation followed by whitespace. Common
// abbreviations ("Dr.", "e.g.") are tolerated as false splits; they only
// shorten sentences, never lose text.
var sentenceEnd = regexp.MustCompile(`(?s)(.*?[.!?])(?:\s+|$)`)

func splitSentences(text string) []string {
	var out []string
	rest := text
	for rest != "" {
		m := sentenceEnd.FindStringSubmatchIndex(rest)
		if m == nil {
			if s := strings.TrimSpace(rest); s != "" {
				out = append(out, s)
			}
			break
		}
		if s := strings.TrimSpace(rest[m[2]:m[3]]); s != "" {
			out = append(out, s)
		}
		rest = rest[m[1]:]
	}
	return out
}

// ChunkText splits text into pieces of at most chunkSize characters on
// sentence boundaries, with consecutive pieces sharing roughly overlap
// characters of trailing sentences. A single sentence longer than chunkSize
// becomes its own chunk rather than being cut mid-sentence.
func ChunkText(text string, chunkSize, overlap int) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}
	if chunkSize <= 0 {
		return []string{text}
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		size := 0
		j := i
		for j < len(sentences) {
			add := len(sentences[j])
			if size > 0 {
				add++ // joining space
			}
			if size+add > chunkSize && size > 0 {
				break
			}
			size += add
			j++
		}
		chunks = append(chunks, strings.Join(sentences[i:j], " "))
		if j >= len(sentences) {
			break
		}

		// Walk back from the end of this chunk until roughly overlap
		// characters of sentences are shared with the next one.
		next := j
		carried := 0
		for next > i+1 && carried+len(sentences[next-1]) <= overlap {
			carried += len(sentences[next-1]) + 1
			next--
		}
		i = next
	}
	return chunks
}
