package embedding

import (
	"strings"

	"github.com/blevesearch/segment"
)

// Tokenize splits text on unicode word boundaries. Words, numbers and punctuation
// are kept as tokens, whitespace is dropped.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	seg := segment.NewWordSegmenter(strings.NewReader(text))
	var tokens []string
	for seg.Segment() {
		tok := string(seg.Bytes())
		if strings.TrimSpace(tok) == "" {
			continue
		}
		tokens = append(tokens, tok)
	}
	if seg.Err() != nil {
		return strings.Fields(text)
	}
	return tokens
}
