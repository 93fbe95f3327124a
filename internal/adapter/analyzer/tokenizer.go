package analyzer

import "strings"

// MinTokenLen is the shortest run that counts as a token.
const MinTokenLen = 2

// Tokenizer splits text into lowercase terms made of ASCII letters, digits
// and the symbols + # . - so that "c++", "c#" and "node.js" survive intact.
type Tokenizer struct {
	minLen int
}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{minLen: MinTokenLen}
}

// Tokenize splits text into tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	text = strings.ToLower(text)
	tokens := make([]string, 0, len(text)/6)

	start := -1
	flush := func(end int) {
		if start >= 0 && end-start >= t.minLen {
			tokens = append(tokens, text[start:end])
		}
		start = -1
	}

	for i := 0; i < len(text); i++ {
		if isTokenByte(text[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))

	return tokens
}

// Bigrams joins each adjacent token pair with an underscore.
func Bigrams(tokens []string) []string {
	if len(tokens) < 2 {
		return nil
	}
	out := make([]string, 0, len(tokens)-1)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+"_"+tokens[i+1])
	}
	return out
}

// CountTokens returns an approximate token count for LLM budget estimation.
func (t *Tokenizer) CountTokens(text string) int {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	// Rough estimate: average word is about 1.3 tokens
	return int(float64(len(words)) * 1.3)
}

func isTokenByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '+', b == '#', b == '.', b == '-':
		return true
	}
	return false
}
