// Package tokencount estimates token usage for generation-service prompts.
//
// It uses tiktoken-go with the cl100k_base encoding. Gemini does not publish
// its tokenizer, so counts are estimates used for logging and for sizing
// batches against the output ceiling, not for billing.
package tokencount

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

var (
	once sync.Once
	enc  *tiktoken.Tiktoken
)

// Estimate returns the approximate token count for text. Falls back to a
// bytes/4 heuristic if the encoding cannot be loaded (e.g. offline first run).
func Estimate(text string) int {
	once.Do(func() {
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			enc = e
		}
	})
	if enc == nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
