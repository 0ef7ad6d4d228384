// Package tokens bounds prompt text to a token budget.
package tokens

import (
	"context"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/kurt/pkg/log"
)

const (
	defaultEncoding = "cl100k_base"
	// charsPerToken approximates English text when no encoding can be loaded.
	charsPerToken = 4
)

// Encoder is the subset of *tiktoken.Tiktoken used for truncation.
type Encoder interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

// Truncator keeps the tail of a text within a token budget. A zero budget disables it.
type Truncator struct {
	budget int
	model  string

	once    sync.Once
	encoder Encoder
	load    func(model string) (Encoder, error)
}

func NewTruncator(model string, budget int) *Truncator {
	return &Truncator{
		budget: budget,
		model:  model,
		load:   loadEncoding,
	}
}

// NewTruncatorWithEncoder skips encoding lookup; a nil encoder selects the character estimate.
func NewTruncatorWithEncoder(enc Encoder, budget int) *Truncator {
	t := &Truncator{budget: budget}
	t.once.Do(func() { t.encoder = enc })
	return t
}

// Tail returns the last budget tokens of text. Recent conversation matters most to the oracle.
func (t *Truncator) Tail(ctx context.Context, text string) string {
	if t == nil || t.budget <= 0 || text == "" {
		return text
	}

	t.once.Do(func() {
		enc, err := t.load(t.model)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("model", t.model).Msg("tokenizer unavailable, using character estimate")
			return
		}
		t.encoder = enc
	})

	if t.encoder == nil {
		limit := t.budget * charsPerToken
		runes := []rune(text)
		if len(runes) <= limit {
			return text
		}
		return string(runes[len(runes)-limit:])
	}

	toks := t.encoder.Encode(text, nil, nil)
	if len(toks) <= t.budget {
		return text
	}
	return t.encoder.Decode(toks[len(toks)-t.budget:])
}

func loadEncoding(model string) (Encoder, error) {
	if model != "" {
		if enc, err := tiktoken.EncodingForModel(model); err == nil {
			return enc, nil
		}
	}
	return tiktoken.GetEncoding(defaultEncoding)
}
