package similarity

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const minTopicLength = 4

var stopWords = map[string]struct{}{
	"this":   {},
	"that":   {},
	"have":   {},
	"will":   {},
	"would":  {},
	"could":  {},
	"should": {},
	"with":   {},
}

// TopicSet is a set of lowercase significant terms.
type TopicSet map[string]struct{}

// ExtractTopics lowercases text, splits it on whitespace and ,.!? runs, and keeps
// tokens longer than three characters that are not stop words.
func ExtractTopics(text string) TopicSet {
	normalized := strings.TrimSpace(strings.ToLower(text))
	topics := make(TopicSet)

	for _, word := range strings.FieldsFunc(normalized, isSeparator) {
		if utf8.RuneCountInString(word) < minTopicLength {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		topics[word] = struct{}{}
	}
	return topics
}

func isSeparator(r rune) bool {
	switch r {
	case ',', '.', '!', '?':
		return true
	}
	return unicode.IsSpace(r)
}

func (s TopicSet) Has(topic string) bool {
	_, ok := s[topic]
	return ok
}

// Sorted returns the topics in lexical order.
func (s TopicSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Overlap is |a ∩ b| / max(|a|, |b|), or 0 when both sets are empty.
func Overlap(a, b TopicSet) float64 {
	denom := max(len(a), len(b))
	if denom == 0 {
		return 0
	}

	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	matching := 0
	for t := range small {
		if large.Has(t) {
			matching++
		}
	}
	return float64(matching) / float64(denom)
}
