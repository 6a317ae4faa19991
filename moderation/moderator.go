// Package moderation masks blacklisted words in participant replies.
package moderation

import (
	"debate-lab/errors"
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator finds blacklisted words with an Aho-Corasick automaton and masks them in place.
// Matching ignores case, punctuation, spacing and common leet substitutions.
type Moderator struct {
	log         *slog.Logger
	matcher     *goahocorasick.Machine
	replacement rune
}

// mapping ties every searchable rune back to its position in the original text.
type mapping struct {
	runes   []rune
	origIdx []int
}

func NewModerator(words []string, replacement rune, log *slog.Logger) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		if p := normalize([]rune(word)).runes; len(p) > 0 {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return nil, errors.ErrEmptyWords
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{log: log, matcher: m, replacement: replacement}, nil
}

// Sanitize returns the content with every blacklisted word masked.
func (m *Moderator) Sanitize(content string) string {
	masked, words := m.Censor(content)
	if len(words) > 0 {
		m.log.Debug("Reply moderated", "words", len(words))
	}
	return masked
}

// Censor masks matches rune by rune, spacing and punctuation inside a match included,
// and returns the matched words in order of appearance.
func (m *Moderator) Censor(original string) (string, []string) {
	origRunes := []rune(original)
	mp := normalize(origRunes)
	if len(mp.runes) == 0 {
		return original, nil
	}

	spans := m.matcher.MultiPatternSearch(mp.runes, false)
	if len(spans) == 0 {
		return original, nil
	}

	var words []string
	for _, span := range spans {
		start, end := span.Pos, span.Pos+len(span.Word)
		if start < 0 || end > len(mp.origIdx) {
			continue
		}
		for i := mp.origIdx[start]; i <= mp.origIdx[end-1]; i++ {
			origRunes[i] = m.replacement
		}
		words = append(words, string(span.Word))
	}
	return string(origRunes), words
}

func normalize(input []rune) mapping {
	mp := mapping{
		runes:   make([]rune, 0, len(input)),
		origIdx: make([]int, 0, len(input)),
	}
	for i, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		mp.runes = append(mp.runes, unicode.ToLower(clean))
		mp.origIdx = append(mp.origIdx, i)
	}
	return mp
}

// simplifyRune maps leet characters back to letters.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
