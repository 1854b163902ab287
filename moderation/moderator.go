// Package moderation censors forbidden patterns in posted content.
// Matching runs on a normalized view of the text (lowercased, leet-folded,
// punctuation stripped) while masking applies to the original runes.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	machine *goahocorasick.Machine
	mask    rune
}

// NewModerator builds the Aho-Corasick automaton over the normalized word
// list. An empty list yields a pass-through moderator.
func NewModerator(words []string, mask rune) (*Moderator, error) {
	if len(words) == 0 {
		return &Moderator{mask: mask}, nil
	}
	patterns := make([][]rune, 0, len(words))
	for _, w := range words {
		if norm, _ := normalize([]rune(w)); len(norm) > 0 {
			patterns = append(patterns, norm)
		}
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{machine: machine, mask: mask}, nil
}

// Censor masks every matched span, preserving length and spacing of the
// original text.
func (m *Moderator) Censor(text string) string {
	if m.machine == nil {
		return text
	}
	original := []rune(text)
	norm, origIdx := normalize(original)
	if len(norm) == 0 {
		return text
	}

	terms := m.machine.MultiPatternSearch(norm, false)
	for _, term := range terms {
		start := term.Pos
		end := start + len(term.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			original[i] = m.mask
		}
	}
	return string(original)
}

// normalize lowercases and leet-folds the runes, dropping punctuation and
// whitespace. origIdx maps each kept rune back to its original position.
func normalize(in []rune) (norm []rune, origIdx []int) {
	for i, r := range in {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		norm = append(norm, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	return norm, origIdx
}

func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
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
